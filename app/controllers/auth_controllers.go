package controllers

import (
	"drivebox/app/resources"
	"drivebox/app/services"
	"drivebox/pkg/ctx"
	"drivebox/pkg/middleware"
	"drivebox/pkg/resource"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (ac *AuthController) Register(c *ctx.Context) {
	var body registerRequest
	if !c.BindJSON(&body) {
		return
	}

	user, pair, err := ac.service.Register(c.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Created(map[string]any{
		"user":   resource.New(resources.UserResource{}, user),
		"tokens": pair,
	})
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *ctx.Context) {
	var body loginRequest
	if !c.BindJSON(&body) {
		return
	}

	user, pair, err := ac.service.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Success(map[string]any{
		"user":   resource.New(resources.UserResource{}, user),
		"tokens": pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (ac *AuthController) Refresh(c *ctx.Context) {
	var body refreshRequest
	if !c.BindJSON(&body) {
		return
	}

	pair, err := ac.service.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(map[string]any{"tokens": pair})
}

func (ac *AuthController) Logout(c *ctx.Context) {
	claims, ok := middleware.ClaimsFromCtx(c.Context())
	if !ok {
		c.Unauthorized()
		return
	}
	ac.service.Logout(claims)
	c.Message("Logged out")
}

func (ac *AuthController) Profile(c *ctx.Context) {
	userID := middleware.UserIDFromCtx(c.Context())
	user, err := ac.service.Profile(c.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.UserResource{}, user))
}
