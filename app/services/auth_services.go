package services

import (
	"context"
	"time"

	"drivebox/app/events"
	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/pkg/auth"
	"drivebox/pkg/cache"
	"drivebox/pkg/event"
	"drivebox/pkg/logger"
	"drivebox/pkg/middleware"
)

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// TokenPair is what register, login and refresh hand back.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, TokenPair, error) {
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	if taken {
		return models.User{}, TokenPair{}, exceptions.Conflict("Email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	user := models.User{Name: name, Email: email, Password: hash, Role: models.RoleUser}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	event.FireAsync(events.UserRegistered, events.UserPayload{
		UserID: user.ID, Name: user.Name, Email: user.Email,
	})
	return user, pair, nil
}

// Login verifies the credentials. Unknown email and wrong password come
// back as the same Unauthorized, so the endpoint does not leak which
// addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if exceptions.KindOf(err) == exceptions.KindNotFound {
			return models.User{}, TokenPair{}, exceptions.Unauthorized("Invalid credentials")
		}
		return models.User{}, TokenPair{}, err
	}
	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, TokenPair{}, exceptions.Unauthorized("Invalid credentials")
	}

	pair, err := s.issuePair(user)
	return user, pair, err
}

// Refresh rotates the pair. The used refresh token is revoked afterwards,
// so a leaked one can be replayed at most until its owner refreshes.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := auth.ValidateTokenOfKind(refreshToken, auth.KindRefresh)
	if err != nil {
		return TokenPair{}, exceptions.Unauthorized("Invalid refresh token")
	}
	if claims.ID != "" && cache.Has(middleware.DenylistKey(claims.ID)) {
		return TokenPair{}, exceptions.Unauthorized("Refresh token revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if exceptions.KindOf(err) == exceptions.KindNotFound {
			return TokenPair{}, exceptions.Unauthorized("Account no longer exists")
		}
		return TokenPair{}, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, err
	}
	s.revoke(claims)
	return pair, nil
}

// Logout revokes the presented access token for its remaining lifetime.
func (s *AuthService) Logout(claims *auth.Claims) {
	s.revoke(claims)
}

// Profile returns the account behind a verified token.
func (s *AuthService) Profile(ctx context.Context, userID uint) (models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) issuePair(user models.User) (TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := auth.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) revoke(claims *auth.Claims) {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := cache.Set(middleware.DenylistKey(claims.ID), true, ttl); err != nil {
		logger.Warn("auth: token revocation not stored", "error", err)
	}
}
