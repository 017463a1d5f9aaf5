package controllers

import (
	"strconv"

	"drivebox/app/resources"
	"drivebox/app/services"
	"drivebox/pkg/ctx"
	"drivebox/pkg/resource"
)

type AdminController struct {
	service *services.AdminService
}

func NewAdminController(service *services.AdminService) *AdminController {
	return &AdminController{service: service}
}

// Users lists accounts with their live usage, paginated.
func (ac *AdminController) Users(c *ctx.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))

	overviews, pagination, err := ac.service.ListUsers(c.Context(), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	resource.CollectionOf(resources.AdminUserResource{}, overviews).
		WithPagination(pagination).
		Respond(c.W)
}

// Sweep runs one blob reconciliation pass and reports removals.
func (ac *AdminController) Sweep(c *ctx.Context) {
	removed, err := ac.service.RunSweep(c.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(map[string]any{"removed": removed})
}
