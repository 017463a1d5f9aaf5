package controllers

import (
	"drivebox/app/resources"
	"drivebox/app/services"
	"drivebox/pkg/ctx"
	"drivebox/pkg/middleware"
	"drivebox/pkg/resource"
)

type FolderController struct {
	service *services.FolderService
}

func NewFolderController(service *services.FolderService) *FolderController {
	return &FolderController{service: service}
}

// Index lists one folder's live contents. ?parentId=root (the default)
// lists the top level; sort and order select the ordering.
func (fc *FolderController) Index(c *ctx.Context) {
	parentID, err := parseScope(c.DefaultQuery("parentId", "root"))
	if err != nil {
		c.Error(400, "Invalid parentId")
		return
	}
	params, err := services.ParseListParams(c.Query("sort"), c.Query("order"))
	if err != nil {
		respondError(c, err)
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	listing, err := fc.service.ListChildren(c.Context(), userID, parentID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Success(map[string]any{
		"folders": resource.CollectionOf(resources.FolderResource{Counts: listing.ChildCounts}, listing.Folders),
		"files":   resource.CollectionOf(resources.FileResource{}, listing.Files),
	})
}

type createFolderRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	ParentID string `json:"parentId"`
}

func (fc *FolderController) Store(c *ctx.Context) {
	var body createFolderRequest
	if !c.BindJSON(&body) {
		return
	}
	parentID, err := parseScope(body.ParentID)
	if err != nil {
		c.Error(400, "Invalid parentId")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	folder, err := fc.service.Create(c.Context(), userID, parentID, body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(resource.New(resources.FolderResource{}, folder))
}

type renameRequest struct {
	Name string `json:"name" validate:"required"`
}

func (fc *FolderController) Rename(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid folder id")
		return
	}
	var body renameRequest
	if !c.BindJSON(&body) {
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	folder, err := fc.service.Rename(c.Context(), userID, id, body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.FolderResource{}, folder))
}

type moveRequest struct {
	ParentID string `json:"parentId"`
}

func (fc *FolderController) Move(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid folder id")
		return
	}
	var body moveRequest
	if !c.BindJSON(&body) {
		return
	}
	parentID, err := parseScope(body.ParentID)
	if err != nil {
		c.Error(400, "Invalid parentId")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	folder, err := fc.service.Move(c.Context(), userID, id, parentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.FolderResource{}, folder))
}

// Destroy marks the folder and its subtree deleted. The response carries
// how many rows this call newly marked, so a retried cascade reports only
// its own work.
func (fc *FolderController) Destroy(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid folder id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	folders, files, err := fc.service.Delete(c.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(map[string]any{"folders": folders, "files": files})
}

// Path returns the breadcrumb chain, root-level ancestor first.
func (fc *FolderController) Path(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid folder id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	chain, err := fc.service.Breadcrumb(c.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.CollectionOf(resources.FolderResource{}, chain))
}
