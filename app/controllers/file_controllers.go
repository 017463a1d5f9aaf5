package controllers

import (
	"fmt"
	"net/http"
	"time"

	"drivebox/app/resources"
	"drivebox/app/services"
	"drivebox/pkg/ctx"
	"drivebox/pkg/middleware"
	"drivebox/pkg/resource"
)

// multipartMemory caps how much of an upload is buffered in memory before
// spilling to a temp file. The upload size limit itself is policy, enforced
// by the service.
const multipartMemory = 32 << 20

type FileController struct {
	service *services.FileService
}

func NewFileController(service *services.FileService) *FileController {
	return &FileController{service: service}
}

// Upload accepts one multipart file under the "file" field. An optional
// "name" field overrides the client filename and "folderId" places it
// ("root" or empty for the top level).
func (fc *FileController) Upload(c *ctx.Context) {
	file, header, err := c.FormFile("file", multipartMemory)
	if err != nil {
		c.Error(400, "Missing file field")
		return
	}
	defer file.Close()

	folderID, err := parseScope(c.PostForm("folderId"))
	if err != nil {
		c.Error(400, "Invalid folderId")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}

	userID := middleware.UserIDFromCtx(c.Context())
	stored, err := fc.service.Upload(c.Context(), userID, folderID, services.Upload{
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(resource.New(resources.FileResource{}, stored))
}

func (fc *FileController) Show(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	f, err := fc.service.Show(c.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.FileResource{}, f))
}

// Download hands the bytes out as an attachment. Disks that can presign
// answer with a redirect to a short-lived URL; the rest stream through.
func (fc *FileController) Download(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	f, handle, err := fc.service.Download(c.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if handle.URL != "" {
		c.Redirect(http.StatusFound, handle.URL)
		return
	}
	defer handle.Body.Close()
	c.Stream(http.StatusOK, f.ContentType,
		fmt.Sprintf("attachment; filename=%q", f.Name), f.Size, handle.Body)
}

// Preview streams the bytes inline so browsers render instead of download.
func (fc *FileController) Preview(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	f, body, err := fc.service.Preview(c.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()
	c.Stream(http.StatusOK, f.ContentType,
		fmt.Sprintf("inline; filename=%q", f.Name), f.Size, body)
}

type shareRequest struct {
	// TTLMinutes is optional; the service clamps it to its allowed range.
	TTLMinutes int `json:"ttlMinutes"`
}

// CreateLink mints a share token for a file and returns the public URL that
// redeems it.
func (fc *FileController) CreateLink(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}
	var body shareRequest
	if !c.BindJSON(&body) {
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	token, expires, err := fc.service.ShareLink(c.Context(), userID, id,
		time.Duration(body.TTLMinutes)*time.Minute)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(map[string]interface{}{
		"url":       "/s/" + token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

// Shared redeems a share token. No auth: the token is the credential.
func (fc *FileController) Shared(c *ctx.Context) {
	f, body, err := fc.service.OpenShared(c.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()
	c.Stream(http.StatusOK, f.ContentType,
		fmt.Sprintf("attachment; filename=%q", f.Name), f.Size, body)
}

func (fc *FileController) Rename(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}
	var body renameRequest
	if !c.BindJSON(&body) {
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	f, err := fc.service.Rename(c.Context(), userID, id, body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.FileResource{}, f))
}

type moveFileRequest struct {
	FolderID string `json:"folderId"`
}

func (fc *FileController) Move(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}
	var body moveFileRequest
	if !c.BindJSON(&body) {
		return
	}
	folderID, err := parseScope(body.FolderID)
	if err != nil {
		c.Error(400, "Invalid folderId")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	f, err := fc.service.Move(c.Context(), userID, id, folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(resource.New(resources.FileResource{}, f))
}

func (fc *FileController) Destroy(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Error(400, "Invalid file id")
		return
	}

	userID := middleware.UserIDFromCtx(c.Context())
	if _, err := fc.service.Delete(c.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Message("File deleted")
}
