package resources

import (
	"drivebox/app/models"
	"drivebox/pkg/resource"
)

// FileResource is the public shape of a file. The stored object key stays
// server-side; clients address content through the download endpoints.
type FileResource struct{ resource.Base }

func (FileResource) ToArray(v interface{}) resource.Map {
	f := v.(models.File)
	return resource.Map{
		"id":           f.ID,
		"type":         "file",
		"name":         f.Name,
		"folderId":     f.FolderID,
		"size":         f.Size,
		"contentType":  f.ContentType,
		"category":     f.Category,
		"createdAt":    f.CreatedAt,
		"modifiedTime": f.UpdatedAt,
	}
}
