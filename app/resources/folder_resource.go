package resources

import (
	"drivebox/app/models"
	"drivebox/app/services"
	"drivebox/pkg/resource"
)

// FolderResource is the public shape of a folder. When Counts is set the
// listing's per-child rollups ride along.
type FolderResource struct {
	resource.Base
	Counts map[uint]services.ChildCount
}

func (r FolderResource) ToArray(v interface{}) resource.Map {
	f := v.(models.Folder)
	m := resource.Map{
		"id":           f.ID,
		"type":         "folder",
		"name":         f.Name,
		"parentId":     f.ParentID,
		"createdAt":    f.CreatedAt,
		"modifiedTime": f.UpdatedAt,
	}
	if r.Counts != nil {
		c := r.Counts[f.ID]
		m["childCounts"] = resource.Map{"folders": c.Folders, "files": c.Files}
	}
	return m
}
