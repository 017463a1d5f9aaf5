package services

import (
	"strings"

	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/pkg/collection"
)

// Sort fields accepted by the list endpoints.
const (
	SortByName     = "name"
	SortByModified = "modifiedTime"
	SortBySize     = "size"
)

// ListParams is the parsed sort selection for one listing request.
type ListParams struct {
	Sort string
	Desc bool
}

// ParseListParams validates the raw query values. Empty strings mean the
// defaults: name, ascending.
func ParseListParams(sort, order string) (ListParams, error) {
	p := ListParams{Sort: SortByName}

	switch sort {
	case "", SortByName:
	case SortByModified, "updatedAt":
		p.Sort = SortByModified
	case SortBySize:
		p.Sort = SortBySize
	default:
		return p, exceptions.Validation("Unknown sort field %q", sort)
	}

	switch strings.ToLower(order) {
	case "", "asc":
	case "desc":
		p.Desc = true
	default:
		return p, exceptions.Validation("Sort order must be asc or desc")
	}
	return p, nil
}

// sortFolders orders folders in place. Folders have no size, so that field
// falls back to name order. Ties break on natural name order either way.
func sortFolders(folders []models.Folder, p ListParams) {
	less := func(a, b models.Folder) bool {
		if p.Sort == SortByModified && !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return collection.NaturalLess(a.Name, b.Name)
	}
	if p.Desc {
		collection.SortBy(folders, func(a, b models.Folder) bool { return less(b, a) })
		return
	}
	collection.SortBy(folders, less)
}

// sortFiles orders files in place, natural name order breaking ties.
func sortFiles(files []models.File, p ListParams) {
	less := func(a, b models.File) bool {
		switch p.Sort {
		case SortByModified:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		case SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		}
		return collection.NaturalLess(a.Name, b.Name)
	}
	if p.Desc {
		collection.SortBy(files, func(a, b models.File) bool { return less(b, a) })
		return
	}
	collection.SortBy(files, less)
}
