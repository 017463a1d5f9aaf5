package services

import (
	"context"

	"drivebox/app/events"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/pkg/collection"
	"drivebox/pkg/event"
	"drivebox/pkg/metrics"
)

// FolderService owns the tree operations. Placement rules live in the
// repositories; this layer adds name validation, sorting, rollup counts,
// events and metrics.
type FolderService struct {
	folders *repositories.FolderRepository
	files   *repositories.FileRepository
}

func NewFolderService(folders *repositories.FolderRepository, files *repositories.FileRepository) *FolderService {
	return &FolderService{folders: folders, files: files}
}

// ChildCount is the live rollup shown on a folder tile.
type ChildCount struct {
	Folders int64 `json:"folders"`
	Files   int64 `json:"files"`
}

// Listing is one folder's visible contents, sorted, plus per-child rollups.
type Listing struct {
	Folders     []models.Folder
	Files       []models.File
	ChildCounts map[uint]ChildCount
}

// ListChildren returns the live contents of the folder, or of the root
// when parentID is nil. Listing a deleted or foreign folder is NotFound.
func (s *FolderService) ListChildren(ctx context.Context, userID uint, parentID *uint, p ListParams) (Listing, error) {
	if parentID != nil {
		if _, err := s.folders.FindLive(ctx, userID, *parentID); err != nil {
			return Listing{}, err
		}
	}

	scope := repositories.Scope{UserID: userID, ParentID: parentID}
	folders, err := s.folders.ListChildren(ctx, scope)
	if err != nil {
		return Listing{}, err
	}
	files, err := s.files.ListChildren(ctx, scope)
	if err != nil {
		return Listing{}, err
	}

	sortFolders(folders, p)
	sortFiles(files, p)

	ids := collection.Map(folders, func(f models.Folder) uint { return f.ID })
	folderCounts, err := s.folders.CountByParent(ctx, userID, ids)
	if err != nil {
		return Listing{}, err
	}
	fileCounts, err := s.files.CountByFolder(ctx, userID, ids)
	if err != nil {
		return Listing{}, err
	}

	counts := make(map[uint]ChildCount, len(ids))
	for _, id := range ids {
		counts[id] = ChildCount{Folders: folderCounts[id], Files: fileCounts[id]}
	}
	return Listing{Folders: folders, Files: files, ChildCounts: counts}, nil
}

// Show returns one live folder.
func (s *FolderService) Show(ctx context.Context, userID, id uint) (models.Folder, error) {
	return s.folders.FindLive(ctx, userID, id)
}

// Create adds a folder under parentID, nil meaning the root.
func (s *FolderService) Create(ctx context.Context, userID uint, parentID *uint, name string) (models.Folder, error) {
	if err := ValidateFolderName(name); err != nil {
		return models.Folder{}, err
	}

	folder := models.Folder{UserID: userID, ParentID: parentID, Name: name}
	if err := s.folders.Create(ctx, &folder); err != nil {
		return models.Folder{}, err
	}

	event.FireAsync(events.FolderCreated, events.FolderPayload{
		UserID: userID, FolderID: folder.ID, Name: folder.Name, ParentID: folder.ParentID,
	})
	return folder, nil
}

// Rename validates the new name and applies it.
func (s *FolderService) Rename(ctx context.Context, userID, id uint, name string) (models.Folder, error) {
	if err := ValidateFolderName(name); err != nil {
		return models.Folder{}, err
	}
	return s.folders.Rename(ctx, userID, id, name)
}

// Move reparents the folder, nil meaning the root.
func (s *FolderService) Move(ctx context.Context, userID, id uint, parentID *uint) (models.Folder, error) {
	return s.folders.Move(ctx, userID, id, parentID)
}

// Delete marks the folder and its whole subtree deleted and reports the
// newly marked counts. Safe to retry after a partial failure.
func (s *FolderService) Delete(ctx context.Context, userID, id uint) (folders, files int64, err error) {
	folders, files, err = s.folders.DeleteCascade(ctx, userID, id)
	if err != nil {
		return 0, 0, err
	}

	metrics.CascadeNodes.Observe(float64(folders + files))
	event.FireAsync(events.FolderDeleted, events.CascadePayload{
		UserID: userID, FolderID: id, Folders: folders, Files: files,
	})
	return folders, files, nil
}

// Breadcrumb returns the live ancestor chain, root-level first.
func (s *FolderService) Breadcrumb(ctx context.Context, userID, id uint) ([]models.Folder, error) {
	return s.folders.Path(ctx, userID, id)
}
