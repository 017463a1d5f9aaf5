package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"drivebox/app/exceptions"
	"drivebox/app/models"
)

// FolderRepository persists the folder tree. Write methods run their
// uniqueness and parent checks inside the write transaction; the partial
// unique index on live sibling names (sqlite/postgres) backs the check
// under concurrent commits.
type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// ListChildren returns the live folders directly inside the scope.
func (r *FolderRepository) ListChildren(ctx context.Context, s Scope) ([]models.Folder, error) {
	var folders []models.Folder
	err := liveFolders(r.db.WithContext(ctx), s).Find(&folders).Error
	return folders, err
}

// FindLive returns the folder when it exists, is owned by userID and is
// not deleted. Missing, deleted and foreign folders are one NotFound.
func (r *FolderRepository) FindLive(ctx context.Context, userID, id uint) (models.Folder, error) {
	var f models.Folder
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return f, exceptions.NotFound("Folder not found")
	}
	return f, err
}

// Create inserts a folder after checking its parent is live and its name
// is free among live siblings (case-insensitive).
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFolderLive(tx, folder.UserID, folder.ParentID); err != nil {
			return err
		}
		s := Scope{UserID: folder.UserID, ParentID: folder.ParentID}
		taken, err := folderNameTaken(tx, s, folder.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A folder named %q already exists here", folder.Name)
		}
		return tx.Create(folder).Error
	})
}

// Rename changes the display name. The sibling check excludes the folder
// itself, so case-only renames of the same folder go through.
func (r *FolderRepository) Rename(ctx context.Context, userID, id uint, name string) (models.Folder, error) {
	var f models.Folder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("Folder not found")
			}
			return err
		}

		s := Scope{UserID: userID, ParentID: f.ParentID}
		taken, err := folderNameTaken(tx, s, name, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A folder named %q already exists here", name)
		}

		f.Name = name
		return tx.Model(&f).Update("name", name).Error
	})
	return f, err
}

// Move reparents a folder. Moving into itself or any of its descendants
// is a conflict, as is a live name collision in the destination.
func (r *FolderRepository) Move(ctx context.Context, userID, id uint, newParentID *uint) (models.Folder, error) {
	var f models.Folder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("Folder not found")
			}
			return err
		}

		if sameParent(f.ParentID, newParentID) {
			return nil // already there
		}

		if newParentID != nil {
			if *newParentID == f.ID {
				return exceptions.Conflict("Cannot move a folder into itself")
			}
			if err := ensureFolderLive(tx, userID, newParentID); err != nil {
				return err
			}
			cycle, err := wouldCreateCycle(tx, userID, f.ID, *newParentID)
			if err != nil {
				return err
			}
			if cycle {
				return exceptions.Conflict("Cannot move a folder into its own subtree")
			}
		}

		s := Scope{UserID: userID, ParentID: newParentID}
		taken, err := folderNameTaken(tx, s, f.Name, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A folder named %q already exists in the destination", f.Name)
		}

		f.ParentID = newParentID
		return tx.Model(&f).Update("parent_id", newParentID).Error
	})
	return f, err
}

// DeleteCascade marks the folder and everything below it deleted and
// reports how many folders and files were newly marked. The target is
// resolved among owned rows regardless of its deleted flag and the walk
// crosses already-deleted nodes, so rerunning after a partial failure
// finishes the job instead of returning 404.
func (r *FolderRepository) DeleteCascade(ctx context.Context, userID, id uint) (foldersMarked, filesMarked int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Folder
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&root).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("Folder not found")
			}
			return err
		}

		ids, err := collectSubtree(tx, userID, root.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Folder{}).
			Where("id IN ? AND is_deleted = ?", ids, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now})
		if res.Error != nil {
			return res.Error
		}
		foldersMarked = res.RowsAffected

		res = tx.Model(&models.File{}).
			Where("user_id = ? AND folder_id IN ? AND is_deleted = ?", userID, ids, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now})
		if res.Error != nil {
			return res.Error
		}
		filesMarked = res.RowsAffected
		return nil
	})
	return foldersMarked, filesMarked, err
}

// Path returns the chain from the root-level ancestor down to the folder
// itself. Ancestors of a live folder are live by invariant; a break in
// the chain surfaces as an internal error, not a 404.
func (r *FolderRepository) Path(ctx context.Context, userID, id uint) ([]models.Folder, error) {
	f, err := r.FindLive(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	chain := []models.Folder{f}
	visited := map[uint]struct{}{f.ID: {}}
	current := f.ParentID

	for depth := 0; current != nil; depth++ {
		if depth >= maxTreeDepth {
			return nil, fmt.Errorf("folder %d: ancestor chain deeper than %d", id, maxTreeDepth)
		}
		if _, seen := visited[*current]; seen {
			return nil, fmt.Errorf("folder %d: parent loop at %d", id, *current)
		}
		visited[*current] = struct{}{}

		var parent models.Folder
		err := r.db.WithContext(ctx).
			Where("id = ? AND user_id = ? AND is_deleted = ?", *current, userID, false).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("folder %d: ancestor %d missing or deleted", id, *current)
			}
			return nil, err
		}
		chain = append(chain, parent)
		current = parent.ParentID
	}

	// Walked leaf-to-root; callers want root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// CountByParent returns how many live folders sit under each of the given
// parents.
func (r *FolderRepository) CountByParent(ctx context.Context, userID uint, parentIDs []uint) (map[uint]int64, error) {
	if len(parentIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []struct {
		ParentID uint
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&models.Folder{}).
		Select("parent_id, COUNT(*) AS n").
		Where("user_id = ? AND is_deleted = ? AND parent_id IN ?", userID, false, parentIDs).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.ParentID] = row.N
	}
	return out, nil
}

// CountByUser returns live folder counts per user for the admin overview.
func (r *FolderRepository) CountByUser(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		UserID uint
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Folder{}).
		Select("user_id, COUNT(*) AS n").
		Where("is_deleted = ?", false).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.N
	}
	return out, nil
}

// ─── internal helpers ─────────────────────────────────────────────────────────

// ensureFolderLive verifies a referenced folder is live and owned.
// A nil id addresses the root, which always exists.
func ensureFolderLive(tx *gorm.DB, userID uint, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	err := tx.Model(&models.Folder{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", *id, userID, false).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return exceptions.NotFound("Parent folder not found")
	}
	return nil
}

// folderNameTaken reports a live sibling with the same name, compared
// case-insensitively. excludeID skips the folder being renamed or moved.
func folderNameTaken(tx *gorm.DB, s Scope, name string, excludeID uint) (bool, error) {
	q := liveFolders(tx, s).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// wouldCreateCycle walks from candidate parent to the root, watching for
// folderID. The walk ignores deleted flags: structure matters here, not
// visibility.
func wouldCreateCycle(tx *gorm.DB, userID, folderID, parentID uint) (bool, error) {
	current := parentID
	visited := map[uint]struct{}{}
	for depth := 0; depth < maxTreeDepth; depth++ {
		if current == folderID {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			return false, fmt.Errorf("folder tree has a parent loop at %d", current)
		}
		visited[current] = struct{}{}

		var row struct{ ParentID *uint }
		err := tx.Model(&models.Folder{}).
			Select("parent_id").
			Where("id = ? AND user_id = ?", current, userID).
			Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, fmt.Errorf("folder %d: ancestor %d missing", folderID, current)
			}
			return false, err
		}
		if row.ParentID == nil {
			return false, nil
		}
		current = *row.ParentID
	}
	return false, fmt.Errorf("folder tree deeper than %d levels", maxTreeDepth)
}

// collectSubtree gathers the folder plus every descendant, crossing
// deleted nodes. Breadth-first with a seen-set so a corrupted loop cannot
// spin forever.
func collectSubtree(tx *gorm.DB, userID, rootID uint) ([]uint, error) {
	all := []uint{rootID}
	seen := map[uint]struct{}{rootID: {}}
	frontier := []uint{rootID}

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxTreeDepth {
			return nil, fmt.Errorf("folder %d: subtree deeper than %d", rootID, maxTreeDepth)
		}
		var children []uint
		err := tx.Model(&models.Folder{}).
			Where("user_id = ? AND parent_id IN ?", userID, frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	return all, nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
