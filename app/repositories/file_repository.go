package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"drivebox/app/exceptions"
	"drivebox/app/models"
)

// FileRepository persists file metadata rows. Blob content lives in the
// storage disk under File.ObjectKey; nothing here touches blobs.
type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// ListChildren returns the live files directly inside the scope.
func (r *FileRepository) ListChildren(ctx context.Context, s Scope) ([]models.File, error) {
	var files []models.File
	err := liveFiles(r.db.WithContext(ctx), s).Find(&files).Error
	return files, err
}

// FindLive returns the file when it exists, is owned by userID and is not
// deleted. Missing, deleted and foreign files are one NotFound.
func (r *FileRepository) FindLive(ctx context.Context, userID, id uint) (models.File, error) {
	var f models.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return f, exceptions.NotFound("File not found")
	}
	return f, err
}

// CheckPlacement verifies the target folder is live and the name free
// before any bytes move. Create repeats both checks inside its
// transaction; this one just fails cheap uploads early.
func (r *FileRepository) CheckPlacement(ctx context.Context, userID uint, folderID *uint, name string) error {
	db := r.db.WithContext(ctx)
	if err := ensureFolderLive(db, userID, folderID); err != nil {
		return err
	}
	s := Scope{UserID: userID, ParentID: folderID}
	taken, err := fileNameTaken(db, s, name, 0)
	if err != nil {
		return err
	}
	if taken {
		return exceptions.Conflict("A file named %q already exists here", name)
	}
	return nil
}

// Create inserts file metadata after rechecking the parent is live and
// the name is free among live siblings (case-sensitive).
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFolderLive(tx, file.UserID, file.FolderID); err != nil {
			return err
		}
		s := Scope{UserID: file.UserID, ParentID: file.FolderID}
		taken, err := fileNameTaken(tx, s, file.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A file named %q already exists here", file.Name)
		}
		return tx.Create(file).Error
	})
}

// Rename changes the display name only; the stored object key and
// category keep their values from upload time.
func (r *FileRepository) Rename(ctx context.Context, userID, id uint, name string) (models.File, error) {
	var f models.File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("File not found")
			}
			return err
		}

		s := Scope{UserID: userID, ParentID: f.FolderID}
		taken, err := fileNameTaken(tx, s, name, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A file named %q already exists here", name)
		}

		f.Name = name
		return tx.Model(&f).Update("name", name).Error
	})
	return f, err
}

// Move places the file in another folder, keeping its name. The
// destination must be live and must not already hold a live file with
// the same name.
func (r *FileRepository) Move(ctx context.Context, userID, id uint, folderID *uint) (models.File, error) {
	var f models.File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("File not found")
			}
			return err
		}

		if sameParent(f.FolderID, folderID) {
			return nil // already there
		}
		if err := ensureFolderLive(tx, userID, folderID); err != nil {
			return err
		}

		s := Scope{UserID: userID, ParentID: folderID}
		taken, err := fileNameTaken(tx, s, f.Name, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return exceptions.Conflict("A file named %q already exists in the destination", f.Name)
		}

		f.FolderID = folderID
		return tx.Model(&f).Update("folder_id", folderID).Error
	})
	return f, err
}

// MarkDeleted hides a live file. Unlike the folder cascade this is
// strict: deleting an already-deleted file is NotFound, since a single
// row update either fully happened or did not.
func (r *FileRepository) MarkDeleted(ctx context.Context, userID, id uint) (models.File, error) {
	var f models.File
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&f).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return exceptions.NotFound("File not found")
			}
			return err
		}

		now := time.Now()
		f.IsDeleted = true
		f.DeletedAt = &now
		return tx.Model(&f).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	})
	return f, err
}

// CountByFolder returns how many live files sit in each of the given
// folders.
func (r *FileRepository) CountByFolder(ctx context.Context, userID uint, folderIDs []uint) (map[uint]int64, error) {
	if len(folderIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []struct {
		FolderID uint
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Select("folder_id, COUNT(*) AS n").
		Where("user_id = ? AND is_deleted = ? AND folder_id IN ?", userID, false, folderIDs).
		Group("folder_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.FolderID] = row.N
	}
	return out, nil
}

// AllObjectKeys returns every object key any metadata row points at,
// deleted rows included. Deleted files are restorable until swept, so
// their blobs are not orphans.
func (r *FileRepository) AllObjectKeys(ctx context.Context) (map[string]struct{}, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Distinct().
		Pluck("object_key", &keys).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out, nil
}

// UsageByUser aggregates live file count and byte total per user for the
// admin overview.
func (r *FileRepository) UsageByUser(ctx context.Context) (map[uint]FileUsage, error) {
	var rows []struct {
		UserID uint
		N      int64
		Bytes  int64
	}
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Select("user_id, COUNT(*) AS n, COALESCE(SUM(size), 0) AS bytes").
		Where("is_deleted = ?", false).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]FileUsage, len(rows))
	for _, row := range rows {
		out[row.UserID] = FileUsage{Count: row.N, Bytes: row.Bytes}
	}
	return out, nil
}

// FileUsage is a per-user rollup of live files.
type FileUsage struct {
	Count int64
	Bytes int64
}

// fileNameTaken reports a live sibling file with exactly the same name.
// File names compare case-sensitively, unlike folder names.
func fileNameTaken(tx *gorm.DB, s Scope, name string, excludeID uint) (bool, error) {
	q := liveFiles(tx, s).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
