// Package repositories holds the data access layer. Every hierarchy query
// is pinned to an owning user and filters deleted rows explicitly; nothing
// here relies on implicit soft-delete behavior.
package repositories

import (
	"gorm.io/gorm"

	"drivebox/app/models"
)

// maxTreeDepth bounds ancestor walks and cascade traversals. A well-formed
// tree never gets near it; it turns a corrupted parent loop into an error
// instead of a hang.
const maxTreeDepth = 512

// Scope pins a listing or placement to one user's drive and one parent
// folder within it. A nil ParentID addresses the implicit root.
type Scope struct {
	UserID   uint
	ParentID *uint
}

// RootScope addresses the top level of a user's drive.
func RootScope(userID uint) Scope {
	return Scope{UserID: userID}
}

// liveFolders narrows a query to the live folders in s.
func liveFolders(db *gorm.DB, s Scope) *gorm.DB {
	q := db.Model(&models.Folder{}).
		Where("user_id = ? AND is_deleted = ?", s.UserID, false)
	if s.ParentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *s.ParentID)
}

// liveFiles narrows a query to the live files in s.
func liveFiles(db *gorm.DB, s Scope) *gorm.DB {
	q := db.Model(&models.File{}).
		Where("user_id = ? AND is_deleted = ?", s.UserID, false)
	if s.ParentID == nil {
		return q.Where("folder_id IS NULL")
	}
	return q.Where("folder_id = ?", *s.ParentID)
}
