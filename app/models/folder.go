package models

import "time"

// Folder is one node of a user's directory tree. A nil ParentID hangs the
// folder off the implicit root, which has no row of its own.
//
// Deletion is a visibility flag, not a row removal: IsDeleted hides the
// folder from every read path, and a repeated delete walks the subtree
// again so an interrupted cascade can finish. DeletedAt is not the GORM
// soft-delete type on purpose; queries must state their liveness filter
// explicitly.
type Folder struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"not null;index:idx_folders_scope,priority:1" json:"userId"`
	ParentID  *uint      `gorm:"index:idx_folders_scope,priority:2" json:"parentId"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	IsDeleted bool       `gorm:"not null;default:false" json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
