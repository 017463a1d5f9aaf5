package models

import (
	"strings"
	"time"
)

// File is the metadata row for one stored blob. Name is the display name
// shown in listings and kept unique among live siblings (case-sensitive,
// unlike folders). StoredName is the random blob name minted at upload;
// ObjectKey is the full blob store key ("files/<userID>/<StoredName>").
// The blob itself is immutable; renames touch only Name.
type File struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UserID      uint       `gorm:"not null;index:idx_files_scope,priority:1" json:"userId"`
	FolderID    *uint      `gorm:"index:idx_files_scope,priority:2" json:"folderId"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	StoredName  string     `gorm:"size:255;not null" json:"-"`
	ObjectKey   string     `gorm:"size:512;not null;index" json:"-"`
	Size        int64      `gorm:"not null" json:"size"`
	ContentType string     `gorm:"size:255" json:"contentType"`
	Category    string     `gorm:"size:50" json:"category"`
	IsDeleted   bool       `gorm:"not null;default:false" json:"-"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// File categories derived from the content type at upload. The UI groups
// and filters by these.
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryDocument = "document"
	CategoryArchive  = "archive"
	CategoryOther    = "other"
)

// CategoryOf maps a MIME type onto a category.
func CategoryOf(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage
	case strings.HasPrefix(ct, "video/"):
		return CategoryVideo
	case strings.HasPrefix(ct, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(ct, "text/"),
		ct == "application/pdf",
		ct == "application/msword",
		ct == "application/vnd.ms-excel",
		ct == "application/vnd.ms-powerpoint",
		strings.HasPrefix(ct, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(ct, "application/vnd.oasis.opendocument."):
		return CategoryDocument
	case ct == "application/zip",
		ct == "application/gzip",
		ct == "application/x-tar",
		ct == "application/x-rar-compressed",
		ct == "application/x-7z-compressed":
		return CategoryArchive
	default:
		return CategoryOther
	}
}
