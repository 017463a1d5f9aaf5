// Package events names the domain events and their payloads. Services fire
// them through pkg/event; RegisterListeners attaches the side effects.
package events

// Event names. Dot-separated, entity first.
const (
	UserRegistered = "user.registered"
	FileUploaded   = "file.uploaded"
	FileDeleted    = "file.deleted"
	FolderCreated  = "folder.created"
	FolderDeleted  = "folder.deleted"
)

// UserPayload accompanies user.registered.
type UserPayload struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// FilePayload accompanies file.uploaded and file.deleted.
type FilePayload struct {
	UserID   uint   `json:"userId"`
	FileID   uint   `json:"fileId"`
	Name     string `json:"name"`
	FolderID *uint  `json:"folderId"`
	Size     int64  `json:"size"`
}

// FolderPayload accompanies folder.created.
type FolderPayload struct {
	UserID   uint   `json:"userId"`
	FolderID uint   `json:"folderId"`
	Name     string `json:"name"`
	ParentID *uint  `json:"parentId"`
}

// CascadePayload accompanies folder.deleted with the marked-row counts.
type CascadePayload struct {
	UserID   uint  `json:"userId"`
	FolderID uint  `json:"folderId"`
	Folders  int64 `json:"folders"`
	Files    int64 `json:"files"`
}
