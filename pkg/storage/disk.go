// Package storage provides the blob store behind uploads and downloads.
//
// Three drivers are available:
//   - "local"  — local filesystem (default)
//   - "s3"     — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//   - "memory" — in-process map, used by tests and demos
//
// Blobs are addressed by opaque object keys chosen by the caller; the
// store never interprets them beyond prefix listing. Boot once and hand
// the Disk to whatever needs it:
//
//	disk, err := storage.Connect()
//	svc := services.NewFileService(repo, disk, policy)
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSignedURLUnsupported is returned by drivers that cannot mint
// pre-authorized URLs. Callers fall back to streaming the blob themselves.
var ErrSignedURLUnsupported = errors.New("storage: signed URLs not supported by this driver")

// Object describes one stored blob, as reported by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Disk is the blob store driver interface.
type Disk interface {
	// Name identifies the driver ("local", "s3", "memory").
	Name() string

	// Put writes content under key, overwriting any existing blob.
	Put(ctx context.Context, key string, content []byte) error

	// PutStream writes size bytes from r under key.
	PutStream(ctx context.Context, key string, r io.Reader, size int64) error

	// Get returns the full content of the blob at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetStream returns a reader for the blob. Caller must close it.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a blob exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob at key. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every blob under prefix, recursively.
	List(ctx context.Context, prefix string) ([]Object, error)

	// SignedURL returns a pre-authorized GET URL valid for ttl, or
	// ErrSignedURLUnsupported.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
