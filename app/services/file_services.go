package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"drivebox/app/events"
	"drivebox/app/exceptions"
	"drivebox/app/jobs"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/pkg/crypt"
	"drivebox/pkg/event"
	"drivebox/pkg/logger"
	"drivebox/pkg/metrics"
	"drivebox/pkg/queue"
	"drivebox/pkg/storage"
)

// signedURLTTL bounds how long a handed-out download link works.
const signedURLTTL = 15 * time.Minute

// Share links live longer than signed URLs but never past a week.
const (
	defaultShareTTL = time.Hour
	maxShareTTL     = 7 * 24 * time.Hour
)

// UploadPolicy is passed in at construction; nothing here reads config, so
// tests and callers state their limits explicitly.
type UploadPolicy struct {
	// MaxBytes caps a single upload. Zero means no cap.
	MaxBytes int64
	// AllowedTypes lists acceptable content types. Entries ending in "/"
	// match the whole prefix ("image/" allows image/png). Empty allows
	// everything.
	AllowedTypes []string
}

// Allows reports whether the declared content type passes the policy.
// Parameters after ";" are ignored.
func (p UploadPolicy) Allows(contentType string) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range p.AllowedTypes {
		if strings.HasSuffix(allowed, "/") {
			if strings.HasPrefix(ct, allowed) {
				return true
			}
		} else if ct == allowed {
			return true
		}
	}
	return false
}

// Upload carries one incoming file's metadata and bytes.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DownloadHandle describes how to deliver a blob: a presigned URL when the
// disk supports one, otherwise an open stream the caller must close.
type DownloadHandle struct {
	URL  string
	Body io.ReadCloser
}

// FileService owns uploads, downloads and file metadata changes.
type FileService struct {
	files  *repositories.FileRepository
	disk   storage.Disk
	policy UploadPolicy
}

func NewFileService(files *repositories.FileRepository, disk storage.Disk, policy UploadPolicy) *FileService {
	return &FileService{files: files, disk: disk, policy: policy}
}

// Upload stores the blob first and the metadata row second. When the row
// cannot be written after the bytes landed, a cleanup job removes the blob;
// if even that dispatch fails, the reconciliation sweep picks it up later.
func (s *FileService) Upload(ctx context.Context, userID uint, folderID *uint, up Upload) (models.File, error) {
	if err := ValidateFileName(up.Name); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return models.File{}, err
	}
	if s.policy.MaxBytes > 0 && up.Size > s.policy.MaxBytes {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return models.File{}, exceptions.TooLarge("File exceeds the upload limit of %d bytes", s.policy.MaxBytes)
	}

	ct := strings.TrimSpace(up.ContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	if !s.policy.Allows(ct) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return models.File{}, exceptions.Validation("Content type %q is not allowed", ct)
	}

	// Fail cheap before any bytes move. Create rechecks inside its
	// transaction, so a racing sibling still cannot slip through.
	if err := s.files.CheckPlacement(ctx, userID, folderID, up.Name); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return models.File{}, err
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(up.Name))
	key := fmt.Sprintf("u/%d/%s", userID, stored)

	if err := s.disk.PutStream(ctx, key, up.Body, up.Size); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return models.File{}, exceptions.Storage(err)
	}

	file := models.File{
		UserID:      userID,
		FolderID:    folderID,
		Name:        up.Name,
		StoredName:  stored,
		ObjectKey:   key,
		Size:        up.Size,
		ContentType: ct,
		Category:    models.CategoryOf(ct),
	}
	if err := s.files.Create(ctx, &file); err != nil {
		s.cleanupBlob(key)
		switch exceptions.KindOf(err) {
		case exceptions.KindConflict, exceptions.KindNotFound:
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.UploadsTotal.WithLabelValues("failed").Inc()
		}
		return models.File{}, err
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	metrics.UploadBytes.Observe(float64(up.Size))
	event.FireAsync(events.FileUploaded, events.FilePayload{
		UserID: userID, FileID: file.ID, Name: file.Name, FolderID: file.FolderID, Size: file.Size,
	})
	return file, nil
}

// Show returns the file's metadata.
func (s *FileService) Show(ctx context.Context, userID, id uint) (models.File, error) {
	return s.files.FindLive(ctx, userID, id)
}

// Download resolves the file and hands back a presigned URL when the disk
// offers one, an open stream otherwise.
func (s *FileService) Download(ctx context.Context, userID, id uint) (models.File, DownloadHandle, error) {
	f, err := s.files.FindLive(ctx, userID, id)
	if err != nil {
		return f, DownloadHandle{}, err
	}

	url, err := s.disk.SignedURL(ctx, f.ObjectKey, signedURLTTL)
	if err == nil {
		return f, DownloadHandle{URL: url}, nil
	}
	if !errors.Is(err, storage.ErrSignedURLUnsupported) {
		return f, DownloadHandle{}, exceptions.Storage(err)
	}

	body, err := s.disk.GetStream(ctx, f.ObjectKey)
	if err != nil {
		return f, DownloadHandle{}, exceptions.Storage(err)
	}
	return f, DownloadHandle{Body: body}, nil
}

// Preview always streams, so the response can carry an inline disposition
// regardless of the disk driver. The caller closes the stream.
func (s *FileService) Preview(ctx context.Context, userID, id uint) (models.File, io.ReadCloser, error) {
	f, err := s.files.FindLive(ctx, userID, id)
	if err != nil {
		return f, nil, err
	}
	body, err := s.disk.GetStream(ctx, f.ObjectKey)
	if err != nil {
		return f, nil, exceptions.Storage(err)
	}
	return f, body, nil
}

// shareTicket is the payload sealed inside a share token. It names the row,
// not the blob, so deleting the file kills every outstanding link.
type shareTicket struct {
	UserID uint  `json:"u"`
	FileID uint  `json:"f"`
	Exp    int64 `json:"exp"`
}

// ShareLink mints a time-limited token for a live file. Anyone holding the
// token can download the file without an account until the token expires or
// the file is deleted.
func (s *FileService) ShareLink(ctx context.Context, userID, id uint, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = defaultShareTTL
	}
	if ttl > maxShareTTL {
		ttl = maxShareTTL
	}
	if _, err := s.files.FindLive(ctx, userID, id); err != nil {
		return "", time.Time{}, err
	}

	expires := time.Now().Add(ttl)
	token, err := crypt.EncryptJSON(shareTicket{UserID: userID, FileID: id, Exp: expires.Unix()})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("mint share token: %w", err)
	}
	return token, expires, nil
}

// OpenShared redeems a share token and streams the blob. Tampered, expired
// and deleted-file tokens all surface as the same NotFound, so probing the
// endpoint learns nothing.
func (s *FileService) OpenShared(ctx context.Context, token string) (models.File, io.ReadCloser, error) {
	var t shareTicket
	if err := crypt.DecryptJSON(token, &t); err != nil {
		return models.File{}, nil, errShareLink()
	}
	if time.Now().Unix() > t.Exp {
		return models.File{}, nil, errShareLink()
	}

	f, err := s.files.FindLive(ctx, t.UserID, t.FileID)
	if err != nil {
		if exceptions.KindOf(err) == exceptions.KindNotFound {
			err = errShareLink()
		}
		return models.File{}, nil, err
	}

	body, err := s.disk.GetStream(ctx, f.ObjectKey)
	if err != nil {
		return models.File{}, nil, exceptions.Storage(err)
	}
	return f, body, nil
}

func errShareLink() error {
	return exceptions.NotFound("This link is invalid or has expired")
}

// Rename validates the new name and applies it. The blob and its key are
// untouched.
func (s *FileService) Rename(ctx context.Context, userID, id uint, name string) (models.File, error) {
	if err := ValidateFileName(name); err != nil {
		return models.File{}, err
	}
	return s.files.Rename(ctx, userID, id, name)
}

// Move places the file in another folder, nil meaning the root.
func (s *FileService) Move(ctx context.Context, userID, id uint, folderID *uint) (models.File, error) {
	return s.files.Move(ctx, userID, id, folderID)
}

// Delete hides the file. The blob stays put: the row still references it,
// which keeps it restorable and out of the sweep's reach.
func (s *FileService) Delete(ctx context.Context, userID, id uint) (models.File, error) {
	f, err := s.files.MarkDeleted(ctx, userID, id)
	if err != nil {
		return f, err
	}
	event.FireAsync(events.FileDeleted, events.FilePayload{
		UserID: userID, FileID: f.ID, Name: f.Name, FolderID: f.FolderID, Size: f.Size,
	})
	return f, nil
}

func (s *FileService) cleanupBlob(key string) {
	if err := queue.Dispatch(&jobs.BlobCleanupJob{Key: key}); err != nil {
		// Sweep will catch it once the grace period passes.
		logger.Warn("upload: orphan cleanup not queued", "key", key, "error", err)
	}
}
