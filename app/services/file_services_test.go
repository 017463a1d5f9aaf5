package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/app/services"
	"drivebox/pkg/crypt"
	"drivebox/pkg/storage"
	"drivebox/pkg/testkit"
)

func testPolicy() services.UploadPolicy {
	return services.UploadPolicy{
		MaxBytes:     1 << 20,
		AllowedTypes: []string{"text/", "image/", "application/pdf"},
	}
}

func newFileService(t *testing.T) (*services.FileService, *storage.MemoryDisk, *repositories.FileRepository, *gorm.DB, uint) {
	t.Helper()
	db := testkit.NewDB(t, &models.User{}, &models.Folder{}, &models.File{})
	u := models.User{Name: "Tester", Email: "t@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	disk := storage.NewMemoryDisk()
	repo := repositories.NewFileRepository(db)
	svc := services.NewFileService(repo, disk, testPolicy())
	return svc, disk, repo, db, u.ID
}

func textUpload(name, content string) services.Upload {
	return services.Upload{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	svc, disk, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("hello.txt", "hello world"))
	require.NoError(t, err)
	assert.NotZero(t, f.ID)
	assert.Equal(t, models.CategoryDocument, f.Category)
	assert.Equal(t, int64(11), f.Size)
	assert.Equal(t, 1, disk.Len())

	ok, err := disk.Exists(ctx, f.ObjectKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadRejectsOversize(t *testing.T) {
	svc, disk, _, _, uid := newFileService(t)

	up := textUpload("big.txt", "x")
	up.Size = 2 << 20
	_, err := svc.Upload(context.Background(), uid, nil, up)
	assert.Equal(t, exceptions.KindTooLarge, exceptions.KindOf(err))
	assert.Zero(t, disk.Len(), "rejected uploads must not write bytes")
}

func TestUploadRejectsContentType(t *testing.T) {
	svc, disk, _, _, uid := newFileService(t)

	up := textUpload("setup.exe", "MZ")
	up.ContentType = "application/x-msdownload"
	_, err := svc.Upload(context.Background(), uid, nil, up)
	assert.Equal(t, exceptions.KindValidation, exceptions.KindOf(err))
	assert.Zero(t, disk.Len())
}

func TestUploadRejectsDuplicateName(t *testing.T) {
	svc, disk, _, _, uid := newFileService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, uid, nil, textUpload("same.txt", "one"))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, uid, nil, textUpload("same.txt", "two"))
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
	assert.Equal(t, 1, disk.Len(), "the duplicate must be caught before its bytes move")
}

func TestUploadIntoMissingFolder(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)

	missing := uint(4242)
	_, err := svc.Upload(context.Background(), uid, &missing, textUpload("a.txt", "x"))
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

// brokenDisk fails every write, standing in for an unreachable blob store.
type brokenDisk struct {
	*storage.MemoryDisk
}

func (b brokenDisk) PutStream(ctx context.Context, key string, r io.Reader, size int64) error {
	return errors.New("connection refused")
}

func TestUploadStorageFailure(t *testing.T) {
	db := testkit.NewDB(t, &models.User{}, &models.Folder{}, &models.File{})
	u := models.User{Name: "T", Email: "t@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&u).Error)

	repo := repositories.NewFileRepository(db)
	svc := services.NewFileService(repo, brokenDisk{storage.NewMemoryDisk()}, testPolicy())

	_, err := svc.Upload(context.Background(), u.ID, nil, textUpload("a.txt", "x"))
	assert.Equal(t, exceptions.KindStorage, exceptions.KindOf(err))

	rows, err := repo.ListChildren(context.Background(), repositories.RootScope(u.ID))
	require.NoError(t, err)
	assert.Empty(t, rows, "no metadata row may exist for a failed blob write")
}

func TestDownloadStreamsFromMemoryDisk(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("notes.txt", "remember the milk"))
	require.NoError(t, err)

	got, handle, err := svc.Download(ctx, uid, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Empty(t, handle.URL, "memory disk cannot presign")
	require.NotNil(t, handle.Body)
	defer handle.Body.Close()

	content, err := io.ReadAll(handle.Body)
	require.NoError(t, err)
	assert.Equal(t, "remember the milk", string(content))
}

func TestPreviewStreams(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("pic.txt", "inline me"))
	require.NoError(t, err)

	_, body, err := svc.Preview(ctx, uid, f.ID)
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "inline me", string(content))
}

func TestDeleteKeepsBlob(t *testing.T) {
	svc, disk, repo, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("keep.txt", "still here"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, uid, f.ID)
	require.NoError(t, err)

	_, _, err = svc.Download(ctx, uid, f.ID)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))

	assert.Equal(t, 1, disk.Len(), "delete hides metadata, never blobs")
	keys, err := repo.AllObjectKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, f.ObjectKey)
}

func TestUploadPolicyAllows(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.Allows("text/plain"))
	assert.True(t, p.Allows("TEXT/PLAIN; charset=utf-8"))
	assert.True(t, p.Allows("image/png"))
	assert.True(t, p.Allows("application/pdf"))
	assert.False(t, p.Allows("application/x-msdownload"))
	assert.False(t, p.Allows("video/mp4"))

	open := services.UploadPolicy{}
	assert.True(t, open.Allows("anything/at-all"), "empty allowlist allows everything")
}

func TestShareLinkRoundTrip(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("report.txt", "quarterly numbers"))
	require.NoError(t, err)

	token, expires, err := svc.ShareLink(ctx, uid, f.ID, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	shared, body, err := svc.OpenShared(ctx, token)
	require.NoError(t, err)
	defer body.Close()
	assert.Equal(t, "report.txt", shared.Name)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(data))
}

func TestShareLinkDiesWithFile(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("secret.txt", "x"))
	require.NoError(t, err)
	token, _, err := svc.ShareLink(ctx, uid, f.ID, time.Hour)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, uid, f.ID)
	require.NoError(t, err)

	_, _, err = svc.OpenShared(ctx, token)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

func TestShareLinkRejectsExpiredAndGarbage(t *testing.T) {
	svc, _, _, _, uid := newFileService(t)
	ctx := context.Background()

	f, err := svc.Upload(ctx, uid, nil, textUpload("old.txt", "x"))
	require.NoError(t, err)

	stale, err := crypt.EncryptJSON(map[string]interface{}{
		"u": uid, "f": f.ID, "exp": time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	_, _, err = svc.OpenShared(ctx, stale)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))

	_, _, err = svc.OpenShared(ctx, "not-a-token")
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

func TestShareLinkForForeignFile(t *testing.T) {
	svc, _, _, db, uid := newFileService(t)
	ctx := context.Background()

	other := models.User{Name: "Other", Email: "o@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&other).Error)

	f, err := svc.Upload(ctx, uid, nil, textUpload("mine.txt", "x"))
	require.NoError(t, err)

	_, _, err = svc.ShareLink(ctx, other.ID, f.ID, time.Hour)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}
