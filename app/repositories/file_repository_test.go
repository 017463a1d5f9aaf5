package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/app/repositories"
)

func mkFile(t *testing.T, r *repositories.FileRepository, userID uint, folderID *uint, name, key string) models.File {
	t.Helper()
	f := models.File{
		UserID:      userID,
		FolderID:    folderID,
		Name:        name,
		StoredName:  key,
		ObjectKey:   key,
		Size:        42,
		ContentType: "text/plain",
		Category:    models.CategoryDocument,
	}
	require.NoError(t, r.Create(context.Background(), &f))
	return f
}

func TestFileCreateDuplicateNameCaseSensitive(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	mkFile(t, r, uid, nil, "Notes.txt", "k1")

	// File names compare by exact bytes, so the case variant coexists.
	variant := models.File{UserID: uid, Name: "notes.txt", StoredName: "k2", ObjectKey: "k2", Size: 1, ContentType: "text/plain", Category: models.CategoryDocument}
	require.NoError(t, r.Create(ctx, &variant))

	exact := models.File{UserID: uid, Name: "Notes.txt", StoredName: "k3", ObjectKey: "k3", Size: 1, ContentType: "text/plain", Category: models.CategoryDocument}
	err := r.Create(ctx, &exact)
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
}

func TestFileCreateIntoDeletedFolder(t *testing.T) {
	db := newTreeDB(t)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	dir := mkFolder(t, folders, uid, nil, "Inbox")
	_, _, err := folders.DeleteCascade(ctx, uid, dir.ID)
	require.NoError(t, err)

	f := models.File{UserID: uid, FolderID: ptr(dir.ID), Name: "late.txt", StoredName: "k", ObjectKey: "k", Size: 1, ContentType: "text/plain", Category: models.CategoryDocument}
	err = files.Create(ctx, &f)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

func TestFileCheckPlacement(t *testing.T) {
	db := newTreeDB(t)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	dir := mkFolder(t, folders, uid, nil, "Docs")
	mkFile(t, files, uid, ptr(dir.ID), "a.txt", "k1")

	assert.NoError(t, files.CheckPlacement(ctx, uid, ptr(dir.ID), "b.txt"))

	err := files.CheckPlacement(ctx, uid, ptr(dir.ID), "a.txt")
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))

	missing := uint(99999)
	err = files.CheckPlacement(ctx, uid, &missing, "c.txt")
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

func TestFileRename(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	f := mkFile(t, r, uid, nil, "draft.md", "k1")
	mkFile(t, r, uid, nil, "final.md", "k2")

	renamed, err := r.Rename(ctx, uid, f.ID, "FINAL.md")
	require.NoError(t, err, "case variant of a sibling is a different file name")
	assert.Equal(t, "FINAL.md", renamed.Name)
	assert.Equal(t, "k1", renamed.ObjectKey, "rename must not touch the blob key")

	_, err = r.Rename(ctx, uid, f.ID, "final.md")
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
}

func TestFileMarkDeletedStrict(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	f := mkFile(t, r, uid, nil, "once.txt", "k1")

	gone, err := r.MarkDeleted(ctx, uid, f.ID)
	require.NoError(t, err)
	assert.True(t, gone.IsDeleted)
	require.NotNil(t, gone.DeletedAt)

	_, err = r.MarkDeleted(ctx, uid, f.ID)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err), "second delete of the same file is a 404")
}

func TestFileMove(t *testing.T) {
	db := newTreeDB(t)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	dir := mkFolder(t, folders, uid, nil, "Target")
	f := mkFile(t, files, uid, nil, "report.pdf", "k1")
	mkFile(t, files, uid, ptr(dir.ID), "report.pdf", "k2")

	_, err := files.Move(ctx, uid, f.ID, ptr(dir.ID))
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err), "destination already holds that name")

	other := mkFolder(t, folders, uid, nil, "Empty")
	moved, err := files.Move(ctx, uid, f.ID, ptr(other.ID))
	require.NoError(t, err)
	require.NotNil(t, moved.FolderID)
	assert.Equal(t, other.ID, *moved.FolderID)
}

func TestFileAllObjectKeysIncludesDeleted(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	live := mkFile(t, r, uid, nil, "live.txt", "keep/live")
	dead := mkFile(t, r, uid, nil, "dead.txt", "keep/dead")
	_, err := r.MarkDeleted(ctx, uid, dead.ID)
	require.NoError(t, err)

	keys, err := r.AllObjectKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, live.ObjectKey)
	assert.Contains(t, keys, dead.ObjectKey, "deleted rows still pin their blobs")
}

func TestFileListChildrenScope(t *testing.T) {
	db := newTreeDB(t)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	dir := mkFolder(t, folders, uid, nil, "Docs")
	mkFile(t, files, uid, nil, "root.txt", "k1")
	mkFile(t, files, uid, ptr(dir.ID), "nested.txt", "k2")

	atRoot, err := files.ListChildren(ctx, repositories.RootScope(uid))
	require.NoError(t, err)
	require.Len(t, atRoot, 1)
	assert.Equal(t, "root.txt", atRoot[0].Name)

	inDir, err := files.ListChildren(ctx, repositories.Scope{UserID: uid, ParentID: ptr(dir.ID)})
	require.NoError(t, err)
	require.Len(t, inDir, 1)
	assert.Equal(t, "nested.txt", inDir[0].Name)
}
