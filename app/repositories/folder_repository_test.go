package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/pkg/testkit"
)

func newTreeDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testkit.NewDB(t, &models.User{}, &models.Folder{}, &models.File{})
}

func seedUser(t *testing.T, db *gorm.DB, email string) uint {
	t.Helper()
	u := models.User{Name: "Tester", Email: email, Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func mkFolder(t *testing.T, r *repositories.FolderRepository, userID uint, parentID *uint, name string) models.Folder {
	t.Helper()
	f := models.Folder{UserID: userID, ParentID: parentID, Name: name}
	require.NoError(t, r.Create(context.Background(), &f))
	return f
}

func ptr(v uint) *uint { return &v }

func TestFolderCreateDuplicateNameCaseInsensitive(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	mkFolder(t, r, uid, nil, "Reports")

	dup := models.Folder{UserID: uid, Name: "REPORTS"}
	err := r.Create(ctx, &dup)
	require.Error(t, err)
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))

	// Same name under a different parent is fine.
	parent := mkFolder(t, r, uid, nil, "Archive")
	nested := models.Folder{UserID: uid, ParentID: ptr(parent.ID), Name: "Reports"}
	assert.NoError(t, r.Create(ctx, &nested))
}

func TestFolderCreateNameFreedByDeletion(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	old := mkFolder(t, r, uid, nil, "Projects")
	_, _, err := r.DeleteCascade(ctx, uid, old.ID)
	require.NoError(t, err)

	again := models.Folder{UserID: uid, Name: "projects"}
	assert.NoError(t, r.Create(ctx, &again), "deleted sibling should not hold the name")
}

func TestFolderCreateUnderDeletedParent(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	parent := mkFolder(t, r, uid, nil, "Gone")
	_, _, err := r.DeleteCascade(ctx, uid, parent.ID)
	require.NoError(t, err)

	child := models.Folder{UserID: uid, ParentID: ptr(parent.ID), Name: "Orphan"}
	err = r.Create(ctx, &child)
	require.Error(t, err)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
}

func TestFolderFindLiveScoping(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	f := mkFolder(t, r, owner, nil, "Private")

	_, err := r.FindLive(ctx, other, f.ID)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err), "foreign folder must read as missing")

	_, _, err = r.DeleteCascade(ctx, owner, f.ID)
	require.NoError(t, err)
	_, err = r.FindLive(ctx, owner, f.ID)
	assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err), "deleted folder must read as missing")
}

func TestFolderRenameCaseOnly(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	f := mkFolder(t, r, uid, nil, "photos")

	renamed, err := r.Rename(ctx, uid, f.ID, "Photos")
	require.NoError(t, err, "case-only rename of the same folder must pass the sibling check")
	assert.Equal(t, "Photos", renamed.Name)

	mkFolder(t, r, uid, nil, "Music")
	_, err = r.Rename(ctx, uid, f.ID, "MUSIC")
	assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
}

func TestFolderDeleteCascadeCounts(t *testing.T) {
	db := newTreeDB(t)
	folders := repositories.NewFolderRepository(db)
	files := repositories.NewFileRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	root := mkFolder(t, folders, uid, nil, "Root")
	child := mkFolder(t, folders, uid, ptr(root.ID), "Child")
	grand := mkFolder(t, folders, uid, ptr(child.ID), "Grand")
	mkFolder(t, folders, uid, nil, "Sibling") // outside the subtree

	for i, owner := range []*uint{ptr(root.ID), ptr(child.ID), ptr(grand.ID)} {
		f := models.File{UserID: uid, FolderID: owner, Name: "doc.txt", StoredName: "doc", ObjectKey: fmt.Sprintf("blobs/%d", i), Size: 1, ContentType: "text/plain", Category: models.CategoryDocument}
		require.NoError(t, files.Create(ctx, &f))
	}

	nf, nfil, err := folders.DeleteCascade(ctx, uid, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), nf)
	assert.Equal(t, int64(3), nfil)

	// Sibling untouched.
	kept, err := folders.ListChildren(ctx, repositories.RootScope(uid))
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "Sibling", kept[0].Name)
}

func TestFolderDeleteCascadeResumable(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	root := mkFolder(t, r, uid, nil, "Root")
	child := mkFolder(t, r, uid, ptr(root.ID), "Child")
	grand := mkFolder(t, r, uid, ptr(child.ID), "Grand")

	// Simulate a cascade that died after marking only the root.
	require.NoError(t, db.Model(&models.Folder{}).
		Where("id = ?", root.ID).
		Update("is_deleted", true).Error)

	nf, _, err := r.DeleteCascade(ctx, uid, root.ID)
	require.NoError(t, err, "retrying a half-finished delete must not 404")
	assert.Equal(t, int64(2), nf, "only the still-live descendants get marked")

	for _, id := range []uint{child.ID, grand.ID} {
		_, err := r.FindLive(ctx, uid, id)
		assert.Equal(t, exceptions.KindNotFound, exceptions.KindOf(err))
	}

	// A third run is a no-op, still not an error.
	nf, nfil, err := r.DeleteCascade(ctx, uid, root.ID)
	require.NoError(t, err)
	assert.Zero(t, nf)
	assert.Zero(t, nfil)
}

func TestFolderMove(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	a := mkFolder(t, r, uid, nil, "A")
	b := mkFolder(t, r, uid, ptr(a.ID), "B")
	c := mkFolder(t, r, uid, ptr(b.ID), "C")

	t.Run("into own subtree", func(t *testing.T) {
		_, err := r.Move(ctx, uid, a.ID, ptr(c.ID))
		assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
	})

	t.Run("into itself", func(t *testing.T) {
		_, err := r.Move(ctx, uid, a.ID, ptr(a.ID))
		assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
	})

	t.Run("name collision in destination", func(t *testing.T) {
		mkFolder(t, r, uid, nil, "c") // clashes with C case-insensitively
		_, err := r.Move(ctx, uid, c.ID, nil)
		assert.Equal(t, exceptions.KindConflict, exceptions.KindOf(err))
	})

	t.Run("valid reparent", func(t *testing.T) {
		moved, err := r.Move(ctx, uid, b.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, moved.ParentID)

		path, err := r.Path(ctx, uid, c.ID)
		require.NoError(t, err)
		require.Len(t, path, 2)
		assert.Equal(t, "B", path[0].Name)
	})
}

func TestFolderPath(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	a := mkFolder(t, r, uid, nil, "2024")
	b := mkFolder(t, r, uid, ptr(a.ID), "Taxes")
	c := mkFolder(t, r, uid, ptr(b.ID), "Receipts")

	path, err := r.Path(ctx, uid, c.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, []string{"2024", "Taxes", "Receipts"},
		[]string{path[0].Name, path[1].Name, path[2].Name})

	path, err = r.Path(ctx, uid, a.ID)
	require.NoError(t, err)
	assert.Len(t, path, 1)
}

func TestFolderCountByParent(t *testing.T) {
	db := newTreeDB(t)
	r := repositories.NewFolderRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "a@example.com")

	a := mkFolder(t, r, uid, nil, "A")
	b := mkFolder(t, r, uid, nil, "B")
	mkFolder(t, r, uid, ptr(a.ID), "A1")
	mkFolder(t, r, uid, ptr(a.ID), "A2")
	dead := mkFolder(t, r, uid, ptr(a.ID), "A3")
	_, _, err := r.DeleteCascade(ctx, uid, dead.ID)
	require.NoError(t, err)

	counts, err := r.CountByParent(ctx, uid, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[a.ID], "deleted children do not count")
	assert.Zero(t, counts[b.ID])
}
