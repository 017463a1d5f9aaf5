package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivebox/app/exceptions"
	"drivebox/app/models"
)

func TestParseListParams(t *testing.T) {
	p, err := ParseListParams("", "")
	require.NoError(t, err)
	assert.Equal(t, ListParams{Sort: SortByName}, p)

	p, err = ParseListParams("updatedAt", "DESC")
	require.NoError(t, err)
	assert.Equal(t, ListParams{Sort: SortByModified, Desc: true}, p)

	_, err = ParseListParams("color", "")
	assert.Equal(t, exceptions.KindValidation, exceptions.KindOf(err))

	_, err = ParseListParams("name", "sideways")
	assert.Equal(t, exceptions.KindValidation, exceptions.KindOf(err))
}

func names(files []models.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestSortFilesNatural(t *testing.T) {
	files := []models.File{
		{Name: "file10.txt"},
		{Name: "file2.txt"},
		{Name: "File1.txt"},
	}
	sortFiles(files, ListParams{Sort: SortByName})
	assert.Equal(t, []string{"File1.txt", "file2.txt", "file10.txt"}, names(files))
}

func TestSortFilesBySizeWithNameTiebreak(t *testing.T) {
	files := []models.File{
		{Name: "b.txt", Size: 10},
		{Name: "a.txt", Size: 10},
		{Name: "c.txt", Size: 1},
	}
	sortFiles(files, ListParams{Sort: SortBySize})
	assert.Equal(t, []string{"c.txt", "a.txt", "b.txt"}, names(files))

	sortFiles(files, ListParams{Sort: SortBySize, Desc: true})
	assert.Equal(t, []string{"b.txt", "a.txt", "c.txt"}, names(files))
}

func TestSortFilesByModified(t *testing.T) {
	base := time.Now()
	files := []models.File{
		{Name: "new.txt", UpdatedAt: base.Add(time.Hour)},
		{Name: "old.txt", UpdatedAt: base},
	}
	sortFiles(files, ListParams{Sort: SortByModified, Desc: true})
	assert.Equal(t, []string{"new.txt", "old.txt"}, names(files))
}

func TestSortFoldersSizeFallsBackToName(t *testing.T) {
	folders := []models.Folder{
		{Name: "zeta"},
		{Name: "alpha2"},
		{Name: "alpha10"},
	}
	sortFolders(folders, ListParams{Sort: SortBySize})

	got := make([]string, len(folders))
	for i, f := range folders {
		got[i] = f.Name
	}
	assert.Equal(t, []string{"alpha2", "alpha10", "zeta"}, got)
}
