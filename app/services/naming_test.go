package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"drivebox/app/exceptions"
)

func TestValidateFileName(t *testing.T) {
	valid := []string{
		"Reports.pdf",
		"file (2).txt",
		"résumé.pdf",
		"a.b.c",
		".gitignore",
		"no extension",
		strings.Repeat("a", 255),
	}
	for _, name := range valid {
		assert.NoError(t, ValidateFileName(name), "expected %q to be accepted", name)
	}

	invalid := []string{
		"",
		"   ",
		" leading.txt",
		"trailing.txt ",
		strings.Repeat("a", 256),
		"a/b.txt",
		`a\b.txt`,
		"a:b.txt",
		"what?.txt",
		"star*.txt",
		"con",
		"CON.txt",
		"lpt3",
		"Com1.backup",
		".",
		"..",
		"notes.",
		"bell\x07.txt",
		"tab\tname.txt",
	}
	for _, name := range invalid {
		err := ValidateFileName(name)
		if assert.Error(t, err, "expected %q to be rejected", name) {
			assert.Equal(t, exceptions.KindValidation, exceptions.KindOf(err))
		}
	}
}

func TestValidateFolderName(t *testing.T) {
	assert.NoError(t, ValidateFolderName(strings.Repeat("x", 100)))

	err := ValidateFolderName(strings.Repeat("x", 101))
	if assert.Error(t, err, "folder names stop at 100 characters") {
		assert.Equal(t, exceptions.KindValidation, exceptions.KindOf(err))
	}
}
