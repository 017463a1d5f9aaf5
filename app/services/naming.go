package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"drivebox/app/exceptions"
)

const (
	maxFolderNameLen = 100
	maxFileNameLen   = 255
)

// Characters that break paths or common sync clients.
const forbiddenNameChars = `<>:"/\|?*`

// reservedNames are device names Windows refuses, with or without an
// extension.
var reservedNames = func() map[string]struct{} {
	m := map[string]struct{}{"con": {}, "prn": {}, "aux": {}, "nul": {}}
	for i := 1; i <= 9; i++ {
		m[fmt.Sprintf("com%d", i)] = struct{}{}
		m[fmt.Sprintf("lpt%d", i)] = struct{}{}
	}
	return m
}()

// ValidateFolderName rejects names that cannot be stored or synced.
func ValidateFolderName(name string) error {
	return checkName(name, maxFolderNameLen, "Folder")
}

// ValidateFileName rejects names that cannot be stored or synced.
func ValidateFileName(name string) error {
	return checkName(name, maxFileNameLen, "File")
}

func checkName(name string, limit int, label string) error {
	if strings.TrimSpace(name) == "" {
		return exceptions.Validation("%s name cannot be empty", label)
	}
	if name != strings.TrimSpace(name) {
		return exceptions.Validation("%s name cannot start or end with spaces", label)
	}
	if utf8.RuneCountInString(name) > limit {
		return exceptions.Validation("%s name cannot exceed %d characters", label, limit)
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return exceptions.Validation(`%s name cannot contain any of %s`, label, forbiddenNameChars)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return exceptions.Validation("%s name cannot contain control characters", label)
		}
	}
	if name == "." || name == ".." || strings.HasSuffix(name, ".") {
		return exceptions.Validation("%s name cannot be or end with a dot", label)
	}
	if isReservedName(name) {
		return exceptions.Validation("%q is a reserved name", name)
	}
	return nil
}

// isReservedName checks the part before the first dot, so "con.txt" is as
// reserved as "CON".
func isReservedName(name string) bool {
	base := strings.ToLower(name)
	if dot := strings.IndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}
	_, reserved := reservedNames[base]
	return reserved
}
