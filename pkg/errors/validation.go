package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateColumnName validates a source-table column name.
// Column names come from user flags and config files and end up in error
// messages and cache keys, so the rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateColumnName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidColumn, "column name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidColumn, "column name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidColumn, "column name contains invalid control characters")
		}
	}

	return nil
}

// ValidateOutputPath validates a user-supplied output path.
// It rejects empty paths and paths containing null bytes, and requires the
// parent directory component (if any) to be expressible without traversal
// above the working directory when the path is relative.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "output path contains a null byte")
	}

	if !filepath.IsAbs(path) {
		clean := filepath.Clean(path)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return New(ErrCodeInvalidInput, "relative output path escapes the working directory: %q", path)
		}
	}

	return nil
}
