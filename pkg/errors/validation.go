package errors

import (
	"strings"
	"unicode"
)

// ValidateTreeName validates a stored-tree name for safety and
// correctness. Names end up in file paths (file store) and document
// keys (mongo store), so anything that smells like path traversal is
// rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateTreeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "tree name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "tree name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "tree name contains control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "tree name cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "tree name cannot contain '..'")
	}
	return nil
}
