package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxSeedLength bounds seed strings accepted from the CLI and HTTP API.
const maxSeedLength = 256

// ValidateSeed validates a seed string.
// Seeds are hashed, so any printable text is acceptable; control characters are
// rejected because seeds end up in file names, cache keys and log lines.
func ValidateSeed(seed string) error {
	if strings.TrimSpace(seed) == "" {
		return New(ErrCodeInvalidSeed, "seed cannot be empty")
	}
	if len(seed) > maxSeedLength {
		return New(ErrCodeInvalidSeed, "seed too long (max %d characters)", maxSeedLength)
	}
	for _, r := range seed {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSeed, "seed contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// layoutIDRegex matches canonical lowercase UUID strings.
var layoutIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateLayoutID validates a stored layout identifier.
// Layout IDs are used as file names by the file store, so anything other than a
// canonical UUID is rejected.
func ValidateLayoutID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "layout id cannot be empty")
	}
	if !layoutIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid layout id: %q", id)
	}
	return nil
}
