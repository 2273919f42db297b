package errors

import (
	"strings"
	"unicode"
)

// maxLabelLength bounds user-supplied graph labels.
const maxLabelLength = 256

// ValidateLabel validates a location label received from a caller before it
// is looked up in the graph.
//
// The validation rules are intentionally conservative:
//   - No empty labels
//   - No control characters
//   - Maximum length of 256 characters
//
// Whether the label actually exists is checked by the route search, which
// reports ErrCodeMissingLabel.
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "label cannot be empty")
	}

	if len(label) > maxLabelLength {
		return New(ErrCodeInvalidInput, "label too long (max %d characters)", maxLabelLength)
	}

	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label contains invalid control characters")
		}
	}

	return nil
}

// ValidateAssetPath validates a floor asset path taken from configuration.
// It prevents path traversal out of the asset directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative to the asset directory)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateAssetPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidConfig, "asset path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidConfig, "asset path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "asset path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidConfig, "asset path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidConfig, "asset path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidConfig, "asset path cannot contain backslashes")
	}

	return nil
}
