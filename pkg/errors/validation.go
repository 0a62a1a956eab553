package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxTitleLength bounds node titles accepted from documents and requests.
const MaxTitleLength = 256

// ValidateDocumentID checks that id is a UUID. Document ids become file
// names and database keys, so anything else is rejected.
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDocumentID, "document id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidDocumentID, err, "invalid document id %q", id)
	}
	return nil
}

// ValidateTitle validates a node title.
//
// Validation rules:
//   - Maximum length of MaxTitleLength characters
//   - No control characters other than tab
func ValidateTitle(title string) error {
	if len(title) > MaxTitleLength {
		return New(ErrCodeInvalidInput, "title too long (max %d characters)", MaxTitleLength)
	}
	for _, r := range title {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "title contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a user supplied output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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

	if strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "path must name a file, not a directory")
	}
	return nil
}
