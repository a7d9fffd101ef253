// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWebsiteNotFound indicates a website is not part of the stored list.
	ErrWebsiteNotFound = errors.New("website not found")

	// ErrWebsiteAlreadyExists indicates a website is already part of the stored list.
	ErrWebsiteAlreadyExists = errors.New("website already exists")

	// ErrCorruptDocument indicates a stored document could not be decoded.
	ErrCorruptDocument = errors.New("corrupt document")
)

// DocumentError wraps document-level failures with the operation and document name.
type DocumentError struct {
	Op       string // Operation being performed (e.g., "Load", "Save")
	Document string // Document name (e.g., "websites", "schedule")
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s operation failed for %s document: %v", e.Op, e.Document, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDocumentError creates a new document error with context.
func NewDocumentError(op, document string, err error) *DocumentError {
	return &DocumentError{
		Op:       op,
		Document: document,
		Err:      err,
	}
}

// IsWebsiteNotFound checks if an error indicates a website was not found.
func IsWebsiteNotFound(err error) bool {
	return errors.Is(err, ErrWebsiteNotFound)
}

// IsWebsiteAlreadyExists checks if an error indicates a duplicate website.
func IsWebsiteAlreadyExists(err error) bool {
	return errors.Is(err, ErrWebsiteAlreadyExists)
}
