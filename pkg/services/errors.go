// Package services implements the website, schedule, screenshot and run operations behind the HTTP API.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/webmonitor/pkg/capture"
	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrURLRequired       = models.ErrWebsiteURLRequired
	ErrURLScheme         = models.ErrWebsiteURLScheme
	ErrDuplicateURL      = errors.New("duplicate URL in list")
	ErrNoWebsites        = errors.New("no websites configured")
	ErrScheduleNotObject = errors.New("schedule must be an object")
	ErrInvalidFolder     = capture.ErrInvalidFolder

	// Not Found (404).
	ErrWebsiteNotFound = persistence.ErrWebsiteNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrWebsiteExists = persistence.ErrWebsiteAlreadyExists
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrURLRequired) ||
		errors.Is(err, ErrURLScheme) ||
		errors.Is(err, ErrDuplicateURL) ||
		errors.Is(err, ErrNoWebsites) ||
		errors.Is(err, ErrScheduleNotObject) ||
		errors.Is(err, ErrInvalidFolder)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWebsiteExists)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWebsiteNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
