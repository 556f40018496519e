package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports create input that failed validation.
// Fields lists the offending field names in a stable order.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s must not be empty", strings.Join(e.Fields, ", "))
}

// NewValidationError creates a validation error for the given fields.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NotFoundError reports a lookup or delete against an absent identifier.
type NotFoundError struct {
	ID int
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %d not found", e.ID)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
