package models

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that an id does not resolve to a saved analysis.
var ErrNotFound = errors.New("analysis not found")

// ErrForbidden signals an operation blocked by business rules, such as
// deleting a published analysis.
var ErrForbidden = errors.New("operation not permitted")

// ValidationError reports a missing or invalid required input field.
// The operation is not attempted when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field '%s': %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required field '%s'", e.Field)
}

// NewValidationError creates a ValidationError for a missing field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}
