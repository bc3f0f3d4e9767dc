package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller-fault input errors. ValidationError wraps it.
	ErrValidation = errors.New("validation error")

	// ErrAllSourcesUnavailable is returned when every search backend failed,
	// so the caller can distinguish "no matches" from "search is down".
	ErrAllSourcesUnavailable = errors.New("all search sources unavailable")
)

// ValidationError reports a single invalid request field. No external calls
// are made once one is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
