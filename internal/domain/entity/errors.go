package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")

	// ErrPublicationNotFound indicates that an article insert referenced a
	// publication that has not been registered. This is a referential
	// integrity violation and must be surfaced, never silently dropped.
	ErrPublicationNotFound = errors.New("publication not found")
)

// ValidationError represents a per-item validation failure with the field
// that caused it. Items failing validation are dropped before persistence;
// the error is recovered locally by the adapter, never propagated to the
// tick level.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
