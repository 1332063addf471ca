package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds callers distinguish.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvariantViolation = errors.New("invoice invariant violated")
)

// ValidationError is a rejected input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is an id or reference that does not resolve. It matches ErrNotFound.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds the NotFound condition for an entity name ("invoice", "payment", ...).
func NotFound(entity string) error { return &NotFoundError{Entity: entity} }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error { return &ValidationError{Field: field, Message: message} }
