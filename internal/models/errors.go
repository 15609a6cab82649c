package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can match on it
// without parsing messages.
type ErrorKind string

const (
	// ErrorKindValidation covers bad or inconsistent caller input:
	// unknown/inactive center or service, past dates, unavailable slots.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindConflict means the caller lost a race for a shared
	// resource (a technician time slot). Retrying with the same slot
	// will not help.
	ErrorKindConflict ErrorKind = "conflict"

	// ErrorKindDependency means an external collaborator failed:
	// payment gateway unreachable, no technician available.
	ErrorKindDependency ErrorKind = "dependency"

	// ErrorKindNotFound means the referenced record does not exist.
	ErrorKindNotFound ErrorKind = "not_found"
)

// AppError is the single error type crossing the service boundary.
// Handlers map Kind to an HTTP status; Message is safe to show to users.
type AppError struct {
	Kind    ErrorKind
	Message string
	Field   string // offending request field, when known
	Err     error  // underlying cause, not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{Kind: ErrorKindValidation, Field: field, Message: message}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{Kind: ErrorKindConflict, Message: message}
}

// NewDependencyError creates a dependency error wrapping the upstream cause
func NewDependencyError(message string, err error) *AppError {
	return &AppError{Kind: ErrorKindDependency, Message: message, Err: err}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: ErrorKindNotFound, Message: message}
}

// ErrSlotTaken is returned when a technician time slot is already bound
// to another booking. Both the availability pre-check and the storage
// uniqueness backstop surface this same error, so callers see one
// consistent "choose another slot" outcome regardless of which layer
// caught the race.
var ErrSlotTaken = &AppError{
	Kind:    ErrorKindConflict,
	Field:   "technician_slot_id",
	Message: "slot is no longer available, please choose another slot",
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// ErrorKindOf returns the kind of err, or "" if err is not an AppError
func ErrorKindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
