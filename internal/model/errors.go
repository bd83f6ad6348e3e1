package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotAuthenticated is returned when an operation needs a session and has none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the session lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a requested event or registration does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRemoteUnavailable wraps any failure of the database or asset backend.
	ErrRemoteUnavailable = errors.New("backend unavailable")
	// ErrCascadeIncomplete is returned when an event was deleted but some of
	// its registrations survived.
	ErrCascadeIncomplete = errors.New("event deleted but registrations remain")

	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken signals the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWeakPassword signals the password is shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field rejected by a request validation.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) add(field, msg string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: msg})
}

func (v *ValidationError) errOrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// FieldNames returns the rejected field names in order.
func (v *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		names = append(names, f.Field)
	}
	return names
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for any *ValidationError.
func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}
