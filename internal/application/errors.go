package application

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrUnauthorized is returned when an authenticated identity is not on the administrator allow-list.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned by repositories when a create-if-absent write finds an existing key.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrDuplicateEmail is returned when a developer with the same normalized email is already registered.
	ErrDuplicateEmail = errors.New("application: duplicate email")
	// ErrStoreUnavailable wraps any transport or backend failure reported by the document store.
	ErrStoreUnavailable = errors.New("application: store unavailable")
	// ErrInvalidCredential is returned by the identity provider when sign-in fails for any credential reason.
	ErrInvalidCredential = errors.New("application: invalid credential")
	// ErrSubmissionInProgress is returned when a form instance is submitted while a previous submit is still running.
	ErrSubmissionInProgress = errors.New("application: submission in progress")
)

// User-visible messages surfaced at the component boundary that initiated an operation.
const (
	MessageUnauthorized     = "You are not authorized to access this application."
	MessageRequiredFields   = "Name and Email are required fields."
	MessageDuplicateEmail   = "A developer with this email already exists."
	MessageCreateFailed     = "Failed to create developer. Please try again."
	MessageListFailed       = "Failed to fetch developers. Please try again later."
	MessageSubmitInProgress = "This form is already being saved."
	MessageSignInFailed     = "Invalid email or password."
	MessageSignInError      = "Sign-in is unavailable. Please try again later."
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error names the offending fields in a stable order.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(slices.Sorted(maps.Keys(v.FieldErrors)), ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// storeUnavailable tags err so callers can match ErrStoreUnavailable while keeping the cause.
func storeUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
