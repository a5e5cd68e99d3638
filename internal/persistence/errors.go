package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAlreadyExists is returned by create-if-absent writes when the key is taken.
	ErrAlreadyExists = errors.New("persistence: already exists")
	// ErrBackendUnavailable wraps transport, driver, and decoding failures of a store.
	ErrBackendUnavailable = errors.New("persistence: backend unavailable")
)
