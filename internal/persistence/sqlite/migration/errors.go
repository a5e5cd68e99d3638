package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrVersionConflict covers a gap in the sequence and an applied version with no file.
	ErrVersionConflict  = errors.New("migration version conflict")
	ErrInvalidVersion   = errors.New("invalid migration version")
	ErrDuplicateVersion = errors.New("duplicate migration version")
)

// MigrationError records which migration and step failed. File is empty for
// failures that happened against the database rather than a migration file.
type MigrationError struct {
	Version string
	File    string
	Step    string
	Err     error
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.File != "" {
		b.WriteString(" (" + e.File + ")")
	} else {
		b.WriteString(" database")
	}
	fmt.Fprintf(&b, ": %s: %v", e.Step, e.Err)
	return b.String()
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError ties err to a migration file.
func NewMigrationError(version, file, step string, err error) *MigrationError {
	return &MigrationError{Version: version, File: file, Step: step, Err: err}
}

func newDatabaseError(version, step string, err error) *MigrationError {
	return &MigrationError{Version: version, Step: step, Err: err}
}
