package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/johanWP/DevSkillTracker/internal/logging"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, base, "service", serviceName, operation, attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	kinds := []struct {
		target error
		kind   string
	}{
		{ErrUnauthorized, "unauthorized"},
		{ErrDuplicateEmail, "duplicate_email"},
		{ErrStoreUnavailable, "store_unavailable"},
		{ErrNotFound, "not_found"},
		{ErrAlreadyExists, "already_exists"},
		{ErrSubmissionInProgress, "submission_in_progress"},
		{ErrInvalidCredential, "invalid_credential"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}
