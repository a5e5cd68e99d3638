package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johanWP/DevSkillTracker/internal/application"
)

var (
	errBadRequestBody      = errors.New("Invalid request body.")
	errMissingSessionToken = errors.New("A session token is required.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// fail writes a coded error body. An empty message falls back to the status text.
func (r responder) fail(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	if message == "" {
		message = statusMessage(status)
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := ""
	if err != nil {
		message = strings.TrimSpace(err.Error())
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}
	r.fail(ctx, w, status, "", message)
}

// handleServiceError writes err as JSON. message, when set, replaces the default text
// for the error's kind.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	status, code, fallback := classifyError(err)

	resp := errorResponse{ErrorCode: code, Message: fallback}
	if message != "" {
		resp.Message = message
	}
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = vErr.FieldErrors
	}
	r.writeJSON(ctx, w, status, resp)
}

// classifyError maps an application error to a status, a stable code and a default message.
func classifyError(err error) (int, string, string) {
	var vErr *application.ValidationError
	switch {
	case err == nil:
		return http.StatusInternalServerError, "INTERNAL", statusMessage(http.StatusInternalServerError)
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, "VALIDATION_FAILED", application.MessageRequiredFields
	case errors.Is(err, application.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", application.MessageDuplicateEmail
	case errors.Is(err, application.ErrSubmissionInProgress):
		return http.StatusConflict, "SUBMISSION_IN_PROGRESS", application.MessageSubmitInProgress
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, "AUTH_FORBIDDEN", application.MessageUnauthorized
	case errors.Is(err, application.ErrInvalidCredential):
		return http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", application.MessageSignInFailed
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", statusMessage(http.StatusNotFound)
	case errors.Is(err, application.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", statusMessage(http.StatusServiceUnavailable)
	default:
		return http.StatusInternalServerError, "INTERNAL", statusMessage(http.StatusInternalServerError)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request could not be understood."
	case http.StatusUnauthorized:
		return "Please sign in to continue."
	case http.StatusForbidden:
		return application.MessageUnauthorized
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The request conflicts with the current state of the resource."
	case http.StatusUnprocessableEntity:
		return application.MessageRequiredFields
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
