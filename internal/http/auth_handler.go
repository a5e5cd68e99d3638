package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/identity"
)

const sessionCookieName = "session_token"

type identityProvider interface {
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignOut(ctx context.Context, token string) error
}

// AuthOption configures an AuthHandler.
type AuthOption func(*AuthHandler)

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) AuthOption {
	return func(h *AuthHandler) {
		h.secureCookies = secure
	}
}

// AuthHandler serves the login screen and the session endpoints. Whether a signed-in
// identity may proceed is decided by the gate, which observes the provider's session
// stream synchronously during SignIn.
type AuthHandler struct {
	provider      identityProvider
	gate          Gate
	pages         *renderer
	responder     responder
	logger        *slog.Logger
	secureCookies bool
}

func NewAuthHandler(provider identityProvider, gate Gate, logger *slog.Logger, opts ...AuthOption) *AuthHandler {
	base := defaultLogger(logger)
	h := &AuthHandler{
		provider:  provider,
		gate:      gate,
		pages:     mustRenderer(base),
		responder: newResponder(base),
		logger:    base,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type loginPage struct {
	Email string
	Error string
}

// ShowLogin renders the loading indicator until the gate has seen its first event, then
// the login form. Signed-in administrators go straight to the dashboard.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.gate.Loading() {
		h.pages.render(w, r, http.StatusOK, pageLoading, nil)
		return
	}
	token := extractTokenFromRequest(r)
	if _, ok := h.gate.Authorized(token); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.pages.render(w, r, http.StatusOK, pageLogin, loginPage{Error: h.gate.TakeError(token)})
}

// Login handles the login form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.render(w, r, http.StatusBadRequest, pageLogin, loginPage{Error: statusMessage(http.StatusBadRequest)})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	session, status, message := h.signIn(r.Context(), email, r.PostFormValue("password"))
	if message != "" {
		h.pages.render(w, r, status, pageLogin, loginPage{Email: email, Error: message})
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the current session and returns to the login screen.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	if token != "" {
		if err := h.provider.SignOut(r.Context(), token); err != nil {
			h.log(r.Context(), "Logout").ErrorContext(r.Context(), "failed to sign out", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// CreateSession is the JSON sign-in endpoint.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, status, message := h.signIn(r.Context(), req.Email, req.Password)
	if message != "" {
		code := "AUTH_INVALID_CREDENTIALS"
		switch status {
		case http.StatusForbidden:
			code = "AUTH_FORBIDDEN"
		case http.StatusServiceUnavailable:
			code = "BACKEND_UNAVAILABLE"
		}
		h.responder.fail(r.Context(), w, status, code, message)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	w.Header().Set("X-Session-Token", session.Token)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{
		Token:     session.Token,
		UID:       session.UID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// DeleteSession is the JSON sign-out endpoint.
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.fail(r.Context(), w, http.StatusUnauthorized, "AUTH_REQUIRED", errMissingSessionToken.Error())
		return
	}
	if err := h.provider.SignOut(r.Context(), token); err != nil {
		h.log(r.Context(), "DeleteSession").ErrorContext(r.Context(), "failed to sign out", "error", err)
		h.responder.fail(r.Context(), w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", application.MessageSignInError)
		return
	}
	h.clearSessionCookie(w)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// signIn returns a non-empty message when the caller must not proceed.
func (h *AuthHandler) signIn(ctx context.Context, email, password string) (identity.Session, int, string) {
	logger := h.log(ctx, "SignIn", "email", application.NormalizeEmail(email))

	session, err := h.provider.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredential) {
			logger.InfoContext(ctx, "sign-in rejected", "error_kind", application.ErrorKind(err))
			return identity.Session{}, http.StatusUnauthorized, application.MessageSignInFailed
		}
		logger.ErrorContext(ctx, "sign-in failed", "error", err, "error_kind", application.ErrorKind(err))
		return identity.Session{}, http.StatusServiceUnavailable, application.MessageSignInError
	}

	if _, ok := h.gate.Authorized(session.Token); !ok {
		message := h.gate.TakeError(session.Token)
		if message == "" {
			message = application.MessageUnauthorized
		}
		logger.WarnContext(ctx, "signed-in identity refused by gate", "uid", session.UID, "error_kind", application.ErrorKind(application.ErrUnauthorized))
		return identity.Session{}, http.StatusForbidden, message
	}

	logger.InfoContext(ctx, "administrator signed in", "uid", session.UID)
	return session, http.StatusOK, ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
