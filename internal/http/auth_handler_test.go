package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/identity"
	"github.com/johanWP/DevSkillTracker/internal/testfixtures"
)

type loadingGate struct{}

func (loadingGate) Loading() bool { return true }
func (loadingGate) Authorized(string) (application.Identity, bool) {
	return application.Identity{}, false
}
func (loadingGate) TakeError(string) string { return "" }

func TestAuthHandler_ShowLoginWhileLoading(t *testing.T) {
	handler := NewAuthHandler(nil, loadingGate{}, nil)

	rec := httptest.NewRecorder()
	handler.ShowLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Loading...")
	assert.NotContains(t, body, `name="password"`)
}

func TestAuthHandler_ShowLogin(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.serve(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)

	token := srv.adminToken(t)
	rec = srv.serve(withSession(httptest.NewRequest(http.MethodGet, "/login", nil), token))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAuthHandler_LoginAdministrator(t *testing.T) {
	srv := newTestServer(t)
	srv.stack.AddCredential(t, testAdmin)

	rec := srv.serve(postForm("/login", url.Values{"email": {" Admin@Example.com "}, "password": {testfixtures.DefaultPassword}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	admin, ok := srv.stack.Gate.Authorized(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, testAdmin, admin.Email)
}

func TestAuthHandler_LoginNonAdministratorIsSignedOut(t *testing.T) {
	srv := newTestServer(t)
	srv.stack.AddCredential(t, "dev@example.com")

	rec := srv.serve(postForm("/login", url.Values{"email": {"dev@example.com"}, "password": {testfixtures.DefaultPassword}}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), html.EscapeString(application.MessageUnauthorized))
	assert.Nil(t, sessionCookie(rec))

	sessions, err := srv.stack.Store.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions, "the refused session is signed out")
}

func TestAuthHandler_LoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	srv.stack.AddCredential(t, testAdmin)

	rec := srv.serve(postForm("/login", url.Values{"email": {testAdmin}, "password": {"nope"}}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), html.EscapeString(application.MessageSignInFailed))
	assert.Contains(t, rec.Body.String(), `value="admin@example.com"`)
}

type unavailableProvider struct{}

func (unavailableProvider) SignIn(context.Context, string, string) (identity.Session, error) {
	return identity.Session{}, fmt.Errorf("%w: connection refused", identity.ErrBackendUnavailable)
}

func (unavailableProvider) SignOut(context.Context, string) error { return nil }

func TestAuthHandler_LoginBackendUnavailable(t *testing.T) {
	srv := newTestServer(t)
	handler := NewAuthHandler(unavailableProvider{}, srv.stack.Gate, srv.stack.Logger)

	rec := httptest.NewRecorder()
	handler.Login(rec, postForm("/login", url.Values{"email": {testAdmin}, "password": {testfixtures.DefaultPassword}}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), html.EscapeString(application.MessageSignInError))
}

func TestAuthHandler_Logout(t *testing.T) {
	srv := newTestServer(t)
	token := srv.adminToken(t)

	rec := srv.serve(withSession(httptest.NewRequest(http.MethodPost, "/logout", nil), token))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)

	_, ok := srv.stack.Gate.Authorized(token)
	assert.False(t, ok)
}

func TestAuthHandler_SessionAPI(t *testing.T) {
	srv := newTestServer(t)
	adminUID := srv.stack.AddCredential(t, testAdmin)
	srv.stack.AddCredential(t, "dev@example.com")

	tests := []struct {
		name     string
		body     string
		status   int
		code     string
		wantAuth bool
	}{
		{name: "administrator", body: `{"email":"admin@example.com","password":"` + testfixtures.DefaultPassword + `"}`, status: http.StatusCreated, wantAuth: true},
		{name: "not on allow-list", body: `{"email":"dev@example.com","password":"` + testfixtures.DefaultPassword + `"}`, status: http.StatusForbidden, code: "AUTH_FORBIDDEN"},
		{name: "wrong password", body: `{"email":"admin@example.com","password":"nope"}`, status: http.StatusUnauthorized, code: "AUTH_INVALID_CREDENTIALS"},
		{name: "malformed body", body: `{`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(tt.body))
			rec := srv.serve(req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), `"error_code":"`+tt.code+`"`)
			}
			if tt.wantAuth {
				token := rec.Header().Get("X-Session-Token")
				require.NotEmpty(t, token)
				var resp loginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, token, resp.Token)
				assert.Equal(t, adminUID, resp.UID)
				assert.Equal(t, testAdmin, resp.Email)
				expires, err := time.Parse(time.RFC3339Nano, resp.ExpiresAt)
				require.NoError(t, err)
				assert.True(t, srv.stack.Clock.Now().Add(identity.DefaultSessionTTL).Equal(expires), "expires_at is one TTL after sign-in")
				_, ok := srv.stack.Gate.Authorized(token)
				assert.True(t, ok)

				del := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
				del.Header.Set("Authorization", "Bearer "+token)
				assert.Equal(t, http.StatusNoContent, srv.serve(del).Code)
				_, ok = srv.stack.Gate.Authorized(token)
				assert.False(t, ok)
			}
		})
	}
}

func TestAuthHandler_DeleteSessionRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.serve(httptest.NewRequest(http.MethodDelete, "/api/session", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")
}

func TestExtractTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, extractTokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", extractTokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", extractTokenFromRequest(req), "bearer header wins over the cookie")
}
