package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/application"
	"github.com/johanWP/DevSkillTracker/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DEVSKILL_CONFIG", "")
	t.Setenv("DEVSKILL_STORAGE_DRIVER", "sqlite")
	t.Setenv("DEVSKILL_SQLITE_DSN", dsn)
	t.Setenv("DEVSKILL_LOG_LEVEL", "error")
	return dsn
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "devskilltracker version "+version+" (build: "+buildTime+")\n", out)
}

func TestMigrateCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.NotEqual(t, "applied 0 migration(s)\n", out)

	out, err = runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "applied 0 migration(s)\n", out)
}

func TestMigrateCommandRequiresSQLite(t *testing.T) {
	useSQLite(t)
	t.Setenv("DEVSKILL_STORAGE_DRIVER", "memory")

	_, err := runCLI(t, "migrate")
	assert.ErrorContains(t, err, "storage_driver=sqlite")
}

func TestCredentialAddCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCLI(t, "credential", "add", "--email", " Admin@Example.com ", "--password", "s3cret-pass", "--uid", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "credential stored for admin@example.com (uid admin-1)\n", out)

	_, err = runCLI(t, "credential", "add", "--email", "admin@example.com", "--password", "short")
	assert.ErrorContains(t, err, "at least 8 characters")

	_, err = runCLI(t, "credential", "add", "--password", "s3cret-pass")
	assert.ErrorContains(t, err, "--email is required")
}

func TestCatalogCommands(t *testing.T) {
	useSQLite(t)

	out, err := runCLI(t, "catalog", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "JavaScript\n"), "defaults are shown when no catalog is stored: %q", out)

	out, err = runCLI(t, "catalog", "set", "Go", " SQL ", "Go", " ")
	require.NoError(t, err)
	assert.Equal(t, "stored 2 skill(s)\n", out)

	out, err = runCLI(t, "catalog", "show")
	require.NoError(t, err)
	assert.Equal(t, "Go\nSQL\n", out)

	file := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(file, []byte("skills:\n  - Rust\n  - Kubernetes\n"), 0o600))
	_, err = runCLI(t, "catalog", "import", file)
	require.NoError(t, err)

	out, err = runCLI(t, "catalog", "show")
	require.NoError(t, err)
	assert.Equal(t, "Rust\nKubernetes\n", out)
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "sequence", input: "- Go\n- SQL\n", want: []string{"Go", "SQL"}},
		{name: "mapping", input: "skills: [React, ' Vue ', React]\n", want: []string{"React", "Vue"}},
		{name: "empty document", input: "", wantErr: "empty"},
		{name: "no skills", input: "skills: []\n", wantErr: "no skills"},
		{name: "scalar", input: "Go\n", wantErr: "sequence or a mapping"},
		{name: "malformed", input: "skills: [Go\n", wantErr: "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCatalog([]byte(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestApp(t *testing.T, admins ...string) *app {
	t.Helper()
	cfg := config.Default()
	cfg.StorageDriver = config.DriverMemory
	cfg.AdminEmails = admins

	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestApp_ServesWiredRoutes(t *testing.T) {
	a := newTestApp(t, "admin@example.com")
	_, err := a.provider.RegisterCredential(context.Background(), "admin@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"email":"admin@example.com","password":"s3cret-pass"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token := rec.Header().Get("X-Session-Token")

	req := httptest.NewRequest(http.MethodGet, "/api/skills", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `devskilltracker_http_requests_total{method="GET",route="GET /api/skills",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `devskilltracker_gate_decisions_total{outcome="authorized"} 1`)
}

func TestApp_AllowListReloadSignsOutRemovedAdmins(t *testing.T) {
	a := newTestApp(t, "admin@example.com", "lead@example.com")
	ctx := context.Background()
	for _, email := range []string{"admin@example.com", "lead@example.com"} {
		_, err := a.provider.RegisterCredential(ctx, email, "s3cret-pass", "")
		require.NoError(t, err)
	}
	admin, err := a.provider.SignIn(ctx, "admin@example.com", "s3cret-pass")
	require.NoError(t, err)
	lead, err := a.provider.SignIn(ctx, "lead@example.com", "s3cret-pass")
	require.NoError(t, err)

	a.reloadAllowList(ctx, []string{"lead@example.com"})

	_, ok := a.gate.Authorized(admin.Token)
	assert.False(t, ok)
	_, ok = a.gate.Authorized(lead.Token)
	assert.True(t, ok)
	_, err = a.provider.Session(ctx, admin.Token)
	assert.Error(t, err)
}

func TestAllowListDiff(t *testing.T) {
	before := application.NewAllowList([]string{"admin@example.com", "ops@example.com"})
	after := application.NewAllowList([]string{"OPS@example.com", "lead@example.com"})

	assert.Equal(t, []string{"lead@example.com"}, allowListDiff(after, before))
	assert.Equal(t, []string{"admin@example.com"}, allowListDiff(before, after))
	assert.Nil(t, allowListDiff(before, before))
}

func TestApp_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.StorageDriver = config.DriverMemory
	cfg.MetricsEnabled = false

	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close(context.Background())

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
