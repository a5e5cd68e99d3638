package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated database in a temporary directory that is removed
// when the test ends.
func NewSQLiteStore(t testing.TB) *sqlite.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "devskilltracker.db")
	db, err := sqlite.Open(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return db
}
