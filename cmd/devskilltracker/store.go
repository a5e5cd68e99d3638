package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/johanWP/DevSkillTracker/internal/config"
	"github.com/johanWP/DevSkillTracker/internal/identity"
	"github.com/johanWP/DevSkillTracker/internal/persistence"
	"github.com/johanWP/DevSkillTracker/internal/persistence/memory"
	"github.com/johanWP/DevSkillTracker/internal/persistence/sqlite"
)

// backend serves the document collections and the identity provider from one store.
type backend interface {
	persistence.DocumentStore
	identity.Store
	Close() error
}

// openBackend opens the configured store. The sqlite store is migrated before use and
// also returned as a health pinger.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, *sqlite.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.New(), nil, nil
	case config.DriverSQLite:
		db, err := openSQLite(ctx, cfg.SQLiteDSN, logger, true)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openSQLite(ctx context.Context, dsn string, logger *slog.Logger, migrate bool) (*sqlite.Store, error) {
	db, err := sqlite.Open(dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if !migrate {
		return db, nil
	}
	if _, err := db.Migrate(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}
