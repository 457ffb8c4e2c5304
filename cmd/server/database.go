package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/platform/migrations"
	"github.com/phrazzld/lexis-api/internal/platform/postgres"
	"github.com/phrazzld/lexis-api/internal/platform/sqlite"
	"github.com/phrazzld/lexis-api/internal/redact"
	"github.com/phrazzld/lexis-api/internal/store"
)

// openDatabase connects to the configured database.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case migrations.DriverPostgres:
		db, err = postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
	case migrations.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %s: %w", cfg.Driver, redact.Error(err), store.ErrStoreUnavailable)
	}

	logger.Info("database connection established", slog.String("driver", cfg.Driver))
	return db, nil
}

// newWordStore returns the aggregated word store for driver.
func newWordStore(db *sql.DB, driver string, logger *slog.Logger) (store.AggregatedWordStore, error) {
	switch driver {
	case migrations.DriverPostgres:
		return postgres.NewAggregatedWordStore(db, logger), nil
	case migrations.DriverSQLite:
		return sqlite.NewAggregatedWordStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
