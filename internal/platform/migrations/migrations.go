// Package migrations embeds the database schema and applies it with goose.
// Each supported driver has its own directory of numbered SQL migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Supported driver names, matching config.DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// NewProvider returns a goose provider for db using the migrations of driver.
func NewProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dialect = goose.DialectPostgres
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}

	fsys, err := fs.Sub(embedded, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	provider, err := NewProvider(db, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		logResult(logger, r)
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	if len(results) == 0 {
		logger.Info("database schema is up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	provider, err := NewProvider(db, driver)
	if err != nil {
		return err
	}

	result, err := provider.Down(ctx)
	if result != nil {
		logResult(logger, result)
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Status reports every known migration and whether it is applied.
func Status(ctx context.Context, db *sql.DB, driver string) ([]*goose.MigrationStatus, error) {
	provider, err := NewProvider(db, driver)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status failed: %w", err)
	}
	return statuses, nil
}

func logResult(logger *slog.Logger, r *goose.MigrationResult) {
	attrs := []any{
		slog.String("direction", r.Direction),
		slog.Duration("duration", r.Duration),
	}
	if r.Source != nil {
		attrs = append(attrs,
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path))
	}
	if r.Error != nil {
		logger.Error("migration failed", append(attrs, slog.String("error", r.Error.Error()))...)
		return
	}
	logger.Info("migration applied", attrs...)
}
