package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
	"github.com/phrazzld/lexis-api/internal/store"
)

// DriverName is the database/sql driver used for PostgreSQL.
const DriverName = "pgx"

// Open establishes a connection pool to url and verifies it with a ping.
func Open(ctx context.Context, url string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(max(1, maxOpenConns/2))
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", MapError(err))
	}

	return db, nil
}

// NewAggregatedWordStore creates an aggregated word store backed by PostgreSQL.
func NewAggregatedWordStore(db store.DBTX, logger *slog.Logger) *sqlstore.AggregatedWordStore {
	return sqlstore.New(db, Dialect{}, logger)
}
