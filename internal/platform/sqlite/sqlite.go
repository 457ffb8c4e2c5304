package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
	"github.com/phrazzld/lexis-api/internal/store"
)

// DriverName is the database/sql driver used for SQLite.
const DriverName = "sqlite"

// Pragmas applied to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// DSN appends the connection pragmas to path.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + sep + strings.Join(params, "&")
}

// Open opens the SQLite database at path, creating it if needed.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open(DriverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", MapError(err))
	}

	if logger != nil {
		logger.Debug("sqlite database opened", slog.String("path", path))
	}
	return db, nil
}

// NewAggregatedWordStore creates an aggregated word store backed by SQLite.
func NewAggregatedWordStore(db store.DBTX, logger *slog.Logger) *sqlstore.AggregatedWordStore {
	return sqlstore.New(db, Dialect{}, logger)
}
