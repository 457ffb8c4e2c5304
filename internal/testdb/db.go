package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/lexis-api/internal/ciutil"
	"github.com/phrazzld/lexis-api/internal/platform/migrations"
	"github.com/phrazzld/lexis-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the configured integration database URL.
func GetTestDatabaseURL() string {
	return ciutil.GetTestDatabaseURL(nil)
}

// ShouldSkipDatabaseTest reports whether no integration database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDBWithT opens the integration database, applying migrations on
// first use. The test is skipped when no database is configured; the
// connection is closed when the test finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("no integration database configured (set " + ciutil.EnvTestDBURL + ")")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL, 5)
	require.NoError(t, err, "failed to connect to %s", ciutil.MaskSensitiveValue(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		migrateErr = migrations.Up(ctx, db, migrations.DriverPostgres, quiet)
	})
	require.NoError(t, migrateErr, "failed to migrate integration database")

	return db
}
