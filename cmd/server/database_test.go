package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/phrazzld/lexis-api/internal/platform/migrations"
	"github.com/phrazzld/lexis-api/internal/platform/sqlstore"
	"github.com/phrazzld/lexis-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase(t *testing.T) {
	log, _ := logger.NewTestLogger()
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		db, err := openDatabase(ctx, config.DatabaseConfig{
			Driver: migrations.DriverSQLite,
			URL:    filepath.Join(t.TempDir(), "lexis.db"),
		}, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		assert.NoError(t, db.PingContext(ctx))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := openDatabase(ctx, config.DatabaseConfig{Driver: "mysql", URL: "x"}, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("unreachable sqlite", func(t *testing.T) {
		_, err := openDatabase(ctx, config.DatabaseConfig{
			Driver: migrations.DriverSQLite,
			URL:    filepath.Join(t.TempDir(), "missing", "dir", "lexis.db"),
		}, log)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	})
}

func TestNewWordStore(t *testing.T) {
	log, _ := logger.NewTestLogger()

	for _, driver := range []string{migrations.DriverPostgres, migrations.DriverSQLite} {
		s, err := newWordStore(nil, driver, log)
		require.NoError(t, err, driver)
		assert.IsType(t, &sqlstore.AggregatedWordStore{}, s)
	}

	_, err := newWordStore(nil, "oracle", log)
	assert.Error(t, err)
}

func TestRunMigrations(t *testing.T) {
	log, _ := logger.NewTestLogger()
	ctx := context.Background()

	db, err := openDatabase(ctx, config.DatabaseConfig{
		Driver: migrations.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "lexis.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	require.NoError(t, runMigrations(ctx, db, migrations.DriverSQLite, "status", log, &out))
	assert.Contains(t, out.String(), "VERSION")
	assert.Contains(t, out.String(), "pending")

	require.NoError(t, runMigrations(ctx, db, migrations.DriverSQLite, "up", log, &out))

	out.Reset()
	require.NoError(t, runMigrations(ctx, db, migrations.DriverSQLite, "status", log, &out))
	assert.Contains(t, out.String(), "applied")
	assert.NotContains(t, out.String(), "pending")

	require.NoError(t, runMigrations(ctx, db, migrations.DriverSQLite, "down", log, &out))

	err = runMigrations(ctx, db, migrations.DriverSQLite, "redo", log, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestNewApplication_InvalidAuth(t *testing.T) {
	log, _ := logger.NewTestLogger()
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := newApplication(cfg, log, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT service")
}
