// Package main implements the entry point for the Lexis API server, which
// serves a word catalog merged with each user's learning overlay.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/platform/logger"
	"github.com/phrazzld/lexis-api/internal/platform/otel"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd, os.Stdout); err != nil {
		slog.Error("lexis-api failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads configuration, opens the database and either executes a
// migration command or serves HTTP until SIGINT/SIGTERM.
func run(migrateCmd string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, cfg.Database.Driver, migrateCmd, log, out)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, db, cfg.Database.Driver, "up", log, out); err != nil {
			_ = db.Close()
			return err
		}
	}

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
