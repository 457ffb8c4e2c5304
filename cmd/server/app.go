package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis-api/internal/api/middleware"
	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/redact"
	"github.com/phrazzld/lexis-api/internal/service"
	"github.com/phrazzld/lexis-api/internal/service/auth"
)

// application holds the shared dependencies of the server so they can be
// wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService  auth.JWTService
	wordService service.AggregatedWordService
	rateLimiter *middleware.RateLimiter
}

// newApplication wires stores, services and middleware on top of an open
// database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	wordStore, err := newWordStore(db, cfg.Database.Driver, logger)
	if err != nil {
		return nil, err
	}

	app.wordService, err = service.NewAggregatedWordService(wordStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregated word service: %w", err)
	}

	app.rateLimiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	if !app.rateLimiter.Enabled() {
		logger.Info("per-user rate limiting disabled")
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is canceled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", redact.Attr(err))
		}
	}
	app.logger.Info("application shutdown completed")
}
