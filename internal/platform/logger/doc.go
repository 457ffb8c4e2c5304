// Package logger configures the application's structured logger (log/slog)
// and carries request-scoped loggers through context.Context.
package logger
