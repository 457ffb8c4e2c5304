package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/phrazzld/lexis-api/internal/platform/migrations"
	"github.com/pressly/goose/v3"
)

// runMigrations executes one of the -migrate commands. Status is written to out.
func runMigrations(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger, out io.Writer) error {
	logger = logger.With(slog.String("component", "migrations"), slog.String("command", command))

	switch command {
	case "up":
		return migrations.Up(ctx, db, driver, logger)
	case "down":
		return migrations.Down(ctx, db, driver, logger)
	case "status":
		statuses, err := migrations.Status(ctx, db, driver)
		if err != nil {
			return err
		}
		return writeStatus(out, statuses)
	default:
		return fmt.Errorf("unknown migration command %q (want up, down or status)", command)
	}
}

func writeStatus(out io.Writer, statuses []*goose.MigrationStatus) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "-"
		if s.State == goose.StateApplied {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return tw.Flush()
}
