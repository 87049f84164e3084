// Package migrations holds the SQL schema of the cross database and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// Run applies all pending migrations against db.
func Run(db *sql.DB) error {
	return RunContext(context.Background(), db, nil)
}

// RunContext applies pending migrations and logs each applied version
// when logger is non-nil.
func RunContext(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fs)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if logger != nil {
		for _, res := range results {
			logger.Info("applied migration",
				"version", res.Source.Version,
				"duration_ms", res.Duration.Milliseconds(),
			)
		}
	}
	return nil
}
