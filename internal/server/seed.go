package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/eIGato/hightech-cross/internal/seed"
)

// SeedFile imports the cross definitions at path. Crosses that already
// exist by name are left untouched, so it is safe to run on every start.
func SeedFile(ctx context.Context, logger *slog.Logger, store Store, path string) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	return importSeed(ctx, logger, store, f, "file", path)
}

// SeedDemo creates the demo teams and a demo cross that started at now.
// Idempotent: does nothing if the demo cross already exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store, now time.Time) error {
	return importSeed(ctx, logger, store, seed.Demo(now), "demo", "")
}

func importSeed(ctx context.Context, logger *slog.Logger, store Store, f *seed.File, source, path string) error {
	stats, err := store.Import(ctx, f)
	if err != nil {
		return err
	}
	logger.Info("seed imported",
		"source", source,
		"path", path,
		"teams_created", stats.TeamsCreated,
		"crosses_created", stats.CrossesCreated,
		"crosses_skipped", stats.CrossesSkipped,
	)
	return nil
}
