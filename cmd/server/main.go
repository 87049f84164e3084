package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/eIGato/hightech-cross/internal/clock"
	"github.com/eIGato/hightech-cross/internal/config"
	"github.com/eIGato/hightech-cross/internal/database"
	"github.com/eIGato/hightech-cross/internal/migrations"
	"github.com/eIGato/hightech-cross/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	clk := clock.Real()

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.RunContext(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Seed ---
	store := server.NewSQLiteStore(db)
	if cfg.SeedFile != "" {
		if err := server.SeedFile(ctx, logger, store, cfg.SeedFile); err != nil {
			return fmt.Errorf("seeding from %s: %w", cfg.SeedFile, err)
		}
	}
	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, store, clk.Now()); err != nil {
			return fmt.Errorf("seeding demo: %w", err)
		}
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, db, clk, cfg.SessionTTL)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
