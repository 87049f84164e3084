package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath     string        `env:"DB_PATH" envDefault:"data/cross.db"`
	LogLevel   slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SeedFile   string        `env:"SEED_FILE"`
	SeedDemo   bool          `env:"SEED_DEMO" envDefault:"false"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"72h"`
}

// Load reads the environment, after applying envFiles (".env" when none
// are given). Missing env files are ignored; variables already set in the
// environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return &cfg, nil
}
