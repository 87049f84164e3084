package server

import (
	"context"
	"time"

	"github.com/eIGato/hightech-cross/internal/cross"
	"github.com/eIGato/hightech-cross/internal/seed"
)

// Store is the persistence boundary of the HTTP layer: the progress
// ledger plus read access to the operator-authored catalog and team
// sessions.
type Store interface {
	cross.LedgerStore

	TeamCredentials(ctx context.Context, name string) (teamID, passwordHash string, err error)
	CreateSession(ctx context.Context, teamID string, expiresAt time.Time) (string, error)
	TeamFromSession(ctx context.Context, token string, now time.Time) (cross.Team, error)
	DeleteSession(ctx context.Context, token string) error

	CrossesForTeam(ctx context.Context, teamID string) ([]cross.Tournament, error)
	CrossForTeam(ctx context.Context, crossID, teamID string) (cross.Tournament, error)
	CrossTeams(ctx context.Context, crossID string) ([]cross.Team, error)
	Missions(ctx context.Context, crossID string) ([]cross.Mission, error)
	Mission(ctx context.Context, crossID string, sn int) (cross.Mission, error)

	Import(ctx context.Context, f *seed.File) (ImportStats, error)
}

type ImportStats struct {
	TeamsCreated   int
	CrossesCreated int
	CrossesSkipped int
}
