package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eIGato/hightech-cross/internal/seed"
)

// Import writes seed definitions in one transaction. Teams are matched by
// name and created when missing; a cross whose name already exists is
// skipped, so importing the same file twice is a no-op.
func (s *SQLiteStore) Import(ctx context.Context, f *seed.File) (ImportStats, error) {
	var stats ImportStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	teamIDs := make(map[string]string, len(f.Teams))
	for _, t := range f.Teams {
		id, created, err := ensureTeam(ctx, tx, t)
		if err != nil {
			return stats, fmt.Errorf("importing team %q: %w", t.Name, err)
		}
		teamIDs[t.Name] = id
		if created {
			stats.TeamsCreated++
		}
	}

	for _, c := range f.Crosses {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM crosses WHERE name = ?`, c.Name).Scan(&exists)
		if err == nil {
			stats.CrossesSkipped++
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return stats, err
		}
		if err := insertCross(ctx, tx, c, teamIDs); err != nil {
			return stats, fmt.Errorf("importing cross %q: %w", c.Name, err)
		}
		stats.CrossesCreated++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing import: %w", err)
	}
	return stats, nil
}

func ensureTeam(ctx context.Context, tx *sql.Tx, t seed.Team) (string, bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM teams WHERE name = ?`, t.Name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(t.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", false, fmt.Errorf("hashing password: %w", err)
	}
	id = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO teams (id, name, password_hash) VALUES (?, ?, ?)
	`, id, t.Name, string(hash))
	return id, err == nil, err
}

func insertCross(ctx context.Context, tx *sql.Tx, c seed.Cross, teamIDs map[string]string) error {
	crossID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crosses (id, name, begins_at, ends_at) VALUES (?, ?, ?, ?)
	`, crossID, c.Name, formatTime(c.BeginsAt), formatTime(c.EndsAt)); err != nil {
		return err
	}

	for pos, name := range c.Teams {
		teamID, ok := teamIDs[name]
		if !ok {
			if err := tx.QueryRowContext(ctx, `SELECT id FROM teams WHERE name = ?`, name).Scan(&teamID); err != nil {
				return fmt.Errorf("resolving team %q: %w", name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cross_teams (cross_id, team_id, position) VALUES (?, ?, ?)
		`, crossID, teamID, pos); err != nil {
			return err
		}
	}

	for _, m := range c.Missions {
		missionID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO missions (id, cross_id, sn, name, description, lat, lon, answer)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, missionID, crossID, m.SN, m.Name, m.Description, int64(m.Lat), int64(m.Lon), m.Answer); err != nil {
			return fmt.Errorf("mission %d: %w", m.SN, err)
		}
		for _, p := range m.Prompts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO prompts (id, mission_id, sn, text) VALUES (?, ?, ?, ?)
			`, uuid.NewString(), missionID, p.SN, p.Text); err != nil {
				return fmt.Errorf("mission %d prompt %d: %w", m.SN, p.SN, err)
			}
		}
	}
	return nil
}
