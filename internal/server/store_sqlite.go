package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eIGato/hightech-cross/internal/cross"
)

// timeLayout is fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts what a TEXT timestamp scans back as. libSQL hands
// time-like columns over as time.Time, which database/sql renders into a
// string destination as RFC 3339 with trailing zeros dropped.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// querier is the subset shared by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Append(ctx context.Context, e cross.Entry) error {
	return sqlLedger{s.db}.Append(ctx, e)
}

func (s *SQLiteStore) Query(ctx context.Context, f cross.Filter) ([]cross.Entry, error) {
	return sqlLedger{s.db}.Query(ctx, f)
}

// Atomic runs fn on a dedicated connection inside a BEGIN IMMEDIATE
// transaction, so the write lock is held from the first read and
// concurrent check-then-append sequences are serialized.
func (s *SQLiteStore) Atomic(ctx context.Context, fn func(cross.Ledger) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	// busy_timeout is per connection and the pool may have opened this one
	// after database.Open applied its PRAGMAs.
	rows, err := conn.QueryContext(ctx, "PRAGMA busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	rows.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(sqlLedger{conn}); err != nil {
		return errors.Join(err, rollback(ctx, conn))
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return errors.Join(fmt.Errorf("committing transaction: %w", err), rollback(ctx, conn))
	}
	return nil
}

// rollback aborts the open transaction on conn. A failure means the
// connection goes back to the pool with the transaction still open.
func rollback(ctx context.Context, conn *sql.Conn) error {
	_, err := conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
	if err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return nil
}

type sqlLedger struct {
	q querier
}

func (l sqlLedger) Append(ctx context.Context, e cross.Entry) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = l.q.ExecContext(ctx, `
		INSERT INTO progress_logs (id, mission_id, team_id, created_at, event, details, detail_key, penalty_us)
		VALUES (?, ?, ?, ?, ?, jsonb(?), ?, ?)
		ON CONFLICT (mission_id, team_id, event, detail_key) DO NOTHING
	`, e.ID, e.MissionID, e.TeamID, formatTime(e.CreatedAt), string(e.Kind), string(details),
		e.DetailKey(), e.Penalty.Microseconds())
	return err
}

func (l sqlLedger) Query(ctx context.Context, f cross.Filter) ([]cross.Entry, error) {
	query := `
		SELECT id, mission_id, team_id, created_at, event, json(details), penalty_us
		FROM progress_logs
		WHERE mission_id = ? AND team_id = ?`
	args := []any{f.MissionID, f.TeamID}
	if f.Kind != "" {
		query += ` AND event = ?`
		args = append(args, string(f.Kind))
	}
	if f.DetailKey != nil {
		query += ` AND detail_key = ?`
		args = append(args, *f.DetailKey)
	}
	query += ` ORDER BY created_at, seq`

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []cross.Entry
	for rows.Next() {
		var (
			e         cross.Entry
			createdAt string
			kind      string
			details   string
			penaltyUS int64
		)
		if err := rows.Scan(&e.ID, &e.MissionID, &e.TeamID, &createdAt, &kind, &details, &penaltyUS); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of entry %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decoding details of entry %s: %w", e.ID, err)
		}
		e.Kind = cross.EventKind(kind)
		e.Penalty = time.Duration(penaltyUS) * time.Microsecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) TeamCredentials(ctx context.Context, name string) (string, string, error) {
	var teamID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM teams WHERE name = ?
	`, name).Scan(&teamID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", cross.ErrNotFound
	}
	return teamID, passwordHash, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, teamID string, expiresAt time.Time) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO team_sessions (id, team_id, expires_at)
		VALUES (lower(hex(randomblob(24))), ?, ?)
		RETURNING id
	`, teamID, formatTime(expiresAt)).Scan(&token)
	return token, err
}

func (s *SQLiteStore) TeamFromSession(ctx context.Context, token string, now time.Time) (cross.Team, error) {
	var team cross.Team
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name
		FROM team_sessions s
		JOIN teams t ON t.id = s.team_id
		WHERE s.id = ? AND s.expires_at > ?
	`, token, formatTime(now)).Scan(&team.ID, &team.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return team, errNoSession
	}
	return team, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM team_sessions WHERE id = ?`, token)
	return err
}

func (s *SQLiteStore) CrossesForTeam(ctx context.Context, teamID string) ([]cross.Tournament, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.begins_at, c.ends_at
		FROM crosses c
		JOIN cross_teams ct ON ct.cross_id = c.id
		WHERE ct.team_id = ?
		ORDER BY c.begins_at, c.id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crosses []cross.Tournament
	for rows.Next() {
		c, err := scanCross(rows)
		if err != nil {
			return nil, err
		}
		crosses = append(crosses, c)
	}
	return crosses, rows.Err()
}

func (s *SQLiteStore) CrossForTeam(ctx context.Context, crossID, teamID string) (cross.Tournament, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.begins_at, c.ends_at
		FROM crosses c
		JOIN cross_teams ct ON ct.cross_id = c.id
		WHERE c.id = ? AND ct.team_id = ?
	`, crossID, teamID)
	c, err := scanCross(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, cross.ErrNotFound
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCross(row scanner) (cross.Tournament, error) {
	var (
		c                cross.Tournament
		beginsAt, endsAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &beginsAt, &endsAt); err != nil {
		return c, err
	}
	var err error
	if c.BeginsAt, err = parseTime(beginsAt); err != nil {
		return c, fmt.Errorf("parsing begins_at of cross %s: %w", c.ID, err)
	}
	if c.EndsAt, err = parseTime(endsAt); err != nil {
		return c, fmt.Errorf("parsing ends_at of cross %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *SQLiteStore) CrossTeams(ctx context.Context, crossID string) ([]cross.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM teams t
		JOIN cross_teams ct ON ct.team_id = t.id
		WHERE ct.cross_id = ?
		ORDER BY ct.position
	`, crossID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []cross.Team
	for rows.Next() {
		var t cross.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) Missions(ctx context.Context, crossID string) ([]cross.Mission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cross_id, sn, name, description, lat, lon, answer
		FROM missions
		WHERE cross_id = ?
		ORDER BY sn
	`, crossID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []cross.Mission
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(missions)
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prompts, err := s.prompts(ctx, `
		SELECT p.id, p.mission_id, p.sn, p.text
		FROM prompts p
		JOIN missions m ON m.id = p.mission_id
		WHERE m.cross_id = ?
		ORDER BY p.sn
	`, crossID)
	if err != nil {
		return nil, err
	}
	for _, p := range prompts {
		i := index[p.MissionID]
		missions[i].Prompts = append(missions[i].Prompts, p)
	}
	return missions, nil
}

func (s *SQLiteStore) Mission(ctx context.Context, crossID string, sn int) (cross.Mission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, cross_id, sn, name, description, lat, lon, answer
		FROM missions
		WHERE cross_id = ? AND sn = ?
	`, crossID, sn)
	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, cross.ErrNotFound
	}
	if err != nil {
		return m, err
	}

	m.Prompts, err = s.prompts(ctx, `
		SELECT id, mission_id, sn, text FROM prompts WHERE mission_id = ? ORDER BY sn
	`, m.ID)
	return m, err
}

func scanMission(row scanner) (cross.Mission, error) {
	var m cross.Mission
	var lat, lon int64
	err := row.Scan(&m.ID, &m.CrossID, &m.SN, &m.Name, &m.Description, &lat, &lon, &m.Answer)
	m.Lat, m.Lon = cross.Coordinate(lat), cross.Coordinate(lon)
	return m, err
}

func (s *SQLiteStore) prompts(ctx context.Context, query string, args ...any) ([]cross.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []cross.Prompt
	for rows.Next() {
		var p cross.Prompt
		if err := rows.Scan(&p.ID, &p.MissionID, &p.SN, &p.Text); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
