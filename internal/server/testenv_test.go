package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eIGato/hightech-cross/internal/clock"
	"github.com/eIGato/hightech-cross/internal/database"
	"github.com/eIGato/hightech-cross/internal/migrations"
	"github.com/eIGato/hightech-cross/internal/seed"
)

// springStart is when the active test cross begins. It runs for six hours.
var springStart = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

const sessionTTL = 12 * time.Hour

func testSeed() *seed.File {
	return &seed.File{
		Teams: []seed.Team{
			{Name: "alpha", Password: "alpha-pass"},
			{Name: "bravo", Password: "bravo-pass"},
			{Name: "charlie", Password: "charlie-pass"},
		},
		Crosses: []seed.Cross{
			{
				Name:     "Spring cross",
				BeginsAt: springStart,
				EndsAt:   springStart.Add(6 * time.Hour),
				Teams:    []string{"alpha", "bravo", "charlie"},
				Missions: []seed.Mission{
					{
						SN:          1,
						Name:        "Embankment",
						Description: "Which river?",
						Lat:         5993635,
						Lon:         3030217,
						Answer:      "Neva",
						Prompts: []seed.Prompt{
							{SN: 1, Text: "It flows into the Gulf of Finland."},
							{SN: 2, Text: "Four letters."},
						},
					},
					{
						SN:          2,
						Name:        "Bridge",
						Description: "How many towers?",
						Lat:         5994929,
						Lon:         3032987,
						Answer:      "42",
						Prompts: []seed.Prompt{
							{SN: 1, Text: "Count twice."},
						},
					},
				},
			},
			{
				Name:     "Autumn cross",
				BeginsAt: springStart.Add(30 * 24 * time.Hour),
				EndsAt:   springStart.Add(31 * 24 * time.Hour),
				Teams:    []string{"alpha"},
				Missions: []seed.Mission{
					{SN: 1, Name: "Secret", Answer: "hidden"},
				},
			},
			{
				Name:     "Archive cross",
				BeginsAt: springStart.Add(-30 * 24 * time.Hour),
				EndsAt:   springStart.Add(-29 * 24 * time.Hour),
				Teams:    []string{"alpha", "bravo"},
				Missions: []seed.Mission{
					{SN: 1, Name: "Old", Answer: "past", Prompts: []seed.Prompt{{SN: 1, Text: "Long ago."}}},
				},
			},
		},
	}
}

type testEnv struct {
	t      *testing.T
	db     *sql.DB
	store  *SQLiteStore
	clk    *clock.FakeClock
	router http.Handler
}

// newTestEnv returns a router over a seeded in-memory database with the
// clock one hour into the spring cross.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, ":memory:")
}

// newTestEnvAt is newTestEnv over the database at path.
func newTestEnvAt(t *testing.T, path string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, path)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	if _, err := store.Import(ctx, testSeed()); err != nil {
		t.Fatalf("importing seed: %v", err)
	}

	clk := clock.Fake(springStart.Add(time.Hour))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		t:      t,
		db:     db,
		store:  store,
		clk:    clk,
		router: newRouter(logger, db, clk, sessionTTL),
	}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encoding body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(team string) string {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/login", "", LoginRequest{Name: team, Password: team + "-pass"})
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login %s: status = %d, body = %s", team, rec.Code, rec.Body)
	}
	return decode[LoginResponse](e.t, rec).Token
}

func (e *testEnv) crossID(name string) string {
	e.t.Helper()
	var id string
	if err := e.db.QueryRow(`SELECT id FROM crosses WHERE name = ?`, name).Scan(&id); err != nil {
		e.t.Fatalf("looking up cross %q: %v", name, err)
	}
	return id
}

func (e *testEnv) entryCount() int {
	e.t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT count(*) FROM progress_logs`).Scan(&n); err != nil {
		e.t.Fatalf("counting entries: %v", err)
	}
	return n
}

func (e *testEnv) answer(token, path, text string) bool {
	e.t.Helper()
	rec := e.do(http.MethodPost, path+"/answers", token, SubmitAnswerRequest{Text: &text})
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("answer %q: status = %d, body = %s", text, rec.Code, rec.Body)
	}
	return decode[SubmitAnswerResponse](e.t, rec).Correct
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}
