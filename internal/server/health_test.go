package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eIGato/hightech-cross/internal/database"
)

func TestHandleHealth(t *testing.T) {
	// Real SQLite in-memory DB, no mocks needed.
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	closed, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()
	closed.Close()

	tests := []struct {
		name       string
		open       bool
		wantStatus int
		wantSQLite string
	}{
		{name: "sqlite ok", open: true, wantStatus: http.StatusOK, wantSQLite: "ok"},
		{name: "sqlite closed", open: false, wantStatus: http.StatusServiceUnavailable, wantSQLite: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handleHealth(slog.Default(), db)
			if !tt.open {
				h = handleHealth(slog.Default(), closed)
			}

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if got := body["sqlite"].Status; got != tt.wantSQLite {
				t.Errorf("sqlite = %q, want %q", got, tt.wantSQLite)
			}
		})
	}
}
