package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

type CheckResult struct {
	Status string `json:"status"`
}

// HealthResponse maps each backend dependency to its check result.
type HealthResponse map[string]CheckResult

func handleHealth(logger *slog.Logger, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := HealthResponse{"sqlite": {Status: "ok"}}
		status := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "name", "sqlite", "error", err)
			checks["sqlite"] = CheckResult{Status: "error"}
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, checks)
	}
}
