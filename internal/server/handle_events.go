package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eIGato/hightech-cross/internal/clock"
)

const pingInterval = 30 * time.Second

// handleEvents streams the team's events. EventSource cannot set headers,
// so the session token travels in the query string.
func handleEvents(logger *slog.Logger, store Store, clk clock.Clock, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		team, err := store.TeamFromSession(r.Context(), token, clk.Now())
		if errors.Is(err, errNoSession) {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		if err != nil {
			writeInternal(w, r, logger, "loading session", err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch := broker.Subscribe(team.ID)
		defer broker.Unsubscribe(team.ID, ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
