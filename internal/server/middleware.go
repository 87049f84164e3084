package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eIGato/hightech-cross/internal/clock"
	"github.com/eIGato/hightech-cross/internal/cross"
)

type ctxKey int

const (
	ctxKeyTeam ctxKey = iota
	ctxKeyCross
	ctxKeyMission
)

// currentCross is the path value that resolves to the team's latest
// started cross.
const currentCross = "current"

func teamAuthMiddleware(logger *slog.Logger, store Store, clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			team, err := store.TeamFromSession(r.Context(), token, clk.Now())
			if errors.Is(err, errNoSession) {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			if err != nil {
				writeInternal(w, r, logger, "loading session", err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyTeam, team)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func crossMiddleware(logger *slog.Logger, store Store, clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			team := teamFrom(r)
			id := chi.URLParam(r, "cross")

			var (
				c   cross.Tournament
				err error
			)
			if id == currentCross {
				c, err = resolveCurrent(r.Context(), store, team.ID, clk)
			} else {
				c, err = store.CrossForTeam(r.Context(), id, team.ID)
			}
			if errors.Is(err, cross.ErrNotFound) {
				writeError(w, http.StatusNotFound, "cross not found")
				return
			}
			if err != nil {
				writeInternal(w, r, logger, "resolving cross", err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyCross, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveCurrent(ctx context.Context, store Store, teamID string, clk clock.Clock) (cross.Tournament, error) {
	crosses, err := store.CrossesForTeam(ctx, teamID)
	if err != nil {
		return cross.Tournament{}, err
	}
	return cross.Current(crosses, clk.Now())
}

// startedMiddleware hides missions until the cross has begun.
func startedMiddleware(clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !crossFrom(r).Started(clk.Now()) {
				writeError(w, http.StatusNotFound, "cross has not started")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func missionMiddleware(logger *slog.Logger, store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sn, err := strconv.Atoi(chi.URLParam(r, "mission"))
			if err != nil {
				writeError(w, http.StatusNotFound, "mission not found")
				return
			}
			m, err := store.Mission(r.Context(), crossFrom(r).ID, sn)
			if errors.Is(err, cross.ErrNotFound) {
				writeError(w, http.StatusNotFound, "mission not found")
				return
			}
			if err != nil {
				writeInternal(w, r, logger, "loading mission", err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyMission, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func teamFrom(r *http.Request) cross.Team {
	return r.Context().Value(ctxKeyTeam).(cross.Team)
}

func crossFrom(r *http.Request) cross.Tournament {
	return r.Context().Value(ctxKeyCross).(cross.Tournament)
}

func missionFrom(r *http.Request) cross.Mission {
	return r.Context().Value(ctxKeyMission).(cross.Mission)
}
