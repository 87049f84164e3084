package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eIGato/hightech-cross/internal/clock"
	"github.com/eIGato/hightech-cross/internal/cross"
)

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	TeamID    string    `json:"teamId"`
	TeamName  string    `json:"teamName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func handleLogin(logger *slog.Logger, store Store, clk clock.Clock, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "name and password are required")
			return
		}

		teamID, passwordHash, err := store.TeamCredentials(r.Context(), req.Name)
		if errors.Is(err, cross.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeInternal(w, r, logger, "loading team credentials", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		expiresAt := clk.Now().Add(ttl).UTC()
		token, err := store.CreateSession(r.Context(), teamID, expiresAt)
		if err != nil {
			writeInternal(w, r, logger, "creating session", err)
			return
		}

		logger.Info("team logged in", "team", req.Name)
		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     token,
			TeamID:    teamID,
			TeamName:  req.Name,
			ExpiresAt: expiresAt,
		})
	}
}

func handleLogout(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := store.DeleteSession(r.Context(), token); err != nil {
			writeInternal(w, r, logger, "deleting session", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
