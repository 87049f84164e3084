package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eIGato/hightech-cross/internal/cross"
)

func promptSN(r *http.Request) (int, bool) {
	sn, err := strconv.Atoi(chi.URLParam(r, "prompt"))
	return sn, err == nil
}

func handleListPrompts(logger *slog.Logger, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := ev.Status(r.Context(), missionFrom(r), teamFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "reading prompts", err)
			return
		}
		writeJSON(w, http.StatusOK, promptsResponse(st.Prompts))
	}
}

func handleGetPrompt(logger *slog.Logger, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sn, ok := promptSN(r)
		if !ok {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}

		st, err := ev.Status(r.Context(), missionFrom(r), teamFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "reading prompts", err)
			return
		}
		for _, p := range st.Prompts {
			if p.SN == sn {
				writeJSON(w, http.StatusOK, PromptResponse{SN: p.SN, Text: p.Text})
				return
			}
		}
		writeError(w, http.StatusNotFound, "prompt not found")
	}
}

func handleRequestPrompt(logger *slog.Logger, ev *cross.Evaluator, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team := teamFrom(r)
		c := crossFrom(r)
		m := missionFrom(r)

		// The window is checked before the serial, so a closed cross
		// answers 409 even for a malformed prompt number.
		sn, ok := promptSN(r)
		if !ok {
			sn = -1
		}

		p, logged, err := ev.RequestPrompt(r.Context(), c, m, team.ID, sn)
		switch {
		case errors.Is(err, cross.ErrWindowClosed):
			writeError(w, http.StatusConflict, "cross is not active")
			return
		case errors.Is(err, cross.ErrNotFound):
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		case err != nil:
			writeInternal(w, r, logger, "requesting prompt", err)
			return
		}

		if logged {
			logger.Info("prompt requested",
				"team", team.Name,
				"cross", c.ID,
				"mission", m.SN,
				"prompt", p.SN,
			)
			broker.Publish(team.ID, Event{
				Type:    EventPrompt,
				CrossID: c.ID,
				Mission: m.SN,
				Prompt:  p.SN,
			})
		}

		text := p.Text
		writeJSON(w, http.StatusOK, PromptResponse{SN: p.SN, Text: &text})
	}
}
