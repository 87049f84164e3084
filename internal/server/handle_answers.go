package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eIGato/hightech-cross/internal/cross"
)

// SubmitAnswerRequest is the request body for POST .../answers. Text is
// compared verbatim, so surrounding whitespace is significant.
type SubmitAnswerRequest struct {
	Text *string `json:"text"`
}

type SubmitAnswerResponse struct {
	Correct bool `json:"correct"`
}

func handleListAnswers(logger *slog.Logger, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := ev.Status(r.Context(), missionFrom(r), teamFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "reading answers", err)
			return
		}
		writeJSON(w, http.StatusOK, answersResponse(st.Answers))
	}
}

func handleSubmitAnswer(logger *slog.Logger, ev *cross.Evaluator, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitAnswerRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == nil {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		team := teamFrom(r)
		c := crossFrom(r)
		m := missionFrom(r)

		out, err := ev.SubmitAnswer(r.Context(), c, m, team.ID, *req.Text)
		switch {
		case errors.Is(err, cross.ErrWindowClosed):
			writeError(w, http.StatusConflict, "cross is not active")
			return
		case errors.Is(err, cross.ErrNotFound):
			writeError(w, http.StatusNotFound, "mission not found")
			return
		case err != nil:
			writeInternal(w, r, logger, "submitting answer", err)
			return
		}

		if out.Logged {
			logger.Info("answer submitted",
				"team", team.Name,
				"cross", c.ID,
				"mission", m.SN,
				"correct", out.Correct,
			)
			broker.Publish(team.ID, Event{
				Type:    EventAnswer,
				CrossID: c.ID,
				Mission: m.SN,
				Correct: out.Correct,
			})
		}

		writeJSON(w, http.StatusCreated, SubmitAnswerResponse{Correct: out.Correct})
	}
}
