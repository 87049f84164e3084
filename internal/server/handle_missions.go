package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eIGato/hightech-cross/internal/cross"
)

type PromptResponse struct {
	SN   int     `json:"sn"`
	Text *string `json:"text"`
}

type AnswerResponse struct {
	CreatedAt time.Time `json:"createdAt"`
	IsRight   bool      `json:"isRight"`
	Text      string    `json:"text"`
}

type MissionResponse struct {
	ID          string           `json:"id"`
	SN          int              `json:"sn"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	LatDecimal  string           `json:"latDecimal"`
	LonDecimal  string           `json:"lonDecimal"`
	Finished    bool             `json:"finished"`
	Penalty     string           `json:"penalty"`
	Prompts     []PromptResponse `json:"prompts"`
	Answers     []AnswerResponse `json:"answers"`
}

func promptsResponse(states []cross.PromptState) []PromptResponse {
	resp := make([]PromptResponse, 0, len(states))
	for _, p := range states {
		resp = append(resp, PromptResponse{SN: p.SN, Text: p.Text})
	}
	return resp
}

func answersResponse(answers []cross.Answer) []AnswerResponse {
	resp := make([]AnswerResponse, 0, len(answers))
	for _, a := range answers {
		resp = append(resp, AnswerResponse{CreatedAt: a.CreatedAt, IsRight: a.Right, Text: a.Text})
	}
	return resp
}

func missionResponse(m cross.Mission, st cross.Status) MissionResponse {
	return MissionResponse{
		ID:          m.ID,
		SN:          m.SN,
		Name:        m.Name,
		Description: m.Description,
		Lat:         m.Lat.DMS(),
		Lon:         m.Lon.DMS(),
		LatDecimal:  m.Lat.Decimal(),
		LonDecimal:  m.Lon.Decimal(),
		Finished:    st.Finished,
		Penalty:     cross.FormatPenalty(st.Penalty),
		Prompts:     promptsResponse(st.Prompts),
		Answers:     answersResponse(st.Answers),
	}
}

func handleListMissions(logger *slog.Logger, store Store, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team := teamFrom(r)
		missions, err := store.Missions(r.Context(), crossFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "listing missions", err)
			return
		}

		resp := make([]MissionResponse, 0, len(missions))
		for _, m := range missions {
			st, err := ev.Status(r.Context(), m, team.ID)
			if err != nil {
				writeInternal(w, r, logger, "reading mission status", err)
				return
			}
			resp = append(resp, missionResponse(m, st))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetMission(logger *slog.Logger, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := missionFrom(r)
		st, err := ev.Status(r.Context(), m, teamFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "reading mission status", err)
			return
		}
		writeJSON(w, http.StatusOK, missionResponse(m, st))
	}
}
