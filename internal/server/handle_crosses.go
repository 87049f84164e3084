package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eIGato/hightech-cross/internal/cross"
)

type CrossSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	BeginsAt time.Time `json:"beginsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

type LeaderMission struct {
	SN       int  `json:"sn"`
	Finished bool `json:"finished"`
}

type LeaderResponse struct {
	Rank             int             `json:"rank"`
	Name             string          `json:"name"`
	Missions         []LeaderMission `json:"missions"`
	MissionsFinished int             `json:"missionsFinished"`
	Penalty          string          `json:"penalty"`
}

type CrossResponse struct {
	CrossSummary
	Leaderboard []LeaderResponse `json:"leaderboard"`
}

func crossSummary(c cross.Tournament) CrossSummary {
	return CrossSummary{ID: c.ID, Name: c.Name, BeginsAt: c.BeginsAt, EndsAt: c.EndsAt}
}

func handleListCrosses(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		crosses, err := store.CrossesForTeam(r.Context(), teamFrom(r).ID)
		if err != nil {
			writeInternal(w, r, logger, "listing crosses", err)
			return
		}

		resp := make([]CrossSummary, 0, len(crosses))
		for _, c := range crosses {
			resp = append(resp, crossSummary(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetCross(logger *slog.Logger, store Store, ev *cross.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := crossFrom(r)

		teams, err := store.CrossTeams(r.Context(), c.ID)
		if err != nil {
			writeInternal(w, r, logger, "listing cross teams", err)
			return
		}
		missions, err := store.Missions(r.Context(), c.ID)
		if err != nil {
			writeInternal(w, r, logger, "listing missions", err)
			return
		}
		standings, err := ev.Leaderboard(r.Context(), teams, missions)
		if err != nil {
			writeInternal(w, r, logger, "computing leaderboard", err)
			return
		}

		resp := CrossResponse{
			CrossSummary: crossSummary(c),
			Leaderboard:  make([]LeaderResponse, 0, len(standings)),
		}
		for _, s := range standings {
			row := LeaderResponse{
				Rank:             s.Rank,
				Name:             s.Team.Name,
				Missions:         make([]LeaderMission, 0, len(s.Missions)),
				MissionsFinished: s.MissionsFinished,
				Penalty:          cross.FormatPenalty(s.Penalty),
			}
			for _, m := range s.Missions {
				row.Missions = append(row.Missions, LeaderMission{SN: m.SN, Finished: m.Finished})
			}
			resp.Leaderboard = append(resp.Leaderboard, row)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
