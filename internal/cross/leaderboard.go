package cross

import (
	"context"
	"sort"
	"time"
)

type MissionResult struct {
	SN       int
	Finished bool
}

// Standing is one leaderboard row.
type Standing struct {
	Team             Team
	Missions         []MissionResult
	MissionsFinished int
	Penalty          time.Duration
	Rank             int
}

// Leaderboard evaluates every team on every mission and returns the
// ranked standings. Teams are expected in membership order; that order
// decides between teams tied on both keys.
func (e *Evaluator) Leaderboard(ctx context.Context, teams []Team, missions []Mission) ([]Standing, error) {
	standings := make([]Standing, 0, len(teams))
	for _, team := range teams {
		s := Standing{
			Team:     team,
			Missions: make([]MissionResult, 0, len(missions)),
		}
		for _, m := range missions {
			st, err := e.Status(ctx, m, team.ID)
			if err != nil {
				return nil, err
			}
			s.Missions = append(s.Missions, MissionResult{SN: m.SN, Finished: st.Finished})
			if st.Finished {
				s.Penalty += st.Penalty
				s.MissionsFinished++
			}
		}
		standings = append(standings, s)
	}
	Rank(standings)
	return standings, nil
}

// Rank sorts standings by finished missions descending, then total
// penalty ascending, and numbers them from 1. Full ties keep their input
// order and still get distinct ranks.
func Rank(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.MissionsFinished != b.MissionsFinished {
			return a.MissionsFinished > b.MissionsFinished
		}
		return a.Penalty < b.Penalty
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
}
