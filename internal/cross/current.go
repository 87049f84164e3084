package cross

import "time"

// Current picks the team's current tournament from the ones it belongs
// to: the latest-starting one that has started by now. Later entries win
// ties on start time.
func Current(tournaments []Tournament, now time.Time) (Tournament, error) {
	var (
		best  Tournament
		found bool
	)
	for _, t := range tournaments {
		if !t.Started(now) {
			continue
		}
		if !found || !t.BeginsAt.Before(best.BeginsAt) {
			best, found = t, true
		}
	}
	if !found {
		return Tournament{}, ErrNotFound
	}
	return best, nil
}
