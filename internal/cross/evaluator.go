package cross

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eIGato/hightech-cross/internal/clock"
)

// Evaluator drives the per (mission, team) state machine. All state is
// derived from the ledger; the Evaluator itself holds none.
type Evaluator struct {
	store LedgerStore
	clock clock.Clock
}

func NewEvaluator(store LedgerStore, clk clock.Clock) *Evaluator {
	return &Evaluator{store: store, clock: clk}
}

// Outcome is the result of an answer submission.
type Outcome struct {
	Correct bool
	// Logged is set when the submission appended a ledger entry.
	Logged bool
}

// SubmitAnswer checks text against the mission answer for team. Outside
// the tournament window it returns ErrWindowClosed and writes nothing.
// Once the mission is finished every submission succeeds without side
// effects; a wrong text is charged only the first time it is sent.
func (e *Evaluator) SubmitAnswer(ctx context.Context, t Tournament, m Mission, teamID, text string) (Outcome, error) {
	now := e.clock.Now()
	if !t.Active(now) {
		return Outcome{}, ErrWindowClosed
	}
	if m.CrossID != t.ID {
		return Outcome{}, ErrNotFound
	}

	var out Outcome
	err := e.store.Atomic(ctx, func(l Ledger) error {
		finished, err := exists(ctx, l, Filter{MissionID: m.ID, TeamID: teamID, Kind: EventRightAnswer})
		if err != nil {
			return err
		}
		if finished {
			out.Correct = true
			return nil
		}

		if text == m.Answer {
			out.Correct = true
			out.Logged = true
			return l.Append(ctx, Entry{
				MissionID: m.ID,
				TeamID:    teamID,
				CreatedAt: now,
				Kind:      EventRightAnswer,
				Details:   Details{Text: text},
				Penalty:   now.Sub(t.BeginsAt),
			})
		}

		seen, err := exists(ctx, l, Filter{MissionID: m.ID, TeamID: teamID, Kind: EventWrongAnswer, DetailKey: key(text)})
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
		out.Logged = true
		return l.Append(ctx, Entry{
			MissionID: m.ID,
			TeamID:    teamID,
			CreatedAt: now,
			Kind:      EventWrongAnswer,
			Details:   Details{Text: text},
			Penalty:   WrongAnswerPenalty,
		})
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("submitting answer for mission %d: %w", m.SN, err)
	}
	return out, nil
}

// RequestPrompt unlocks prompt sn of the mission for team and returns it.
// The first request charges PromptPenalty; repeats, and requests after
// the mission is finished, return the prompt for free. The bool result
// reports whether a ledger entry was appended.
func (e *Evaluator) RequestPrompt(ctx context.Context, t Tournament, m Mission, teamID string, sn int) (Prompt, bool, error) {
	now := e.clock.Now()
	if !t.Active(now) {
		return Prompt{}, false, ErrWindowClosed
	}
	if m.CrossID != t.ID {
		return Prompt{}, false, ErrNotFound
	}
	p, ok := m.Prompt(sn)
	if !ok {
		return Prompt{}, false, ErrNotFound
	}

	logged := false
	err := e.store.Atomic(ctx, func(l Ledger) error {
		unlocked, err := exists(ctx, l, Filter{MissionID: m.ID, TeamID: teamID, Kind: EventGetPrompt, DetailKey: key(strconv.Itoa(sn))})
		if err != nil {
			return err
		}
		if unlocked {
			return nil
		}
		finished, err := exists(ctx, l, Filter{MissionID: m.ID, TeamID: teamID, Kind: EventRightAnswer})
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
		logged = true
		return l.Append(ctx, Entry{
			MissionID: m.ID,
			TeamID:    teamID,
			CreatedAt: now,
			Kind:      EventGetPrompt,
			Details:   Details{SN: sn},
			Penalty:   PromptPenalty,
		})
	})
	if err != nil {
		return Prompt{}, false, fmt.Errorf("requesting prompt %d of mission %d: %w", sn, m.SN, err)
	}
	return p, logged, nil
}

type PromptState struct {
	SN int
	// Text is nil until the team has requested the prompt.
	Text *string
}

type Answer struct {
	CreatedAt time.Time
	Right     bool
	Text      string
}

// Status is a team's derived progress on one mission.
type Status struct {
	Finished bool
	Penalty  time.Duration
	Prompts  []PromptState
	Answers  []Answer
}

// Status reads the team's ledger for m and summarizes it.
func (e *Evaluator) Status(ctx context.Context, m Mission, teamID string) (Status, error) {
	entries, err := e.store.Query(ctx, Filter{MissionID: m.ID, TeamID: teamID})
	if err != nil {
		return Status{}, fmt.Errorf("reading progress of mission %d: %w", m.SN, err)
	}
	return Summarize(m, entries), nil
}

// Summarize folds the ledger entries of one (mission, team) pair into a
// Status. Penalty sums every entry, including wrong answers and prompts
// taken before the mission was finished.
func Summarize(m Mission, entries []Entry) Status {
	var st Status
	unlocked := make(map[int]bool)
	for _, en := range entries {
		st.Penalty += en.Penalty
		switch en.Kind {
		case EventRightAnswer, EventWrongAnswer:
			if en.IsRight() {
				st.Finished = true
			}
			st.Answers = append(st.Answers, Answer{CreatedAt: en.CreatedAt, Right: en.IsRight(), Text: en.Details.Text})
		case EventGetPrompt:
			unlocked[en.Details.SN] = true
		}
	}

	st.Prompts = make([]PromptState, 0, len(m.Prompts))
	for _, p := range m.Prompts {
		ps := PromptState{SN: p.SN}
		if unlocked[p.SN] {
			text := p.Text
			ps.Text = &text
		}
		st.Prompts = append(st.Prompts, ps)
	}
	return st
}
