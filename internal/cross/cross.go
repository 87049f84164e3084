// Package cross defines the competition domain: tournaments ("crosses"),
// their missions and prompts, the append-only progress ledger, and the
// evaluation and ranking rules computed over it.
//
// It has no storage or transport dependencies; persistence is reached
// through the Ledger and LedgerStore interfaces.
package cross

import (
	"errors"
	"strconv"
	"time"
)

const (
	// PromptPenalty is charged once per prompt a team unlocks.
	PromptPenalty = 15 * time.Minute
	// WrongAnswerPenalty is charged once per distinct wrong answer text.
	WrongAnswerPenalty = 30 * time.Minute
)

var (
	ErrNotFound      = errors.New("not found")
	ErrWindowClosed  = errors.New("cross is not active")
	ErrInvalidWindow = errors.New("cross must begin before it ends")
)

type Tournament struct {
	ID       string
	Name     string
	BeginsAt time.Time
	EndsAt   time.Time
}

// Validate checks the begin < end invariant.
func (t Tournament) Validate() error {
	if !t.BeginsAt.Before(t.EndsAt) {
		return ErrInvalidWindow
	}
	return nil
}

// Started reports whether the tournament has begun at now.
func (t Tournament) Started(now time.Time) bool {
	return !now.Before(t.BeginsAt)
}

// Active reports whether now falls in [BeginsAt, EndsAt).
func (t Tournament) Active(now time.Time) bool {
	return t.Started(now) && now.Before(t.EndsAt)
}

type Team struct {
	ID   string
	Name string
}

type Mission struct {
	ID          string
	CrossID     string
	SN          int
	Name        string
	Description string
	Lat         Coordinate
	Lon         Coordinate
	Answer      string
	Prompts     []Prompt
}

// Prompt returns the mission prompt with serial number sn.
func (m Mission) Prompt(sn int) (Prompt, bool) {
	for _, p := range m.Prompts {
		if p.SN == sn {
			return p, true
		}
	}
	return Prompt{}, false
}

type Prompt struct {
	ID        string
	MissionID string
	SN        int
	Text      string
}

type EventKind string

const (
	EventGetPrompt   EventKind = "GET_PROMPT"
	EventRightAnswer EventKind = "RIGHT_ANSWER"
	EventWrongAnswer EventKind = "WRONG_ANSWER"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventGetPrompt, EventRightAnswer, EventWrongAnswer:
		return true
	}
	return false
}

// Details holds the kind-specific payload of a ledger entry: the prompt
// serial for GET_PROMPT, the submitted text for answers.
type Details struct {
	SN   int    `json:"sn,omitempty"`
	Text string `json:"text,omitempty"`
}

// Entry is one immutable ledger record.
type Entry struct {
	ID        string
	MissionID string
	TeamID    string
	CreatedAt time.Time
	Kind      EventKind
	Details   Details
	Penalty   time.Duration
}

// DetailKey is the lookup key of the entry's details: the prompt serial
// for GET_PROMPT entries, the answer text otherwise.
func (e Entry) DetailKey() string {
	return detailKey(e.Kind, e.Details)
}

// IsRight reports whether an answer entry matched the mission answer.
func (e Entry) IsRight() bool {
	return e.Kind == EventRightAnswer
}

func detailKey(kind EventKind, d Details) string {
	if kind == EventGetPrompt {
		return strconv.Itoa(d.SN)
	}
	return d.Text
}
