package cross

import "context"

// Filter selects ledger entries of one (mission, team) pair. Zero Kind
// matches every kind; nil DetailKey matches every detail.
type Filter struct {
	MissionID string
	TeamID    string
	Kind      EventKind
	DetailKey *string
}

// Ledger is the append-only progress log.
type Ledger interface {
	// Append inserts e. Stores assign an ID when e.ID is empty.
	Append(ctx context.Context, e Entry) error
	// Query returns entries matching f ordered by creation time, then
	// insertion order.
	Query(ctx context.Context, f Filter) ([]Entry, error)
}

// LedgerStore is a Ledger that can run a check-then-append sequence in
// isolation from concurrent writers.
type LedgerStore interface {
	Ledger
	Atomic(ctx context.Context, fn func(l Ledger) error) error
}

func exists(ctx context.Context, l Ledger, f Filter) (bool, error) {
	entries, err := l.Query(ctx, f)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

func key(s string) *string { return &s }
