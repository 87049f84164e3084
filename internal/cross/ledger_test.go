package cross

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// memLedger is an in-memory LedgerStore for evaluator tests.
type memLedger struct {
	tx      sync.Mutex
	mu      sync.Mutex
	entries []Entry
	seq     int
}

func (m *memLedger) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("entry-%d", m.seq)
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLedger) Query(_ context.Context, f Filter) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.MissionID != f.MissionID || e.TeamID != f.TeamID {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.DetailKey != nil && e.DetailKey() != *f.DetailKey {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memLedger) Atomic(_ context.Context, fn func(Ledger) error) error {
	m.tx.Lock()
	defer m.tx.Unlock()
	return fn(m)
}

func (m *memLedger) count(kind EventKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (m *memLedger) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var errStoreDown = errors.New("store down")

type brokenLedger struct{}

func (brokenLedger) Append(context.Context, Entry) error { return errStoreDown }

func (brokenLedger) Query(context.Context, Filter) ([]Entry, error) { return nil, errStoreDown }

func (b brokenLedger) Atomic(_ context.Context, fn func(Ledger) error) error { return fn(b) }
