package server

import (
	"encoding/json"
	"sync"
)

const (
	EventAnswer = "answer"
	EventPrompt = "prompt"
)

// Event is the payload pushed to a team's subscribers whenever one of its
// members adds a ledger entry.
type Event struct {
	Type    string `json:"type"`
	CrossID string `json:"crossId"`
	Mission int    `json:"mission"`
	Prompt  int    `json:"prompt,omitempty"`
	Correct bool   `json:"correct,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by team ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given team.
func (b *Broker) Subscribe(teamID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[teamID] == nil {
		b.subs[teamID] = make(map[chan []byte]struct{})
	}
	b.subs[teamID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(teamID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[teamID], ch)
	if len(b.subs[teamID]) == 0 {
		delete(b.subs, teamID)
	}
	b.mu.Unlock()
}

// Publish fans event out to the team's subscribers. Slow subscribers miss
// events rather than blocking the writer.
func (b *Broker) Publish(teamID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[teamID] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}
