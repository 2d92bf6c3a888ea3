// internal/context/history.go
package context

import (
	"sync"
)

// DefaultHistorySize is the number of observations kept per market.
const DefaultHistorySize = 6

// InMemoryHistory implements HistoryStore with a bounded buffer per market.
type InMemoryHistory struct {
	mu      sync.RWMutex
	size    int
	markets map[string][]Observation
}

// NewInMemoryHistory creates a history store keeping size observations per market.
func NewInMemoryHistory(size int) *InMemoryHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &InMemoryHistory{
		size:    size,
		markets: make(map[string][]Observation),
	}
}

// Get returns a copy of the observations for marketID, oldest first.
func (h *InMemoryHistory) Get(marketID string) []Observation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	obs := h.markets[marketID]
	out := make([]Observation, len(obs))
	copy(out, obs)
	return out
}

// Record appends an observation, dropping the oldest beyond capacity.
// Observations at or before the latest recorded time are ignored.
func (h *InMemoryHistory) Record(marketID string, obs Observation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.markets[marketID]
	if n := len(cur); n > 0 && !obs.At.After(cur[n-1].At) {
		return
	}
	cur = append(cur, obs)
	if len(cur) > h.size {
		cur = append([]Observation(nil), cur[len(cur)-h.size:]...)
	}
	h.markets[marketID] = cur
}

// Len returns the number of markets with history.
func (h *InMemoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.markets)
}
