// internal/context/types.go
package context

import (
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

// Observation is one recorded market state.
type Observation struct {
	Price     float64   `json:"price"`
	Volume24h float64   `json:"volume_24h"`
	At        time.Time `json:"at"`
}

// HistoryStore keeps the most recent observations per market across runs.
type HistoryStore interface {
	// Get returns prior observations for marketID, oldest first.
	Get(marketID string) []Observation
	Record(marketID string, obs Observation)
}

// Assembly is the result of building one market's evaluation context.
type Assembly struct {
	Context  core.MarketContext
	Snapshot core.MarketSnapshot
	// Degraded lists the optional inputs that were unavailable, e.g. "sentiment: PROVIDER_UNAVAILABLE".
	Degraded []string
}
