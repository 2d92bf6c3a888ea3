// internal/storage/signal/interface.go
package signal

import (
	"context"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

// Store defines the interface for signal persistence.
type Store interface {
	// CreateSignal persists a new signal. The ID must be set and unused.
	CreateSignal(ctx context.Context, signal core.Signal) error

	// GetSignal retrieves a signal by its ID.
	GetSignal(ctx context.Context, id string) (*core.Signal, error)

	// GetActiveSignals returns every ACTIVE signal, oldest first.
	GetActiveSignals(ctx context.Context) ([]core.Signal, error)

	// UpdateSignal atomically applies update to the stored signal and
	// returns the result. Terminal signals reject updates.
	UpdateSignal(ctx context.Context, id string, update core.SignalUpdate) (*core.Signal, error)

	// List retrieves signals matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)

	// Count returns the number of signals matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// LastSignal returns the newest signal of typ for marketID, or nil.
	LastSignal(ctx context.Context, marketID string, typ core.SignalType) (*core.Signal, error)
}

// MarketStore persists the latest known state of each market.
type MarketStore interface {
	UpsertMarket(ctx context.Context, market core.MarketRecord) error
	GetMarket(ctx context.Context, id string) (*core.MarketRecord, error)
	// ListMarkets returns markets matching the filter, highest 24h volume first.
	ListMarkets(ctx context.Context, filter MarketFilter) ([]core.MarketRecord, error)
}

// Repository is the full persistence surface used by the engine.
type Repository interface {
	Store
	MarketStore
	Close() error
}

// ListFilter defines criteria for listing signals.
type ListFilter struct {
	MarketID      string
	Type          core.SignalType
	Direction     core.Direction
	Statuses      []core.Status
	Tier          core.Tier
	MinConfidence float64
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}

// MarketFilter defines criteria for listing markets.
type MarketFilter struct {
	// CurrentAt, when set, keeps only markets tradeable at that instant.
	CurrentAt time.Time
	MinTier   core.Tier
	Limit     int
}

// tiersAtLeast lists the tiers ranked at or above min.
func tiersAtLeast(min core.Tier) []core.Tier {
	var out []core.Tier
	for _, t := range []core.Tier{core.TierThin, core.TierLow, core.TierMedium, core.TierHigh} {
		if t.AtLeast(min) {
			out = append(out, t)
		}
	}
	return out
}
