// internal/storage/signal/memory.go
package signal

import (
	"context"
	"sort"
	"sync"

	"github.com/newthinker/polyedge/internal/core"
)

// MemoryStore is an in-memory Repository.
type MemoryStore struct {
	mu      sync.RWMutex
	signals map[string]*core.Signal
	order   []string
	markets map[string]core.MarketRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		signals: make(map[string]*core.Signal),
		markets: make(map[string]core.MarketRecord),
	}
}

// CreateSignal adds a signal to the store.
func (m *MemoryStore) CreateSignal(ctx context.Context, signal core.Signal) error {
	if signal.ID == "" {
		return core.Errorf(core.ErrPersistenceFailure, "signal id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.signals[signal.ID]; exists {
		return core.Errorf(core.ErrPersistenceFailure, "signal %s already exists", signal.ID)
	}
	sig := signal
	m.signals[sig.ID] = &sig
	m.order = append(m.order, sig.ID)
	return nil
}

// GetSignal retrieves a signal by ID.
func (m *MemoryStore) GetSignal(ctx context.Context, id string) (*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sig, ok := m.signals[id]
	if !ok {
		return nil, core.Errorf(core.ErrSignalNotFound, "signal %s", id)
	}
	out := *sig
	return &out, nil
}

// GetActiveSignals returns ACTIVE signals in creation order.
func (m *MemoryStore) GetActiveSignals(ctx context.Context) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.Signal
	for _, id := range m.order {
		if sig := m.signals[id]; sig.Status == core.StatusActive {
			result = append(result, *sig)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateSignal applies update under the store lock.
func (m *MemoryStore) UpdateSignal(ctx context.Context, id string, update core.SignalUpdate) (*core.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sig, ok := m.signals[id]
	if !ok {
		return nil, core.Errorf(core.ErrSignalNotFound, "signal %s", id)
	}
	next := *sig
	if err := update.Apply(&next); err != nil {
		return nil, err
	}
	m.signals[id] = &next
	out := next
	return &out, nil
}

// List returns signals matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.Signal{}
	for i := len(m.order) - 1; i >= 0; i-- {
		sig := m.signals[m.order[i]]
		if matches(*sig, filter) {
			result = append(result, *sig)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []core.Signal{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count returns the count of matching signals.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sig := range m.signals {
		if matches(*sig, filter) {
			count++
		}
	}
	return count, nil
}

// LastSignal returns the newest signal of typ for marketID.
func (m *MemoryStore) LastSignal(ctx context.Context, marketID string, typ core.SignalType) (*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *core.Signal
	for _, sig := range m.signals {
		if sig.MarketID != marketID || sig.Type != typ {
			continue
		}
		if last == nil || sig.CreatedAt.After(last.CreatedAt) {
			last = sig
		}
	}
	if last == nil {
		return nil, nil
	}
	out := *last
	return &out, nil
}

// UpsertMarket stores the latest market state.
func (m *MemoryStore) UpsertMarket(ctx context.Context, market core.MarketRecord) error {
	if market.ID == "" {
		return core.Errorf(core.ErrPersistenceFailure, "market id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets[market.ID] = market
	return nil
}

// GetMarket retrieves a market by ID.
func (m *MemoryStore) GetMarket(ctx context.Context, id string) (*core.MarketRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	market, ok := m.markets[id]
	if !ok {
		return nil, core.Errorf(core.ErrMarketNotFound, "market %s", id)
	}
	return &market, nil
}

// ListMarkets returns markets matching the filter by descending 24h volume.
func (m *MemoryStore) ListMarkets(ctx context.Context, filter MarketFilter) ([]core.MarketRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.MarketRecord{}
	for _, market := range m.markets {
		if !filter.CurrentAt.IsZero() && !market.IsCurrent(filter.CurrentAt) {
			continue
		}
		if filter.MinTier != "" && !market.Tier.AtLeast(filter.MinTier) {
			continue
		}
		result = append(result, market)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Volume24h != result[j].Volume24h {
			return result[i].Volume24h > result[j].Volume24h
		}
		return result[i].ID < result[j].ID
	})
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func matches(sig core.Signal, filter ListFilter) bool {
	if filter.MarketID != "" && sig.MarketID != filter.MarketID {
		return false
	}
	if filter.Type != "" && sig.Type != filter.Type {
		return false
	}
	if filter.Direction != "" && sig.Direction != filter.Direction {
		return false
	}
	if filter.Tier != "" && sig.MarketTier != filter.Tier {
		return false
	}
	if sig.Confidence < filter.MinConfidence {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if sig.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !filter.From.IsZero() && sig.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && sig.CreatedAt.After(filter.To) {
		return false
	}
	return true
}
