package generator

import (
	"context"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/storage/signal"
)

// CooldownPolicy decides whether a candidate may be persisted given what was
// already emitted for the same market and signal type.
type CooldownPolicy interface {
	Allow(ctx context.Context, marketID string, typ core.SignalType, now time.Time) (bool, error)
}

// NoCooldown lets every candidate through.
type NoCooldown struct{}

func (NoCooldown) Allow(context.Context, string, core.SignalType, time.Time) (bool, error) {
	return true, nil
}

// WindowCooldown suppresses a candidate when the same market and type already
// produced a signal within Window.
type WindowCooldown struct {
	Store  signal.Store
	Window time.Duration
}

// NewWindowCooldown creates a repository-backed cooldown.
func NewWindowCooldown(store signal.Store, window time.Duration) *WindowCooldown {
	return &WindowCooldown{Store: store, Window: window}
}

func (c *WindowCooldown) Allow(ctx context.Context, marketID string, typ core.SignalType, now time.Time) (bool, error) {
	if c.Window <= 0 {
		return true, nil
	}
	last, err := c.Store.LastSignal(ctx, marketID, typ)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return now.Sub(last.CreatedAt) >= c.Window, nil
}

// CooldownFor picks the policy for a configured window.
func CooldownFor(store signal.Store, window time.Duration) CooldownPolicy {
	if window <= 0 {
		return NoCooldown{}
	}
	return NewWindowCooldown(store, window)
}
