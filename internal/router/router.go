// Package router fans persisted signals out to the configured notifiers,
// dropping low-confidence signals, unwanted directions and repeats inside
// the cooldown window.
package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	MinConfidence float64
	Cooldown      time.Duration
	Directions    []core.Direction
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.6,
		Cooldown:      4 * time.Hour,
		Directions:    []core.Direction{core.DirectionBuy, core.DirectionSell},
	}
}

// ConfigFrom maps the loaded configuration onto router settings.
func ConfigFrom(c config.RouterConfig) Config {
	cfg := Config{
		MinConfidence: c.MinConfidence,
		Cooldown:      c.Cooldown,
	}
	for _, d := range c.Directions {
		cfg.Directions = append(cfg.Directions, core.Direction(strings.ToUpper(d)))
	}
	return cfg
}

// Metrics receives delivery outcomes. *metrics.Registry satisfies it.
type Metrics interface {
	RecordSignalRouted(notifier, status string)
}

type nopMetrics struct{}

func (nopMetrics) RecordSignalRouted(string, string) {}

// Router routes signals to notifiers with filtering
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
	cooldowns map[string]time.Time // market|type -> last routed
	mu        sync.RWMutex
}

// New creates a new signal router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		metrics:   nopMetrics{},
		logger:    logger,
		now:       time.Now,
		cooldowns: make(map[string]time.Time),
	}
}

// SetMetrics attaches a metrics sink.
func (r *Router) SetMetrics(m Metrics) {
	if m != nil {
		r.metrics = m
	}
}

func cooldownKey(signal core.Signal) string {
	return signal.MarketID + "|" + string(signal.Type)
}

// Route processes a signal through filters and sends to notifiers.
// It reports whether the signal was delivered to the registry.
func (r *Router) Route(signal core.Signal) bool {
	if !r.passesFilters(signal) {
		r.logger.Debug("signal filtered out",
			zap.String("signal_id", signal.ID),
			zap.String("market_id", signal.MarketID),
			zap.String("direction", string(signal.Direction)),
			zap.Float64("confidence", signal.Confidence),
		)
		return false
	}

	r.mu.Lock()
	r.cooldowns[cooldownKey(signal)] = r.now()
	r.mu.Unlock()

	// nil registry is allowed
	if r.registry == nil {
		return true
	}
	errors := r.registry.NotifyAll(signal)
	r.record(errors)

	r.logger.Info("signal routed",
		zap.String("signal_id", signal.ID),
		zap.String("market_id", signal.MarketID),
		zap.String("signal_type", string(signal.Type)),
		zap.String("direction", string(signal.Direction)),
		zap.Float64("confidence", signal.Confidence),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errors)),
	)

	return true
}

// RouteBatch filters signals and delivers the survivors in one batch per
// notifier. It returns the number of signals delivered.
func (r *Router) RouteBatch(signals []core.Signal) int {
	var filtered []core.Signal

	for _, signal := range signals {
		if r.passesFilters(signal) {
			filtered = append(filtered, signal)

			r.mu.Lock()
			r.cooldowns[cooldownKey(signal)] = r.now()
			r.mu.Unlock()
		}
	}

	if len(filtered) == 0 || r.registry == nil {
		return len(filtered)
	}

	errors := r.registry.NotifyAllBatch(filtered)
	r.record(errors)

	r.logger.Info("batch routed",
		zap.Int("total", len(signals)),
		zap.Int("filtered", len(filtered)),
		zap.Int("errors", len(errors)),
	)

	return len(filtered)
}

func (r *Router) record(errors map[string]error) {
	for _, n := range r.registry.GetAll() {
		if err, failed := errors[n.Name()]; failed {
			r.logger.Error("notifier failed",
				zap.String("notifier", n.Name()),
				zap.Error(err),
			)
			r.metrics.RecordSignalRouted(n.Name(), "error")
			continue
		}
		r.metrics.RecordSignalRouted(n.Name(), "ok")
	}
}

// passesFilters checks if a signal passes all configured filters
func (r *Router) passesFilters(signal core.Signal) bool {
	if signal.Confidence < r.cfg.MinConfidence {
		return false
	}

	if len(r.cfg.Directions) > 0 {
		allowed := false
		for _, d := range r.cfg.Directions {
			if signal.Direction == d {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	r.mu.RLock()
	last, exists := r.cooldowns[cooldownKey(signal)]
	r.mu.RUnlock()

	if exists && r.now().Sub(last) < r.cfg.Cooldown {
		return false
	}

	return true
}

// ClearCooldown removes the cooldown for one market and signal type
func (r *Router) ClearCooldown(marketID string, typ core.SignalType) {
	r.mu.Lock()
	delete(r.cooldowns, marketID+"|"+string(typ))
	r.mu.Unlock()
}

// ClearAllCooldowns removes all cooldowns
func (r *Router) ClearAllCooldowns() {
	r.mu.Lock()
	r.cooldowns = make(map[string]time.Time)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries older than 2x the cooldown duration.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	expiry := r.cfg.Cooldown * 2
	removed := 0

	for key, last := range r.cooldowns {
		if now.Sub(last) > expiry {
			delete(r.cooldowns, key)
			removed++
		}
	}

	return removed
}

// StartCleanupRoutine starts a background goroutine that periodically cleans up expired cooldowns.
func (r *Router) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.CleanupExpiredCooldowns()
				if removed > 0 {
					r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"min_confidence":   r.cfg.MinConfidence,
		"cooldown_seconds": r.cfg.Cooldown.Seconds(),
		"directions":       r.cfg.Directions,
	}
}
