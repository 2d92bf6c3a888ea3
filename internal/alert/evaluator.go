// Package alert raises operational alerts when generator or tracker run
// statistics cross configured thresholds.
package alert

import (
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/notifier"
	"go.uber.org/zap"
)

// Notifier interface for sending alerts.
type Notifier interface {
	Name() string
	Notify(msg string) error
}

// FromRegistry adapts every registered notifier into an alert target.
func FromRegistry(r *notifier.Registry) []Notifier {
	if r == nil {
		return nil
	}
	all := r.GetAll()
	out := make([]Notifier, len(all))
	for i, n := range all {
		out[i] = n
	}
	return out
}

// Evaluator evaluates alert rules and sends notifications.
type Evaluator struct {
	notifiers []Notifier
	logger    *zap.Logger
	stats     map[string]float64
	cooldown  time.Duration

	// Track pending alerts (waiting for "for" duration)
	pending map[string]time.Time
	// Track last fired time for cooldown
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.RWMutex
}

// NewEvaluator creates a new alert evaluator.
func NewEvaluator(notifiers []Notifier, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		notifiers: notifiers,
		logger:    logger,
		stats:     make(map[string]float64),
		cooldown:  5 * time.Minute,
		pending:   make(map[string]time.Time),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetStats replaces the current stats.
func (e *Evaluator) SetStats(stats map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = stats
}

// Observe merges stats from one run into the current view, so generator and
// tracker runs can report independently.
func (e *Evaluator) Observe(stats map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range stats {
		e.stats[k] = v
	}
}

// Stats returns a copy of the current stats.
func (e *Evaluator) Stats() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.stats))
	for k, v := range e.stats {
		out[k] = v
	}
	return out
}

// SetCooldown sets the cooldown duration between alerts.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Evaluate evaluates a single rule and fires notification if triggered.
// It reports whether the alert fired.
func (e *Evaluator) Evaluate(rule Rule) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if !rule.Evaluate(e.stats) {
		delete(e.pending, rule.Name)
		return false
	}

	if rule.For > 0 {
		pendingSince, isPending := e.pending[rule.Name]
		if !isPending {
			e.pending[rule.Name] = now
			return false
		}
		if now.Sub(pendingSince) < rule.For {
			return false
		}
	}

	lastFired, hasFired := e.lastFired[rule.Name]
	if hasFired && now.Sub(lastFired) < e.cooldown {
		return false
	}

	msg := rule.FormatMessage(e.stats)
	for _, n := range e.notifiers {
		if err := n.Notify(msg); err != nil {
			e.logger.Warn("alert delivery failed",
				zap.String("rule", rule.Name),
				zap.String("notifier", n.Name()),
				zap.Error(err),
			)
		}
	}
	e.logger.Warn("alert fired", zap.String("rule", rule.Name), zap.String("message", msg))

	e.lastFired[rule.Name] = now
	delete(e.pending, rule.Name)
	return true
}

// EvaluateAll evaluates all rules and returns how many fired.
func (e *Evaluator) EvaluateAll(rules []Rule) int {
	fired := 0
	for _, rule := range rules {
		if e.Evaluate(rule) {
			fired++
		}
	}
	return fired
}

// advanceTime is for testing - advances the internal clock.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}
