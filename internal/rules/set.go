package rules

import (
	"context"
	"sync"

	"github.com/newthinker/polyedge/internal/core"
	"go.uber.org/zap"
)

// Set is an ordered collection of rules evaluated uniformly
type Set struct {
	mu     sync.RWMutex
	rules  []Rule
	logger *zap.Logger
}

// NewSet creates an empty rule set
func NewSet(logger ...*zap.Logger) *Set {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Set{logger: l}
}

// Register appends a rule, replacing any rule with the same name in place
func (s *Set) Register(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.Name() == r.Name() {
			s.rules[i] = r
			return
		}
	}
	s.rules = append(s.rules, r)
}

// Get retrieves a rule by name
func (s *Set) Get(name string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// All returns the registered rules in registration order
func (s *Set) All() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Rule, len(s.rules))
	copy(result, s.rules)
	return result
}

// Len returns the number of registered rules
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Evaluate runs every rule against the context and collects the candidates.
// A rule fires at most once per call.
func (s *Set) Evaluate(ctx context.Context, mctx core.MarketContext) ([]core.SignalCandidate, error) {
	var candidates []core.SignalCandidate

	for _, r := range s.All() {
		select {
		case <-ctx.Done():
			return candidates, ctx.Err()
		default:
		}

		c := r.Evaluate(mctx)
		if c == nil {
			continue
		}
		s.logger.Debug("rule fired",
			zap.String("rule", r.Name()),
			zap.String("market_id", mctx.MarketID),
			zap.String("direction", string(c.Direction)),
			zap.Float64("confidence", c.Confidence),
		)
		candidates = append(candidates, *c)
	}

	return candidates, nil
}
