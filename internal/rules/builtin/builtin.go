// Package builtin assembles the production rule set.
package builtin

import (
	"github.com/newthinker/polyedge/internal/rules"
	"github.com/newthinker/polyedge/internal/rules/price_momentum"
	"github.com/newthinker/polyedge/internal/rules/sentiment_divergence"
	"github.com/newthinker/polyedge/internal/rules/social_spike"
	"github.com/newthinker/polyedge/internal/rules/volume_surge"
	"go.uber.org/zap"
)

// New returns the four rule evaluators in their canonical order.
func New(th rules.Thresholds, logger *zap.Logger) *rules.Set {
	set := rules.NewSet(logger)
	set.Register(sentiment_divergence.New(th))
	set.Register(volume_surge.New(th))
	set.Register(social_spike.New(th))
	set.Register(price_momentum.New(th))
	return set
}
