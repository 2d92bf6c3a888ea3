package rules

import "github.com/newthinker/polyedge/internal/core"

// Thresholds holds the tunables shared by the rule evaluators
type Thresholds struct {
	SentimentThreshold   float64
	SentimentMinArticles int
	VolumeMultiplier     float64
	VolumeMinPriceChange float64
	SocialMultiplier     float64
	SocialMinMentions24h int
	SocialMinSentiment   float64
	MomentumThreshold    float64
	MomentumMinPoints    int
}

// DefaultThresholds mirrors the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SentimentThreshold:   0.3,
		SentimentMinArticles: 5,
		VolumeMultiplier:     3.0,
		VolumeMinPriceChange: 0.05,
		SocialMultiplier:     5.0,
		SocialMinMentions24h: 50,
		SocialMinSentiment:   0.3,
		MomentumThreshold:    0.10,
		MomentumMinPoints:    3,
	}
}

// Rule evaluates one market context and proposes at most one candidate.
// Implementations must be pure: the same context always yields the same result.
type Rule interface {
	Name() string
	Description() string
	Type() core.SignalType
	Evaluate(mctx core.MarketContext) *core.SignalCandidate
}
