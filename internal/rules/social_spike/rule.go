package social_spike

import (
	"fmt"
	"math"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/rules"
)

// SocialSpike fires when mention velocity jumps over its daily baseline
type SocialSpike struct {
	multiplier   float64
	minMentions  int
	minSentiment float64
}

// New creates a social spike rule
func New(th rules.Thresholds) *SocialSpike {
	return &SocialSpike{
		multiplier:   th.SocialMultiplier,
		minMentions:  th.SocialMinMentions24h,
		minSentiment: th.SocialMinSentiment,
	}
}

func (r *SocialSpike) Name() string {
	return "social_spike"
}

func (r *SocialSpike) Description() string {
	return fmt.Sprintf("Social spike (>= %.1fx hourly baseline, >= %d mentions)", r.multiplier, r.minMentions)
}

func (r *SocialSpike) Type() core.SignalType {
	return core.SignalSocialSpike
}

func (r *SocialSpike) Evaluate(mctx core.MarketContext) *core.SignalCandidate {
	s := mctx.Social
	if s == nil || s.MentionCount < r.minMentions {
		return nil
	}
	ratio := s.HourlyRatio()
	if ratio < r.multiplier {
		return nil
	}
	if math.Abs(s.Sentiment) < r.minSentiment {
		return nil
	}

	dir := core.DirectionBuy
	if s.Sentiment < 0 {
		dir = core.DirectionSell
	}

	strength := 0.6*rules.Excess(ratio, r.multiplier) + 0.4*rules.Clamp01(math.Abs(s.Sentiment))
	confidence := rules.Confidence(r.Type(), strength, mctx.Tier)

	reasoning := fmt.Sprintf("%d mentions in the last hour is %.1fx the hourly average (%d in 24h) with social sentiment %.2f",
		s.Mentions1h, ratio, s.Mentions24h, s.Sentiment)

	return rules.NewCandidate(mctx, r.Type(), dir, confidence, reasoning, map[string]any{
		"hourly_ratio":     math.Round(ratio*100) / 100,
		"mentions_1h":      s.Mentions1h,
		"mentions_24h":     s.Mentions24h,
		"social_sentiment": s.Sentiment,
		"multiplier":       r.multiplier,
	})
}
