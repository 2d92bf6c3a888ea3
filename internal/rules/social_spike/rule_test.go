package social_spike

import (
	"reflect"
	"testing"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/rules"
)

func TestSocialSpike_ImplementsRule(t *testing.T) {
	var _ rules.Rule = (*SocialSpike)(nil)
}

func buzz(m1h, m24h int, sentiment float64) core.MarketContext {
	return core.MarketContext{
		MarketID: "m1",
		Price:    0.5,
		Tier:     core.TierMedium,
		Social: &core.SocialActivity{
			MentionCount: m24h,
			Mentions1h:   m1h,
			Mentions24h:  m24h,
			Velocity:     float64(m1h),
			Sentiment:    sentiment,
		},
	}
}

func TestSocialSpike_Fires(t *testing.T) {
	r := New(rules.DefaultThresholds())

	// 240/24 = 10 per hour on average; 60 in the last hour is 6x.
	c := r.Evaluate(buzz(60, 240, 0.5))
	if c == nil {
		t.Fatal("expected candidate")
	}
	if c.Direction != core.DirectionBuy {
		t.Errorf("expected BUY, got %s", c.Direction)
	}

	c = r.Evaluate(buzz(60, 240, -0.5))
	if c == nil || c.Direction != core.DirectionSell {
		t.Fatal("expected SELL candidate for negative chatter")
	}
}

func TestSocialSpike_NoFire(t *testing.T) {
	r := New(rules.DefaultThresholds())

	tests := []struct {
		name string
		mctx core.MarketContext
	}{
		{"below multiplier", buzz(30, 240, 0.5)},
		{"too few mentions", buzz(20, 40, 0.9)},
		{"neutral sentiment", buzz(60, 240, 0.1)},
		{"no social data", core.MarketContext{MarketID: "m1", Price: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := r.Evaluate(tt.mctx); c != nil {
				t.Errorf("expected no candidate, got %s", c.Direction)
			}
		})
	}
}

func TestSocialSpike_Pure(t *testing.T) {
	r := New(rules.DefaultThresholds())
	mctx := buzz(60, 240, 0.5)
	if !reflect.DeepEqual(r.Evaluate(mctx), r.Evaluate(mctx)) {
		t.Error("evaluation should be deterministic")
	}
}
