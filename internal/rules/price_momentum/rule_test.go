package price_momentum

import (
	"reflect"
	"testing"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/rules"
)

func TestPriceMomentum_ImplementsRule(t *testing.T) {
	var _ rules.Rule = (*PriceMomentum)(nil)
}

func trend(prices []float64, volumes []float64, current float64) core.MarketContext {
	return core.MarketContext{
		MarketID:      "m1",
		Price:         prices[len(prices)-1],
		PriceHistory:  prices[:len(prices)-1],
		Volume24h:     current,
		VolumeHistory: volumes,
		Tier:          core.TierLow,
	}
}

func TestPriceMomentum_UpTrendWithVolume(t *testing.T) {
	r := New(rules.DefaultThresholds())

	c := r.Evaluate(trend([]float64{0.40, 0.45, 0.52}, []float64{20_000, 22_000}, 25_000))
	if c == nil {
		t.Fatal("expected candidate")
	}
	if c.Direction != core.DirectionBuy {
		t.Errorf("expected BUY, got %s", c.Direction)
	}
	if c.Metadata["volume_confirmed"] != true {
		t.Error("expected volume confirmation")
	}
	anchor, ok := c.Metadata["ema_anchor"].(float64)
	if !ok || anchor <= 0.40 || anchor >= 0.52 {
		t.Errorf("expected an EMA anchor inside the move, got %v", c.Metadata["ema_anchor"])
	}
}

func TestPriceMomentum_DownTrend(t *testing.T) {
	r := New(rules.DefaultThresholds())

	c := r.Evaluate(trend([]float64{0.70, 0.66, 0.58}, []float64{30_000}, 30_000))
	if c == nil {
		t.Fatal("expected candidate")
	}
	if c.Direction != core.DirectionSell {
		t.Errorf("expected SELL, got %s", c.Direction)
	}
}

func TestPriceMomentum_StrongMoveWithoutVolume(t *testing.T) {
	r := New(rules.DefaultThresholds())

	c := r.Evaluate(trend([]float64{0.30, 0.38, 0.46}, []float64{50_000}, 20_000))
	if c == nil {
		t.Fatal("a move of 1.5x the threshold should stand without volume")
	}
	if c.Metadata["volume_confirmed"] != false {
		t.Error("expected unconfirmed volume")
	}
}

func TestPriceMomentum_ChangeIsRelative(t *testing.T) {
	r := New(rules.DefaultThresholds())

	// +0.03 in price but +15% relative to the start.
	c := r.Evaluate(trend([]float64{0.20, 0.21, 0.23}, []float64{10_000}, 20_000))
	if c == nil {
		t.Fatal("a 15% move on a cheap market should fire")
	}
	if c.Metadata["price_change_pct"] != 15.0 {
		t.Errorf("expected price_change_pct 15, got %v", c.Metadata["price_change_pct"])
	}

	// +0.06 in price but under 10% relative to the start.
	if c := r.Evaluate(trend([]float64{0.70, 0.73, 0.76}, []float64{10_000}, 20_000)); c != nil {
		t.Error("an 8.6% move on an expensive market should not fire")
	}
}

func TestPriceMomentum_NoFire(t *testing.T) {
	r := New(rules.DefaultThresholds())

	tests := []struct {
		name string
		mctx core.MarketContext
	}{
		{"too few points", trend([]float64{0.40, 0.55}, []float64{10_000}, 20_000)},
		{"move too small", trend([]float64{0.40, 0.41, 0.43}, []float64{10_000}, 20_000)},
		{"reversal", trend([]float64{0.40, 0.60, 0.52}, []float64{10_000}, 20_000)},
		{"declining volume", trend([]float64{0.40, 0.42, 0.45}, []float64{50_000}, 20_000)},
		{"zero start", trend([]float64{0, 0.05, 0.10}, []float64{10_000}, 20_000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := r.Evaluate(tt.mctx); c != nil {
				t.Errorf("expected no candidate, got %s", c.Direction)
			}
		})
	}
}

func TestPriceMomentum_Pure(t *testing.T) {
	r := New(rules.DefaultThresholds())
	mctx := trend([]float64{0.40, 0.45, 0.52}, []float64{20_000}, 25_000)
	if !reflect.DeepEqual(r.Evaluate(mctx), r.Evaluate(mctx)) {
		t.Error("evaluation should be deterministic")
	}
}
