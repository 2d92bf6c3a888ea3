package price_momentum

import (
	"fmt"
	"math"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/indicator"
	"github.com/newthinker/polyedge/internal/rules"
)

// strongMove lets a large enough move stand without volume confirmation.
const strongMove = 1.5

// PriceMomentum fires on a sustained one-way price move backed by volume
type PriceMomentum struct {
	threshold float64
	minPoints int
}

// New creates a price momentum rule
func New(th rules.Thresholds) *PriceMomentum {
	return &PriceMomentum{
		threshold: th.MomentumThreshold,
		minPoints: th.MomentumMinPoints,
	}
}

func (r *PriceMomentum) Name() string {
	return "price_momentum"
}

func (r *PriceMomentum) Description() string {
	return fmt.Sprintf("Price momentum (>= %.0f%% over %d points)", r.threshold*100, r.minPoints)
}

func (r *PriceMomentum) Type() core.SignalType {
	return core.SignalPriceMomentum
}

func (r *PriceMomentum) Evaluate(mctx core.MarketContext) *core.SignalCandidate {
	series := mctx.PriceSeries()
	if len(series) < r.minPoints {
		return nil
	}
	dir, _, ok := rules.Trend(series)
	if !ok {
		return nil
	}
	change, ok := rules.RelativeChange(series)
	if !ok || math.Abs(change) < r.threshold {
		return nil
	}

	volumeConfirmed := false
	if prev, ok := mctx.PreviousVolume24h(); ok && mctx.Volume24h >= prev {
		volumeConfirmed = true
	}
	if !volumeConfirmed && math.Abs(change) < strongMove*r.threshold {
		return nil
	}

	strength := 0.7 * rules.Ratio(change, 2*r.threshold)
	if volumeConfirmed {
		strength += 0.3
	}
	confidence := rules.Confidence(r.Type(), strength, mctx.Tier)

	confirmation := "without volume confirmation"
	if volumeConfirmed {
		confirmation = "on steady or rising volume"
	}
	reasoning := fmt.Sprintf("Price moved %+.1f%% over the last %d observations to %.2f %s",
		change*100, len(series), mctx.Price, confirmation)

	meta := map[string]any{
		"price_change_pct": math.Round(change*10000) / 100,
		"points":           len(series),
		"volume_confirmed": volumeConfirmed,
		"threshold":        r.threshold,
	}
	if anchor, ok := indicator.Anchor(series); ok {
		meta["ema_anchor"] = math.Round(anchor*10000) / 10000
	}
	return rules.NewCandidate(mctx, r.Type(), dir, confidence, reasoning, meta)
}
