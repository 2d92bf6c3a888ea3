package volume_surge

import (
	"fmt"
	"math"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/rules"
)

// VolumeSurge fires when 24h volume jumps over its rolling baseline while
// price moves one way
type VolumeSurge struct {
	multiplier     float64
	minPriceChange float64
}

// New creates a volume surge rule
func New(th rules.Thresholds) *VolumeSurge {
	return &VolumeSurge{
		multiplier:     th.VolumeMultiplier,
		minPriceChange: th.VolumeMinPriceChange,
	}
}

func (r *VolumeSurge) Name() string {
	return "volume_surge"
}

func (r *VolumeSurge) Description() string {
	return fmt.Sprintf("Volume surge (>= %.1fx baseline)", r.multiplier)
}

func (r *VolumeSurge) Type() core.SignalType {
	return core.SignalVolumeSurge
}

func (r *VolumeSurge) Evaluate(mctx core.MarketContext) *core.SignalCandidate {
	baseline, ok := mctx.VolumeBaseline()
	if !ok || baseline <= 0 {
		return nil
	}
	ratio := mctx.Volume24h / baseline
	if ratio < r.multiplier {
		return nil
	}

	series := mctx.PriceSeries()
	dir, _, ok := rules.Trend(series)
	if !ok {
		return nil
	}
	change, ok := rules.RelativeChange(series)
	if !ok || math.Abs(change) < r.minPriceChange {
		return nil
	}

	strength := 0.7*rules.Excess(ratio, r.multiplier) + 0.3*rules.Ratio(change, 3*r.minPriceChange)
	confidence := rules.Confidence(r.Type(), strength, mctx.Tier)

	reasoning := fmt.Sprintf("24h volume %.0f is %.1fx the %.0f baseline with price moving %+.1f%% to %.2f",
		mctx.Volume24h, ratio, baseline, change*100, mctx.Price)

	return rules.NewCandidate(mctx, r.Type(), dir, confidence, reasoning, map[string]any{
		"volume_ratio":     math.Round(ratio*100) / 100,
		"volume_baseline":  baseline,
		"price_change_pct": math.Round(change*10000) / 100,
		"multiplier":       r.multiplier,
	})
}
