package rules

import (
	"math"

	"github.com/newthinker/polyedge/internal/core"
)

// AccuracyWeights are static historical-accuracy weights per signal type.
var AccuracyWeights = map[core.SignalType]float64{
	core.SignalSentimentDivergence: 1.0,
	core.SignalVolumeSurge:         0.95,
	core.SignalSocialSpike:         0.85,
	core.SignalPriceMomentum:       0.90,
	core.SignalArbitrage:           1.0,
}

// TierBoost is the one-step confidence bonus for deep markets.
func TierBoost(t core.Tier) float64 {
	switch t {
	case core.TierHigh:
		return 0.10
	case core.TierMedium:
		return 0.05
	}
	return 0
}

// Confidence combines trigger strength in [0,1] with the rule's accuracy
// weight and the market tier, clamped to [0,1] and rounded to 4 places.
func Confidence(t core.SignalType, strength float64, tier core.Tier) float64 {
	w, ok := AccuracyWeights[t]
	if !ok {
		w = 1
	}
	c := Clamp01(Clamp01(strength)*w + TierBoost(tier))
	return math.Round(c*10000) / 10000
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Ratio returns min(1, v/scale), or 0 for a non-positive scale.
func Ratio(v, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return math.Min(1, math.Abs(v)/scale)
}

// Excess scores how far ratio overshoots multiplier: 0.5 at the threshold,
// 1.0 at double.
func Excess(ratio, multiplier float64) float64 {
	if multiplier <= 0 {
		return 0
	}
	return Clamp01((ratio-multiplier)/multiplier + 0.5)
}

// Trend reports the direction and net change of a price series whose steps
// never reverse. ok is false for flat or reversing series.
func Trend(series []float64) (dir core.Direction, net float64, ok bool) {
	if len(series) < 2 {
		return "", 0, false
	}
	var up, down bool
	for i := 1; i < len(series); i++ {
		switch d := series[i] - series[i-1]; {
		case d > 0:
			up = true
		case d < 0:
			down = true
		}
	}
	if up == down {
		return "", 0, false
	}
	net = series[len(series)-1] - series[0]
	if up {
		return core.DirectionBuy, net, true
	}
	return core.DirectionSell, net, true
}

// RelativeChange is the move from the first to the last point of series as
// a fraction of the first. ok is false when the series is too short or
// starts at a non-positive price.
func RelativeChange(series []float64) (change float64, ok bool) {
	if len(series) < 2 || series[0] <= 0 {
		return 0, false
	}
	return (series[len(series)-1] - series[0]) / series[0], true
}

// NewCandidate builds a candidate snapshotting mctx.
func NewCandidate(mctx core.MarketContext, t core.SignalType, dir core.Direction, confidence float64, reasoning string, meta map[string]any) *core.SignalCandidate {
	return &core.SignalCandidate{
		Type:       t,
		Direction:  dir,
		Confidence: confidence,
		Reasoning:  reasoning,
		Metadata:   meta,
		Context:    mctx,
	}
}
