package rules

import (
	"math"
	"testing"

	"github.com/newthinker/polyedge/internal/core"
)

func TestConfidence_TierBoost(t *testing.T) {
	low := Confidence(core.SignalSentimentDivergence, 0.6, core.TierLow)
	med := Confidence(core.SignalSentimentDivergence, 0.6, core.TierMedium)
	high := Confidence(core.SignalSentimentDivergence, 0.6, core.TierHigh)

	if !(low < med && med < high) {
		t.Errorf("expected tier ordering, got low=%v med=%v high=%v", low, med, high)
	}
	if math.Abs(high-0.7) > 1e-9 {
		t.Errorf("expected 0.7, got %v", high)
	}
}

func TestConfidence_Clamped(t *testing.T) {
	if c := Confidence(core.SignalSentimentDivergence, 5, core.TierHigh); c != 1 {
		t.Errorf("expected clamp to 1, got %v", c)
	}
	if c := Confidence(core.SignalSocialSpike, -3, core.TierThin); c != 0 {
		t.Errorf("expected clamp to 0, got %v", c)
	}
}

func TestConfidence_AccuracyWeight(t *testing.T) {
	sent := Confidence(core.SignalSentimentDivergence, 0.8, core.TierLow)
	social := Confidence(core.SignalSocialSpike, 0.8, core.TierLow)
	if social >= sent {
		t.Errorf("social spike weight should discount confidence: %v vs %v", social, sent)
	}
}

func TestExcess(t *testing.T) {
	if Excess(3, 3) != 0.5 {
		t.Error("ratio at the multiplier should score 0.5")
	}
	if Excess(6, 3) != 1 {
		t.Error("ratio at double the multiplier should score 1")
	}
	if Excess(1, 0) != 0 {
		t.Error("zero multiplier should score 0")
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name    string
		series  []float64
		wantDir core.Direction
		wantNet float64
		wantOK  bool
	}{
		{"rising", []float64{0.40, 0.45, 0.55}, core.DirectionBuy, 0.15, true},
		{"falling with flat step", []float64{0.70, 0.70, 0.60}, core.DirectionSell, -0.10, true},
		{"reversal", []float64{0.40, 0.50, 0.45}, "", 0, false},
		{"flat", []float64{0.5, 0.5}, "", 0, false},
		{"single point", []float64{0.5}, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, net, ok := Trend(tt.series)
			if ok != tt.wantOK || dir != tt.wantDir {
				t.Fatalf("got (%s, %v), want (%s, %v)", dir, ok, tt.wantDir, tt.wantOK)
			}
			if math.Abs(net-tt.wantNet) > 1e-9 {
				t.Errorf("expected net %v, got %v", tt.wantNet, net)
			}
		})
	}
}

func TestRelativeChange(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
		wantOK bool
	}{
		{"cheap contract", []float64{0.20, 0.21, 0.23}, 0.15, true},
		{"expensive contract", []float64{0.70, 0.73, 0.76}, 0.0857142857, true},
		{"falling", []float64{0.50, 0.40}, -0.20, true},
		{"zero start", []float64{0, 0.10}, 0, false},
		{"single point", []float64{0.5}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RelativeChange(tt.series)
			if ok != tt.wantOK {
				t.Fatalf("expected ok %v, got %v", tt.wantOK, ok)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
