package core

// Tier is a liquidity classification derived from 24h volume
type Tier string

const (
	TierThin   Tier = "THIN"
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Rank orders tiers from THIN (0) to HIGH (3). Unknown tiers rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierThin:
		return 0
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	}
	return -1
}

// AtLeast reports whether t ranks at or above min.
func (t Tier) AtLeast(min Tier) bool {
	return t.Rank() >= min.Rank()
}

// TierBoundaries holds the inclusive lower edges of LOW, MEDIUM and HIGH.
type TierBoundaries struct {
	Low    float64 `mapstructure:"low" json:"low"`
	Medium float64 `mapstructure:"medium" json:"medium"`
	High   float64 `mapstructure:"high" json:"high"`
}

// DefaultTierBoundaries are the production volume cut-offs.
var DefaultTierBoundaries = TierBoundaries{Low: 10_000, Medium: 27_000, High: 95_000}

// Classify maps a 24h volume to its tier. Every lower edge is inclusive.
func (b TierBoundaries) Classify(volume24h float64) Tier {
	switch {
	case volume24h >= b.High:
		return TierHigh
	case volume24h >= b.Medium:
		return TierMedium
	case volume24h >= b.Low:
		return TierLow
	default:
		return TierThin
	}
}

// Valid reports whether the boundaries are positive and strictly increasing.
func (b TierBoundaries) Valid() bool {
	return b.Low > 0 && b.Low < b.Medium && b.Medium < b.High
}

// TierFor classifies volume24h with the default boundaries.
func TierFor(volume24h float64) Tier {
	return DefaultTierBoundaries.Classify(volume24h)
}
