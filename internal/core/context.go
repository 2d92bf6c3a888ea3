package core

import "time"

// MarketContext is the per-cycle view of one market handed to rule evaluators.
// Sentiment and Social are nil when their provider was unavailable.
type MarketContext struct {
	MarketID    string
	Question    string
	Slug        string
	EndDate     *time.Time
	Price       float64
	Volume24h   float64
	VolumeTotal float64
	Liquidity   float64
	Tier        Tier

	// Prior observations, oldest first, excluding the current values.
	PriceHistory  []float64
	VolumeHistory []float64

	Sentiment *Sentiment
	Social    *SocialActivity

	Now time.Time
}

// PreviousPrice returns the most recent prior price.
func (c MarketContext) PreviousPrice() (float64, bool) {
	if len(c.PriceHistory) == 0 {
		return 0, false
	}
	return c.PriceHistory[len(c.PriceHistory)-1], true
}

// PreviousVolume24h returns the most recent prior 24h volume.
func (c MarketContext) PreviousVolume24h() (float64, bool) {
	if len(c.VolumeHistory) == 0 {
		return 0, false
	}
	return c.VolumeHistory[len(c.VolumeHistory)-1], true
}

// VolumeBaseline is the rolling average of prior 24h volumes.
func (c MarketContext) VolumeBaseline() (float64, bool) {
	if len(c.VolumeHistory) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range c.VolumeHistory {
		sum += v
	}
	return sum / float64(len(c.VolumeHistory)), true
}

// PriceSeries returns prior prices followed by the current price.
func (c MarketContext) PriceSeries() []float64 {
	series := make([]float64, 0, len(c.PriceHistory)+1)
	series = append(series, c.PriceHistory...)
	return append(series, c.Price)
}

// SignalCandidate is an unpersisted signal proposal from a single rule.
type SignalCandidate struct {
	Type       SignalType
	Direction  Direction
	Confidence float64
	Reasoning  string
	Metadata   map[string]any
	Context    MarketContext
}
