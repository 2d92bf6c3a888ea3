package simulated

import (
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

// MarketFixture is a scripted market. Prices and Volumes24h are stepped
// through one entry per Step since the provider epoch; the last entry holds.
// EndsIn is measured from the epoch.
type MarketFixture struct {
	ID          string
	Question    string
	Slug        string
	Category    string
	EndsIn      time.Duration
	Prices      []float64
	Volumes24h  []float64
	VolumeTotal float64
	Liquidity   float64

	// ClosesAfter closes the market once that many steps have elapsed (0 = never).
	ClosesAfter     int
	ResolutionPrice *float64
}

// SentimentFixture is a fixed news reading for a market.
type SentimentFixture struct {
	Score        float64
	Confidence   float64
	ArticleCount int
	Headlines    []string
}

// SocialFixture is a fixed social reading for a market.
type SocialFixture struct {
	Mentions1h  int
	Mentions24h int
	Mentions7d  int
	Sentiment   float64
}

// DefaultMarkets is a small political/crypto/macro book covering every tier.
func DefaultMarkets() []MarketFixture {
	yes := 1.0
	return []MarketFixture{
		{
			ID: "sim-senate-control", Question: "Will Republicans control the Senate after the midterms?",
			Slug: "senate-control-midterms", Category: "Politics", EndsIn: 120 * 24 * time.Hour,
			Prices:      []float64{0.30, 0.30, 0.31},
			Volumes24h:  []float64{410_000, 420_000, 450_000},
			VolumeTotal: 15_500_000, Liquidity: 2_500_000,
		},
		{
			ID: "sim-fed-cut", Question: "Will the Fed cut rates at the next FOMC meeting?",
			Slug: "fed-cut-next-fomc", Category: "Economics", EndsIn: 40 * 24 * time.Hour,
			Prices:      []float64{0.45, 0.45, 0.55},
			Volumes24h:  []float64{20_000, 20_000, 80_000},
			VolumeTotal: 850_000, Liquidity: 120_000,
		},
		{
			ID: "sim-btc-ath", Question: "Will Bitcoin set a new all-time high this quarter?",
			Slug: "btc-ath-this-quarter", Category: "Crypto", EndsIn: 60 * 24 * time.Hour,
			Prices:      []float64{0.40, 0.45, 0.52},
			Volumes24h:  []float64{100_000, 110_000, 125_000},
			VolumeTotal: 2_100_000, Liquidity: 380_000,
		},
		{
			ID: "sim-shutdown", Question: "Will there be a government shutdown before the deadline?",
			Slug: "shutdown-before-deadline", Category: "Politics", EndsIn: 30 * 24 * time.Hour,
			Prices:      []float64{0.72, 0.72, 0.70},
			Volumes24h:  []float64{28_000, 28_000, 28_000},
			VolumeTotal: 520_000, Liquidity: 75_000,
		},
		{
			ID: "sim-eth-5k", Question: "Will Ethereum reach $5,000 this year?",
			Slug: "eth-5k-this-year", Category: "Crypto", EndsIn: 90 * 24 * time.Hour,
			Prices:      []float64{0.45},
			Volumes24h:  []float64{35_000},
			VolumeTotal: 680_000, Liquidity: 95_000,
		},
		{
			ID: "sim-approval", Question: "Will the president's approval rating exceed 45% this month?",
			Slug: "approval-above-45", Category: "Politics", EndsIn: 20 * 24 * time.Hour,
			Prices:      []float64{0.22},
			Volumes24h:  []float64{12_500},
			VolumeTotal: 180_000, Liquidity: 25_000,
		},
		{
			ID: "sim-oscars", Question: "Will the favorite win Best Picture?",
			Slug: "oscars-best-picture", Category: "Culture", EndsIn: 45 * 24 * time.Hour,
			Prices:      []float64{0.35},
			Volumes24h:  []float64{2_200},
			VolumeTotal: 45_000, Liquidity: 8_000,
		},
		{
			ID: "sim-debate", Question: "Will the debate take place as scheduled?",
			Slug: "debate-as-scheduled", Category: "Politics", EndsIn: 3 * 24 * time.Hour,
			Prices:          []float64{0.80, 0.85, 0.90},
			Volumes24h:      []float64{60_000, 70_000, 90_000},
			VolumeTotal:     400_000, Liquidity: 60_000,
			ClosesAfter:     3,
			ResolutionPrice: &yes,
		},
	}
}

// DefaultSentiment holds news readings for the default book.
func DefaultSentiment() map[string]SentimentFixture {
	return map[string]SentimentFixture{
		"sim-senate-control": {Score: 0.5, Confidence: 0.8, ArticleCount: 12, Headlines: []string{
			"Republican candidates lead in key Senate polls",
			"Fundraising surge for Senate challengers",
		}},
		"sim-shutdown": {Score: -0.55, Confidence: 0.7, ArticleCount: 9, Headlines: []string{
			"Budget negotiators report breakthrough",
			"Leaders signal short-term funding deal",
		}},
		"sim-fed-cut": {Score: 0.1, Confidence: 0.6, ArticleCount: 20},
		"sim-btc-ath": {Score: 0.2, Confidence: 0.5, ArticleCount: 7},
	}
}

// DefaultSocial holds social readings for the default book.
func DefaultSocial() map[string]SocialFixture {
	return map[string]SocialFixture{
		"sim-eth-5k":         {Mentions1h: 90, Mentions24h: 360, Mentions7d: 1_400, Sentiment: 0.45},
		"sim-senate-control": {Mentions1h: 40, Mentions24h: 900, Mentions7d: 6_000, Sentiment: 0.2},
		"sim-fed-cut":        {Mentions1h: 12, Mentions24h: 260, Mentions7d: 1_900, Sentiment: 0.05},
	}
}

func (f MarketFixture) record(step int, epoch, now time.Time, b core.TierBoundaries) core.MarketRecord {
	end := epoch.Add(f.EndsIn)
	closed := f.closedAt(step)
	return core.MarketRecord{
		ID:              f.ID,
		Question:        f.Question,
		Slug:            f.Slug,
		Category:        f.Category,
		EndDate:         &end,
		Active:          !closed,
		Closed:          closed,
		AcceptingOrders: !closed,
		Price:           at(f.Prices, step),
		Volume24h:       at(f.Volumes24h, step),
		VolumeTotal:     f.VolumeTotal,
		Liquidity:       f.Liquidity,
		Tier:            b.Classify(at(f.Volumes24h, step)),
		UpdatedAt:       now,
	}
}

func (f MarketFixture) closedAt(step int) bool {
	return f.ClosesAfter > 0 && step >= f.ClosesAfter
}

func at(series []float64, step int) float64 {
	if len(series) == 0 {
		return 0
	}
	if step >= len(series) {
		step = len(series) - 1
	}
	if step < 0 {
		step = 0
	}
	return series[step]
}
