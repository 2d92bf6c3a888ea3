package sentiment_divergence

import (
	"fmt"
	"math"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/rules"
)

const (
	buyCeiling  = 0.4
	sellFloor   = 0.6
	minPrice    = 0.05
	maxPrice    = 0.95
	strongScore = 0.6
)

// SentimentDivergence fires when news sentiment disagrees with the market price
type SentimentDivergence struct {
	threshold   float64
	minArticles int
}

// New creates a sentiment divergence rule
func New(th rules.Thresholds) *SentimentDivergence {
	return &SentimentDivergence{
		threshold:   th.SentimentThreshold,
		minArticles: th.SentimentMinArticles,
	}
}

func (r *SentimentDivergence) Name() string {
	return "sentiment_divergence"
}

func (r *SentimentDivergence) Description() string {
	return fmt.Sprintf("Sentiment divergence (|score| > %.2f)", r.threshold)
}

func (r *SentimentDivergence) Type() core.SignalType {
	return core.SignalSentimentDivergence
}

func (r *SentimentDivergence) Evaluate(mctx core.MarketContext) *core.SignalCandidate {
	s := mctx.Sentiment
	if s == nil || s.ArticleCount < r.minArticles {
		return nil
	}
	price := mctx.Price
	if price < minPrice || price > maxPrice {
		return nil
	}

	var (
		dir core.Direction
		gap float64
	)
	switch {
	case s.Score > r.threshold && price < buyCeiling:
		dir, gap = core.DirectionBuy, buyCeiling-price
	case s.Score < -r.threshold && price > sellFloor:
		dir, gap = core.DirectionSell, price-sellFloor
	default:
		return nil
	}

	strength := 0.5*rules.Ratio(s.Score, strongScore) +
		0.3*rules.Clamp01(s.Confidence) +
		0.2*rules.Ratio(gap, 0.3)
	confidence := rules.Confidence(r.Type(), strength, mctx.Tier)

	mood := "positive"
	verdict := "underpriced"
	if dir == core.DirectionSell {
		mood, verdict = "negative", "overpriced"
	}
	reasoning := fmt.Sprintf("News sentiment is %s (%.2f, confidence %.2f, %d articles) while the market trades at %.2f; YES looks %s",
		mood, s.Score, s.Confidence, s.ArticleCount, price, verdict)

	return rules.NewCandidate(mctx, r.Type(), dir, confidence, reasoning, map[string]any{
		"sentiment_score":      s.Score,
		"sentiment_confidence": s.Confidence,
		"article_count":        s.ArticleCount,
		"price_gap":            math.Round(gap*10000) / 10000,
		"threshold":            r.threshold,
	})
}
