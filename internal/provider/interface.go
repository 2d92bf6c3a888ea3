// internal/provider/interface.go
package provider

import (
	"context"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

// SnapshotProvider reports the current state of markets.
type SnapshotProvider interface {
	Name() string
	GetMarketSnapshot(ctx context.Context, marketID string) (*core.MarketSnapshot, error)
	// ListMarkets returns active markets ordered by 24h volume, at most limit.
	ListMarkets(ctx context.Context, limit int) ([]core.MarketRecord, error)
}

// SentimentProvider aggregates news sentiment for a market over a window.
type SentimentProvider interface {
	Name() string
	GetSentiment(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.Sentiment, error)
}

// SocialProvider aggregates social mentions for a market over a window.
type SocialProvider interface {
	Name() string
	GetSocialActivity(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.SocialActivity, error)
}

// Set bundles the three providers selected at wiring time.
type Set struct {
	Mode      string
	Snapshots SnapshotProvider
	Sentiment SentimentProvider
	Social    SocialProvider
}

// NewsItem is a scored headline.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Sentiment   float64   `json:"sentiment"` // -1 to 1
	PublishedAt time.Time `json:"published_at"`
}

// Neutral band for classifying headline sentiment.
const neutralBand = 0.1

// AggregateSentiment folds scored headlines into a Sentiment reading.
// Confidence grows with sample size and agreement between headlines.
func AggregateSentiment(items []NewsItem, window time.Duration) *core.Sentiment {
	s := &core.Sentiment{ArticleCount: len(items), Window: window}
	if len(items) == 0 {
		return s
	}
	var sum float64
	for _, it := range items {
		sum += it.Sentiment
		switch {
		case it.Sentiment > neutralBand:
			s.PositiveCount++
		case it.Sentiment < -neutralBand:
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
		if len(s.Headlines) < 5 {
			s.Headlines = append(s.Headlines, it.Title)
		}
	}
	n := float64(len(items))
	s.Score = sum / n

	majority := s.PositiveCount
	if s.NegativeCount > majority {
		majority = s.NegativeCount
	}
	agreement := float64(majority) / n
	sample := n / 15
	if sample > 1 {
		sample = 1
	}
	s.Confidence = 0.5*agreement + 0.5*sample
	return s
}
