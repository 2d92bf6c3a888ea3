package core

import (
	"strings"
	"time"
)

// SignalType identifies the rule that produced a signal
type SignalType string

const (
	SignalSentimentDivergence SignalType = "SENTIMENT_DIVERGENCE"
	SignalVolumeSurge         SignalType = "VOLUME_SURGE"
	SignalSocialSpike         SignalType = "SOCIAL_SPIKE"
	SignalPriceMomentum       SignalType = "PRICE_MOMENTUM"
	SignalArbitrage           SignalType = "ARBITRAGE"
)

// SignalTypes lists every known signal type in display order.
var SignalTypes = []SignalType{
	SignalSentimentDivergence,
	SignalVolumeSurge,
	SignalSocialSpike,
	SignalPriceMomentum,
	SignalArbitrage,
}

// Direction is the side a signal recommends
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL.
func (d Direction) Sign() float64 {
	if d == DirectionSell {
		return -1
	}
	return 1
}

// Status is the lifecycle state of a tracked signal
type Status string

const (
	StatusActive       Status = "ACTIVE"
	StatusResolvedWin  Status = "RESOLVED_WIN"
	StatusResolvedLoss Status = "RESOLVED_LOSS"
	StatusExpired      Status = "EXPIRED"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusResolvedWin, StatusResolvedLoss, StatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s.IsTerminal()
}

// MarketRecord is the stored view of a prediction market
type MarketRecord struct {
	ID              string     `json:"id"`
	Question        string     `json:"question"`
	Slug            string     `json:"slug"`
	Category        string     `json:"category,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Active          bool       `json:"active"`
	Closed          bool       `json:"closed"`
	Archived        bool       `json:"archived"`
	AcceptingOrders bool       `json:"accepting_orders"`
	Price           float64    `json:"price"`
	Volume24h       float64    `json:"volume_24h"`
	VolumeTotal     float64    `json:"volume_total"`
	Liquidity       float64    `json:"liquidity"`
	Tier            Tier       `json:"tier"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsCurrent reports whether the market is still tradable at now.
func (m MarketRecord) IsCurrent(now time.Time) bool {
	if m.Closed || m.Archived || !m.Active || !m.AcceptingOrders {
		return false
	}
	if m.EndDate != nil && !m.EndDate.After(now) {
		return false
	}
	return true
}

// SearchQuery derives a short news/social search query from the market question.
func (m MarketRecord) SearchQuery() string {
	q := strings.TrimSpace(m.Question)
	q = strings.TrimPrefix(q, "Will ")
	q = strings.TrimSuffix(q, "?")
	words := strings.Fields(q)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// MarketSnapshot is the current state of a market as reported by a snapshot provider
type MarketSnapshot struct {
	MarketID        string     `json:"market_id"`
	Question        string     `json:"question,omitempty"`
	Slug            string     `json:"slug,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Price           float64    `json:"price"`
	Volume24h       float64    `json:"volume_24h"`
	VolumeTotal     float64    `json:"volume_total"`
	Liquidity       float64    `json:"liquidity"`
	Closed          bool       `json:"closed"`
	ResolutionPrice *float64   `json:"resolution_price,omitempty"`
	FetchedAt       time.Time  `json:"fetched_at"`
}

// Sentiment is aggregated news sentiment for a market over a window
type Sentiment struct {
	Score         float64       `json:"score"`
	Confidence    float64       `json:"confidence"`
	ArticleCount  int           `json:"article_count"`
	PositiveCount int           `json:"positive_count"`
	NegativeCount int           `json:"negative_count"`
	NeutralCount  int           `json:"neutral_count"`
	Headlines     []string      `json:"headlines,omitempty"`
	Window        time.Duration `json:"window"`
}

// SocialActivity is aggregated social chatter for a market
type SocialActivity struct {
	MentionCount      int     `json:"mention_count"`
	Mentions1h        int     `json:"mentions_1h"`
	Mentions24h       int     `json:"mentions_24h"`
	Mentions7d        int     `json:"mentions_7d"`
	Velocity          float64 `json:"velocity"`
	VelocityChangePct float64 `json:"velocity_change_pct"`
	Sentiment         float64 `json:"sentiment"`
}

// HourlyRatio compares the last hour's mentions with the hourly average of the last day.
func (s SocialActivity) HourlyRatio() float64 {
	avg := float64(s.Mentions24h) / 24
	if avg <= 0 {
		return 0
	}
	return float64(s.Mentions1h) / avg
}

// ApplySnapshot refreshes the mutable market fields from a snapshot and
// reclassifies the tier.
func (m *MarketRecord) ApplySnapshot(s MarketSnapshot, b TierBoundaries) {
	if m.ID == "" {
		m.ID = s.MarketID
	}
	if s.Question != "" {
		m.Question = s.Question
	}
	if s.Slug != "" {
		m.Slug = s.Slug
	}
	if s.EndDate != nil {
		m.EndDate = s.EndDate
	}
	m.Price = s.Price
	m.Volume24h = s.Volume24h
	m.VolumeTotal = s.VolumeTotal
	m.Liquidity = s.Liquidity
	if s.Closed {
		m.Closed = true
		m.Active = false
		m.AcceptingOrders = false
	}
	m.Tier = b.Classify(s.Volume24h)
	m.UpdatedAt = s.FetchedAt
}
