package core

import (
	"fmt"
	"time"
)

// Signal is a persisted trade signal. Entry fields are fixed at creation;
// the tracking block is written only by the outcome tracker.
type Signal struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MarketID       string     `json:"market_id"`
	MarketQuestion string     `json:"market_question"`
	MarketSlug     string     `json:"market_slug"`
	MarketEndDate  *time.Time `json:"market_end_date,omitempty"`

	Type       SignalType     `json:"signal_type"`
	Direction  Direction      `json:"direction"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	EntryPrice            float64  `json:"entry_price"`
	EntryVolume24h        float64  `json:"entry_volume_24h"`
	EntryVolumeTotal      float64  `json:"entry_volume_total"`
	EntryLiquidity        float64  `json:"entry_liquidity"`
	MarketTier            Tier     `json:"market_tier"`
	NewsSentimentScore    *float64 `json:"news_sentiment_score"`
	SocialMentionCount24h *int     `json:"social_mention_count_24h"`
	SocialSentimentScore  *float64 `json:"social_sentiment_score"`

	Price1h           *float64   `json:"price_1h"`
	Price24h          *float64   `json:"price_24h"`
	Price7d           *float64   `json:"price_7d"`
	PriceAtResolution *float64   `json:"price_at_resolution"`
	Gain1hPct         *float64   `json:"gain_1h_pct"`
	Gain24hPct        *float64   `json:"gain_24h_pct"`
	Gain7dPct         *float64   `json:"gain_7d_pct"`
	GainFinalPct      *float64   `json:"gain_final_pct"`
	Status            Status     `json:"status"`
	ResolvedAt        *time.Time `json:"resolved_at"`
}

// NewSignal materializes a candidate into an ACTIVE signal.
func NewSignal(id string, createdAt time.Time, c SignalCandidate) Signal {
	mctx := c.Context
	s := Signal{
		ID:               id,
		CreatedAt:        createdAt,
		MarketID:         mctx.MarketID,
		MarketQuestion:   mctx.Question,
		MarketSlug:       mctx.Slug,
		MarketEndDate:    mctx.EndDate,
		Type:             c.Type,
		Direction:        c.Direction,
		Confidence:       c.Confidence,
		Reasoning:        c.Reasoning,
		Metadata:         c.Metadata,
		EntryPrice:       mctx.Price,
		EntryVolume24h:   mctx.Volume24h,
		EntryVolumeTotal: mctx.VolumeTotal,
		EntryLiquidity:   mctx.Liquidity,
		MarketTier:       mctx.Tier,
		Status:           StatusActive,
	}
	if mctx.Sentiment != nil {
		score := mctx.Sentiment.Score
		s.NewsSentimentScore = &score
	}
	if mctx.Social != nil {
		count := mctx.Social.MentionCount
		sent := mctx.Social.Sentiment
		s.SocialMentionCount24h = &count
		s.SocialSentimentScore = &sent
	}
	return s
}

// Validate checks the creation-time invariants.
func (s Signal) Validate() error {
	if s.MarketID == "" {
		return Errorf(ErrMarketDataMissing, "signal has no market reference")
	}
	if s.EntryPrice < 0 || s.EntryPrice > 1 {
		return Errorf(ErrMarketDataMissing, "entry price %.4f outside [0,1]", s.EntryPrice)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", s.Confidence)
	}
	if s.Direction != DirectionBuy && s.Direction != DirectionSell {
		return fmt.Errorf("unknown direction %q", s.Direction)
	}
	return nil
}

// Age returns the time elapsed since creation.
func (s Signal) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Gain is the direction-adjusted percentage move from entry to current.
func Gain(direction Direction, entry, current float64) (float64, error) {
	if entry <= 0 {
		return 0, Errorf(ErrMarketDataMissing, "entry price %.4f cannot anchor a gain", entry)
	}
	return direction.Sign() * (current - entry) / entry * 100, nil
}

// SignalUpdate carries the tracker-owned fields to change. Nil fields are left alone.
type SignalUpdate struct {
	Price1h           *float64   `json:"price_1h,omitempty"`
	Price24h          *float64   `json:"price_24h,omitempty"`
	Price7d           *float64   `json:"price_7d,omitempty"`
	PriceAtResolution *float64   `json:"price_at_resolution,omitempty"`
	Gain1hPct         *float64   `json:"gain_1h_pct,omitempty"`
	Gain24hPct        *float64   `json:"gain_24h_pct,omitempty"`
	Gain7dPct         *float64   `json:"gain_7d_pct,omitempty"`
	GainFinalPct      *float64   `json:"gain_final_pct,omitempty"`
	Status            *Status    `json:"status,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u SignalUpdate) IsEmpty() bool {
	return u.Price1h == nil && u.Price24h == nil && u.Price7d == nil &&
		u.PriceAtResolution == nil && u.Gain1hPct == nil && u.Gain24hPct == nil &&
		u.Gain7dPct == nil && u.GainFinalPct == nil && u.Status == nil && u.ResolvedAt == nil
}

// Apply writes u onto s. A terminal signal rejects every update, and a status
// can only move from ACTIVE to a terminal state.
func (u SignalUpdate) Apply(s *Signal) error {
	if s.Status.IsTerminal() {
		return Errorf(ErrInvalidTransition, "signal %s is %s", s.ID, s.Status)
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return Errorf(ErrInvalidTransition, "unknown status %q", *u.Status)
		}
		s.Status = *u.Status
	}
	setOnce(&s.Price1h, u.Price1h)
	setOnce(&s.Price24h, u.Price24h)
	setOnce(&s.Price7d, u.Price7d)
	setOnce(&s.PriceAtResolution, u.PriceAtResolution)
	setOnce(&s.Gain1hPct, u.Gain1hPct)
	setOnce(&s.Gain24hPct, u.Gain24hPct)
	setOnce(&s.Gain7dPct, u.Gain7dPct)
	setOnce(&s.GainFinalPct, u.GainFinalPct)
	if u.ResolvedAt != nil && s.ResolvedAt == nil {
		t := *u.ResolvedAt
		s.ResolvedAt = &t
	}
	return nil
}

func setOnce(dst **float64, v *float64) {
	if v == nil || *dst != nil {
		return
	}
	x := *v
	*dst = &x
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status { return &s }
