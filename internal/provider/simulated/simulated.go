// Package simulated provides deterministic, offline implementations of the
// market, sentiment and social providers.
package simulated

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/core"
)

const providerName = "simulated"

// Options controls the simulated clock.
type Options struct {
	Epoch time.Time
	Step  time.Duration
	Now   func() time.Time
	Tiers core.TierBoundaries
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Epoch.IsZero() {
		o.Epoch = o.Now()
	}
	if o.Step <= 0 {
		o.Step = time.Hour
	}
	if !o.Tiers.Valid() {
		o.Tiers = core.DefaultTierBoundaries
	}
	return o
}

// MarketProvider serves scripted market snapshots.
type MarketProvider struct {
	mu      sync.RWMutex
	markets map[string]MarketFixture
	order   []string
	opts    Options
}

// NewMarketProvider creates a market provider over fixtures.
func NewMarketProvider(fixtures []MarketFixture, opts Options) *MarketProvider {
	p := &MarketProvider{
		markets: make(map[string]MarketFixture, len(fixtures)),
		opts:    opts.withDefaults(),
	}
	for _, f := range fixtures {
		p.Put(f)
	}
	return p
}

// Put adds or replaces a fixture.
func (p *MarketProvider) Put(f MarketFixture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.markets[f.ID]; !ok {
		p.order = append(p.order, f.ID)
	}
	p.markets[f.ID] = f
}

func (p *MarketProvider) Name() string { return providerName }

func (p *MarketProvider) step(now time.Time) int {
	elapsed := now.Sub(p.opts.Epoch)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / p.opts.Step)
}

// GetMarketSnapshot returns the scripted state of marketID at the current step.
func (p *MarketProvider) GetMarketSnapshot(ctx context.Context, marketID string) (*core.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, err)
	}
	p.mu.RLock()
	f, ok := p.markets[marketID]
	p.mu.RUnlock()
	if !ok {
		return nil, core.Errorf(core.ErrMarketDataMissing, "unknown market %s", marketID)
	}

	now := p.opts.Now()
	step := p.step(now)
	rec := f.record(step, p.opts.Epoch, now, p.opts.Tiers)
	snap := &core.MarketSnapshot{
		MarketID:    f.ID,
		Question:    f.Question,
		Slug:        f.Slug,
		EndDate:     rec.EndDate,
		Price:       rec.Price,
		Volume24h:   rec.Volume24h,
		VolumeTotal: rec.VolumeTotal,
		Liquidity:   rec.Liquidity,
		Closed:      rec.Closed,
		FetchedAt:   now,
	}
	if rec.Closed && f.ResolutionPrice != nil {
		rp := *f.ResolutionPrice
		snap.ResolutionPrice = &rp
	}
	return snap, nil
}

// ListMarkets returns open markets by descending 24h volume.
func (p *MarketProvider) ListMarkets(ctx context.Context, limit int) ([]core.MarketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, err)
	}
	now := p.opts.Now()
	step := p.step(now)

	p.mu.RLock()
	records := make([]core.MarketRecord, 0, len(p.order))
	for _, id := range p.order {
		rec := p.markets[id].record(step, p.opts.Epoch, now, p.opts.Tiers)
		if rec.Closed {
			continue
		}
		records = append(records, rec)
	}
	p.mu.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Volume24h > records[j].Volume24h
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SentimentProvider serves fixed news readings.
type SentimentProvider struct {
	fixtures map[string]SentimentFixture
}

// NewSentimentProvider creates a sentiment provider. Markets without a
// fixture get a weak reading derived from their id.
func NewSentimentProvider(fixtures map[string]SentimentFixture) *SentimentProvider {
	return &SentimentProvider{fixtures: fixtures}
}

func (p *SentimentProvider) Name() string { return providerName }

func (p *SentimentProvider) GetSentiment(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, err)
	}
	f, ok := p.fixtures[market.ID]
	if !ok {
		h := hash(market.ID)
		f = SentimentFixture{
			Score:        float64(int(h%101)-50) / 250,
			Confidence:   0.4,
			ArticleCount: 3 + int(h%8),
		}
	}
	s := &core.Sentiment{
		Score:        f.Score,
		Confidence:   f.Confidence,
		ArticleCount: f.ArticleCount,
		Headlines:    append([]string(nil), f.Headlines...),
		Window:       window,
	}
	switch {
	case f.Score > 0.1:
		s.PositiveCount = f.ArticleCount
	case f.Score < -0.1:
		s.NegativeCount = f.ArticleCount
	default:
		s.NeutralCount = f.ArticleCount
	}
	return s, nil
}

// SocialProvider serves fixed social readings.
type SocialProvider struct {
	fixtures map[string]SocialFixture
}

// NewSocialProvider creates a social provider. Markets without a fixture
// get flat chatter derived from their id.
func NewSocialProvider(fixtures map[string]SocialFixture) *SocialProvider {
	return &SocialProvider{fixtures: fixtures}
}

func (p *SocialProvider) Name() string { return providerName }

func (p *SocialProvider) GetSocialActivity(ctx context.Context, market core.MarketRecord, window time.Duration) (*core.SocialActivity, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapError(core.ErrProviderUnavailable, err)
	}
	f, ok := p.fixtures[market.ID]
	if !ok {
		h := hash(market.ID)
		perHour := 1 + int(h%5)
		f = SocialFixture{
			Mentions1h:  perHour,
			Mentions24h: perHour * 24,
			Mentions7d:  perHour * 24 * 7,
			Sentiment:   float64(int(h%41)-20) / 100,
		}
	}
	a := &core.SocialActivity{
		MentionCount: f.Mentions24h,
		Mentions1h:   f.Mentions1h,
		Mentions24h:  f.Mentions24h,
		Mentions7d:   f.Mentions7d,
		Velocity:     float64(f.Mentions1h),
		Sentiment:    f.Sentiment,
	}
	if avg := float64(f.Mentions24h) / 24; avg > 0 {
		a.VelocityChangePct = (float64(f.Mentions1h) - avg) / avg * 100
	}
	return a, nil
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
