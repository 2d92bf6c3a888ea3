// internal/context/assembler.go
package context

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/provider"
)

const (
	DefaultNewsWindow      = 24 * time.Hour
	DefaultSocialWindow    = 24 * time.Hour
	DefaultProviderTimeout = 10 * time.Second
)

// AssemblerConfig holds assembler settings.
type AssemblerConfig struct {
	ProviderTimeout time.Duration
	NewsWindow      time.Duration
	SocialWindow    time.Duration
	SkipNews        bool
	SkipSocial      bool
	Tiers           core.TierBoundaries
}

// Assembler gathers a market snapshot, news sentiment and social activity
// concurrently and folds them with recorded history into a MarketContext.
type Assembler struct {
	providers *provider.Set
	history   HistoryStore
	cfg       AssemblerConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssembler creates an assembler over the given providers.
func NewAssembler(providers *provider.Set, history HistoryStore, cfg AssemblerConfig, logger *zap.Logger) *Assembler {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.NewsWindow <= 0 {
		cfg.NewsWindow = DefaultNewsWindow
	}
	if cfg.SocialWindow <= 0 {
		cfg.SocialWindow = DefaultSocialWindow
	}
	if !cfg.Tiers.Valid() {
		cfg.Tiers = core.DefaultTierBoundaries
	}
	if history == nil {
		history = NewInMemoryHistory(DefaultHistorySize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		providers: providers,
		history:   history,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// History exposes the store backing the price and volume series.
func (a *Assembler) History() HistoryStore { return a.history }

// Assemble builds the context for market. A snapshot failure is returned as
// an error and nothing is recorded; sentiment and social failures leave the
// corresponding field nil and are listed in Degraded.
func (a *Assembler) Assemble(ctx context.Context, market core.MarketRecord) (*Assembly, error) {
	var (
		wg        sync.WaitGroup
		snap      *core.MarketSnapshot
		snapErr   error
		sent      *core.Sentiment
		sentErr   error
		social    *core.SocialActivity
		socialErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
		defer cancel()
		snap, snapErr = a.providers.Snapshots.GetMarketSnapshot(cctx, market.ID)
	}()

	if a.providers.Sentiment != nil && !a.cfg.SkipNews {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()
			sent, sentErr = a.providers.Sentiment.GetSentiment(cctx, market, a.cfg.NewsWindow)
		}()
	}

	if a.providers.Social != nil && !a.cfg.SkipSocial {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
			defer cancel()
			social, socialErr = a.providers.Social.GetSocialActivity(cctx, market, a.cfg.SocialWindow)
		}()
	}

	wg.Wait()

	if snapErr != nil {
		return nil, timeoutAware(snapErr)
	}
	if snap == nil {
		return nil, core.Errorf(core.ErrMarketDataMissing, "no snapshot for market %s", market.ID)
	}

	out := &Assembly{Snapshot: *snap}
	if sentErr != nil {
		sent = nil
		out.Degraded = append(out.Degraded, degradedReason("sentiment", sentErr))
		a.logger.Debug("sentiment unavailable", zap.String("market_id", market.ID), zap.Error(sentErr))
	}
	if socialErr != nil {
		social = nil
		out.Degraded = append(out.Degraded, degradedReason("social", socialErr))
		a.logger.Debug("social activity unavailable", zap.String("market_id", market.ID), zap.Error(socialErr))
	}

	prior := a.history.Get(market.ID)
	priceHistory := make([]float64, len(prior))
	volumeHistory := make([]float64, len(prior))
	for i, o := range prior {
		priceHistory[i] = o.Price
		volumeHistory[i] = o.Volume24h
	}

	now := snap.FetchedAt
	if now.IsZero() {
		now = a.now()
	}

	question := market.Question
	if snap.Question != "" {
		question = snap.Question
	}
	slug := market.Slug
	if snap.Slug != "" {
		slug = snap.Slug
	}
	endDate := market.EndDate
	if snap.EndDate != nil {
		endDate = snap.EndDate
	}

	out.Context = core.MarketContext{
		MarketID:      market.ID,
		Question:      question,
		Slug:          slug,
		EndDate:       endDate,
		Price:         snap.Price,
		Volume24h:     snap.Volume24h,
		VolumeTotal:   snap.VolumeTotal,
		Liquidity:     snap.Liquidity,
		Tier:          a.cfg.Tiers.Classify(snap.Volume24h),
		PriceHistory:  priceHistory,
		VolumeHistory: volumeHistory,
		Sentiment:     sent,
		Social:        social,
		Now:           now,
	}

	a.history.Record(market.ID, Observation{Price: snap.Price, Volume24h: snap.Volume24h, At: now})
	return out, nil
}

func timeoutAware(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && core.ErrorCode(err) == "UNKNOWN" {
		return core.WrapError(core.ErrProviderUnavailable, err)
	}
	return err
}

func degradedReason(source string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s: TIMEOUT", source)
	}
	return fmt.Sprintf("%s: %s", source, core.ErrorCode(err))
}
