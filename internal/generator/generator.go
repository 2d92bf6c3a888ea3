// Package generator turns market contexts into persisted signals.
package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/polyedge/internal/config"
	marketctx "github.com/newthinker/polyedge/internal/context"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/provider"
	"github.com/newthinker/polyedge/internal/rules"
	"github.com/newthinker/polyedge/internal/storage/signal"
	"go.uber.org/zap"
)

// Skip reasons reported in logs and metrics.
const (
	SkipClosed     = "closed"
	SkipNotCurrent = "not_current"
	SkipExpiring   = "expiring"
	SkipThin       = "thin"
	SkipTier       = "tier"
	SkipPrice      = "price"
	SkipSnapshot   = "snapshot"
)

// Config holds the generator's eligibility and filtering settings.
type Config struct {
	MinConfidence   float64
	MinDaysToExpiry int
	MinTier         core.Tier
	MinPrice        float64
	MaxPrice        float64
	Concurrency     int
	Watchlist       []string
	DiscoveryLimit  int
	Tiers           core.TierBoundaries
}

// DefaultConfig returns the production filter settings.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinDaysToExpiry: 7,
		MinTier:         core.TierLow,
		MinPrice:        0.05,
		MaxPrice:        0.95,
		Concurrency:     4,
		DiscoveryLimit:  50,
		Tiers:           core.DefaultTierBoundaries,
	}
}

// ConfigFrom maps the loaded configuration onto generator settings.
func ConfigFrom(c config.GeneratorConfig, tiers core.TierBoundaries) Config {
	return Config{
		MinConfidence:   c.MinConfidence,
		MinDaysToExpiry: c.MinDaysToExpiry,
		MinTier:         c.MinTier,
		MinPrice:        c.MinPrice,
		MaxPrice:        c.MaxPrice,
		Concurrency:     c.Concurrency,
		Watchlist:       append([]string(nil), c.Watchlist...),
		DiscoveryLimit:  c.DiscoveryLimit,
		Tiers:           tiers,
	}
}

// Metrics receives generator observations. *metrics.Registry satisfies it.
type Metrics interface {
	RecordSignal(signalType, direction string)
	RecordMarketSkipped(reason string)
	RecordProviderFailure(provider, code string)
	RecordGeneratorRun(duration float64, marketsConsidered int)
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)          {}
func (nopMetrics) RecordMarketSkipped(string)           {}
func (nopMetrics) RecordProviderFailure(string, string) {}
func (nopMetrics) RecordGeneratorRun(float64, int)      {}

// Option customizes a Generator.
type Option func(*Generator)

// WithCooldown sets the re-trigger policy. The default is NoCooldown.
func WithCooldown(p CooldownPolicy) Option {
	return func(g *Generator) {
		if p != nil {
			g.cooldown = p
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(g *Generator) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithDiscovery enables market discovery from a snapshot provider in Run.
func WithDiscovery(p provider.SnapshotProvider) Option {
	return func(g *Generator) { g.discovery = p }
}

// WithClock overrides the clock used for created_at and cooldown checks.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// Generator evaluates every rule against each eligible market and persists
// the candidates that pass the confidence and cooldown gates.
type Generator struct {
	cfg       Config
	assembler *marketctx.Assembler
	rules     *rules.Set
	repo      signal.Repository
	discovery provider.SnapshotProvider
	cooldown  CooldownPolicy
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a generator.
func New(cfg Config, assembler *marketctx.Assembler, ruleSet *rules.Set, repo signal.Repository, logger *zap.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if !cfg.Tiers.Valid() {
		cfg.Tiers = core.DefaultTierBoundaries
	}
	if cfg.MinTier == "" || !cfg.MinTier.AtLeast(core.TierLow) {
		cfg.MinTier = core.TierLow
	}
	g := &Generator{
		cfg:       cfg,
		assembler: assembler,
		rules:     ruleSet,
		repo:      repo,
		cooldown:  NoCooldown{},
		metrics:   nopMetrics{},
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run discovers markets, merges them with the watchlist and generates.
func (g *Generator) Run(ctx context.Context) (*core.GeneratorReport, error) {
	ids, err := g.EligibleMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, ids)
}

// EligibleMarkets returns the watchlist followed by the highest-volume
// current markets known to the repository. Discovery failures are logged and
// the stored markets are used as-is.
func (g *Generator) EligibleMarkets(ctx context.Context) ([]string, error) {
	now := g.now()

	if g.discovery != nil && g.cfg.DiscoveryLimit > 0 {
		found, err := g.discovery.ListMarkets(ctx, g.cfg.DiscoveryLimit)
		if err != nil {
			g.logger.Warn("market discovery failed", zap.String("provider", g.discovery.Name()), zap.Error(err))
			g.metrics.RecordProviderFailure(g.discovery.Name(), core.ErrorCode(err))
		}
		for _, m := range found {
			m.Tier = g.cfg.Tiers.Classify(m.Volume24h)
			if m.UpdatedAt.IsZero() {
				m.UpdatedAt = now
			}
			if err := g.repo.UpsertMarket(ctx, m); err != nil {
				return nil, core.WrapError(core.ErrPersistenceFailure, err)
			}
		}
	}

	ids := make([]string, 0, len(g.cfg.Watchlist)+g.cfg.DiscoveryLimit)
	ids = append(ids, g.cfg.Watchlist...)

	if g.cfg.DiscoveryLimit > 0 {
		stored, err := g.repo.ListMarkets(ctx, signal.MarketFilter{
			CurrentAt: now,
			MinTier:   g.cfg.MinTier,
			Limit:     g.cfg.DiscoveryLimit,
		})
		if err != nil {
			return nil, core.WrapError(core.ErrPersistenceFailure, err)
		}
		for _, m := range stored {
			ids = append(ids, m.ID)
		}
	}
	return dedupe(ids), nil
}

type marketResult struct {
	signals  []core.Signal
	skipped  string
	degraded []string
	errs     []core.ItemError

	reads      int
	readFailed int
	writes     int
	writeFail  int
	lastRepo   error
}

// Generate evaluates the given markets and persists the resulting signals.
// Per-market failures are collected in the report. An error is returned only
// when the run as a whole failed: the context was cancelled, every market
// lookup failed, or every signal write was rejected by the repository.
func (g *Generator) Generate(ctx context.Context, marketIDs []string) (*core.GeneratorReport, error) {
	start := g.now()
	ids := dedupe(marketIDs)
	report := &core.GeneratorReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Degraded:  map[string][]string{},
	}

	results := make([]marketResult, len(ids))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := g.cfg.Concurrency
	if workers > len(ids) {
		workers = len(ids)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = g.evaluate(ctx, ids[i])
			}
		}()
	}

feed:
	for i := range ids {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var reads, readFailed, writes, writeFail int
	var lastRepo error
	for i, res := range results {
		id := ids[i]
		report.MarketsScanned++
		if res.skipped != "" {
			report.MarketsSkipped++
		}
		if len(res.degraded) > 0 {
			report.Degraded[id] = res.degraded
		}
		report.Errors = append(report.Errors, res.errs...)
		report.Signals = append(report.Signals, res.signals...)
		reads += res.reads
		readFailed += res.readFailed
		writes += res.writes
		writeFail += res.writeFail
		if res.lastRepo != nil {
			lastRepo = res.lastRepo
		}
	}
	report.SignalsGenerated = len(report.Signals)
	if len(report.Degraded) == 0 {
		report.Degraded = nil
	}
	report.FinishedAt = g.now()

	g.metrics.RecordGeneratorRun(report.FinishedAt.Sub(start).Seconds(), len(ids))
	g.logger.Info("generator run complete",
		zap.String("run_id", report.RunID),
		zap.Int("markets", report.MarketsScanned),
		zap.Int("skipped", report.MarketsSkipped),
		zap.Int("signals", report.SignalsGenerated),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.FinishedAt.Sub(start)),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if (reads > 0 && readFailed == reads) || (writes > 0 && writeFail == writes) {
		return report, core.WrapError(core.ErrPersistenceFailure, lastRepo)
	}
	return report, nil
}

func (g *Generator) evaluate(ctx context.Context, marketID string) (res marketResult) {
	if ctx.Err() != nil {
		res.skipped = "cancelled"
		return res
	}
	log := g.logger.With(zap.String("market_id", marketID))

	market, err := g.repo.GetMarket(ctx, marketID)
	res.reads++
	switch {
	case errors.Is(err, core.ErrMarketNotFound):
		// Unknown watchlist entries are assumed tradeable until the snapshot says otherwise.
		market = &core.MarketRecord{ID: marketID, Active: true, AcceptingOrders: true}
	case err != nil:
		res.readFailed++
		res.lastRepo = err
		log.Warn("market lookup failed", zap.Error(err))
		res.errs = append(res.errs, core.NewItemError(marketID, core.WrapError(core.ErrPersistenceFailure, err)))
		res.skipped = "repository"
		return res
	}
	if market.Closed || market.Archived {
		return g.skip(res, log, SkipClosed)
	}

	asm, err := g.assembler.Assemble(ctx, *market)
	if err != nil {
		log.Warn("market snapshot unavailable", zap.Error(err))
		g.metrics.RecordProviderFailure("snapshot", core.ErrorCode(err))
		res.errs = append(res.errs, core.NewItemError(marketID, err))
		return g.skip(res, log, SkipSnapshot)
	}
	res.degraded = asm.Degraded
	for _, d := range asm.Degraded {
		source, code, _ := strings.Cut(d, ": ")
		g.metrics.RecordProviderFailure(source, code)
	}

	market.ApplySnapshot(asm.Snapshot, g.cfg.Tiers)
	if err := g.repo.UpsertMarket(ctx, *market); err != nil {
		log.Warn("failed to store market", zap.Error(err))
	}

	mctx := asm.Context
	if reason := g.ineligible(*market, mctx); reason != "" {
		return g.skip(res, log, reason)
	}

	candidates, err := g.rules.Evaluate(ctx, mctx)
	if err != nil {
		res.errs = append(res.errs, core.NewItemError(marketID, err))
		return res
	}

	for _, c := range candidates {
		if c.Confidence < g.cfg.MinConfidence {
			log.Debug("candidate below confidence floor",
				zap.String("signal_type", string(c.Type)),
				zap.Float64("confidence", c.Confidence),
			)
			continue
		}
		now := g.now()
		ok, err := g.cooldown.Allow(ctx, marketID, c.Type, now)
		if err != nil {
			res.errs = append(res.errs, core.NewItemError(marketID, core.WrapError(core.ErrPersistenceFailure, err)))
			continue
		}
		if !ok {
			log.Debug("candidate in cooldown", zap.String("signal_type", string(c.Type)))
			continue
		}

		sig := core.NewSignal(g.newID(), now, c)
		if err := sig.Validate(); err != nil {
			res.errs = append(res.errs, core.NewItemError(marketID, err))
			continue
		}
		res.writes++
		if err := g.repo.CreateSignal(ctx, sig); err != nil {
			res.writeFail++
			res.lastRepo = err
			log.Warn("failed to persist signal", zap.String("signal_id", sig.ID), zap.Error(err))
			res.errs = append(res.errs, core.NewItemError(sig.ID, core.WrapError(core.ErrPersistenceFailure, err)))
			continue
		}
		g.metrics.RecordSignal(string(sig.Type), string(sig.Direction))
		log.Info("signal generated",
			zap.String("signal_id", sig.ID),
			zap.String("signal_type", string(sig.Type)),
			zap.String("direction", string(sig.Direction)),
			zap.Float64("confidence", sig.Confidence),
			zap.Float64("entry_price", sig.EntryPrice),
		)
		res.signals = append(res.signals, sig)
	}
	return res
}

func (g *Generator) skip(res marketResult, log *zap.Logger, reason string) marketResult {
	log.Debug("market skipped", zap.String("reason", reason))
	g.metrics.RecordMarketSkipped(reason)
	res.skipped = reason
	return res
}

// ineligible returns why a refreshed market may not produce signals, or "".
func (g *Generator) ineligible(m core.MarketRecord, mctx core.MarketContext) string {
	now := mctx.Now
	switch {
	case m.Closed:
		return SkipClosed
	case !m.IsCurrent(now):
		return SkipNotCurrent
	case m.EndDate != nil && m.EndDate.Sub(now) < time.Duration(g.cfg.MinDaysToExpiry)*24*time.Hour:
		return SkipExpiring
	case mctx.Tier == core.TierThin:
		return SkipThin
	case !mctx.Tier.AtLeast(g.cfg.MinTier):
		return SkipTier
	case mctx.Price < g.cfg.MinPrice || mctx.Price > g.cfg.MaxPrice:
		return SkipPrice
	}
	return ""
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
