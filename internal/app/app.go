// Package app wires the engine together and runs its periodic loops.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/polyedge/internal/alert"
	"github.com/newthinker/polyedge/internal/api/job"
	"github.com/newthinker/polyedge/internal/config"
	marketctx "github.com/newthinker/polyedge/internal/context"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/generator"
	"github.com/newthinker/polyedge/internal/llm"
	llmfactory "github.com/newthinker/polyedge/internal/llm/factory"
	"github.com/newthinker/polyedge/internal/metrics"
	"github.com/newthinker/polyedge/internal/notifier"
	"github.com/newthinker/polyedge/internal/provider"
	providerfactory "github.com/newthinker/polyedge/internal/provider/factory"
	"github.com/newthinker/polyedge/internal/ratelimit"
	"github.com/newthinker/polyedge/internal/router"
	"github.com/newthinker/polyedge/internal/rules"
	"github.com/newthinker/polyedge/internal/rules/builtin"
	"github.com/newthinker/polyedge/internal/storage/archive"
	"github.com/newthinker/polyedge/internal/storage/signal"
	"github.com/newthinker/polyedge/internal/tracker"
	"github.com/newthinker/polyedge/internal/trackrecord"
	"go.uber.org/zap"
)

// Run triggers recorded in the run log.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

const runLogSize = 200

// Option customizes how New wires the application.
type Option func(*options)

type options struct {
	repo      signal.Repository
	providers *provider.Set
	notifiers []notifier.Notifier
	now       func() time.Time
}

// WithRepository uses repo instead of opening the configured storage.
func WithRepository(repo signal.Repository) Option {
	return func(o *options) { o.repo = repo }
}

// WithProviders uses set instead of building providers from configuration.
func WithProviders(set *provider.Set) Option {
	return func(o *options) { o.providers = set }
}

// WithNotifier registers n in addition to the configured notifiers.
func WithNotifier(n notifier.Notifier) Option {
	return func(o *options) { o.notifiers = append(o.notifiers, n) }
}

// WithClock overrides the clock passed to the tracker.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	repo      signal.Repository
	providers *provider.Set
	limiter   *ratelimit.Limiter
	generator *generator.Generator
	tracker   *tracker.Tracker
	notifiers *notifier.Registry
	router    *router.Router
	archiver  *archive.Archiver
	alerts    *alert.Evaluator
	rules     []alert.Rule
	metrics   *metrics.Registry
	records   *trackrecord.Service
	runs      *job.Store
	now       func() time.Time

	// held for the duration of a run; TryLock rejects overlapping runs
	generating sync.Mutex
	tracking   sync.Mutex

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New wires every component from cfg. The caller owns the returned App and
// must Close it.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		notifiers: notifier.NewRegistry(),
		runs:      job.NewStore(runLogSize),
		now:       o.now,
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	repo := o.repo
	if repo == nil {
		var err error
		if repo, err = OpenRepository(cfg.Storage, logger.Named("storage")); err != nil {
			return nil, err
		}
	}
	a.repo = repo
	a.records = trackrecord.NewService(repo)

	if err := a.wireEngine(o.providers); err != nil {
		repo.Close()
		return nil, err
	}
	if err := a.wireDelivery(o.notifiers); err != nil {
		repo.Close()
		return nil, err
	}
	return a, nil
}

// OpenRepository opens the configured signal store.
func OpenRepository(cfg config.StorageConfig, logger *zap.Logger) (signal.Repository, error) {
	switch cfg.Driver {
	case "", "memory":
		return signal.NewMemoryStore(), nil
	case "postgres":
		return signal.OpenGorm(signal.GormOptions{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			LogSQL:          cfg.LogSQL,
			CreateDatabase:  true,
		}, logger)
	default:
		return nil, core.Errorf(core.ErrConfigInvalid, "unknown storage driver %q", cfg.Driver)
	}
}

// wireEngine builds providers, the context assembler, the rule set, the
// generator and the tracker.
func (a *App) wireEngine(set *provider.Set) error {
	cfg := a.cfg

	if set == nil {
		var llmProvider llm.Provider
		if cfg.LLM.Provider != "" {
			p, err := llmfactory.New(cfg.LLM)
			if err != nil {
				return fmt.Errorf("creating llm provider: %w", err)
			}
			llmProvider = p
		}

		var err error
		set, a.limiter, err = providerfactory.New(cfg.Providers, cfg.Tiers, llmProvider, a.logger.Named("provider"))
		if err != nil {
			return err
		}
	}
	a.providers = set

	assembler := marketctx.NewAssembler(set, marketctx.NewInMemoryHistory(cfg.Generator.HistorySize), marketctx.AssemblerConfig{
		ProviderTimeout: cfg.Generator.ProviderTimeout,
		NewsWindow:      cfg.Providers.NewsAPI.Window,
		SkipNews:        cfg.Generator.SkipNews,
		SkipSocial:      cfg.Generator.SkipSocial,
		Tiers:           cfg.Tiers,
	}, a.logger.Named("context"))

	ruleSet := builtin.New(thresholds(cfg.Rules), a.logger.Named("rules"))

	genOpts := []generator.Option{
		generator.WithCooldown(generator.CooldownFor(a.repo, cfg.Generator.Cooldown)),
		generator.WithDiscovery(set.Snapshots),
	}
	var trackerMetrics tracker.Metrics
	if a.metrics != nil {
		genOpts = append(genOpts, generator.WithMetrics(a.metrics))
		trackerMetrics = a.metrics
	}

	a.generator = generator.New(generator.ConfigFrom(cfg.Generator, cfg.Tiers),
		assembler, ruleSet, a.repo, a.logger.Named("generator"), genOpts...)
	a.tracker = tracker.New(tracker.ConfigFrom(cfg.Tracker),
		set.Snapshots, a.repo, trackerMetrics, a.logger.Named("tracker"))
	return nil
}

// wireDelivery builds notifiers, the router, the archive and alert rules.
func (a *App) wireDelivery(extra []notifier.Notifier) error {
	cfg := a.cfg

	configured, err := BuildNotifiers(cfg.Notifiers)
	if err != nil {
		return err
	}
	for _, n := range append(configured, extra...) {
		if err := a.notifiers.Register(n); err != nil {
			return err
		}
	}

	if cfg.Router.Enabled {
		a.router = router.New(router.ConfigFrom(cfg.Router), a.notifiers, a.logger.Named("router"))
		if a.metrics != nil {
			a.router.SetMetrics(a.metrics)
		}
	}

	if cfg.Archive.Enabled {
		store, err := archive.New(cfg.Archive)
		if err != nil {
			return err
		}
		a.archiver = archive.NewArchiver(store, a.logger.Named("archive"))
	}

	if cfg.Alerts.Enabled {
		alertRules, err := alert.RulesFrom(cfg.Alerts)
		if err != nil {
			return err
		}
		a.rules = alertRules
		a.alerts = alert.NewEvaluator(alert.FromRegistry(a.notifiers), a.logger.Named("alert"))
	}
	return nil
}

func thresholds(c config.RulesConfig) rules.Thresholds {
	return rules.Thresholds{
		SentimentThreshold:   c.SentimentThreshold,
		SentimentMinArticles: c.SentimentMinArticles,
		VolumeMultiplier:     c.VolumeMultiplier,
		VolumeMinPriceChange: c.VolumeMinPriceChange,
		SocialMultiplier:     c.SocialMultiplier,
		SocialMinMentions24h: c.SocialMinMentions24h,
		SocialMinSentiment:   c.SocialMinSentiment,
		MomentumThreshold:    c.MomentumThreshold,
		MomentumMinPoints:    c.MomentumMinPoints,
	}
}

// Start runs the generator and tracker loops until ctx is cancelled or Stop
// is called. Both run once immediately.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("PolyEdge starting",
		zap.String("provider_mode", a.providers.Mode),
		zap.Duration("generate_interval", a.cfg.Generator.Interval),
		zap.Duration("track_interval", a.cfg.Tracker.Interval),
		zap.Int("notifiers", a.notifiers.Len()),
	)

	if a.router != nil && a.cfg.Router.Cooldown > 0 {
		a.router.StartCleanupRoutine(ctx, a.cfg.Router.Cooldown)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.loop(ctx, a.cfg.Generator.Interval, func(ctx context.Context) {
			a.generate(ctx, TriggerSchedule)
		})
	}()
	go func() {
		defer wg.Done()
		a.loop(ctx, a.cfg.Tracker.Interval, func(ctx context.Context) {
			a.track(ctx, TriggerSchedule)
		})
	}()
	wg.Wait()

	a.logger.Info("PolyEdge shutting down")
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return ctx.Err()
}

func (a *App) loop(ctx context.Context, interval time.Duration, run func(context.Context)) {
	run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

// Stop stops the loops started by Start
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Close releases the repository.
func (a *App) Close() error {
	return a.repo.Close()
}

// RunGenerate performs one generator run now. It fails with RUN_IN_PROGRESS
// while another generator run is active.
func (a *App) RunGenerate(ctx context.Context) (*core.GeneratorReport, error) {
	return a.generate(ctx, TriggerManual)
}

// RunTrack performs one tracker tick now. It fails with RUN_IN_PROGRESS
// while another tick is active.
func (a *App) RunTrack(ctx context.Context) (*core.TrackerReport, error) {
	return a.track(ctx, TriggerManual)
}

func (a *App) generate(ctx context.Context, trigger string) (*core.GeneratorReport, error) {
	if !a.generating.TryLock() {
		return nil, core.Errorf(core.ErrRunInProgress, "generator")
	}
	defer a.generating.Unlock()

	run := a.runs.Start(job.KindGenerate, trigger)
	report, err := a.generator.Run(ctx)
	a.runs.Finish(run.ID, report, err)

	if err != nil {
		a.logger.Error("generator run failed", zap.String("trigger", trigger), zap.Error(err))
	}

	if report != nil {
		a.logger.Info("generator run finished",
			zap.String("run_id", report.RunID),
			zap.String("trigger", trigger),
			zap.Int("markets_scanned", report.MarketsScanned),
			zap.Int("markets_skipped", report.MarketsSkipped),
			zap.Int("signals", report.SignalsGenerated),
			zap.Int("errors", len(report.Errors)),
		)

		if a.router != nil && len(report.Signals) > 0 {
			a.router.RouteBatch(report.Signals)
		}
		if a.archiver != nil {
			if _, aerr := a.archiver.ArchiveGeneratorRun(ctx, report); aerr != nil {
				a.logger.Warn("archiving generator run failed", zap.Error(aerr))
			}
		}
	}

	a.observe(alert.GeneratorStats(report, err))
	return report, err
}

func (a *App) track(ctx context.Context, trigger string) (*core.TrackerReport, error) {
	if !a.tracking.TryLock() {
		return nil, core.Errorf(core.ErrRunInProgress, "tracker")
	}
	defer a.tracking.Unlock()

	run := a.runs.Start(job.KindTrack, trigger)
	report, err := a.tracker.Tick(ctx, a.now().UTC())
	a.runs.Finish(run.ID, report, err)

	if err != nil {
		a.logger.Error("tracker tick failed", zap.String("trigger", trigger), zap.Error(err))
	}

	if report != nil {
		a.logger.Info("tracker tick finished",
			zap.String("run_id", report.RunID),
			zap.String("trigger", trigger),
			zap.Int("processed", report.Processed),
			zap.Int("updated", report.Updated),
			zap.Int("resolved", report.Resolved),
			zap.Int("expired", report.Expired),
			zap.Int("failed", report.Failed),
		)

		if a.archiver != nil {
			settled := a.settled(ctx, report.Terminal)
			if _, aerr := a.archiver.ArchiveTrackerRun(ctx, report, settled); aerr != nil {
				a.logger.Warn("archiving tracker run failed", zap.Error(aerr))
			}
		}
	}

	a.observe(alert.TrackerStats(report, err))
	return report, err
}

// settled loads the signals that turned terminal during a tick.
func (a *App) settled(ctx context.Context, ids []string) []core.Signal {
	out := make([]core.Signal, 0, len(ids))
	for _, id := range ids {
		sig, err := a.repo.GetSignal(ctx, id)
		if err != nil {
			a.logger.Warn("loading settled signal failed", zap.String("signal_id", id), zap.Error(err))
			continue
		}
		out = append(out, *sig)
	}
	return out
}

func (a *App) observe(stats map[string]float64) {
	if a.alerts == nil {
		return
	}
	a.alerts.Observe(stats)
	if fired := a.alerts.EvaluateAll(a.rules); fired > 0 {
		a.logger.Info("alerts fired", zap.Int("count", fired))
	}
}

// Repository returns the signal and market store.
func (a *App) Repository() signal.Repository { return a.repo }

// TrackRecord returns the track record service.
func (a *App) TrackRecord() *trackrecord.Service { return a.records }

// Runs returns the run log.
func (a *App) Runs() *job.Store { return a.runs }

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Notifiers returns the notifier registry.
func (a *App) Notifiers() *notifier.Registry { return a.notifiers }

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, a.notifiers.Len())
	for _, n := range a.notifiers.GetAll() {
		names = append(names, n.Name())
	}
	sort.Strings(names)

	stats := map[string]any{
		"running":       a.running,
		"provider_mode": a.providers.Mode,
		"notifiers":     names,
		"alert_rules":   len(a.rules),
		"archive":       a.archiver != nil,
	}
	if a.router != nil {
		stats["router"] = a.router.GetStats()
	}
	if a.limiter != nil {
		stats["rate_limits"] = a.limiter.Status()
	}
	return stats
}
