// Package tracker follows ACTIVE signals after creation: it records the
// price at fixed checkpoints and settles each signal when its market
// resolves or the tracking horizon runs out.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/provider"
	"github.com/newthinker/polyedge/internal/storage/signal"
	"go.uber.org/zap"
)

// Checkpoints after creation at which the market price is captured.
const (
	Checkpoint1h  = time.Hour
	Checkpoint24h = 24 * time.Hour
	Checkpoint7d  = 7 * 24 * time.Hour
)

// DefaultExpiry is the tracking horizon after which an unresolved signal expires.
const DefaultExpiry = 30 * 24 * time.Hour

// Config holds tracker settings.
type Config struct {
	Expiry          time.Duration
	Concurrency     int
	ProviderTimeout time.Duration
}

// DefaultConfig returns the production tracker settings.
func DefaultConfig() Config {
	return Config{
		Expiry:          DefaultExpiry,
		Concurrency:     4,
		ProviderTimeout: 10 * time.Second,
	}
}

// ConfigFrom maps the loaded configuration onto tracker settings.
func ConfigFrom(c config.TrackerConfig) Config {
	return Config{
		Expiry:          c.Expiry,
		Concurrency:     c.Concurrency,
		ProviderTimeout: c.ProviderTimeout,
	}
}

// Metrics receives tracker observations. *metrics.Registry satisfies it.
type Metrics interface {
	RecordTransition(status string)
	RecordTrackerError(code string)
	RecordTrackerRun(duration float64, active int)
}

type nopMetrics struct{}

func (nopMetrics) RecordTransition(string)       {}
func (nopMetrics) RecordTrackerError(string)     {}
func (nopMetrics) RecordTrackerRun(float64, int) {}

// Tracker is the outcome state machine over stored signals.
type Tracker struct {
	cfg       Config
	snapshots provider.SnapshotProvider
	store     signal.Store
	metrics   Metrics
	logger    *zap.Logger
}

// New creates a tracker. metrics may be nil.
func New(cfg Config, snapshots provider.SnapshotProvider, store signal.Store, metrics Metrics, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	return &Tracker{
		cfg:       cfg,
		snapshots: snapshots,
		store:     store,
		metrics:   metrics,
		logger:    logger,
	}
}

// outcome is the result of processing one signal.
type outcome struct {
	updated bool
	status  core.Status
	err     error

	wrote       bool
	writeFailed bool
}

// Tick processes every ACTIVE signal once against the market state at now.
// Per-signal failures are collected in the report. The returned error is
// non-nil when the active signals could not be loaded, every signal write of
// the tick was rejected by the store, or ctx ended.
func (t *Tracker) Tick(ctx context.Context, now time.Time) (*core.TrackerReport, error) {
	report := &core.TrackerReport{
		RunID:     uuid.NewString(),
		StartedAt: now,
	}
	started := time.Now()

	active, err := t.store.GetActiveSignals(ctx)
	if err != nil {
		return nil, core.WrapError(core.ErrPersistenceFailure, err)
	}

	results := make([]outcome, len(active))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := t.cfg.Concurrency
	if workers > len(active) {
		workers = len(active)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = t.process(ctx, active[i], now)
			}
		}()
	}

feed:
	for i := range active {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	stillActive := 0
	var writes, writeFailed int
	var lastWrite error
	for i, res := range results {
		sig := active[i]
		report.Processed++
		if res.updated {
			report.Updated++
		}
		switch res.status {
		case core.StatusResolvedWin, core.StatusResolvedLoss:
			report.Resolved++
			report.Terminal = append(report.Terminal, sig.ID)
			t.metrics.RecordTransition(string(res.status))
		case core.StatusExpired:
			report.Expired++
			report.Terminal = append(report.Terminal, sig.ID)
			t.metrics.RecordTransition(string(res.status))
		default:
			stillActive++
		}
		if res.wrote {
			writes++
		}
		if res.writeFailed {
			writeFailed++
			lastWrite = res.err
		}
		if res.err != nil {
			report.Failed++
			report.Errors = append(report.Errors, core.NewItemError(sig.ID, res.err))
			t.metrics.RecordTrackerError(core.ErrorCode(res.err))
		}
	}
	took := time.Since(started)
	report.FinishedAt = now.Add(took)

	t.metrics.RecordTrackerRun(took.Seconds(), stillActive)
	t.logger.Info("tracker tick complete",
		zap.String("run_id", report.RunID),
		zap.Int("processed", report.Processed),
		zap.Int("updated", report.Updated),
		zap.Int("resolved", report.Resolved),
		zap.Int("expired", report.Expired),
		zap.Int("failed", report.Failed),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if writes > 0 && writeFailed == writes {
		return report, core.WrapError(core.ErrPersistenceFailure, lastWrite)
	}
	return report, nil
}

func (t *Tracker) process(ctx context.Context, sig core.Signal, now time.Time) outcome {
	if ctx.Err() != nil {
		return outcome{err: ctx.Err()}
	}
	if sig.Status != core.StatusActive {
		return outcome{}
	}
	log := t.logger.With(zap.String("signal_id", sig.ID), zap.String("market_id", sig.MarketID))

	fctx, cancel := context.WithTimeout(ctx, t.cfg.ProviderTimeout)
	snap, err := t.snapshots.GetMarketSnapshot(fctx, sig.MarketID)
	cancel()

	var (
		update core.SignalUpdate
		status core.Status
	)
	if err != nil {
		// The horizon applies even when the market can no longer be fetched.
		log.Warn("market snapshot unavailable", zap.Error(err))
		update, status = Expire(sig, now, t.cfg.Expiry)
	} else {
		update, status, err = Evaluate(sig, *snap, now, t.cfg.Expiry)
	}
	if update.IsEmpty() {
		return outcome{err: err}
	}

	if _, uerr := t.store.UpdateSignal(ctx, sig.ID, update); uerr != nil {
		log.Warn("failed to update signal", zap.Error(uerr))
		if core.ErrorCode(uerr) == "UNKNOWN" {
			uerr = core.WrapError(core.ErrPersistenceFailure, uerr)
		}
		return outcome{err: uerr, wrote: true, writeFailed: true}
	}
	if status != "" {
		log.Info("signal settled",
			zap.String("status", string(status)),
			zap.Float64("entry_price", sig.EntryPrice),
			zap.Float64p("gain_final_pct", update.GainFinalPct),
		)
	}
	return outcome{updated: true, status: status, err: err, wrote: true}
}

// Evaluate computes the update for one ACTIVE signal given the market state
// at now. status is the terminal state reached, or "" when the signal stays
// ACTIVE. err reports a per-signal data problem; a non-empty update may
// still accompany it.
func Evaluate(sig core.Signal, snap core.MarketSnapshot, now time.Time, expiry time.Duration) (update core.SignalUpdate, status core.Status, err error) {
	elapsed := now.Sub(sig.CreatedAt)

	checkpoints := []struct {
		after time.Duration
		price *float64
		dst   **float64
		gain  **float64
	}{
		{Checkpoint1h, sig.Price1h, &update.Price1h, &update.Gain1hPct},
		{Checkpoint24h, sig.Price24h, &update.Price24h, &update.Gain24hPct},
		{Checkpoint7d, sig.Price7d, &update.Price7d, &update.Gain7dPct},
	}
	for _, cp := range checkpoints {
		if elapsed < cp.after || cp.price != nil {
			continue
		}
		gain, gerr := core.Gain(sig.Direction, sig.EntryPrice, snap.Price)
		if gerr != nil {
			err = gerr
			break
		}
		*cp.dst = core.Float64(snap.Price)
		*cp.gain = core.Float64(gain)
	}

	if snap.Closed {
		if snap.ResolutionPrice == nil {
			err = core.Errorf(core.ErrMarketDataMissing, "market %s closed without a resolution price", sig.MarketID)
		} else {
			final := *snap.ResolutionPrice
			gain, gerr := core.Gain(sig.Direction, sig.EntryPrice, final)
			if gerr != nil {
				return update, "", gerr
			}
			status = core.StatusResolvedLoss
			if gain > 0 {
				status = core.StatusResolvedWin
			}
			update.PriceAtResolution = core.Float64(final)
			update.GainFinalPct = core.Float64(gain)
			update.Status = core.StatusPtr(status)
			update.ResolvedAt = &now
			return update, status, err
		}
	}

	if elapsed > expiry {
		status = core.StatusExpired
		update.Status = core.StatusPtr(status)
		update.ResolvedAt = &now
	}
	return update, status, err
}

// Expire returns the EXPIRED update for a signal tracked longer than expiry,
// or an empty update. It needs no market data.
func Expire(sig core.Signal, now time.Time, expiry time.Duration) (core.SignalUpdate, core.Status) {
	if now.Sub(sig.CreatedAt) <= expiry {
		return core.SignalUpdate{}, ""
	}
	return core.SignalUpdate{
		Status:     core.StatusPtr(core.StatusExpired),
		ResolvedAt: &now,
	}, core.StatusExpired
}
