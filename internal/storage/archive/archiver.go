package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"go.uber.org/zap"
)

// Run kinds, used as the top-level archive directory.
const (
	KindGenerator = "generator"
	KindTracker   = "tracker"
)

// TrackerRecord is the archived form of one tracker tick.
type TrackerRecord struct {
	Report  core.TrackerReport `json:"report"`
	Settled []core.Signal      `json:"settled,omitempty"`
}

// Archiver writes run reports into a Storage backend under
// <kind>/YYYY/MM/DD/<run_id>.json.
type Archiver struct {
	store  Storage
	logger *zap.Logger
}

// NewArchiver wraps store.
func NewArchiver(store Storage, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, logger: logger}
}

// RunPath returns the archive path of a run.
func RunPath(kind string, startedAt time.Time, runID string) string {
	return path.Join(kind, dayDir(startedAt), runID+".json")
}

func dayDir(t time.Time) string {
	return t.UTC().Format("2006/01/02")
}

// ArchiveTrackerRun stores a tracker report together with the signals it settled.
func (a *Archiver) ArchiveTrackerRun(ctx context.Context, report *core.TrackerReport, settled []core.Signal) (string, error) {
	if report == nil {
		return "", fmt.Errorf("nil tracker report")
	}
	p := RunPath(KindTracker, report.StartedAt, report.RunID)
	if err := a.write(ctx, p, TrackerRecord{Report: *report, Settled: settled}); err != nil {
		return "", err
	}
	a.logger.Debug("tracker run archived", zap.String("path", p), zap.Int("settled", len(settled)))
	return p, nil
}

// ArchiveGeneratorRun stores a generator report.
func (a *Archiver) ArchiveGeneratorRun(ctx context.Context, report *core.GeneratorReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("nil generator report")
	}
	p := RunPath(KindGenerator, report.StartedAt, report.RunID)
	if err := a.write(ctx, p, report); err != nil {
		return "", err
	}
	a.logger.Debug("generator run archived", zap.String("path", p), zap.Int("signals", report.SignalsGenerated))
	return p, nil
}

func (a *Archiver) write(ctx context.Context, p string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrPersistenceFailure, fmt.Errorf("encoding %s: %w", p, err))
	}
	if err := a.store.Write(ctx, p, data); err != nil {
		return core.WrapError(core.ErrPersistenceFailure, fmt.Errorf("writing %s: %w", p, err))
	}
	return nil
}

// ListRuns returns the archived run paths of kind for the UTC day of day.
func (a *Archiver) ListRuns(ctx context.Context, kind string, day time.Time) ([]string, error) {
	return a.store.List(ctx, path.Join(kind, dayDir(day)))
}

// LoadTrackerRun reads back an archived tracker tick.
func (a *Archiver) LoadTrackerRun(ctx context.Context, p string) (*TrackerRecord, error) {
	data, err := a.store.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	var rec TrackerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	return &rec, nil
}
