package alert

import "github.com/newthinker/polyedge/internal/core"

// Stat names exposed to alert expressions.
const (
	StatGeneratorMarkets  = "generator_markets"
	StatGeneratorSkipped  = "generator_skipped"
	StatGeneratorSignals  = "generator_signals"
	StatGeneratorErrors   = "generator_errors"
	StatGeneratorDegraded = "generator_degraded"
	StatGeneratorFailed   = "generator_failed"
	StatTrackerProcessed  = "tracker_processed"
	StatTrackerFailed     = "tracker_failed"
	StatTrackerFailRatio  = "tracker_failure_ratio"
	StatTrackerResolved   = "tracker_resolved"
	StatTrackerExpired    = "tracker_expired"
	StatTrackerDown       = "tracker_down"
)

// GeneratorStats flattens a generator run for rule evaluation. A nil report
// with a non-nil err marks the whole run as failed.
func GeneratorStats(report *core.GeneratorReport, err error) map[string]float64 {
	stats := map[string]float64{StatGeneratorFailed: 0}
	if err != nil {
		stats[StatGeneratorFailed] = 1
	}
	if report == nil {
		return stats
	}
	stats[StatGeneratorMarkets] = float64(report.MarketsScanned)
	stats[StatGeneratorSkipped] = float64(report.MarketsSkipped)
	stats[StatGeneratorSignals] = float64(report.SignalsGenerated)
	stats[StatGeneratorErrors] = float64(len(report.Errors))
	stats[StatGeneratorDegraded] = float64(len(report.Degraded))
	return stats
}

// TrackerStats flattens a tracker tick for rule evaluation.
func TrackerStats(report *core.TrackerReport, err error) map[string]float64 {
	stats := map[string]float64{StatTrackerDown: 0}
	if err != nil && report == nil {
		stats[StatTrackerDown] = 1
	}
	if report == nil {
		return stats
	}
	stats[StatTrackerProcessed] = float64(report.Processed)
	stats[StatTrackerFailed] = float64(report.Failed)
	stats[StatTrackerResolved] = float64(report.Resolved)
	stats[StatTrackerExpired] = float64(report.Expired)
	stats[StatTrackerFailRatio] = 0
	if report.Processed > 0 {
		stats[StatTrackerFailRatio] = float64(report.Failed) / float64(report.Processed)
	}
	return stats
}
