package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	signalsGenerated   *prometheus.CounterVec
	signalsRouted      *prometheus.CounterVec
	generatorRuns      prometheus.Counter
	generatorDuration  prometheus.Histogram
	marketsSkipped     *prometheus.CounterVec
	providerFailures   *prometheus.CounterVec
	trackerRuns        prometheus.Counter
	trackerDuration    prometheus.Histogram
	trackerTransitions *prometheus.CounterVec
	trackerErrors      *prometheus.CounterVec
	activeSignals      prometheus.Gauge
	watchlistMarkets   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"signal_type", "direction"},
	)
	r.signalsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_signals_routed_total",
			Help: "Total number of signals routed to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.generatorRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "polyedge_generator_runs_total",
			Help: "Total number of generator runs completed",
		},
	)
	r.generatorDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyedge_generator_run_duration_seconds",
			Help:    "Generator run duration in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)
	r.marketsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_markets_skipped_total",
			Help: "Markets skipped by the generator, by reason",
		},
		[]string{"reason"},
	)
	r.providerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_provider_failures_total",
			Help: "Data provider failures, by provider and error code",
		},
		[]string{"provider", "code"},
	)
	r.trackerRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "polyedge_tracker_runs_total",
			Help: "Total number of tracker ticks completed",
		},
	)
	r.trackerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyedge_tracker_run_duration_seconds",
			Help:    "Tracker tick duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.trackerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_signal_transitions_total",
			Help: "Signal status transitions recorded by the tracker",
		},
		[]string{"status"},
	)
	r.trackerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyedge_tracker_errors_total",
			Help: "Per-signal tracker errors, by error code",
		},
		[]string{"code"},
	)
	r.activeSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "polyedge_active_signals",
			Help: "Number of signals currently ACTIVE",
		},
	)
	r.watchlistMarkets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "polyedge_watchlist_markets",
			Help: "Number of markets considered in the last generator run",
		},
	)

	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.signalsRouted)
	reg.MustRegister(r.generatorRuns)
	reg.MustRegister(r.generatorDuration)
	reg.MustRegister(r.marketsSkipped)
	reg.MustRegister(r.providerFailures)
	reg.MustRegister(r.trackerRuns)
	reg.MustRegister(r.trackerDuration)
	reg.MustRegister(r.trackerTransitions)
	reg.MustRegister(r.trackerErrors)
	reg.MustRegister(r.activeSignals)
	reg.MustRegister(r.watchlistMarkets)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(signalType, direction string) {
	r.signalsGenerated.WithLabelValues(signalType, direction).Inc()
}

// RecordSignalRouted records a routed signal.
func (r *Registry) RecordSignalRouted(notifier, status string) {
	r.signalsRouted.WithLabelValues(notifier, status).Inc()
}

// RecordGeneratorRun records a completed generator run.
func (r *Registry) RecordGeneratorRun(duration float64, marketsConsidered int) {
	r.generatorRuns.Inc()
	r.generatorDuration.Observe(duration)
	r.watchlistMarkets.Set(float64(marketsConsidered))
}

// RecordMarketSkipped records a market dropped before rule evaluation.
func (r *Registry) RecordMarketSkipped(reason string) {
	r.marketsSkipped.WithLabelValues(reason).Inc()
}

// RecordProviderFailure records a failed or degraded provider call.
func (r *Registry) RecordProviderFailure(provider, code string) {
	r.providerFailures.WithLabelValues(provider, code).Inc()
}

// RecordTrackerRun records a completed tracker tick.
func (r *Registry) RecordTrackerRun(duration float64, active int) {
	r.trackerRuns.Inc()
	r.trackerDuration.Observe(duration)
	r.activeSignals.Set(float64(active))
}

// RecordTransition records a signal leaving ACTIVE.
func (r *Registry) RecordTransition(status string) {
	r.trackerTransitions.WithLabelValues(status).Inc()
}

// RecordTrackerError records a per-signal tracker error.
func (r *Registry) RecordTrackerError(code string) {
	r.trackerErrors.WithLabelValues(code).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
