package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for recap aggregation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	gatewayRequests   *prometheus.CounterVec
	gatewayRetries    prometheus.Counter
	recapsByStatus    *prometheus.CounterVec
	recapDuration     prometheus.Histogram
	batchRuns         *prometheus.CounterVec
	lastBatchUnix     prometheus.Gauge
	lowMatchWeeks     prometheus.Counter
	leaderboardErrors prometheus.Counter
	verifyMismatches  prometheus.Counter
}

// NewMetrics registers the collectors on a dedicated registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWithRegistry(reg, reg)
}

// NewMetricsWithRegistry registers the collectors on reg and serves them from gatherer
func NewMetricsWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	const ns, sub = "nfl_pool", "recaps"

	return &Metrics{
		registry: gatherer,

		gatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Results provider calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		gatewayRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "gateway",
			Name:      "retries_total",
			Help:      "Results provider calls that were retried",
		}),
		recapsByStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "weeks_total",
			Help:      "Week recap attempts by resulting status",
		}, []string{"status"}),
		recapDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "week_duration_seconds",
			Help:      "Time spent recapping a single week",
			Buckets:   prometheus.DefBuckets,
		}),
		batchRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "batch_runs_total",
			Help:      "Season batch runs by mode and outcome",
		}, []string{"mode", "outcome"}),
		lastBatchUnix: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "last_batch_unixtime",
			Help:      "Completion time of the last season batch",
		}),
		lowMatchWeeks: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: sub,
			Name:      "low_match_total",
			Help:      "Recaps computed with few or no pick/contest identifier matches",
		}),
		leaderboardErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "leaderboard",
			Name:      "errors_total",
			Help:      "Leaderboard builds that failed",
		}),
		verifyMismatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "leaderboard",
			Name:      "verification_mismatches_total",
			Help:      "Standings whose independent recomputation disagreed",
		}),
	}
}

// Gatherer returns the registry the collectors are served from
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) gatewayCall(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) gatewayRetry() {
	if m == nil {
		return
	}
	m.gatewayRetries.Inc()
}

func (m *Metrics) recapFinished(status RecapStatus, started time.Time) {
	if m == nil {
		return
	}
	m.recapsByStatus.WithLabelValues(string(status)).Inc()
	m.recapDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) lowMatch() {
	if m == nil {
		return
	}
	m.lowMatchWeeks.Inc()
}

func (m *Metrics) batchFinished(mode Mode, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "aborted"
	}
	m.batchRuns.WithLabelValues(mode.String(), outcome).Inc()
	m.lastBatchUnix.SetToCurrentTime()
}

func (m *Metrics) leaderboardFailed() {
	if m == nil {
		return
	}
	m.leaderboardErrors.Inc()
}

func (m *Metrics) verificationMismatch(n int) {
	if m == nil || n == 0 {
		return
	}
	m.verifyMismatches.Add(float64(n))
}
