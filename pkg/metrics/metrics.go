package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "meter_engine_"

	ResultSuccess     = "success"
	ResultConfigError = "config_error"
	ResultError       = "error"
	ResultCancelled   = "cancelled"

	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	registerOnce sync.Once

	runsTotal      *prometheus.CounterVec
	runLatency     *prometheus.HistogramVec
	pointsTotal    *prometheus.CounterVec
	anomaliesTotal *prometheus.CounterVec
	runTriggers    *prometheus.CounterVec
)

// Init registers engine metrics on the default registry. Calling the
// Observe/Add helpers before Init is a no-op.
func Init() {
	registerOnce.Do(func() {
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total engine runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Engine run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		pointsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "points_total",
				Help: "Derived points by stage and outcome",
			},
			[]string{"stage", "outcome"},
		)
		anomaliesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "anomalies_total",
				Help: "Skipped data points by anomaly kind",
			},
			[]string{"kind"},
		)
		runTriggers = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "run_triggers_total",
				Help: "Run requests received over HTTP by status",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			runsTotal,
			runLatency,
			pointsTotal,
			anomaliesTotal,
			runTriggers,
		)
	})
}

// ObserveRun records a finished run and its duration.
func ObserveRun(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func AddPoints(stage, outcome string, n int) {
	if n <= 0 || pointsTotal == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	pointsTotal.WithLabelValues(stage, outcome).Add(float64(n))
}

func IncAnomaly(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if anomaliesTotal != nil {
		anomaliesTotal.WithLabelValues(kind).Inc()
	}
}

func IncRunTrigger(status string) {
	if runTriggers != nil {
		runTriggers.WithLabelValues(status).Inc()
	}
}
