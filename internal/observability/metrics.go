package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rfw_verify"

// Metrics holds the Prometheus counters, histograms, and gauges for the verification sweep.
type Metrics struct {
	// VerificationRuns counts configurations by outcome={ok,invalid,indeterminate}.
	VerificationRuns *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	PipelineRunning  prometheus.Gauge

	// Climatology metrics.
	ClimatologyRepetitions prometheus.Counter

	// RecordsLoaded reports the size of the last load by kind={warnings,events}.
	RecordsLoaded *prometheus.GaugeVec

	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all sweep metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		VerificationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_runs_total",
			Help:      "Verification runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one verification run including climatology.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a sweep is in progress, 0 otherwise.",
		}),
		ClimatologyRepetitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "climatology_repetitions_total",
			Help:      "Total climatology resamples drawn.",
		}),
		RecordsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records returned by the last store load, by kind.",
		}, []string{"kind"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Total verification reports written to the sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed attempts to write reports to the sink.",
		}),
	}

	prometheus.MustRegister(
		m.VerificationRuns,
		m.RunDuration,
		m.PipelineRunning,
		m.ClimatologyRepetitions,
		m.RecordsLoaded,
		m.ReportsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		VerificationRuns:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "verification_runs_total"}, []string{"outcome"}),
		RunDuration:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		ClimatologyRepetitions: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "climatology_repetitions_total"}),
		RecordsLoaded:          prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "records_loaded"}, []string{"kind"}),
		ReportsPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reports_published_total"}),
		PublishErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "publish_errors_total"}),
	}
}
