package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// association pipeline.
type Metrics struct {
	QuakesProcessed    prometheus.Counter
	QuakesUnassociated prometheus.Counter
	QuakesSkipped      prometheus.Counter // already associated, incremental mode
	LinksWritten       prometheus.Counter
	CRSErrors          prometheus.Counter
	WriteRetries       prometheus.Counter
	PipelineRunning    prometheus.Gauge

	BatchQuakes   prometheus.Histogram
	BatchDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.QuakesProcessed,
		m.QuakesUnassociated,
		m.QuakesSkipped,
		m.LinksWritten,
		m.CRSErrors,
		m.WriteRetries,
		m.PipelineRunning,
		m.BatchQuakes,
		m.BatchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		QuakesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "quakes_processed_total",
			Help:      "Earthquakes run through candidate generation and scoring.",
		}),
		QuakesUnassociated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "quakes_unassociated_total",
			Help:      "Earthquakes with zero candidates in every enabled type.",
		}),
		QuakesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "quakes_skipped_total",
			Help:      "Earthquakes skipped because they are already associated.",
		}),
		LinksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "links_written_total",
			Help:      "Association link rows handed to the sink.",
		}),
		CRSErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "crs_errors_total",
			Help:      "Records skipped because their CRS could not be resolved.",
		}),
		WriteRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellassoc",
			Name:      "write_retries_total",
			Help:      "Whole-batch sink write retries.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wellassoc",
			Name:      "pipeline_running",
			Help:      "1 while an association run is active.",
		}),
		BatchQuakes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wellassoc",
			Name:      "batch_quakes",
			Help:      "Earthquakes per source batch.",
			Buckets:   []float64{10, 100, 500, 1000, 2500, 5000, 10000, 20000},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wellassoc",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one associate-score-classify-write cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}
