// Package observability exposes Prometheus metrics for ingestion runs
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodcast"

// Metrics holds the Prometheus counters, histograms and gauges for ingestion.
// Every vector is labelled by dataset={water_level,latest_rainfall}.
type Metrics struct {
	Runs          *prometheus.CounterVec   // labels: dataset, outcome={success,fetch_error,store_error}
	RowsParsed    *prometheus.CounterVec   // labels: dataset
	RowsSkipped   *prometheus.CounterVec   // labels: dataset
	RunDuration   *prometheus.HistogramVec // labels: dataset
	StoredRecords *prometheus.GaugeVec     // labels: dataset
	LastSuccess   *prometheus.GaugeVec     // labels: dataset, unix seconds
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_parsed_total",
			Help:      "Scraped table rows turned into records.",
		}, []string{"dataset"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_skipped_total",
			Help:      "Scraped table rows dropped for having an unexpected shape.",
		}, []string{"dataset"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of a fetch, normalize, merge and persist cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"dataset"}),
		StoredRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_records",
			Help:      "Records in the dataset after the last successful run.",
		}, []string{"dataset"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"dataset"}),
	}
}

// NewMetrics creates and registers all ingestion metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.Runs, m.RowsParsed, m.RowsSkipped, m.RunDuration, m.StoredRecords, m.LastSuccess)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can create as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
