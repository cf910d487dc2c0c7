// Package metrics defines the Prometheus collectors exported by the ETL service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "Total number of pipeline runs by terminal status",
	}, []string{"status"})

	// StageDuration observes wall-clock duration per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etl_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// RecordsProcessed reports rows per derived relation after the last
	// successful run.
	RecordsProcessed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "etl_records_processed",
		Help: "Rows in each derived relation after the last successful run",
	}, []string{"relation"})

	// QualityCheckFailures counts failed quality checks by check name.
	QualityCheckFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_quality_check_failures_total",
		Help: "Total failed quality checks by check name",
	}, []string{"check"})

	// DatasetsFetched counts collector fetch outcomes.
	DatasetsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_datasets_fetched_total",
		Help: "Collector dataset fetch outcomes",
	}, []string{"outcome"})
)
