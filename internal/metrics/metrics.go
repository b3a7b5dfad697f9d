// Package metrics provides Prometheus metrics collection for the claims
// prediction service. It defines counters, gauges, and histograms covering
// upload handling, pipeline runs, and prediction score distributions, all
// exposed via the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Upload handling
	UploadsTotal    prometheus.Counter // Total report uploads processed
	UploadFailures  prometheus.Counter // Total uploads rejected or failed
	ArtifactUploads prometheus.Counter // Total artifacts pushed to the blob store

	// Pipeline
	PipelineRuns     prometheus.Counter   // Total prediction pipeline runs
	PipelineFailures prometheus.Counter   // Total failed pipeline runs
	PipelineDuration prometheus.Histogram // End-to-end pipeline latency in seconds
	TrainingRows     prometheus.Histogram // Resolved rows available per run
	PredictionScores prometheus.Histogram // Distribution of denial probabilities

	// Live feed
	FeedClients prometheus.Gauge // Connected websocket feed clients
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows isolated metric collection in tests without touching the
// global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total report uploads processed",
		}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "upload_failures_total",
			Help: "Total uploads rejected or failed",
		}),
		ArtifactUploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "artifact_uploads_total",
			Help: "Total report artifacts pushed to the blob store",
		}),
		PipelineRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total prediction pipeline runs",
		}),
		PipelineFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Total failed pipeline runs",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "End-to-end prediction pipeline latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		TrainingRows: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_training_rows",
			Help:    "Resolved rows available for training per run",
			Buckets: prometheus.ExponentialBuckets(2, 4, 8),
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_denial_scores",
			Help:    "Distribution of predicted denial probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FeedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_clients",
			Help: "Connected websocket feed clients",
		}),
	}
}

// The methods below satisfy pipeline.MetricsRecorder.

func (m *Metrics) PipelineRunsInc()     { m.PipelineRuns.Inc() }
func (m *Metrics) PipelineFailuresInc() { m.PipelineFailures.Inc() }

func (m *Metrics) PipelineDurationObserve(seconds float64) { m.PipelineDuration.Observe(seconds) }
func (m *Metrics) TrainingRowsObserve(rows float64)        { m.TrainingRows.Observe(rows) }
func (m *Metrics) PredictionScoresObserve(score float64)   { m.PredictionScores.Observe(score) }
