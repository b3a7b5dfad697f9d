package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	if m.UploadsTotal == nil || m.PipelineRuns == nil || m.PredictionScores == nil {
		t.Fatal("Expected all metrics to be initialized")
	}
}

func TestRecorderMethods(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.PipelineRunsInc()
	m.PipelineRunsInc()
	m.PipelineFailuresInc()
	m.PipelineDurationObserve(0.25)
	m.TrainingRowsObserve(40)
	m.PredictionScoresObserve(0.8)

	if got := testutil.ToFloat64(m.PipelineRuns); got != 2 {
		t.Errorf("Expected 2 pipeline runs, got %f", got)
	}
	if got := testutil.ToFloat64(m.PipelineFailures); got != 1 {
		t.Errorf("Expected 1 failure, got %f", got)
	}
}

func TestIsolatedRegistries(t *testing.T) {
	m1 := NewWithRegistry(prometheus.NewRegistry())
	m2 := NewWithRegistry(prometheus.NewRegistry())

	m1.PipelineRunsInc()

	if got := testutil.ToFloat64(m2.PipelineRuns); got != 0 {
		t.Errorf("Expected isolated registry to stay at 0, got %f", got)
	}
}
