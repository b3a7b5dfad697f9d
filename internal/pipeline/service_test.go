package pipeline

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"claimsight/internal/dataset"
	"claimsight/internal/ml"
	"claimsight/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = `ClaimID,Status,Amount,Date,Type
C001,Paid,120.50,2025-01-06,Dental
C002,Denied,850.00,2025-01-07,Surgery
C003,Paid,60.00,2025-01-08,Vision
C004,Denied,1200.00,2025-01-09,Surgery
C005,Pending,95.00,2025-01-10,Dental
C006,Pending,910.00,2025-01-11,Surgery
`

// MockRecorder implements MetricsRecorder for testing.
type MockRecorder struct {
	mu        sync.Mutex
	runs      int
	failures  int
	durations []float64
	scores    []float64
}

func (m *MockRecorder) PipelineRunsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
}

func (m *MockRecorder) PipelineFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockRecorder) PipelineDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, v)
}

func (m *MockRecorder) TrainingRowsObserve(float64) {}

func (m *MockRecorder) PredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, v)
}

func TestRun_Scenario(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	result, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalClaims)
	assert.Equal(t, 4, result.TrainingClaims)
	assert.Equal(t, 2, result.PendingClaims)
	assert.Equal(t, 2, result.Summary.PaidCount)
	assert.Equal(t, 2, result.Summary.DeniedCount)
	assert.Equal(t, 2, result.Summary.PendingCount)

	require.Len(t, result.Predictions, 2)
	assert.Equal(t, "C005", result.Predictions[0].ClaimID)
	assert.Equal(t, "C006", result.Predictions[1].ClaimID)
	for _, p := range result.Predictions {
		assert.Contains(t, []string{"Paid", "Denied"}, p.PredictedStatus)
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
		assert.GreaterOrEqual(t, p.DenialProbability, 0.0)
		assert.LessOrEqual(t, p.DenialProbability, 1.0)
	}
}

func TestRun_PartitionCompleteness(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	result, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)

	assert.Equal(t, result.TotalClaims, result.TrainingClaims+result.PendingClaims)
}

func TestRun_Deterministic(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	r1, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)
	r2, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)

	require.Len(t, r2.Predictions, len(r1.Predictions))
	for i := range r1.Predictions {
		assert.Equal(t, r1.Predictions[i].PredictedStatus, r2.Predictions[i].PredictedStatus)
		assert.Equal(t, r1.Predictions[i].DenialProbability, r2.Predictions[i].DenialProbability)
	}
	assert.Equal(t, r1.ModelMetrics.Accuracy, r2.ModelMetrics.Accuracy)
}

func TestRun_MissingColumn(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	_, err := svc.Run([]byte("ClaimID,Status,Amount,Date\nC001,Paid,10,2025-01-06\n"))
	var schemaErr *records.SchemaError
	require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
}

func TestRun_HeaderOnly(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	_, err := svc.Run([]byte("ClaimID,Status,Amount,Date,Type\n"))
	var emptyErr *records.EmptyInputError
	require.True(t, errors.As(err, &emptyErr), "expected EmptyInputError, got %v", err)
}

func TestRun_InsufficientResolved(t *testing.T) {
	input := `ClaimID,Status,Amount,Date,Type
C001,Paid,120.50,2025-01-06,Dental
C002,Pending,95.00,2025-01-10,Dental
C003,Pending,910.00,2025-01-11,Surgery
C004,Pending,15.00,2025-01-12,Vision
`
	svc := New(DefaultOptions(), nil)

	_, err := svc.Run([]byte(input))
	var insufficient *dataset.InsufficientDataError
	require.True(t, errors.As(err, &insufficient), "expected InsufficientDataError, got %v", err)
}

func TestRun_NoPendingClaims(t *testing.T) {
	input := `ClaimID,Status,Amount,Date,Type
C001,Paid,120.50,2025-01-06,Dental
C002,Denied,850.00,2025-01-07,Surgery
C003,Paid,60.00,2025-01-08,Vision
C004,Denied,1200.00,2025-01-09,Surgery
`
	svc := New(DefaultOptions(), nil)

	result, err := svc.Run([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 0, result.PendingClaims)
	assert.NotNil(t, result.Predictions)
	assert.Empty(t, result.Predictions)
}

func TestRun_CustomStatusLabels(t *testing.T) {
	input := `ClaimID,Status,Amount,Date,Type
C001,Settled,120.50,2025-01-06,Dental
C002,Rejected,850.00,2025-01-07,Surgery
C003,Settled,60.00,2025-01-08,Vision
C004,Rejected,1200.00,2025-01-09,Surgery
C005,Open,95.00,2025-01-10,Dental
`
	opts := DefaultOptions()
	opts.PendingLabel = "Open"
	opts.DeniedLabel = "Rejected"
	svc := New(opts, nil)

	result, err := svc.Run([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 4, result.TrainingClaims)
	assert.Equal(t, 2, result.Summary.DeniedCount)
	assert.Equal(t, 1, result.PendingClaims)
}

func TestRun_RecordsMetrics(t *testing.T) {
	rec := &MockRecorder{}
	svc := New(DefaultOptions(), rec)

	_, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)

	assert.Equal(t, 1, rec.runs)
	assert.Equal(t, 0, rec.failures)
	assert.Len(t, rec.scores, 2)

	_, err = svc.Run([]byte("garbage"))
	require.Error(t, err)
	assert.Equal(t, 2, rec.runs)
	assert.Equal(t, 1, rec.failures)
}

func TestRun_ResultIsJSONSafe(t *testing.T) {
	svc := New(DefaultOptions(), nil)

	result, err := svc.Run([]byte(scenarioCSV))
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"total_claims", "training_claims", "pending_claims", "summary", "model_metrics", "predictions"} {
		assert.Contains(t, decoded, key)
	}

	preds := decoded["predictions"].([]any)
	first := preds[0].(map[string]any)
	assert.Equal(t, "2025-01-10 00:00:00", first["Date"])
}

func TestClassify_WrapsUnknownErrors(t *testing.T) {
	err := classify(errors.New("boom"))
	var modelErr *ml.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Contains(t, modelErr.Error(), "boom")
}
