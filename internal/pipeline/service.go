// Package pipeline orchestrates one end-to-end prediction run: parse and
// validate records, derive features, partition, fit, predict, and package a
// JSON-serializable result.
//
// The pipeline is synchronous and holds no state across invocations; every
// run builds its own table, encoders, and model from scratch.
package pipeline

import (
	"errors"
	"time"

	"claimsight/internal/dataset"
	"claimsight/internal/features"
	"claimsight/internal/ml"
	"claimsight/internal/records"

	"github.com/rs/zerolog/log"
)

// MetricsRecorder is the narrow metrics surface the pipeline reports into.
// A nil recorder disables reporting.
type MetricsRecorder interface {
	PipelineRunsInc()
	PipelineFailuresInc()
	PipelineDurationObserve(seconds float64)
	TrainingRowsObserve(rows float64)
	PredictionScoresObserve(score float64)
}

// Options configures one pipeline run. The status labels make the outcome
// folding explicit: anything other than PendingLabel trains, and anything
// other than DeniedLabel among resolved claims is the paid-like class.
type Options struct {
	PendingLabel string
	DeniedLabel  string
	Forest       ml.ForestConfig
}

// DefaultOptions returns the standard labels and model configuration.
func DefaultOptions() Options {
	return Options{
		PendingLabel: "Pending",
		DeniedLabel:  "Denied",
		Forest:       ml.DefaultForestConfig(),
	}
}

// Service runs the claim prediction pipeline.
type Service struct {
	opts    Options
	metrics MetricsRecorder
}

func New(opts Options, metrics MetricsRecorder) *Service {
	return &Service{opts: opts, metrics: metrics}
}

// Run executes the full pipeline on raw uploaded bytes. SchemaError,
// EmptyInputError and InsufficientDataError pass through unchanged; any
// other failure surfaces as a ModelError.
func (s *Service) Run(data []byte) (*Result, error) {
	start := time.Now()

	result, err := s.run(data)

	if s.metrics != nil {
		s.metrics.PipelineRunsInc()
		s.metrics.PipelineDurationObserve(time.Since(start).Seconds())
		if err != nil {
			s.metrics.PipelineFailuresInc()
		}
	}
	if err != nil {
		return nil, classify(err)
	}

	log.Info().
		Int("total_claims", result.TotalClaims).
		Int("training_claims", result.TrainingClaims).
		Int("pending_claims", result.PendingClaims).
		Float64("accuracy", result.ModelMetrics.Accuracy).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run complete")

	return result, nil
}

func (s *Service) run(data []byte) (*Result, error) {
	table, err := records.Parse(data)
	if err != nil {
		return nil, err
	}

	vectors, _, _ := features.Engineer(table)

	part, err := dataset.Split(table, s.opts.PendingLabel, s.opts.DeniedLabel)
	if err != nil {
		return nil, err
	}

	trainPos, holdPos := part.TrainHoldout(s.opts.Forest.Seed)
	trainRows, trainTargets := s.rows(table, vectors, part, trainPos)
	holdRows, holdTargets := s.rows(table, vectors, part, holdPos)

	if s.metrics != nil {
		s.metrics.TrainingRowsObserve(float64(len(part.Resolved)))
	}

	model, err := ml.Train(trainRows, trainTargets, holdRows, holdTargets, features.FeatureNames, s.opts.Forest)
	if err != nil {
		return nil, err
	}

	preds := ml.Predict(model, table, vectors, part.Pending)
	if s.metrics != nil {
		for _, p := range preds {
			s.metrics.PredictionScoresObserve(p.DenialProbability)
		}
	}

	deniedCount := 0
	for _, t := range part.Targets {
		deniedCount += t
	}

	return &Result{
		TotalClaims:    len(table.Records),
		TrainingClaims: len(part.Resolved),
		PendingClaims:  len(part.Pending),
		Summary: StatusSummary{
			PaidCount:    len(part.Resolved) - deniedCount,
			DeniedCount:  deniedCount,
			PendingCount: len(part.Pending),
		},
		ModelMetrics: toModelMetrics(model.Metrics),
		Predictions:  toPredictions(preds),
	}, nil
}

// rows materializes feature rows and targets for positions into the
// resolved set.
func (s *Service) rows(table *records.Table, vectors []features.Vector, part *dataset.Partition, positions []int) ([][]float64, []int) {
	rows := make([][]float64, 0, len(positions))
	targets := make([]int, 0, len(positions))
	for _, pos := range positions {
		idx := part.Resolved[pos]
		rows = append(rows, vectors[idx].Row(table.Records[idx].Amount))
		targets = append(targets, part.Targets[pos])
	}
	return rows, targets
}

// classify passes the taxonomy errors through unchanged and wraps anything
// else as a ModelError with a readable message.
func classify(err error) error {
	var (
		schemaErr       *records.SchemaError
		emptyErr        *records.EmptyInputError
		insufficientErr *dataset.InsufficientDataError
		modelErr        *ml.ModelError
	)
	switch {
	case errors.As(err, &schemaErr),
		errors.As(err, &emptyErr),
		errors.As(err, &insufficientErr),
		errors.As(err, &modelErr):
		return err
	default:
		return &ml.ModelError{Msg: "pipeline run failed", Err: err}
	}
}
