package ml

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Class display names, fixed output vocabulary of the binary model.
const (
	ClassPaid   = "Paid"
	ClassDenied = "Denied"
)

// DecisionThreshold is the fixed probability cutoff for predicting a denial.
const DecisionThreshold = 0.5

// ModelError wraps any failure during fitting or prediction. It is fatal for
// the current run and never retried.
type ModelError struct {
	Msg string
	Err error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ModelError) Unwrap() error { return e.Err }

// Metrics holds the holdout evaluation of a fitted model.
type Metrics struct {
	Accuracy          float64
	Precision         map[string]float64
	Recall            map[string]float64
	ConfusionMatrix   [2][2]int // rows = actual, cols = predicted; class order paid, denied
	FeatureImportance map[string]float64
	HoldoutSize       int
}

// Model is a fitted forest plus its evaluation metrics. It exists only for
// the lifetime of one pipeline run and is never serialized.
type Model struct {
	forest  *Forest
	Metrics Metrics
}

// Train fits the forest on the training rows with inverse-frequency class
// weights and evaluates it on the holdout rows. featureNames labels the
// importance ranking and must match the row layout. When the holdout is
// empty (singleton classes end up train-only), evaluation falls back to the
// training rows so metrics are always populated.
func Train(trainRows [][]float64, trainTargets []int, holdRows [][]float64, holdTargets []int, featureNames []string, cfg ForestConfig) (*Model, error) {
	weights := balancedWeights(trainTargets)

	forest, err := FitForest(trainRows, trainTargets, weights, cfg)
	if err != nil {
		return nil, &ModelError{Msg: "model fit failed", Err: err}
	}

	evalRows, evalTargets := holdRows, holdTargets
	if len(evalRows) == 0 {
		evalRows, evalTargets = trainRows, trainTargets
	}

	m := &Model{forest: forest}
	m.Metrics = evaluate(forest, evalRows, evalTargets)
	m.Metrics.HoldoutSize = len(holdRows)
	m.Metrics.FeatureImportance = importanceMap(forest, featureNames)

	log.Debug().
		Int("train_rows", len(trainRows)).
		Int("holdout_rows", len(holdRows)).
		Float64("accuracy", m.Metrics.Accuracy).
		Msg("model trained")

	return m, nil
}

// DenialProbability returns the model's estimated probability that the row
// resolves as denied.
func (m *Model) DenialProbability(row []float64) float64 {
	return m.forest.Proba(row)[1]
}

// balancedWeights assigns each sample the inverse-frequency weight of its
// class: n / (nClasses * count(class)).
func balancedWeights(targets []int) []float64 {
	var counts [2]float64
	for _, t := range targets {
		counts[t]++
	}

	n := float64(len(targets))
	weights := make([]float64, len(targets))
	for i, t := range targets {
		weights[i] = n / (2 * counts[t])
	}
	return weights
}

func evaluate(forest *Forest, rows [][]float64, targets []int) Metrics {
	var confusion [2][2]int
	correct := 0
	for i, row := range rows {
		predicted := 0
		if forest.Proba(row)[1] >= DecisionThreshold {
			predicted = 1
		}
		confusion[targets[i]][predicted]++
		if predicted == targets[i] {
			correct++
		}
	}

	m := Metrics{
		ConfusionMatrix: confusion,
		Precision:       make(map[string]float64, 2),
		Recall:          make(map[string]float64, 2),
	}
	if len(rows) > 0 {
		m.Accuracy = float64(correct) / float64(len(rows))
	}

	names := [2]string{ClassPaid, ClassDenied}
	for class := 0; class < 2; class++ {
		m.Precision[names[class]] = 0
		m.Recall[names[class]] = 0
		predictedAs := confusion[0][class] + confusion[1][class]
		actual := confusion[class][0] + confusion[class][1]
		if predictedAs > 0 {
			m.Precision[names[class]] = float64(confusion[class][class]) / float64(predictedAs)
		}
		if actual > 0 {
			m.Recall[names[class]] = float64(confusion[class][class]) / float64(actual)
		}
	}

	return m
}

func importanceMap(forest *Forest, featureNames []string) map[string]float64 {
	values := forest.Importances()
	out := make(map[string]float64, len(featureNames))
	for i, name := range featureNames {
		if i < len(values) {
			out[name] = values[i]
		}
	}
	return out
}
