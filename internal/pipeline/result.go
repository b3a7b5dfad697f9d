package pipeline

import (
	"time"

	"claimsight/internal/ml"
)

// dateLayout renders timestamps the way the JSON surface expects them.
const dateLayout = "2006-01-02 15:04:05"

// Result is the JSON-serializable outcome of one pipeline run. Every value
// is a plain primitive; dates are rendered as strings.
type Result struct {
	TotalClaims    int           `json:"total_claims"`
	TrainingClaims int           `json:"training_claims"`
	PendingClaims  int           `json:"pending_claims"`
	Summary        StatusSummary `json:"summary"`
	ModelMetrics   ModelMetrics  `json:"model_metrics"`
	Predictions    []Prediction  `json:"predictions"`
}

// StatusSummary counts claims over the resolved/pending split.
type StatusSummary struct {
	PaidCount    int `json:"paid_count"`
	DeniedCount  int `json:"denied_count"`
	PendingCount int `json:"pending_count"`
}

// ModelMetrics is the JSON shape of the holdout evaluation.
type ModelMetrics struct {
	Accuracy          float64            `json:"accuracy"`
	Precision         map[string]float64 `json:"precision"`
	Recall            map[string]float64 `json:"recall"`
	ConfusionMatrix   [][]int            `json:"confusion_matrix"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// Prediction is the JSON shape of one pending-claim prediction.
type Prediction struct {
	ClaimID           string  `json:"ClaimID"`
	Amount            float64 `json:"Amount"`
	Type              string  `json:"Type"`
	Date              string  `json:"Date"`
	PredictedStatus   string  `json:"PredictedStatus"`
	DenialProbability float64 `json:"DenialProbability"`
	Confidence        float64 `json:"Confidence"`
}

func toModelMetrics(m ml.Metrics) ModelMetrics {
	return ModelMetrics{
		Accuracy:  m.Accuracy,
		Precision: m.Precision,
		Recall:    m.Recall,
		ConfusionMatrix: [][]int{
			{m.ConfusionMatrix[0][0], m.ConfusionMatrix[0][1]},
			{m.ConfusionMatrix[1][0], m.ConfusionMatrix[1][1]},
		},
		FeatureImportance: m.FeatureImportance,
	}
}

func toPredictions(preds []ml.Prediction) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		out = append(out, Prediction{
			ClaimID:           p.ClaimID,
			Amount:            p.Amount,
			Type:              p.Type,
			Date:              formatDate(p.Date),
			PredictedStatus:   p.PredictedStatus,
			DenialProbability: p.DenialProbability,
			Confidence:        p.Confidence,
		})
	}
	return out
}

// formatDate renders the sentinel zero time as an empty string.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
