package ml

import (
	"time"

	"claimsight/internal/features"
	"claimsight/internal/records"
)

// Prediction is one ranked outcome for a pending claim.
type Prediction struct {
	ClaimID           string
	Amount            float64
	Type              string
	Date              time.Time
	PredictedStatus   string
	DenialProbability float64
	Confidence        float64
}

// Predict applies the fitted model to the pending subset and returns one
// Prediction per pending record, preserving the input order. An empty
// pending set yields an empty (non-nil) result.
func Predict(model *Model, table *records.Table, vectors []features.Vector, pending []int) []Prediction {
	out := make([]Prediction, 0, len(pending))
	for _, idx := range pending {
		rec := table.Records[idx]
		p := model.DenialProbability(vectors[idx].Row(rec.Amount))

		status := ClassPaid
		if p >= DecisionThreshold {
			status = ClassDenied
		}

		confidence := p
		if 1-p > confidence {
			confidence = 1 - p
		}

		out = append(out, Prediction{
			ClaimID:           rec.ClaimID,
			Amount:            rec.Amount,
			Type:              rec.Type,
			Date:              rec.Date,
			PredictedStatus:   status,
			DenialProbability: p,
			Confidence:        confidence,
		})
	}
	return out
}
