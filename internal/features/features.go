package features

import (
	"time"

	"claimsight/internal/records"
)

// Model feature columns, in the order the trainer consumes them.
var FeatureNames = []string{
	"Amount",
	"Type_Encoded",
	"DayOfWeek",
	"Month",
	"DayOfMonth",
	"AmountCategory_Encoded",
}

// Amount bucket edges. Amounts outside [0, 2000] are clamped into the
// boundary buckets rather than rejected.
const (
	lowMax    = 150.0
	mediumMax = 400.0
)

const (
	CategoryLow    = "Low"
	CategoryMedium = "Medium"
	CategoryHigh   = "High"
)

// Vector holds the derived features for one claim record.
type Vector struct {
	DayOfWeek             int // Monday=0 .. Sunday=6
	Month                 int
	DayOfMonth            int
	AmountCategory        string
	TypeEncoded           int
	AmountCategoryEncoded int
}

// AmountBucket maps an amount onto Low/Medium/High under the fixed edges
// {150, 400}. Pure function of the amount.
func AmountBucket(amount float64) string {
	switch {
	case amount <= lowMax:
		return CategoryLow
	case amount <= mediumMax:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// Engineer derives one Vector per record and returns the two categorical
// encoders fitted on the full record set. Fitting happens before any
// train/pending partitioning so categories appearing only among pending
// claims still receive a valid code.
func Engineer(table *records.Table) ([]Vector, *LabelEncoder, *LabelEncoder) {
	types := make([]string, len(table.Records))
	buckets := make([]string, len(table.Records))
	for i, rec := range table.Records {
		types[i] = rec.Type
		buckets[i] = AmountBucket(rec.Amount)
	}

	typeEnc := NewLabelEncoder()
	typeEnc.Fit(types)
	bucketEnc := NewLabelEncoder()
	bucketEnc.Fit(buckets)

	vectors := make([]Vector, len(table.Records))
	for i, rec := range table.Records {
		vectors[i] = Vector{
			DayOfWeek:             mondayIndexed(rec.Date.Weekday()),
			Month:                 int(rec.Date.Month()),
			DayOfMonth:            rec.Date.Day(),
			AmountCategory:        buckets[i],
			TypeEncoded:           typeEnc.Code(types[i]),
			AmountCategoryEncoded: bucketEnc.Code(buckets[i]),
		}
	}

	return vectors, typeEnc, bucketEnc
}

// Row assembles the model input row for one record, ordered as FeatureNames.
func (v Vector) Row(amount float64) []float64 {
	return []float64{
		amount,
		float64(v.TypeEncoded),
		float64(v.DayOfWeek),
		float64(v.Month),
		float64(v.DayOfMonth),
		float64(v.AmountCategoryEncoded),
	}
}

func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
