package ml

import (
	"math"
	"testing"
)

// separable builds a dataset where class is fully determined by feature 0.
func separable(n int) (rows [][]float64, targets []int) {
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			rows = append(rows, []float64{float64(10 + i), 1, 2, 3, 4, 0})
			targets = append(targets, 0)
		} else {
			rows = append(rows, []float64{float64(500 + i), 1, 2, 3, 4, 0})
			targets = append(targets, 1)
		}
	}
	return rows, targets
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func TestFitForest_LearnsSeparableData(t *testing.T) {
	rows, targets := separable(20)

	forest, err := FitForest(rows, targets, uniformWeights(len(rows)), DefaultForestConfig())
	if err != nil {
		t.Fatalf("FitForest failed: %v", err)
	}

	for i, row := range rows {
		proba := forest.Proba(row)
		predicted := 0
		if proba[1] >= 0.5 {
			predicted = 1
		}
		if predicted != targets[i] {
			t.Errorf("Row %d misclassified: proba=%v target=%d", i, proba, targets[i])
		}
	}
}

func TestFitForest_Deterministic(t *testing.T) {
	rows, targets := separable(16)
	cfg := DefaultForestConfig()

	f1, err := FitForest(rows, targets, uniformWeights(len(rows)), cfg)
	if err != nil {
		t.Fatalf("First fit failed: %v", err)
	}
	f2, err := FitForest(rows, targets, uniformWeights(len(rows)), cfg)
	if err != nil {
		t.Fatalf("Second fit failed: %v", err)
	}

	probe := []float64{320, 1, 2, 3, 4, 0}
	p1 := f1.Proba(probe)
	p2 := f2.Proba(probe)
	if p1 != p2 {
		t.Errorf("Identical seeds produced different probabilities: %v vs %v", p1, p2)
	}
}

func TestForest_ProbaRange(t *testing.T) {
	rows, targets := separable(12)
	forest, err := FitForest(rows, targets, uniformWeights(len(rows)), DefaultForestConfig())
	if err != nil {
		t.Fatalf("FitForest failed: %v", err)
	}

	probes := [][]float64{
		{0, 0, 0, 0, 0, 0},
		{255, 1, 2, 3, 4, 0},
		{10000, 9, 6, 12, 31, 2},
	}
	for _, probe := range probes {
		p := forest.Proba(probe)
		if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
			t.Errorf("Probability out of range: %v", p)
		}
		if math.Abs(p[0]+p[1]-1.0) > 1e-9 {
			t.Errorf("Probabilities do not sum to 1: %v", p)
		}
	}
}

func TestForest_ImportancesNormalized(t *testing.T) {
	rows, targets := separable(20)
	forest, err := FitForest(rows, targets, uniformWeights(len(rows)), DefaultForestConfig())
	if err != nil {
		t.Fatalf("FitForest failed: %v", err)
	}

	imp := forest.Importances()
	var sum float64
	for _, v := range imp {
		if v < 0 {
			t.Errorf("Negative importance: %v", imp)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Importances sum to %f, expected 1.0", sum)
	}

	// Feature 0 fully determines the class, so it should dominate.
	for i := 1; i < len(imp); i++ {
		if imp[i] > imp[0] {
			t.Errorf("Feature %d importance %f exceeds discriminating feature 0 (%f)", i, imp[i], imp[0])
		}
	}
}

func TestFitForest_SingleClass(t *testing.T) {
	rows := [][]float64{{1, 0, 0, 0, 0, 0}, {2, 0, 0, 0, 0, 0}}
	targets := []int{0, 0}

	_, err := FitForest(rows, targets, uniformWeights(2), DefaultForestConfig())
	if err == nil {
		t.Fatal("Expected error for single-class targets, got nil")
	}
}

func TestFitForest_Empty(t *testing.T) {
	_, err := FitForest(nil, nil, nil, DefaultForestConfig())
	if err == nil {
		t.Fatal("Expected error for empty training set, got nil")
	}
}
