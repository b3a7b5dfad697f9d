// Package ml fits and applies the binary claim-outcome classifier.
//
// The model is a random forest of depth-limited decision trees trained with
// per-sample class weights. Everything is in-memory and deterministic for a
// fixed seed; the model lives only for the duration of one pipeline run.
package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig holds the fixed model hyperparameters.
type ForestConfig struct {
	Trees    int
	MaxDepth int
	Seed     int64
}

// DefaultForestConfig returns the standard configuration: 100 trees,
// maximum depth 5, fixed seed.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 5, Seed: 42}
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	probs     [2]float64 // weighted class distribution at a leaf
}

// Forest is a fitted ensemble of decision trees.
type Forest struct {
	trees       []*treeNode
	nFeatures   int
	importances []float64
}

// FitForest trains the ensemble on the given rows, targets and per-sample
// weights. Each tree sees a bootstrap sample and considers a random feature
// subset at every split. Both classes must be present.
func FitForest(rows [][]float64, targets []int, weights []float64, cfg ForestConfig) (*Forest, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(rows) != len(targets) || len(rows) != len(weights) {
		return nil, fmt.Errorf("rows/targets/weights length mismatch: %d/%d/%d", len(rows), len(targets), len(weights))
	}
	if !bothClassesPresent(targets) {
		return nil, fmt.Errorf("single class present in training targets")
	}

	nFeatures := len(rows[0])
	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	f := &Forest{
		trees:       make([]*treeNode, 0, cfg.Trees),
		nFeatures:   nFeatures,
		importances: make([]float64, nFeatures),
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	for t := 0; t < cfg.Trees; t++ {
		rng := rand.New(rand.NewSource(master.Int63()))

		sample := make([]int, len(rows))
		for i := range sample {
			sample[i] = rng.Intn(len(rows))
		}

		b := &treeBuilder{
			rows:        rows,
			targets:     targets,
			weights:     weights,
			maxDepth:    cfg.MaxDepth,
			maxFeatures: maxFeatures,
			rng:         rng,
			importances: f.importances,
			totalWeight: sumWeights(weights, sample),
		}
		f.trees = append(f.trees, b.build(sample, 0))
	}

	return f, nil
}

// Proba returns the class probability distribution [paid-like, denied] for
// one feature row, averaged across all trees.
func (f *Forest) Proba(row []float64) [2]float64 {
	var acc [2]float64
	for _, root := range f.trees {
		node := root
		for !node.leaf {
			if row[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		acc[0] += node.probs[0]
		acc[1] += node.probs[1]
	}
	n := float64(len(f.trees))
	return [2]float64{acc[0] / n, acc[1] / n}
}

// Importances returns the per-feature mean impurity decrease, normalized to
// sum to 1.0 across all features.
func (f *Forest) Importances() []float64 {
	out := make([]float64, f.nFeatures)
	var sum float64
	for i, v := range f.importances {
		out[i] = v
		sum += v
	}
	if sum == 0 {
		// No split ever used a feature; report a uniform ranking.
		for i := range out {
			out[i] = 1.0 / float64(f.nFeatures)
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

type treeBuilder struct {
	rows        [][]float64
	targets     []int
	weights     []float64
	maxDepth    int
	maxFeatures int
	rng         *rand.Rand
	importances []float64
	totalWeight float64
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	classWeight := b.classWeights(indices)
	nodeWeight := classWeight[0] + classWeight[1]
	impurity := gini(classWeight)

	if depth >= b.maxDepth || impurity == 0 || len(indices) < 2 {
		return leaf(classWeight)
	}

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for _, feature := range b.rng.Perm(len(b.rows[0]))[:b.maxFeatures] {
		gain, threshold, ok := b.bestSplit(indices, feature, impurity, nodeWeight)
		if ok && gain > bestGain {
			bestGain = gain
			bestFeature = feature
			bestThreshold = threshold
		}
	}

	if bestFeature < 0 {
		return leaf(classWeight)
	}

	var left, right []int
	for _, i := range indices {
		if b.rows[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importances[bestFeature] += nodeWeight / b.totalWeight * bestGain

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit evaluates candidate thresholds (midpoints between consecutive
// distinct sorted values) for one feature and returns the best weighted
// impurity decrease.
func (b *treeBuilder) bestSplit(indices []int, feature int, parentImpurity, nodeWeight float64) (gain, threshold float64, ok bool) {
	values := make([]float64, 0, len(indices))
	for _, i := range indices {
		values = append(values, b.rows[i][feature])
	}
	sortFloats(values)

	for v := 1; v < len(values); v++ {
		if values[v] == values[v-1] {
			continue
		}
		mid := (values[v] + values[v-1]) / 2

		var leftW, rightW [2]float64
		for _, i := range indices {
			w := b.weights[i]
			if b.rows[i][feature] <= mid {
				leftW[b.targets[i]] += w
			} else {
				rightW[b.targets[i]] += w
			}
		}

		lw := leftW[0] + leftW[1]
		rw := rightW[0] + rightW[1]
		if lw == 0 || rw == 0 {
			continue
		}

		g := parentImpurity - (lw*gini(leftW)+rw*gini(rightW))/nodeWeight
		if g > gain {
			gain = g
			threshold = mid
			ok = true
		}
	}

	return gain, threshold, ok
}

func (b *treeBuilder) classWeights(indices []int) [2]float64 {
	var cw [2]float64
	for _, i := range indices {
		cw[b.targets[i]] += b.weights[i]
	}
	return cw
}

func leaf(classWeight [2]float64) *treeNode {
	total := classWeight[0] + classWeight[1]
	if total == 0 {
		return &treeNode{leaf: true, probs: [2]float64{0.5, 0.5}}
	}
	return &treeNode{leaf: true, probs: [2]float64{classWeight[0] / total, classWeight[1] / total}}
}

func gini(classWeight [2]float64) float64 {
	total := classWeight[0] + classWeight[1]
	if total == 0 {
		return 0
	}
	p0 := classWeight[0] / total
	p1 := classWeight[1] / total
	return 1 - p0*p0 - p1*p1
}

func bothClassesPresent(targets []int) bool {
	seen := [2]bool{}
	for _, t := range targets {
		if t == 0 || t == 1 {
			seen[t] = true
		}
	}
	return seen[0] && seen[1]
}

func sumWeights(weights []float64, indices []int) float64 {
	var s float64
	for _, i := range indices {
		s += weights[i]
	}
	return s
}

// insertion sort; split candidate lists are small
func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}
