// Package dataset splits claim records into the resolved set used for
// training and the pending set awaiting prediction, and produces the
// stratified train/holdout split used for evaluation.
package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"claimsight/internal/records"
)

// HoldoutFraction is the evaluation share of the resolved set.
const HoldoutFraction = 0.3

// InsufficientDataError reports a resolved set too small or too uniform to
// fit a classifier.
type InsufficientDataError struct {
	Resolved int
	Classes  int
}

func (e *InsufficientDataError) Error() string {
	if e.Resolved < 2 {
		return fmt.Sprintf("insufficient training data: %d resolved claims, need at least 2", e.Resolved)
	}
	return fmt.Sprintf("insufficient training data: only %d outcome class present among %d resolved claims", e.Classes, e.Resolved)
}

// Partition indexes the record table by outcome state. Resolved and Pending
// hold record indices in input order; Targets parallels Resolved with the
// binary label (1 = denied, 0 = paid-like).
type Partition struct {
	Resolved []int
	Pending  []int
	Targets  []int
}

// Split partitions records on the pending label and derives binary targets
// from the denied label. Every status other than the denied label folds into
// the paid-like class. Fails when fewer than 2 resolved claims exist or when
// a single class is present.
func Split(table *records.Table, pendingLabel, deniedLabel string) (*Partition, error) {
	p := &Partition{}
	for i, rec := range table.Records {
		if rec.Status == pendingLabel {
			p.Pending = append(p.Pending, i)
			continue
		}
		p.Resolved = append(p.Resolved, i)
		if rec.Status == deniedLabel {
			p.Targets = append(p.Targets, 1)
		} else {
			p.Targets = append(p.Targets, 0)
		}
	}

	if len(p.Resolved) < 2 {
		return nil, &InsufficientDataError{Resolved: len(p.Resolved), Classes: classCount(p.Targets)}
	}
	if c := classCount(p.Targets); c < 2 {
		return nil, &InsufficientDataError{Resolved: len(p.Resolved), Classes: c}
	}

	return p, nil
}

// TrainHoldout splits the resolved set into train and holdout positions
// (indices into Resolved/Targets), stratified on the target so both sides
// preserve the class ratio. The seeded shuffle makes the split reproducible.
// A class with a single example stays in the training side.
func (p *Partition) TrainHoldout(seed int64) (train, holdout []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	for pos, target := range p.Targets {
		byClass[target] = append(byClass[target], pos)
	}

	for _, class := range []int{0, 1} {
		positions := byClass[class]
		rng.Shuffle(len(positions), func(i, j int) {
			positions[i], positions[j] = positions[j], positions[i]
		})

		n := len(positions)
		nHold := int(float64(n)*HoldoutFraction + 0.5)
		if n >= 2 && nHold == 0 {
			nHold = 1
		}
		if nHold >= n {
			nHold = n - 1
		}
		if nHold < 0 {
			nHold = 0
		}

		holdout = append(holdout, positions[:nHold]...)
		train = append(train, positions[nHold:]...)
	}

	sort.Ints(train)
	sort.Ints(holdout)
	return train, holdout
}

func classCount(targets []int) int {
	seen := map[int]bool{}
	for _, t := range targets {
		seen[t] = true
	}
	return len(seen)
}
