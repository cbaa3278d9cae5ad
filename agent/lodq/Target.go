package lodq

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/gas/lod"
	"gonum.org/v1/gonum/floats"
)

// MinPriority is added to every priority so that each transition keeps
// a nonzero probability of being sampled
const MinPriority = 1e-5

// ErrNoEligibleLevels is returned when every level of detail is skipped
// for a batch, leaving nothing to normalize the loss by
var ErrNoEligibleLevels = errors.New("no level of detail has enough " +
	"eligible transitions")

// ExpandRows expands each row of level values to the resolution of
// level finest
func ExpandRows(rows [][]float64, level, finest int) [][]float64 {
	expanded := make([][]float64, len(rows))
	for i, row := range rows {
		expanded[i] = lod.ExpandValues(row, level, finest)
	}
	return expanded
}

// ExpandActions translates each action, recorded at the matching level
// in lods, to an action index at level finest
func ExpandActions(actions, lods []int, finest int) []int {
	expanded := make([]int, len(actions))
	for i, a := range actions {
		expanded[i] = lod.ExpandIndex(a, lods[i], finest)
	}
	return expanded
}

// NextValues returns the bootstrap value of each next state. If
// selection is nil, the maximum of each row of target is returned.
// Otherwise, each row of target is evaluated at the argmax of the
// corresponding row of selection, which is double Q-learning.
func NextValues(target, selection [][]float64) []float64 {
	next := make([]float64, len(target))
	for i, row := range target {
		if selection == nil {
			next[i] = floats.Max(row)
		} else {
			next[i] = row[floats.MaxIdx(selection[i])]
		}
	}
	return next
}

// Targets returns the one-step bootstrapped targets:
//
//	r + γ * next * (1 - done)
func Targets(rewards, dones, next []float64, gamma float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range targets {
		targets[i] = rewards[i] + gamma*next[i]*(1-dones[i])
	}
	return targets
}

// MaxFold replaces the targets of each level, per transition, with the
// maximum target of that level and all coarser levels. targets holds
// one slice per level, coarsest first.
func MaxFold(targets [][]float64) [][]float64 {
	folded := make([][]float64, len(targets))
	for i := range targets {
		folded[i] = make([]float64, len(targets[i]))
		copy(folded[i], targets[i])
		if i > 0 {
			for b := range folded[i] {
				folded[i][b] = math.Max(folded[i][b], folded[i-1][b])
			}
		}
	}
	return folded
}

// LevelWeights returns, for each level, a mask over the batch of the
// transitions which train that level, along with the normalizer that
// the masked losses are divided by.
//
// With PerLevelMasked, transition b trains level i if lods[b] <= i.
// Levels with at most policy.SkipThreshold such transitions are given
// an all-zero mask, and the normalizer is the total number of
// transitions across the remaining levels. If no level remains,
// ErrNoEligibleLevels is returned.
//
// With OnlyTrainLast, every transition trains the finest level only,
// and the normalizer is the batch size.
func LevelWeights(lods []int, levels int, policy LossPolicy) ([][]float64,
	float64, error) {
	masks := make([][]float64, levels)
	for i := range masks {
		masks[i] = make([]float64, len(lods))
	}

	if policy.Mode == OnlyTrainLast {
		for b := range lods {
			masks[levels-1][b] = 1
		}
		return masks, float64(len(lods)), nil
	}

	var normalizer float64
	for i := range masks {
		var count float64
		for b, l := range lods {
			if l <= i {
				masks[i][b] = 1
				count++
			}
		}
		if count <= float64(policy.SkipThreshold) {
			for b := range masks[i] {
				masks[i][b] = 0
			}
			continue
		}
		normalizer += count
	}

	if normalizer == 0 {
		return nil, 0, fmt.Errorf("levelWeights: %w", ErrNoEligibleLevels)
	}
	return masks, normalizer, nil
}

// Priorities returns the new priority of each transition: the absolute
// TD error of each level weighted by masks, summed over levels, divided
// by normalizer and offset by MinPriority.
func Priorities(taken, targets, masks [][]float64,
	normalizer float64) []float64 {
	prios := make([]float64, len(taken[0]))
	for i := range taken {
		for b := range prios {
			prios[b] += math.Abs(taken[i][b]-targets[i][b]) * masks[i][b]
		}
	}
	for b := range prios {
		prios[b] = prios[b]/normalizer + MinPriority
	}
	return prios
}

// scaled returns mask scaled by factor
func scaled(mask []float64, factor float64) []float64 {
	out := make([]float64, len(mask))
	floats.ScaleTo(out, factor, mask)
	return out
}
