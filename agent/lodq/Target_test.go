package lodq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxFold(t *testing.T) {
	targets := [][]float64{{2}, {5}, {1}, {9}}
	folded := MaxFold(targets)
	assert.Equal(t, [][]float64{{2}, {5}, {5}, {9}}, folded)

	// The input is left untouched
	assert.Equal(t, 1.0, targets[2][0])
}

func TestTargets(t *testing.T) {
	targets := Targets(
		[]float64{1, 0, -1},
		[]float64{0, 1, 0},
		[]float64{2, 5, 4},
		0.5,
	)
	assert.InDeltaSlice(t, []float64{2, 0, 1}, targets, 1e-12)
}

func TestNextValues(t *testing.T) {
	target := [][]float64{{1, 4, 2}, {3, 0, 1}}

	assert.Equal(t, []float64{4, 3}, NextValues(target, nil))

	// Double Q-learning evaluates the target at the selected argmax
	selection := [][]float64{{9, 0, 0}, {0, 0, 7}}
	assert.Equal(t, []float64{1, 1}, NextValues(target, selection))

	// Ties in the selection go to the first maximal action
	selection = [][]float64{{0, 5, 5}, {2, 2, 2}}
	assert.Equal(t, []float64{4, 3}, NextValues(target, selection))
}

func TestExpandActions(t *testing.T) {
	actions := []int{0, 1, 3, 2}
	lods := []int{0, 0, 1, 1}
	assert.Equal(t, []int{0, 3, 3, 2}, ExpandActions(actions, lods, 1))
}

func TestLevelWeightsMasked(t *testing.T) {
	policy := LossPolicy{Mode: PerLevelMasked, SkipThreshold: 2}

	// Level 0: 2 eligible, skipped. Level 1: 4 eligible. Level 2: 5.
	lods := []int{0, 0, 1, 1, 2}
	masks, normalizer, err := LevelWeights(lods, 3, policy)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0, 0, 0}, masks[0])
	assert.Equal(t, []float64{1, 1, 1, 1, 0}, masks[1])
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, masks[2])
	assert.Equal(t, 9.0, normalizer)
}

func TestLevelWeightsSkipThreshold(t *testing.T) {
	policy := LossPolicy{Mode: PerLevelMasked, SkipThreshold: DefaultSkipThreshold}

	lods := make([]int, 64)
	for i := 0; i < 32; i++ {
		lods[i] = 0
	}
	for i := 32; i < 64; i++ {
		lods[i] = 1
	}

	// Exactly 32 eligible transitions at level 0 is not enough
	masks, normalizer, err := LevelWeights(lods, 2, policy)
	require.NoError(t, err)
	for _, m := range masks[0] {
		assert.Equal(t, 0.0, m)
	}
	assert.Equal(t, 64.0, normalizer)

	// 33 is
	lods[32] = 0
	masks, normalizer, err = LevelWeights(lods, 2, policy)
	require.NoError(t, err)
	assert.Equal(t, 1.0, masks[0][32])
	assert.Equal(t, 33.0+64.0, normalizer)
}

func TestLevelWeightsNoEligibleLevels(t *testing.T) {
	policy := LossPolicy{Mode: PerLevelMasked, SkipThreshold: DefaultSkipThreshold}
	_, _, err := LevelWeights([]int{0, 1, 1, 0}, 2, policy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoEligibleLevels))
}

func TestLevelWeightsOnlyTrainLast(t *testing.T) {
	policy := LossPolicy{Mode: OnlyTrainLast, SkipThreshold: DefaultSkipThreshold}
	masks, normalizer, err := LevelWeights([]int{0, 1, 2}, 3, policy)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0}, masks[0])
	assert.Equal(t, []float64{0, 0, 0}, masks[1])
	assert.Equal(t, []float64{1, 1, 1}, masks[2])
	assert.Equal(t, 3.0, normalizer)
}

func TestPriorities(t *testing.T) {
	taken := [][]float64{{1, 2}, {0, 4}}
	targets := [][]float64{{2, 2}, {3, 1}}
	masks := [][]float64{{1, 0}, {1, 1}}

	prios := Priorities(taken, targets, masks, 2)
	assert.InDeltaSlice(t, []float64{(1+3)/2.0 + MinPriority,
		3/2.0 + MinPriority}, prios, 1e-12)

	// A perfect prediction keeps the minimum priority
	prios = Priorities([][]float64{{1}}, [][]float64{{1}}, [][]float64{{1}}, 1)
	assert.Equal(t, []float64{MinPriority}, prios)
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig(2)
	assert.NoError(t, c.Validate())

	c = DefaultConfig(2)
	c.BatchSize = 32
	assert.Error(t, c.Validate(), "masked batches at the skip threshold")
	c.Loss.Mode = OnlyTrainLast
	assert.NoError(t, c.Validate())

	c = DefaultConfig(2)
	c.BatchSize = c.Replay.Capacity + 1
	assert.Error(t, c.Validate())

	c = DefaultConfig(2)
	c.LRDecay = true
	assert.Error(t, c.Validate())
	c.Horizon = 1000
	assert.NoError(t, c.Validate())

	c = DefaultConfig(0)
	assert.Error(t, c.Validate())

	c = DefaultConfig(2)
	c.Loss.Mode = "sometimes"
	assert.Error(t, c.Validate())
}
