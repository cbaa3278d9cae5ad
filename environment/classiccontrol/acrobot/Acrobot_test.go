package acrobot

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gas/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedStarter always starts in the same state
type fixedStarter []float64

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(f), append([]float64(nil), f...))
}

func TestRestIsStable(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{0, 0, 0, 0}, 100, GoalHeight)
	a, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, last, err := a.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.False(t, last)
	for i := 0; i < ObservationDims; i++ {
		assert.InDelta(t, 0.0, step.Observation.AtVec(i), 1e-9)
	}
	assert.Equal(t, 0.0, step.Reward)
}

func TestTorqueMovesLinks(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{0, 0, 0, 0}, 100, GoalHeight)
	a, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, _, err := a.Step(mat.NewVecDense(1, []float64{5}))
	require.NoError(t, err)
	assert.NotEqual(t, 0.0, step.Observation.AtVec(3))

	for i := 0; i < ObservationDims; i++ {
		assert.False(t, math.IsNaN(step.Observation.AtVec(i)))
	}
}

func TestSparseSwingUpGoal(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{math.Pi, 0, 0, 0}, 100, GoalHeight)
	assert.InDelta(t, 2.0, TipHeight(mat.NewVecDense(4, []float64{math.Pi,
		0, 0, 0})), 1e-12)

	a, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, last, err := a.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.True(t, last)
	assert.True(t, step.Terminal())
	assert.Equal(t, 1.0, step.Reward)
}

func TestSwingUpTimeout(t *testing.T) {
	starter := environment.NewUniformStarter(StartBounds(), 5)
	task := NewSparseSwingUp(starter, 3, GoalHeight)
	a, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, last, err := a.Step(mat.NewVecDense(1, []float64{0}))
		require.NoError(t, err)
		require.False(t, last)
	}
	step, last, err := a.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.True(t, last)
	assert.True(t, step.TimedOut())
}
