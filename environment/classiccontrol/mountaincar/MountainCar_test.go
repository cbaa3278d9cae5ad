package mountaincar

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

func TestPhysics(t *testing.T) {
	task := NewSparseGoal(fixedStarter{-0.5, 0}, 100, GoalPosition)
	m, first, err := NewContinuous(task, 1.0)
	require.NoError(t, err)
	assert.True(t, first.First())

	step, last, err := m.Step(mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)
	assert.False(t, last)

	// The action is clipped to 1
	velocity := Power - Gravity*math.Cos(3*-0.5)
	assert.InDelta(t, velocity, step.Observation.AtVec(1), 1e-12)
	assert.InDelta(t, -0.5+velocity, step.Observation.AtVec(0), 1e-12)
	assert.Equal(t, 0.0, step.Reward)
}

func TestLeftWallStopsCar(t *testing.T) {
	task := NewSparseGoal(fixedStarter{MinPosition, -MaxSpeed}, 100,
		GoalPosition)
	m, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, _, err := m.Step(mat.NewVecDense(1, []float64{-1}))
	require.NoError(t, err)
	assert.Equal(t, MinPosition, step.Observation.AtVec(0))
	assert.Equal(t, 0.0, step.Observation.AtVec(1))
}

func TestSparseGoalReached(t *testing.T) {
	task := NewSparseGoal(fixedStarter{0.44, MaxSpeed}, 100, GoalPosition)
	m, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, last, err := m.Step(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.True(t, last)
	assert.True(t, step.Terminal())
	assert.Equal(t, 1.0, step.Reward)

	_, _, err = m.Step(mat.NewVecDense(1, []float64{1}))
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	starter := environment.NewUniformStarter(StartBounds(), 3)
	task := NewSparseGoal(starter, 5, GoalPosition)
	m, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, last, err := m.Step(mat.NewVecDense(1, []float64{0}))
		require.NoError(t, err)
		require.False(t, last)
	}
	step, last, err := m.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.True(t, last)
	assert.True(t, step.TimedOut())

	step, err = m.Reset()
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.True(t, StartBounds()[0].Min <= step.Observation.AtVec(0))
}

func TestInvalidStart(t *testing.T) {
	task := NewSparseGoal(fixedStarter{1, 0}, 5, GoalPosition)
	_, _, err := NewContinuous(task, 1.0)
	assert.Error(t, err)
}
