package pendulum

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gas/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type fixedStarter []float64

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(f), append([]float64(nil), f...))
}

func TestPhysics(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{math.Pi / 2, 0}, 100, GoalAngle)
	p, first, err := NewContinuous(task, 1.0)
	require.NoError(t, err)
	assert.True(t, first.First())

	// The torque is clipped to 2
	step, last, err := p.Step(mat.NewVecDense(1, []float64{5}))
	require.NoError(t, err)
	assert.False(t, last)

	thdot := (-3*Gravity/(2*Length)*math.Sin(math.Pi/2+math.Pi) +
		3.0/(Mass*Length*Length)*TorqueBound) * dt
	assert.InDelta(t, thdot, step.Observation.AtVec(1), 1e-12)
	assert.InDelta(t, math.Pi/2+thdot*dt, step.Observation.AtVec(0), 1e-12)
	assert.Equal(t, 0.0, step.Reward)
}

func TestAngleWraps(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{math.Pi, SpeedBound}, 100,
		GoalAngle)
	p, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, _, err := p.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.Less(t, step.Observation.AtVec(0), 0.0)
	assert.GreaterOrEqual(t, step.Observation.AtVec(0), -AngleBound)
	assert.LessOrEqual(t, step.Observation.AtVec(1), SpeedBound)
}

func TestSparseSwingUpReached(t *testing.T) {
	task := NewSparseSwingUp(fixedStarter{0.05, 0}, 100, GoalAngle)
	p, _, err := NewContinuous(task, 1.0)
	require.NoError(t, err)

	step, last, err := p.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.True(t, last)
	assert.True(t, step.Terminal())
	assert.Equal(t, 1.0, step.Reward)

	_, _, err = p.Step(mat.NewVecDense(1, []float64{0}))
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	s := environment.NewUniformStarter(StartBounds(), 1)
	p, _, err := NewContinuous(NewSparseSwingUp(s, 3, GoalAngle), 1.0)
	require.NoError(t, err)

	var last bool
	for i := 0; i < 3; i++ {
		require.False(t, last)
		_, last, err = p.Step(mat.NewVecDense(1, []float64{0}))
		require.NoError(t, err)
	}
	assert.True(t, last)

	step, err := p.Reset()
	require.NoError(t, err)
	assert.InDelta(t, math.Pi-0.1, step.Observation.AtVec(0), 0.1)
	assert.Equal(t, 0.0, step.Observation.AtVec(1))
}

func TestValidateState(t *testing.T) {
	_, _, err := NewContinuous(NewSparseSwingUp(fixedStarter{4, 0}, 10,
		GoalAngle), 1.0)
	assert.Error(t, err)

	_, _, err = NewContinuous(NewSparseSwingUp(fixedStarter{0, 9}, 10,
		GoalAngle), 1.0)
	assert.Error(t, err)
}
