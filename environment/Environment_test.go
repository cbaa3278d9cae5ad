package environment

import (
	"testing"

	ts "github.com/samuelfneumann/gas/timestep"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestStepLimitTimesOut(t *testing.T) {
	limit := NewStepLimit(3)

	step := ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, nil), 2)
	assert.False(t, limit.End(&step))
	assert.Equal(t, ts.Nil, step.EndType())

	step.Number = 3
	assert.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.True(t, step.TimedOut())
}

func TestEndersKeepFirstEndType(t *testing.T) {
	atGoal := NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) >= 1
	}, ts.TerminalStateReached)
	enders := Enders{atGoal, NewStepLimit(5)}

	step := ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{2}), 5)
	assert.True(t, enders.End(&step))
	assert.True(t, step.Terminal())

	step = ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{0}), 5)
	assert.True(t, enders.End(&step))
	assert.True(t, step.TimedOut())

	step = ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{0}), 1)
	assert.False(t, enders.End(&step))
	assert.False(t, step.Last())
}

func TestUniformStarterBounds(t *testing.T) {
	bounds := []r1.Interval{{Min: -0.6, Max: -0.4}, {Min: 0, Max: 0}}
	starter := NewUniformStarter(bounds, 1)
	for i := 0; i < 100; i++ {
		start := starter.Start()
		assert.GreaterOrEqual(t, start.AtVec(0), -0.6)
		assert.LessOrEqual(t, start.AtVec(0), -0.4)
		assert.Equal(t, 0.0, start.AtVec(1))
	}
}

func TestSpecBounds(t *testing.T) {
	s := NewSpec(mat.NewVecDense(2, nil), Action,
		mat.NewVecDense(2, []float64{-1, 0}),
		mat.NewVecDense(2, []float64{1, 2}), Continuous)
	assert.Equal(t, r1.Interval{Min: 0, Max: 2}, s.Bounds(1))

	assert.Panics(t, func() {
		NewSpec(mat.NewVecDense(2, nil), Action, mat.NewVecDense(1, nil),
			mat.NewVecDense(2, nil), Continuous)
	})
}
