package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSetEndKeepsFirst(t *testing.T) {
	step := New(Mid, 0, 1, mat.NewVecDense(1, nil), 3)
	assert.Equal(t, Nil, step.EndType())
	assert.False(t, step.Terminal())
	assert.False(t, step.TimedOut())

	step.SetEnd(TerminalStateReached)
	step.SetEnd(Timeout)
	assert.True(t, step.Terminal())
	assert.False(t, step.TimedOut())
}

func TestStepTypes(t *testing.T) {
	step := New(First, 0, 1, mat.NewVecDense(1, nil), 0)
	assert.True(t, step.First())
	assert.False(t, step.Last())

	step.StepType = Last
	step.SetEnd(Timeout)
	assert.True(t, step.Last())
	assert.True(t, step.TimedOut())
	assert.Contains(t, step.String(), "Timeout")
}
