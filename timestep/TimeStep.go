// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Nil is the EndType of a TimeStep which does not end an episode
	Nil EndType = iota

	// TerminalStateReached ends an episode in a terminal state, which
	// has no successor to bootstrap from
	TerminalStateReached

	// Timeout ends an episode by cutting it off. The last state is not
	// terminal.
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int
	endType     EndType
}

// New returns a new TimeStep
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      n,
	}
}

// SetEnd sets the EndType of the TimeStep. A TimeStep can only be ended
// once, and the first EndType set is kept, so that reaching a terminal
// state on the step an episode is cut off counts as terminal.
func (t *TimeStep) SetEnd(e EndType) {
	if t.endType == Nil {
		t.endType = e
	}
}

// EndType returns why the TimeStep ended its episode
func (t TimeStep) EndType() EndType {
	return t.endType
}

// Terminal returns whether the TimeStep ended its episode in a terminal
// state
func (t TimeStep) Terminal() bool {
	return t.endType == TerminalStateReached
}

// TimedOut returns whether the TimeStep ended its episode by cutting it
// off
func (t TimeStep) TimedOut() bool {
	return t.endType == Timeout
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v  |  End: %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number,
		t.endType)
}
