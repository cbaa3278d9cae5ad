// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/gas/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	// End returns whether the episode ends at t, setting the StepType
	// and EndType of t if it does
	End(t *ts.TimeStep) bool
}

// Task implements the reward scheme, the starting states, and the
// episode ends for taking actions in some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for transitioning from state to
	// nextState with action
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether state is a goal state
	AtGoal(state mat.Vector) bool

	// RewardSpec returns the reward specification of the Task
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	// Reset begins a new episode and returns its first TimeStep
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step with action, returning the
	// next TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec
}
