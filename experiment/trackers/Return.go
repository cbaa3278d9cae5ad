// Package trackers implements the records of data generated during an
// experiment
package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/gas/timestep"
)

// Tracker keeps track of data in the TimeSteps of an experiment
type Tracker interface {
	Track(t ts.TimeStep) error
}

// Return tracks the episodic return in an experiment. When an
// environment returns a TimeStep, this Tracker will extract the reward
// and accumulate the return for each episode in the experiment.
//
// Note: An episode must finish for this Tracker to record its return.
// If the last episode in an experiment does not finish, that episode's
// return is not recorded.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn() *Return {
	return &Return{lastTimeStep: -1}
}

// Track tracks the reward seen on a timestep. Tracking the First
// TimeStep of an episode is optional, all other TimeSteps must be
// tracked in sequence.
func (r *Return) Track(step ts.TimeStep) error {
	if step.First() {
		r.currentReturn = 0
		r.lastTimeStep = step.Number
		return nil
	}

	if r.lastTimeStep >= 0 && r.lastTimeStep+1 != step.Number {
		return fmt.Errorf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v", r.lastTimeStep,
			step.Number)
	}

	r.currentReturn += step.Reward
	if !step.Last() {
		r.lastTimeStep = step.Number
		return nil
	}

	// Episode has ended, record the return and begin tracking the
	// return for a new episode
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0
	r.lastTimeStep = -1
	return nil
}

// Current returns the return accumulated so far in the current episode
func (r *Return) Current() float64 {
	return r.currentReturn
}

// Last returns the return of the last finished episode, or 0 if no
// episode has finished
func (r *Return) Last() float64 {
	if len(r.episodeReturns) == 0 {
		return 0
	}
	return r.episodeReturns[len(r.episodeReturns)-1]
}

// Returns returns the returns of all finished episodes
func (r *Return) Returns() []float64 {
	return r.episodeReturns
}
