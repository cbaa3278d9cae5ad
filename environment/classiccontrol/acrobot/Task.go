package acrobot

import (
	"math"

	"github.com/samuelfneumann/gas/environment"
	ts "github.com/samuelfneumann/gas/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// GoalHeight is the classic control goal: the tip must swing one link
// length above the fixed base
const GoalHeight float64 = LinkLength1

// StartBounds returns the bounds of the commonly used starting states,
// where each feature is in [-0.1, 0.1]
func StartBounds() []r1.Interval {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.1, Max: 0.1}
	}
	return bounds
}

// TipHeight returns the height of the tip of the second link above the
// fixed base in state
func TipHeight(state mat.Vector) float64 {
	theta1, theta2 := state.AtVec(0), state.AtVec(1)
	return -LinkLength1*math.Cos(theta1) -
		LinkLength2*math.Cos(theta1+theta2)
}

// SparseSwingUp implements the Acrobot task where the agent must swing
// the tip of the second link above a goal height.
//
// A reward of 1 is given on the transition which swings the tip above
// the goal height, and 0 on all other transitions. Episodes end when
// the tip is above the goal height or a step limit is reached.
type SparseSwingUp struct {
	environment.Starter
	environment.Enders
	goalHeight float64
}

// NewSparseSwingUp returns a new SparseSwingUp task with start state
// distribution s, episodic step limit stepLimit, and goal height
// goalHeight.
func NewSparseSwingUp(s environment.Starter, stepLimit int,
	goalHeight float64) *SparseSwingUp {
	task := &SparseSwingUp{Starter: s, goalHeight: goalHeight}

	lineEnder := environment.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return task.AtGoal(obs)
	}, ts.TerminalStateReached)
	task.Enders = environment.Enders{
		lineEnder,
		environment.NewStepLimit(stepLimit),
	}
	return task
}

// AtGoal returns whether the argument state is a goal state
func (s *SparseSwingUp) AtGoal(state mat.Vector) bool {
	return TipHeight(state) > s.goalHeight
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state
func (s *SparseSwingUp) GetReward(_, _, nextState mat.Vector) float64 {
	if s.AtGoal(nextState) {
		return s.Max()
	}
	return s.Min()
}

// Min returns the minimum attainable reward over all timesteps
func (s *SparseSwingUp) Min() float64 { return 0.0 }

// Max returns the maximum attainable reward over all timesteps
func (s *SparseSwingUp) Max() float64 { return 1.0 }

// RewardSpec returns the reward specification of the Task
func (s *SparseSwingUp) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Discrete)
}
