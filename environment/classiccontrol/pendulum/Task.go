package pendulum

import (
	"math"

	"github.com/samuelfneumann/gas/environment"
	ts "github.com/samuelfneumann/gas/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// GoalAngle is the largest angle from upright that counts as swung up
const GoalAngle float64 = 0.1

// StartBounds returns the bounds of the starting states, with the
// pendulum hanging within 0.2 radians of straight down and at rest
func StartBounds() []r1.Interval {
	return []r1.Interval{
		{Min: math.Pi - 0.2, Max: math.Pi},
		{Min: 0, Max: 0},
	}
}

// SparseSwingUp implements the pendulum task where the agent must
// swing the pendulum to within a goal angle of upright.
//
// A reward of 1 is given on the transition which reaches the goal
// angle, and 0 on all other transitions. Episodes end when the goal is
// reached or a step limit is reached.
type SparseSwingUp struct {
	environment.Starter
	environment.Enders
	goalAngle float64
}

// NewSparseSwingUp returns a new SparseSwingUp task with start state
// distribution s, episodic step limit stepLimit, and goal angle
// goalAngle
func NewSparseSwingUp(s environment.Starter, stepLimit int,
	goalAngle float64) *SparseSwingUp {
	task := &SparseSwingUp{Starter: s, goalAngle: goalAngle}

	goalEnder := environment.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return task.AtGoal(obs)
	}, ts.TerminalStateReached)
	task.Enders = environment.Enders{
		goalEnder,
		environment.NewStepLimit(stepLimit),
	}
	return task
}

// AtGoal returns whether the argument state is a goal state
func (s *SparseSwingUp) AtGoal(state mat.Vector) bool {
	return math.Abs(state.AtVec(0)) <= s.goalAngle
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
