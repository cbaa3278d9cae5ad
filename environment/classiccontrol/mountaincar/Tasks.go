package mountaincar

import (
	"github.com/samuelfneumann/gas/environment"
	ts "github.com/samuelfneumann/gas/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Commonly used goal position
	GoalPosition float64 = 0.45
)

// StartBounds returns the bounds of the commonly used starting states:
// a position in [-0.6, -0.4] at rest
func StartBounds() []r1.Interval {
	return []r1.Interval{{Min: -0.6, Max: -0.4}, {Min: 0, Max: 0}}
}

// SparseGoal implements the task of reaching a goal on Mountain Car
// with a sparse reward. Since the car is underpowered, it must rock
// back and forth from hill to hill until it reaches the goal.
//
// A reward of 1 is given for the transition which reaches the goal and
// 0 on all other transitions. Episodes end after a step limit or when
// the car reaches the goal state.
type SparseGoal struct {
	environment.Starter
	environment.Enders
	goalX float64 // x position of goal
}

// NewSparseGoal creates and returns a new SparseGoal given a Starter,
// which determines the starting states; the maximum number of episode
// steps; and the goal x position.
func NewSparseGoal(s environment.Starter, episodeSteps int,
	goalX float64) *SparseGoal {
	g := &SparseGoal{Starter: s, goalX: goalX}

	goalEnder := environment.NewFunctionEnder(func(state *mat.VecDense) bool {
		return g.AtGoal(state)
	}, ts.TerminalStateReached)
	g.Enders = environment.Enders{
		goalEnder,
		environment.NewStepLimit(episodeSteps),
	}
	return g
}

// AtGoal returns a boolean indicating whether or not the argument state
// is the goal state
func (g *SparseGoal) AtGoal(state mat.Vector) bool {
	return state.AtVec(0) >= g.goalX
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state
func (g *SparseGoal) GetReward(_, _, nextState mat.Vector) float64 {
	if g.AtGoal(nextState) {
		return g.Max()
	}
	return g.Min()
}

// Min returns the minimum attainable reward over all timesteps
func (g *SparseGoal) Min() float64 { return 0.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *SparseGoal) Max() float64 { return 1.0 }

// RewardSpec returns the reward specification of the Task
func (g *SparseGoal) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Discrete)
}
