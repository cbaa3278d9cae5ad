// Package agent defines the interfaces between an agent and the loop
// which trains it
package agent

import (
	"github.com/samuelfneumann/gas/expreplay"
)

// Stats holds the results of a single update to a Learner
type Stats struct {
	Loss    float64 // Value loss, including any consistency terms
	RegLoss float64 // Regularization loss
	Value   float64 // Mean predicted value of the sampled actions
}

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Observe records a transition for later updates
	Observe(t expreplay.Transition) error

	// Stored returns the number of transitions available for updates
	Stored() int

	// Step performs a single update to the learner
	Step() (Stats, error)

	// SyncTarget moves the target network toward the learned weights
	SyncTarget() error
}

// Policy represents a policy that an agent can have. Actions are
// indices into the action space of a level of detail.
type Policy interface {
	Act(state []float64, epsilon float64, level int) (int, error)
}
