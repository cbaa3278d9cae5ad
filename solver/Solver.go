// Package solver implements functionality to describe Gorgonia Solvers
// in configuration files, along with utilities which operate on the
// gradients a Solver consumes.
package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	RMSProp Type = "RMSProp"
	Vanilla Type = "Vanilla"
)

// Config describes a Gorgonia Solver. Fields which the described
// solver does not use are ignored.
type Config struct {
	Type     Type    `yaml:"type"`
	StepSize float64 `yaml:"step_size"`
	Epsilon  float64 `yaml:"epsilon,omitempty"` // Smoothing factor
	Beta1    float64 `yaml:"beta1,omitempty"`
	Beta2    float64 `yaml:"beta2,omitempty"`
	Rho      float64 `yaml:"rho,omitempty"`
}

// NewAdam returns a new Adam configuration
func NewAdam(stepSize, epsilon, beta1, beta2 float64) Config {
	return Config{
		Type:     Adam,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}
}

// Validate returns an error if the Config does not describe a solver
func (c Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("validate: step size must be > 0, have %v",
			c.StepSize)
	}

	switch c.Type {
	case Adam:
		if c.Beta1 < 0 || c.Beta1 >= 1 || c.Beta2 < 0 || c.Beta2 >= 1 {
			return fmt.Errorf("validate: adam betas must be in [0, 1), "+
				"have (%v, %v)", c.Beta1, c.Beta2)
		}
	case RMSProp:
		if c.Rho <= 0 || c.Rho >= 1 {
			return fmt.Errorf("validate: rmsprop rho must be in (0, 1), "+
				"have %v", c.Rho)
		}
	case Vanilla:
	default:
		return fmt.Errorf("validate: unknown solver type %q", c.Type)
	}
	return nil
}

// Create returns a new Gorgonia Solver as described by the Config.
// Gradients are assumed to already be averaged over the batch.
func (c Config) Create() (G.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.Type {
	case Adam:
		return G.NewAdamSolver(
			G.WithLearnRate(c.StepSize),
			G.WithEps(c.Epsilon),
			G.WithBeta1(c.Beta1),
			G.WithBeta2(c.Beta2),
			G.WithBatchSize(1),
		), nil

	case RMSProp:
		return G.NewRMSPropSolver(
			G.WithLearnRate(c.StepSize),
			G.WithEps(c.Epsilon),
			G.WithRho(c.Rho),
			G.WithBatchSize(1),
		), nil

	default:
		return G.NewVanillaSolver(
			G.WithLearnRate(c.StepSize),
			G.WithBatchSize(1),
		), nil
	}
}
