// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and sparse tasks.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/gas/environment"
	"github.com/samuelfneumann/gas/environment/classiccontrol/acrobot"
	"github.com/samuelfneumann/gas/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/gas/environment/classiccontrol/pendulum"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Acrobot     EnvName = "Acrobot"
	MountainCar EnvName = "MountainCar"
	Pendulum    EnvName = "Pendulum"
)

// Config implements a specific configuration of a specific environment
type Config struct {
	Name          EnvName `yaml:"name"`
	EpisodeCutoff int     `yaml:"episode_cutoff"`
	Discount      float64 `yaml:"-"`
}

// Validate returns an error if the Config does not describe an
// environment
func (c Config) Validate() error {
	switch c.Name {
	case Acrobot, MountainCar, Pendulum:
	default:
		return fmt.Errorf("validate: no such environment %q", c.Name)
	}
	if c.EpisodeCutoff <= 0 {
		return fmt.Errorf("validate: episode cutoff must be > 0, have %v",
			c.EpisodeCutoff)
	}
	return nil
}

// Create returns the environment described by the Config, with starting
// states sampled using seed
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	discount := c.Discount
	if discount == 0 {
		discount = 1.0
	}

	switch c.Name {
	case Acrobot:
		return CreateAcrobot(c.EpisodeCutoff, seed, discount)
	case Pendulum:
		return CreatePendulum(c.EpisodeCutoff, seed, discount)
	default:
		return CreateMountainCar(c.EpisodeCutoff, seed, discount)
	}
}

// CreateMountainCar is a factory for creating the MountainCar
// environment with default physical parameters and a sparse goal task
func CreateMountainCar(cutoff int, seed uint64,
	discount float64) (env.Environment, error) {
	s := env.NewUniformStarter(mountaincar.StartBounds(), seed)
	task := mountaincar.NewSparseGoal(s, cutoff, mountaincar.GoalPosition)

	m, _, err := mountaincar.NewContinuous(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createMountainCar: %v", err)
	}
	return m, nil
}

// CreateAcrobot is a factory for creating the Acrobot environment with
// default physical parameters and a sparse swing up task
func CreateAcrobot(cutoff int, seed uint64,
	discount float64) (env.Environment, error) {
	s := env.NewUniformStarter(acrobot.StartBounds(), seed)
	task := acrobot.NewSparseSwingUp(s, cutoff, acrobot.GoalHeight)

	a, _, err := acrobot.NewContinuous(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createAcrobot: %v", err)
	}
	return a, nil
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and a sparse swing up task
func CreatePendulum(cutoff int, seed uint64,
	discount float64) (env.Environment, error) {
	s := env.NewUniformStarter(pendulum.StartBounds(), seed)
	task := pendulum.NewSparseSwingUp(s, cutoff, pendulum.GoalAngle)

	p, _, err := pendulum.NewContinuous(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createPendulum: %v", err)
	}
	return p, nil
}
