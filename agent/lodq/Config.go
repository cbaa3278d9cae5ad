package lodq

import (
	"fmt"

	"github.com/samuelfneumann/gas/expreplay"
	"github.com/samuelfneumann/gas/network"
	"github.com/samuelfneumann/gas/solver"
)

// Mode determines which levels of detail contribute to the loss
type Mode string

const (
	// PerLevelMasked trains every level i on the transitions recorded at
	// a level of detail <= i
	PerLevelMasked Mode = "per_level_masked"

	// OnlyTrainLast trains only the finest level, on every transition
	OnlyTrainLast Mode = "only_train_last"
)

// DefaultSkipThreshold is the number of eligible transitions a level
// must exceed to be trained on a batch
const DefaultSkipThreshold = 32

// LossPolicy describes how the per-level losses are combined. It is
// evaluated once per update.
type LossPolicy struct {
	Mode Mode `yaml:"mode"`

	// MaxTargets folds each level's target into a running maximum over
	// coarser levels. Only used with PerLevelMasked.
	MaxTargets bool `yaml:"max_targets"`

	// TemporalConsistency penalizes the difference between the learned
	// network's maximal value in the next state and the bootstrap value
	TemporalConsistency bool `yaml:"temporal_consistency"`

	// DeltaRegCoef scales an L2 penalty on each level's delta
	DeltaRegCoef float64 `yaml:"delta_reg_coef"`

	// SkipThreshold is the number of eligible transitions that a level
	// must exceed to contribute to the loss of a batch
	SkipThreshold int `yaml:"skip_threshold"`
}

// Validate returns an error if the LossPolicy is malformed
func (l LossPolicy) Validate() error {
	switch l.Mode {
	case PerLevelMasked, OnlyTrainLast:
	default:
		return fmt.Errorf("validate: unknown loss mode %q", l.Mode)
	}
	if l.DeltaRegCoef < 0 {
		return fmt.Errorf("validate: delta regularization coefficient "+
			"must be >= 0, have %v", l.DeltaRegCoef)
	}
	if l.SkipThreshold < 0 {
		return fmt.Errorf("validate: skip threshold must be >= 0, have %v",
			l.SkipThreshold)
	}
	return nil
}

// Config implements a configuration for a LODQ agent
type Config struct {
	Network network.Config   `yaml:"network"`
	Replay  expreplay.Config `yaml:"replay"`

	BatchSize int        `yaml:"batch_size"`
	Gamma     float64    `yaml:"gamma"`
	DoubleQ   bool       `yaml:"double_q"`
	Loss      LossPolicy `yaml:"loss"`

	Solver   solver.Config `yaml:"solver"`
	GradClip float64       `yaml:"grad_clip"`

	// LRDecay multiplies the learning rate by 1 - 1/Horizon before each
	// update
	LRDecay bool `yaml:"lr_decay"`
	Horizon int  `yaml:"-"`

	// TargetTau is the Polyak averaging constant of target updates. A
	// value of 1 copies the learned weights.
	TargetTau float64 `yaml:"target_tau"`

	// LODInState appends the fractional level of detail to each state
	LODInState bool `yaml:"lod_in_state"`
}

// DefaultConfig returns the default configuration of an agent over
// levels levels of detail
func DefaultConfig(levels int) Config {
	return Config{
		Network:   network.DefaultConfig(levels),
		Replay:    expreplay.Config{Capacity: 100000},
		BatchSize: 128,
		Gamma:     0.99,
		DoubleQ:   true,
		Loss: LossPolicy{
			Mode:          PerLevelMasked,
			SkipThreshold: DefaultSkipThreshold,
		},
		Solver:    solver.NewAdam(5e-4, 1e-4, 0.9, 0.999),
		GradClip:  10,
		TargetTau: 1.0,
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// LODQ agent.
func (c Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if err := c.Replay.Validate(); err != nil {
		return err
	}
	if err := c.Loss.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be > 0, have %v",
			c.BatchSize)
	}
	if c.BatchSize > c.Replay.Capacity {
		return fmt.Errorf("validate: batch size (%v) exceeds replay "+
			"capacity (%v)", c.BatchSize, c.Replay.Capacity)
	}
	if c.Loss.Mode == PerLevelMasked && c.BatchSize <= c.Loss.SkipThreshold {
		return fmt.Errorf("validate: batch size (%v) must exceed the skip "+
			"threshold (%v) or every level is skipped", c.BatchSize,
			c.Loss.SkipThreshold)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1], have %v",
			c.Gamma)
	}
	if c.GradClip <= 0 {
		return fmt.Errorf("validate: gradient clip must be > 0, have %v",
			c.GradClip)
	}
	if c.LRDecay && c.Horizon <= 0 {
		return fmt.Errorf("validate: learning rate decay needs a positive "+
			"horizon, have %v", c.Horizon)
	}
	if c.TargetTau <= 0 || c.TargetTau > 1 {
		return fmt.Errorf("validate: target tau must be in (0, 1], have %v",
			c.TargetTau)
	}
	return nil
}
