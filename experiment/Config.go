package experiment

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samuelfneumann/gas/agent/lodq"
	"github.com/samuelfneumann/gas/environment/envconfig"
	"github.com/samuelfneumann/gas/schedule"
	"gopkg.in/yaml.v3"
)

// EvalConfig configures the periodic greedy evaluation of the agent
type EvalConfig struct {
	Enabled  bool `yaml:"enabled"`
	Every    int  `yaml:"every"`
	Episodes int  `yaml:"episodes"`
}

// Config represents a configuration of an experiment. The number of
// levels of detail is set by Agent.Network.Levels and is shared with
// the LOD schedule.
type Config struct {
	Env     envconfig.Config `yaml:"env"`
	Agent   lodq.Config      `yaml:"agent"`
	Epsilon schedule.Epsilon `yaml:"epsilon"`
	LOD     schedule.LOD     `yaml:"lod"`

	// Frames is the number of environment frames of each run
	Frames               int `yaml:"frames"`
	FrameSkip            int `yaml:"frame_skip"`
	TrainEvery           int `yaml:"train_every"`
	TargetUpdateInterval int `yaml:"target_update_interval"`
	LearningStarts       int `yaml:"learning_starts"`

	// RequireGoal holds the frame counter and training until the summed
	// reward of a frame first reaches GoalReward. A run that never
	// reaches the goal does not end.
	RequireGoal bool    `yaml:"require_goal"`
	GoalReward  float64 `yaml:"goal_reward"`

	Eval        EvalConfig `yaml:"eval"`
	LogEvery    int        `yaml:"log_every"`
	ForceWindow int        `yaml:"force_window"`

	Repeats int    `yaml:"repeats"`
	Seed    uint64 `yaml:"seed"`
	Prefix  string `yaml:"prefix"`
	SQLite  string `yaml:"sqlite,omitempty"`

	Logger *slog.Logger `yaml:"-"`
}

// Default returns the default configuration of an experiment
func Default() Config {
	agentConfig := lodq.DefaultConfig(1)
	agentConfig.Replay.Capacity = 10000
	agentConfig.Gamma = 0.998

	return Config{
		Env:   envconfig.Config{Name: envconfig.Acrobot, EpisodeCutoff: 500},
		Agent: agentConfig,
		Epsilon: schedule.Epsilon{
			Start: 1.0,
			Final: 0.1,
			Decay: 25000,
		},
		LOD: schedule.LOD{
			LeadIn:  25000,
			Plateau: 25000,
			Growth:  25000,
		},
		Frames:               200000,
		FrameSkip:            1,
		TrainEvery:           4,
		TargetUpdateInterval: 200,
		LearningStarts:       1000,
		GoalReward:           0.5,
		Eval:                 EvalConfig{Enabled: true, Every: 2000, Episodes: 50},
		LogEvery:             1000,
		ForceWindow:          500,
		Repeats:              5,
		Prefix:               "results/experimental/test",
	}
}

// Load reads a YAML configuration file at path. Fields missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: %s: %w", path, err)
	}
	return c, nil
}

// YAML returns the YAML encoding of the resolved configuration
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Resolve())
}

// Resolve fills in the fields that are derived from other fields
func (c Config) Resolve() Config {
	c.LOD.Levels = c.Agent.Network.Levels
	c.LOD.Fixed = c.Agent.Loss.Mode == lodq.OnlyTrainLast
	c.Agent.Horizon = c.Frames
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Validate returns an error if the Config cannot describe an
// experiment
func (c Config) Validate() error {
	c = c.Resolve()

	if err := c.Env.Validate(); err != nil {
		return err
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	if err := c.Epsilon.Validate(); err != nil {
		return err
	}
	if err := c.LOD.Validate(); err != nil {
		return err
	}

	positive := map[string]int{
		"frames":                 c.Frames,
		"frame skip":             c.FrameSkip,
		"train every":            c.TrainEvery,
		"target update interval": c.TargetUpdateInterval,
		"log every":              c.LogEvery,
		"force window":           c.ForceWindow,
		"repeats":                c.Repeats,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("validate: %v must be > 0, have %v", name, v)
		}
	}
	if c.LearningStarts < 0 {
		return fmt.Errorf("validate: learning starts must be >= 0, have %v",
			c.LearningStarts)
	}
	if c.Eval.Enabled && (c.Eval.Every <= 0 || c.Eval.Episodes <= 0) {
		return fmt.Errorf("validate: evaluation every (%v) and episodes "+
			"(%v) must be > 0", c.Eval.Every, c.Eval.Episodes)
	}
	return nil
}
