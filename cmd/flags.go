package cmd

import (
	"fmt"

	"github.com/samuelfneumann/gas/agent/lodq"
	"github.com/samuelfneumann/gas/environment/envconfig"
	"github.com/samuelfneumann/gas/experiment"
	"github.com/spf13/pflag"
)

// configFlags binds the experiment configuration to a flag set. Flags
// hold their values in src, and only the flags set on the command line
// are copied into the configuration loaded from file.
type configFlags struct {
	src       experiment.Config
	overrides map[string]func(dst *experiment.Config)

	env           string
	onlyTrainLast bool
}

// bind registers a flag for the field of the configuration returned by
// field
func bind[T int | uint64 | float64 | bool | string](f *configFlags,
	fs *pflag.FlagSet, name, usage string,
	field func(c *experiment.Config) *T) {
	p := field(&f.src)
	switch p := any(p).(type) {
	case *int:
		fs.IntVar(p, name, *p, usage)
	case *uint64:
		fs.Uint64Var(p, name, *p, usage)
	case *float64:
		fs.Float64Var(p, name, *p, usage)
	case *bool:
		fs.BoolVar(p, name, *p, usage)
	case *string:
		fs.StringVar(p, name, *p, usage)
	}
	f.overrides[name] = func(dst *experiment.Config) {
		*field(dst) = *field(&f.src)
	}
}

// newConfigFlags registers the flags of every configuration option
// with fs
func newConfigFlags(fs *pflag.FlagSet) *configFlags {
	f := &configFlags{
		src:       experiment.Default(),
		overrides: make(map[string]func(*experiment.Config)),
	}
	type C = experiment.Config

	fs.StringVar(&f.env, "env", string(f.src.Env.Name),
		"environment (Acrobot, MountainCar, Pendulum)")
	f.overrides["env"] = func(dst *C) { dst.Env.Name = envconfig.EnvName(f.env) }
	bind(f, fs, "episode-cutoff", "maximum steps per episode",
		func(c *C) *int { return &c.Env.EpisodeCutoff })

	// Agent
	bind(f, fs, "batch-size", "transitions per update",
		func(c *C) *int { return &c.Agent.BatchSize })
	bind(f, fs, "buffer-size", "replay buffer capacity",
		func(c *C) *int { return &c.Agent.Replay.Capacity })
	bind(f, fs, "alpha", "prioritization exponent of replay sampling",
		func(c *C) *float64 { return &c.Agent.Replay.Alpha })
	bind(f, fs, "double-q", "select bootstrap actions with the learned network",
		func(c *C) *bool { return &c.Agent.DoubleQ })
	bind(f, fs, "gamma", "discount factor",
		func(c *C) *float64 { return &c.Agent.Gamma })
	bind(f, fs, "n-levels", "number of action levels of detail",
		func(c *C) *int { return &c.Agent.Network.Levels })
	bind(f, fs, "separate-models", "give each level its own encoder",
		func(c *C) *bool { return &c.Agent.Network.SeparateModels })
	bind(f, fs, "separate-heads", "make level values independent",
		func(c *C) *bool { return &c.Agent.Network.SeparateHeads })
	bind(f, fs, "max-targets", "fold targets into a maximum over levels",
		func(c *C) *bool { return &c.Agent.Loss.MaxTargets })
	bind(f, fs, "temporal-consistency", "add the temporal consistency loss",
		func(c *C) *bool { return &c.Agent.Loss.TemporalConsistency })
	bind(f, fs, "delta-reg-coef", "L2 penalty on level deltas",
		func(c *C) *float64 { return &c.Agent.Loss.DeltaRegCoef })
	bind(f, fs, "lr", "learning rate",
		func(c *C) *float64 { return &c.Agent.Solver.StepSize })
	bind(f, fs, "lr-decay", "decay the learning rate over the run",
		func(c *C) *bool { return &c.Agent.LRDecay })
	bind(f, fs, "lod-in-state", "append the level of detail to states",
		func(c *C) *bool { return &c.Agent.LODInState })
	fs.BoolVar(&f.onlyTrainLast, "only-train-last", false,
		"train only the finest level on every transition")
	f.overrides["only-train-last"] = func(dst *C) {
		dst.Agent.Loss.Mode = lodq.PerLevelMasked
		if f.onlyTrainLast {
			dst.Agent.Loss.Mode = lodq.OnlyTrainLast
		}
	}

	// Curriculum
	bind(f, fs, "eps-start", "initial exploration rate",
		func(c *C) *float64 { return &c.Epsilon.Start })
	bind(f, fs, "eps-final", "final exploration rate",
		func(c *C) *float64 { return &c.Epsilon.Final })
	bind(f, fs, "eps-decay", "frames over which exploration decays",
		func(c *C) *int { return &c.Epsilon.Decay })
	bind(f, fs, "eps-lead-in", "frames before exploration decays",
		func(c *C) *int { return &c.Epsilon.LeadIn })
	bind(f, fs, "lod-lead-in", "frames at the coarsest level",
		func(c *C) *int { return &c.LOD.LeadIn })
	bind(f, fs, "lod-plateau", "frames at each level after it is reached",
		func(c *C) *int { return &c.LOD.Plateau })
	bind(f, fs, "lod-growth", "frames to grow into the next level",
		func(c *C) *int { return &c.LOD.Growth })

	// Loop
	bind(f, fs, "num-frames", "frames per run",
		func(c *C) *int { return &c.Frames })
	bind(f, fs, "frameskip", "frames each action is repeated for",
		func(c *C) *int { return &c.FrameSkip })
	bind(f, fs, "train-every", "frames between updates",
		func(c *C) *int { return &c.TrainEvery })
	bind(f, fs, "target-update-interval", "frames between target syncs",
		func(c *C) *int { return &c.TargetUpdateInterval })
	bind(f, fs, "learning-starts", "transitions stored before updates",
		func(c *C) *int { return &c.LearningStarts })
	bind(f, fs, "require-goal", "hold training until the goal is found",
		func(c *C) *bool { return &c.RequireGoal })
	bind(f, fs, "eval", "periodically evaluate the greedy policy",
		func(c *C) *bool { return &c.Eval.Enabled })
	bind(f, fs, "eval-every", "frames between evaluations",
		func(c *C) *int { return &c.Eval.Every })
	bind(f, fs, "eval-episodes", "episodes per evaluation",
		func(c *C) *int { return &c.Eval.Episodes })
	bind(f, fs, "log-every", "frames between status lines",
		func(c *C) *int { return &c.LogEvery })

	// Output
	bind(f, fs, "n-repeats", "independent runs",
		func(c *C) *int { return &c.Repeats })
	bind(f, fs, "seed", "seed of the first run",
		func(c *C) *uint64 { return &c.Seed })
	bind(f, fs, "prefix", "prefix of the per-run JSON files",
		func(c *C) *string { return &c.Prefix })
	bind(f, fs, "sqlite", "SQLite database that runs are also saved to",
		func(c *C) *string { return &c.SQLite })

	return f
}

// resolve returns the configuration read from the file at path, or the
// default configuration if path is empty, with the flags set in fs
// applied on top
func (f *configFlags) resolve(fs *pflag.FlagSet,
	path string) (experiment.Config, error) {
	c := experiment.Default()
	if path != "" {
		var err error
		if c, err = experiment.Load(path); err != nil {
			return experiment.Config{}, fmt.Errorf("resolve: %w", err)
		}
	}

	fs.Visit(func(flag *pflag.Flag) {
		if override, ok := f.overrides[flag.Name]; ok {
			override(&c)
		}
	})

	if err := c.Validate(); err != nil {
		return experiment.Config{}, fmt.Errorf("resolve: %w", err)
	}
	return c, nil
}
