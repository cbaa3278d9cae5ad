package experiment

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gas/agent"
	"github.com/samuelfneumann/gas/agent/lodq"
	env "github.com/samuelfneumann/gas/environment"
	"github.com/samuelfneumann/gas/experiment/savers"
	"github.com/samuelfneumann/gas/experiment/trackers"
	"github.com/samuelfneumann/gas/expreplay"
	"github.com/samuelfneumann/gas/lod"
	ts "github.com/samuelfneumann/gas/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Seed offsets of the components of a run. The agent seeds its replay
// buffer with the seed following its own.
const (
	agentSeedOffset = 1
	lodSeedOffset   = 3
	evalSeedOffset  = 1_000_003
)

// Online is an Experiment that trains an agent online on a single
// environment, periodically evaluating the greedy policy on a separate
// copy of the environment
type Online struct {
	config Config
	repeat int
	id     uuid.UUID

	env     env.Environment
	evalEnv env.Environment
	agent   agent.Closer
	replay  *expreplay.Prioritized
	codec   lod.Codec

	data *trackers.RunData
	rng  *rand.Rand
	log  *slog.Logger
}

// NewOnline creates a new online experiment for the run repeat of the
// configuration c. Every component of the run is constructed fresh and
// seeded from c.Seed + repeat, each with its own stream.
func NewOnline(c Config, repeat int) (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}
	seed := c.Seed + uint64(repeat)

	e, err := c.Env.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}
	evalEnv, err := c.Env.Create(seed + evalSeedOffset)
	if err != nil {
		return nil, fmt.Errorf("newOnline: evaluation environment: %w", err)
	}
	return newOnline(c, repeat, e, evalEnv)
}

// newOnline creates the run repeat of c, training on e and evaluating
// on evalEnv
func newOnline(c Config, repeat int, e, evalEnv env.Environment) (*Online,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}
	c = c.Resolve()
	seed := c.Seed + uint64(repeat)

	actionSpec := e.ActionSpec()
	if actionSpec.Shape.Len() != 1 {
		return nil, fmt.Errorf("newOnline: environment %v has %v action "+
			"dimensions, need 1", c.Env.Name, actionSpec.Shape.Len())
	}
	codec, err := lod.NewCodec(c.Agent.Network.Levels, actionSpec.Bounds(0))
	if err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}

	features := e.ObservationSpec().Shape.Len()
	if c.Agent.LODInState {
		features++
	}
	learner, err := lodq.New(c.Agent, features, seed+agentSeedOffset)
	if err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}

	id := uuid.New()
	return &Online{
		config:  c,
		repeat:  repeat,
		id:      id,
		env:     e,
		evalEnv: evalEnv,
		agent:   learner,
		replay:  learner.Replay(),
		codec:   codec,
		data:    trackers.NewRunData(),
		rng:     rand.New(rand.NewSource(seed + lodSeedOffset)),
		log: c.Logger.With(
			slog.String("run", id.String()),
			slog.Int("repeat", repeat),
		),
	}, nil
}

// Meta returns the description of the run used when saving its data
func (o *Online) Meta() savers.Meta {
	return savers.Meta{
		RunID:  o.id,
		Repeat: o.repeat,
		Env:    string(o.config.Env.Name),
		Config: o.config,
	}
}

// Replay returns the replay buffer of the agent being trained
func (o *Online) Replay() *expreplay.Prioritized {
	return o.replay
}

// Close releases the resources held by the agent
func (o *Online) Close() error {
	return o.agent.Close()
}

// Run runs the experiment for the configured number of frames and
// returns the data recorded along the way. Any error aborts the run.
func (o *Online) Run() (*trackers.RunData, error) {
	c := o.config
	o.log.Info("starting run", slog.String("env", string(c.Env.Name)),
		slog.Int("frames", c.Frames), slog.Int("levels", o.codec.Levels))

	frame := 1
	foundGoal := !c.RequireGoal
	level, plod := c.LOD.Sample(frame, o.rng)

	step, err := o.env.Reset()
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	state := o.observe(step, plod)
	returns := trackers.NewReturn()
	actions := make([]float64, 0, c.Frames)

	for frame < c.Frames {
		if foundGoal {
			frame++
		}
		epsilon := c.Epsilon.At(frame)
		o.data.Add(trackers.LOD, frame, float64(level))

		action, err := o.agent.Act(state, epsilon, level)
		if err != nil {
			return nil, fmt.Errorf("run: frame %v: %w", frame, err)
		}
		control, err := o.codec.Encode(action, level)
		if err != nil {
			return nil, fmt.Errorf("run: frame %v: %w", frame, err)
		}
		actions = append(actions, control)

		var reward float64
		var last bool
		for i := 0; i < c.FrameSkip; i++ {
			step, last, err = o.env.Step(mat.NewVecDense(1, []float64{control}))
			if err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}
			if err := returns.Track(step); err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}

			reward += step.Reward
			if !foundGoal && reward >= c.GoalReward {
				foundGoal = true
				o.log.Info("found goal", slog.Int("frame", frame))
			}
			if last {
				break
			}
		}

		nextState := o.observe(step, plod)
		err = o.agent.Observe(expreplay.Transition{
			State:     state,
			Action:    action,
			LOD:       level,
			Reward:    reward,
			NextState: nextState,
			Done:      step.Terminal(),
		})
		if err != nil {
			return nil, fmt.Errorf("run: frame %v: %w", frame, err)
		}
		state = nextState

		if last {
			if step, err = o.env.Reset(); err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}
			state = o.observe(step, plod)
			level, plod = c.LOD.Sample(frame, o.rng)

			o.data.Add(trackers.Returns, frame, returns.Last())
			o.data.Add(trackers.FoundGoal, frame, indicator(reward > 0))
		}

		if o.agent.Stored() > c.LearningStarts && foundGoal &&
			frame%c.TrainEvery == 0 {
			stats, err := o.agent.Step()
			if err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}
			o.data.Add(trackers.Loss, frame, stats.Loss)
			o.data.Add(trackers.RegLoss, frame, stats.RegLoss)
			o.data.Add(trackers.Value, frame, stats.Value)
		}

		if frame%c.TargetUpdateInterval == 0 {
			if err := o.agent.SyncTarget(); err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}
		}

		if c.Eval.Enabled && frame%c.Eval.Every == 0 {
			evalReturns, err := o.Evaluate(c.Eval.Episodes)
			if err != nil {
				return nil, fmt.Errorf("run: frame %v: %w", frame, err)
			}
			o.data.AddEval(frame, evalReturns)
		}

		if frame%c.LogEvery == 0 {
			o.data.Add(trackers.Force, frame, meanAbs(actions, c.ForceWindow))
			o.status(frame, epsilon)
		}
	}

	o.log.Info("finished run", slog.Int("episodes",
		len(o.data.Series(trackers.Returns))))
	return o.data, nil
}

// Evaluate runs episodes greedy episodes at the finest level of detail
// on the evaluation environment and returns their returns. Nothing is
// stored or learned during evaluation.
func (o *Online) Evaluate(episodes int) ([]float64, error) {
	finest := o.codec.Finest()
	returns := trackers.NewReturn()

	for len(returns.Returns()) < episodes {
		step, err := o.evalEnv.Reset()
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}

		for !step.Last() {
			state := o.observe(step, float64(finest))
			action, err := o.agent.Act(state, 0, finest)
			if err != nil {
				return nil, fmt.Errorf("evaluate: %w", err)
			}
			control, err := o.codec.Encode(action, finest)
			if err != nil {
				return nil, fmt.Errorf("evaluate: %w", err)
			}

			step, _, err = o.evalEnv.Step(mat.NewVecDense(1,
				[]float64{control}))
			if err != nil {
				return nil, fmt.Errorf("evaluate: %w", err)
			}
			if err := returns.Track(step); err != nil {
				return nil, fmt.Errorf("evaluate: %w", err)
			}
		}
	}
	return returns.Returns(), nil
}

// observe returns the observation of step as the state seen by the
// agent, with the fractional level of detail plod appended if
// configured
func (o *Online) observe(step ts.TimeStep, plod float64) []float64 {
	obs := step.Observation.RawVector().Data
	state := make([]float64, len(obs), len(obs)+1)
	copy(state, obs)
	if o.config.Agent.LODInState {
		state = append(state, plod)
	}
	return state
}

// status logs a summary of the recent progress of the run
func (o *Online) status(frame int, epsilon float64) {
	evalMean, evalMax := o.data.LastEval()
	o.log.Info("status",
		slog.Int("frame", frame),
		slog.Float64("return", o.data.Mean(trackers.Returns, 10)),
		slog.Float64("return_max", o.data.Max(trackers.Returns)),
		slog.Float64("eval_return", evalMean),
		slog.Float64("eval_return_max", evalMax),
		slog.Float64("goal_found", o.data.Mean(trackers.FoundGoal, 10)),
		slog.Float64("epsilon", epsilon),
		slog.Float64("q", o.data.Mean(trackers.Value, 100)),
		slog.Float64("loss", o.data.Mean(trackers.Loss, 100)),
		slog.Float64("reg_loss", o.data.Mean(trackers.RegLoss, 100)),
		slog.Float64("force", o.data.Mean(trackers.Force, 1)),
		slog.Float64("lod", o.data.Mean(trackers.LOD, 100)),
	)
}

// meanAbs returns the mean absolute value of the last n values of x
func meanAbs(x []float64, n int) float64 {
	if len(x) > n {
		x = x[len(x)-n:]
	}
	if len(x) == 0 {
		return math.NaN()
	}
	abs := make([]float64, len(x))
	for i := range x {
		abs[i] = math.Abs(x[i])
	}
	return floats.Sum(abs) / float64(len(abs))
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
