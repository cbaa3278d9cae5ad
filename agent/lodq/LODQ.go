// Package lodq implements Q-learning over a hierarchy of action
// discretizations. Each level of detail doubles the number of actions
// of the level before it, and the agent learns the action values of
// every level at once.
package lodq

import (
	"fmt"
	"math"
	"strconv"

	"github.com/samuelfneumann/gas/agent"
	"github.com/samuelfneumann/gas/expreplay"
	"github.com/samuelfneumann/gas/lod"
	"github.com/samuelfneumann/gas/network"
	"github.com/samuelfneumann/gas/solver"
	"github.com/samuelfneumann/gas/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// LODQ owns every mutable component of training: the replay buffer,
// the networks with their VMs, and the solver.
//
// Four copies of the value function are kept, each in its own graph:
// the behaviour net selects actions for single states, the train net
// learns from batches, the target net provides bootstrap values, and
// the select net evaluates the learned weights on next states to choose
// the bootstrap action for double Q-learning.
type LODQ struct {
	config   Config
	levels   int
	features int

	behaviourNet *network.HierarchicalMLP
	behaviourVM  G.VM

	trainNet *network.HierarchicalMLP
	trainVM  G.VM
	solver   *solver.Decayed

	targetNet *network.HierarchicalMLP
	targetVM  G.VM

	// selectNet is nil unless double Q-learning or temporal consistency
	// is used
	selectNet *network.HierarchicalMLP
	selectVM  G.VM

	// Input nodes of the train graph
	selectedActions *G.Node   // One-hot finest-level actions
	targets         []*G.Node // Per-level update targets
	weights         []*G.Node // Per-level loss weight of each transition
	nextInput       *G.Node   // Next states, for temporal consistency
	nextActions     []*G.Node // One-hot greedy next-state actions
	nextValues      []*G.Node // Per-level bootstrap values
	nextWeights     []*G.Node // Per-level consistency weights

	lossVal   G.Value
	regVal    G.Value
	takenVals []G.Value

	replay *expreplay.Prioritized
	rng    *rand.Rand
}

// replaySeedOffset offsets the seed of the replay buffer from the seed
// of the agent's exploration
const replaySeedOffset = 1

// New creates and returns a new LODQ agent for states of features
// features. Exploration is seeded with seed and replay sampling with
// seed+1.
func New(c Config, features int, seed uint64) (*LODQ, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	replay, err := expreplay.New(c.Replay, features, seed+replaySeedOffset)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %w", err)
	}

	s, err := c.Solver.Create()
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	// Behaviour network for selecting actions
	behaviourNet, err := network.NewHierarchicalMLP(features, 1,
		G.NewGraph(), c.Network)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour net: %w", err)
	}

	// Create a training network which learns the weights
	trainNet, err := behaviourNet.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning net: %w", err)
	}

	// Create the target network which provides the update target
	targetNet, err := behaviourNet.CloneWithBatch(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target net: %w", err)
	}

	l := &LODQ{
		config:       c,
		levels:       c.Network.Levels,
		features:     features,
		behaviourNet: behaviourNet,
		behaviourVM:  G.NewTapeMachine(behaviourNet.Graph()),
		trainNet:     trainNet,
		solver:       solver.NewDecayed(s),
		targetNet:    targetNet,
		targetVM:     G.NewTapeMachine(targetNet.Graph()),
		replay:       replay,
		rng:          rand.New(rand.NewSource(seed)),
	}

	if c.DoubleQ || c.Loss.TemporalConsistency {
		l.selectNet, err = behaviourNet.CloneWithBatch(c.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("new: could not create select net: %w",
				err)
		}
		l.selectVM = G.NewTapeMachine(l.selectNet.Graph())
	}

	if err := l.buildLoss(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	// Compile the trainNet graph into a VM
	l.trainVM = G.NewTapeMachine(
		trainNet.Graph(),
		G.BindDualValues(trainNet.Learnables()...),
	)
	return l, nil
}

// buildLoss adds the loss and its gradient to the graph of the train
// net. Every level's prediction of the selected action is part of the
// loss, weighted by an input node so that the loss policy is applied
// with the values fed in on each update.
func (l *LODQ) buildLoss() error {
	g := l.trainNet.Graph()
	batch := l.config.BatchSize
	finest := l.levels - 1

	vector := func(name string) *G.Node {
		return G.NewVector(g, tensor.Float64, G.WithShape(batch),
			G.WithName(name), G.WithInit(G.Zeroes()))
	}

	// Action selected in the previous state, at the finest level
	l.selectedActions = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batch, lod.NumActions(finest)),
		G.WithInit(G.Zeroes()),
	)

	l.targets = make([]*G.Node, l.levels)
	l.weights = make([]*G.Node, l.levels)
	l.takenVals = make([]G.Value, l.levels)

	var loss *G.Node
	for i, total := range l.trainNet.Prediction() {
		level := strconv.Itoa(i)
		l.targets[i] = vector("target" + level)
		l.weights[i] = vector("weight" + level)

		expanded := total
		if i < finest {
			expanded = G.Must(G.Mul(total, network.ExpansionNode(g, i, finest)))
		}
		taken := G.Must(G.HadamardProd(expanded, l.selectedActions))
		taken = G.Must(G.Sum(taken, 1))
		G.Read(taken, &l.takenVals[i])

		term, err := weightedSmoothL1(taken, l.targets[i], l.weights[i])
		if err != nil {
			return fmt.Errorf("buildLoss: level %v: %v", i, err)
		}
		loss = add(loss, term)
	}

	if l.config.Loss.TemporalConsistency {
		if err := l.buildConsistency(&loss, vector); err != nil {
			return fmt.Errorf("buildLoss: %v", err)
		}
	}
	G.Read(loss, &l.lossVal)

	cost := loss
	deltas := l.trainNet.Deltas()
	if coef := l.config.Loss.DeltaRegCoef; coef > 0 && len(deltas) > 0 {
		var reg *G.Node
		for _, delta := range deltas {
			term := G.Must(G.Mean(G.Must(G.Square(delta))))
			reg = add(reg, term)
		}
		reg = G.Must(G.Mul(reg, G.NewConstant(coef)))
		G.Read(reg, &l.regVal)
		cost = G.Must(G.Add(cost, reg))
	}

	if _, err := G.Grad(cost, l.trainNet.Learnables()...); err != nil {
		return fmt.Errorf("buildLoss: could not compute gradient: %v", err)
	}
	return nil
}

// buildConsistency adds the temporal consistency terms to loss. The
// learned weights are evaluated on the next states, and the value of
// their greedy action is regressed toward the bootstrap value.
func (l *LODQ) buildConsistency(loss **G.Node,
	vector func(string) *G.Node) error {
	g := l.trainNet.Graph()
	batch := l.config.BatchSize

	l.nextInput = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, l.features), G.WithName("nextInput"),
		G.WithInit(G.Zeroes()))
	nextTotals, _, err := l.trainNet.Forward(l.nextInput)
	if err != nil {
		return fmt.Errorf("buildConsistency: %v", err)
	}

	l.nextActions = make([]*G.Node, l.levels)
	l.nextValues = make([]*G.Node, l.levels)
	l.nextWeights = make([]*G.Node, l.levels)
	for i, total := range nextTotals {
		level := strconv.Itoa(i)
		l.nextActions[i] = G.NewMatrix(g, tensor.Float64,
			G.WithShape(batch, lod.NumActions(i)),
			G.WithName("nextAction"+level), G.WithInit(G.Zeroes()))
		l.nextValues[i] = vector("nextValue" + level)
		l.nextWeights[i] = vector("nextWeight" + level)

		// The greedy action is fed in, so this is the maximal value
		greedy := G.Must(G.HadamardProd(total, l.nextActions[i]))
		greedy = G.Must(G.Sum(greedy, 1))

		term, err := weightedSmoothL1(greedy, l.nextValues[i],
			l.nextWeights[i])
		if err != nil {
			return fmt.Errorf("buildConsistency: level %v: %v", i, err)
		}
		*loss = add(*loss, term)
	}
	return nil
}

// weightedSmoothL1 returns Σ SmoothL1(pred - target) ⊙ weights
func weightedSmoothL1(pred, target, weights *G.Node) (*G.Node, error) {
	diff, err := G.Sub(pred, target)
	if err != nil {
		return nil, err
	}
	losses, err := op.SmoothL1(diff)
	if err != nil {
		return nil, err
	}
	losses, err = G.HadamardProd(losses, weights)
	if err != nil {
		return nil, err
	}
	return G.Sum(losses)
}

// add returns a + b, treating a nil a as zero
func add(a, b *G.Node) *G.Node {
	if a == nil {
		return b
	}
	return G.Must(G.Add(a, b))
}

// Act selects an action at level given state. With probability epsilon
// the action is uniform random. Otherwise it is the first action of
// maximal value.
func (l *LODQ) Act(state []float64, epsilon float64, level int) (int, error) {
	if level < 0 || level >= l.levels {
		return 0, fmt.Errorf("act: level %v ∉ [0, %v)", level, l.levels)
	}

	if l.rng.Float64() < epsilon {
		return l.rng.Intn(lod.NumActions(level)), nil
	}

	if err := l.behaviourNet.SetInput(state); err != nil {
		return 0, fmt.Errorf("act: %v", err)
	}
	if err := l.behaviourVM.RunAll(); err != nil {
		return 0, fmt.Errorf("act: %v", err)
	}
	values, err := l.behaviourNet.Values(level)
	l.behaviourVM.Reset()
	if err != nil {
		return 0, fmt.Errorf("act: %v", err)
	}
	return floats.MaxIdx(values[0]), nil
}

// Observe records a transition in the replay buffer
func (l *LODQ) Observe(t expreplay.Transition) error {
	if t.LOD < 0 || t.LOD >= l.levels {
		return fmt.Errorf("observe: level %v ∉ [0, %v)", t.LOD, l.levels)
	}
	if t.Action < 0 || t.Action >= lod.NumActions(t.LOD) {
		return fmt.Errorf("observe: action %v ∉ [0, %v)", t.Action,
			lod.NumActions(t.LOD))
	}
	return l.replay.Push(t)
}

// Stored returns the number of transitions in the replay buffer
func (l *LODQ) Stored() int {
	return l.replay.Len()
}

// Replay returns the replay buffer of the agent
func (l *LODQ) Replay() *expreplay.Prioritized {
	return l.replay
}

// LearningRateScale returns the factor that the learning rate has been
// decayed by
func (l *LODQ) LearningRateScale() float64 {
	return l.solver.Scale()
}

// update holds the values computed for a batch before the train graph
// is run
type update struct {
	batch      expreplay.Batch
	targets    [][]float64
	masks      [][]float64
	normalizer float64
}

// Step samples a batch from the replay buffer and performs a single
// update to the learned weights
func (l *LODQ) Step() (agent.Stats, error) {
	batch, err := l.replay.Sample(l.config.BatchSize)
	if err != nil {
		return agent.Stats{}, fmt.Errorf("step: %w", err)
	}

	u, err := l.forwardBackward(batch)
	if err != nil {
		return agent.Stats{}, fmt.Errorf("step: %w", err)
	}

	model := l.trainNet.Model()
	if _, err := solver.ClipNorm(model, l.config.GradClip); err != nil {
		l.trainVM.Reset()
		return agent.Stats{}, fmt.Errorf("step: %v", err)
	}
	if l.config.LRDecay {
		l.solver.Decay(1 - 1/float64(l.config.Horizon))
	}
	if err := l.solver.Step(model); err != nil {
		l.trainVM.Reset()
		return agent.Stats{}, fmt.Errorf("step: %v", err)
	}
	if err := solver.ZeroGrad(model); err != nil {
		l.trainVM.Reset()
		return agent.Stats{}, fmt.Errorf("step: %v", err)
	}

	stats, prios, err := l.readUpdate(u)
	l.trainVM.Reset()
	if err != nil {
		return agent.Stats{}, fmt.Errorf("step: %v", err)
	}

	if err := l.replay.UpdatePriorities(batch.Indices, prios); err != nil {
		return agent.Stats{}, fmt.Errorf("step: %w", err)
	}

	if err := l.behaviourNet.Set(l.trainNet); err != nil {
		return agent.Stats{}, fmt.Errorf("step: %v", err)
	}
	if l.selectNet != nil {
		if err := l.selectNet.Set(l.trainNet); err != nil {
			return agent.Stats{}, fmt.Errorf("step: %v", err)
		}
	}
	return stats, nil
}

// forwardBackward computes the update targets for batch, feeds them to
// the train graph, and runs the forward and backward passes. The train
// VM must be reset by the caller.
func (l *LODQ) forwardBackward(batch expreplay.Batch) (update, error) {
	u := update{batch: batch}
	finest := l.levels - 1
	size := batch.Size()

	// Predict the action values in the next states
	if err := l.targetNet.SetInput(batch.NextStates); err != nil {
		return u, fmt.Errorf("forwardBackward: %v", err)
	}
	if err := l.targetVM.RunAll(); err != nil {
		return u, fmt.Errorf("forwardBackward: %v", err)
	}
	defer l.targetVM.Reset()

	if l.selectNet != nil {
		if err := l.selectNet.SetInput(batch.NextStates); err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
		if err := l.selectVM.RunAll(); err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
		defer l.selectVM.Reset()
	}

	next := make([][]float64, l.levels)
	u.targets = make([][]float64, l.levels)
	for i := 0; i < l.levels; i++ {
		targetRows, err := l.targetNet.Values(i)
		if err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
		targetRows = ExpandRows(targetRows, i, finest)

		var selectRows [][]float64
		if l.config.DoubleQ {
			if selectRows, err = l.selectNet.Values(i); err != nil {
				return u, fmt.Errorf("forwardBackward: %v", err)
			}
			selectRows = ExpandRows(selectRows, i, finest)
		}

		next[i] = NextValues(targetRows, selectRows)
		u.targets[i] = Targets(batch.Rewards, batch.Dones, next[i],
			l.config.Gamma)
	}

	policy := l.config.Loss
	if policy.MaxTargets && policy.Mode == PerLevelMasked {
		u.targets = MaxFold(u.targets)
	}

	var err error
	u.masks, u.normalizer, err = LevelWeights(batch.LODs, l.levels, policy)
	if err != nil {
		return u, fmt.Errorf("forwardBackward: %w", err)
	}

	// Feed the train graph
	if err := l.trainNet.SetInput(batch.States); err != nil {
		return u, fmt.Errorf("forwardBackward: %v", err)
	}
	actions := ExpandActions(batch.Actions, batch.LODs, finest)
	err = letMatrix(l.selectedActions, oneHot(actions, lod.NumActions(finest)),
		size, lod.NumActions(finest))
	if err != nil {
		return u, fmt.Errorf("forwardBackward: %v", err)
	}
	for i := 0; i < l.levels; i++ {
		if err := letVector(l.targets[i], u.targets[i]); err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
		weights := scaled(u.masks[i], 1/u.normalizer)
		if err := letVector(l.weights[i], weights); err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
	}

	if policy.TemporalConsistency {
		if err := l.feedConsistency(batch, next); err != nil {
			return u, fmt.Errorf("forwardBackward: %v", err)
		}
	}

	// Run the learning step
	if err := l.trainVM.RunAll(); err != nil {
		l.trainVM.Reset()
		return u, fmt.Errorf("forwardBackward: %v", err)
	}
	return u, nil
}

// feedConsistency feeds the temporal consistency inputs of the train
// graph. With PerLevelMasked, each level's mean consistency loss is
// divided by the loss normalizer. With OnlyTrainLast, only the finest
// level is penalized.
func (l *LODQ) feedConsistency(batch expreplay.Batch,
	next [][]float64) error {
	size := batch.Size()
	if err := G.Let(l.nextInput, tensor.New(
		tensor.WithBacking(batch.NextStates),
		tensor.WithShape(size, l.features),
	)); err != nil {
		return err
	}

	_, normalizer, err := LevelWeights(batch.LODs, l.levels, l.config.Loss)
	if err != nil {
		return err
	}

	for i := 0; i < l.levels; i++ {
		rows, err := l.selectNet.Values(i)
		if err != nil {
			return err
		}
		greedy := make([]int, size)
		for b, row := range rows {
			greedy[b] = floats.MaxIdx(row)
		}
		n := lod.NumActions(i)
		if err := letMatrix(l.nextActions[i], oneHot(greedy, n), size,
			n); err != nil {
			return err
		}
		if err := letVector(l.nextValues[i], next[i]); err != nil {
			return err
		}

		weight := 1 / float64(size)
		if l.config.Loss.Mode == PerLevelMasked {
			weight /= normalizer
		} else if i < l.levels-1 {
			weight = 0
		}
		weights := make([]float64, size)
		for b := range weights {
			weights[b] = weight
		}
		if err := letVector(l.nextWeights[i], weights); err != nil {
			return err
		}
	}
	return nil
}

// readUpdate reads the losses and predictions of the last run of the
// train graph and computes the new priorities of the batch
func (l *LODQ) readUpdate(u update) (agent.Stats, []float64, error) {
	taken := make([][]float64, l.levels)
	for i, v := range l.takenVals {
		data, ok := v.Data().([]float64)
		if !ok {
			return agent.Stats{}, nil, fmt.Errorf("readUpdate: unexpected "+
				"prediction type %T", v.Data())
		}
		taken[i] = append([]float64(nil), data...)
	}

	normalizer := u.normalizer
	if l.config.Loss.Mode == OnlyTrainLast {
		normalizer = 1
	}
	prios := Priorities(taken, u.targets, u.masks, normalizer)

	stats := agent.Stats{
		Loss:  scalar(l.lossVal),
		Value: stat.Mean(taken[l.levels-1], nil),
	}
	if l.regVal != nil {
		stats.RegLoss = scalar(l.regVal)
	}
	if math.IsNaN(stats.Loss) || math.IsInf(stats.Loss, 0) {
		return stats, nil, fmt.Errorf("readUpdate: non-finite loss %v",
			stats.Loss)
	}
	return stats, prios, nil
}

// SyncTarget updates the target network toward the learned weights. A
// TargetTau of 1 copies the weights.
func (l *LODQ) SyncTarget() error {
	if l.config.TargetTau == 1.0 {
		return l.targetNet.Set(l.trainNet)
	}
	return l.targetNet.Polyak(l.trainNet, l.config.TargetTau)
}

// Close closes all VMs of the agent
func (l *LODQ) Close() error {
	vms := []G.VM{l.behaviourVM, l.trainVM, l.targetVM, l.selectVM}
	for _, vm := range vms {
		if vm == nil {
			continue
		}
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}

// oneHot returns a row-major matrix with one row per index, holding a
// 1 at the column of the index
func oneHot(indices []int, cols int) []float64 {
	data := make([]float64, len(indices)*cols)
	for i, idx := range indices {
		data[i*cols+idx] = 1.0
	}
	return data
}

// letVector sets the value of the vector node n to data
func letVector(n *G.Node, data []float64) error {
	return G.Let(n, tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(len(data)),
	))
}

// letMatrix sets the value of the matrix node n to data, in row-major
// order
func letMatrix(n *G.Node, data []float64, rows, cols int) error {
	return G.Let(n, tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(rows, cols),
	))
}

// scalar returns the float64 held by a scalar Gorgonia Value
func scalar(v G.Value) float64 {
	if v == nil {
		return 0
	}
	switch data := v.Data().(type) {
	case float64:
		return data
	case []float64:
		return data[0]
	}
	return math.NaN()
}

var _ agent.Closer = &LODQ{}
