// Package network implements the hierarchical value function: a
// multi-layered perceptron which predicts, for each level of detail, a
// vector of action values over that level's actions.
package network

import (
	"fmt"
	"strconv"

	"github.com/samuelfneumann/gas/initwfn"
	"github.com/samuelfneumann/gas/lod"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Config describes a HierarchicalMLP
type Config struct {
	Levels  int   `yaml:"levels"`
	Hidden  []int `yaml:"hidden"`
	Decoder int   `yaml:"decoder"`

	// SeparateModels gives each level its own encoder
	SeparateModels bool `yaml:"separate_models"`

	// SeparateHeads makes each level's values independent of the
	// coarser levels
	SeparateHeads bool `yaml:"separate_heads"`

	Activation string          `yaml:"activation"`
	Init       initwfn.InitWFn `yaml:"init"`

	// RefinementScale scales the initial weights of the heads of every
	// level but the coarsest
	RefinementScale float64 `yaml:"refinement_scale"`
}

// DefaultConfig returns the default configuration for levels levels
func DefaultConfig(levels int) Config {
	return Config{
		Levels:          levels,
		Hidden:          []int{128, 64},
		Decoder:         64,
		Activation:      "relu",
		Init:            initwfn.NewGlorotU(1.0),
		RefinementScale: 0.01,
	}
}

// Validate returns an error if the Config cannot describe a network
func (c Config) Validate() error {
	if c.Levels < 1 {
		return fmt.Errorf("validate: levels must be >= 1, have %v", c.Levels)
	}
	if len(c.Hidden) == 0 {
		return fmt.Errorf("validate: at least one hidden layer is required")
	}
	for _, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("validate: hidden sizes must be > 0, have %v",
				c.Hidden)
		}
	}
	if c.Decoder <= 0 {
		return fmt.Errorf("validate: decoder size must be > 0, have %v",
			c.Decoder)
	}
	if c.RefinementScale <= 0 {
		return fmt.Errorf("validate: refinement scale must be > 0, have %v",
			c.RefinementScale)
	}
	if _, err := NewActivation(c.Activation); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// HierarchicalMLP implements a value function over a hierarchy of
// action discretizations. For each level i, the network predicts
// lod.NumActions(i) action values.
//
// An encoder strategy computes features for each level, a linear head
// per level evaluates those features, and a composer strategy combines
// head outputs into each level's total values. Both strategies are
// fixed at construction by the Config.
type HierarchicalMLP struct {
	g         *G.ExprGraph
	input     *G.Node
	features  int
	batchSize int
	config    Config

	encoder  encoder
	heads    []*fcLayer
	composer composer

	learnables G.Nodes
	model      []G.ValueGrad

	predictions []*G.Node
	deltas      []*G.Node
	predVals    []G.Value
}

// NewHierarchicalMLP adds a new HierarchicalMLP to the graph g. The
// network takes batch inputs of features features each.
func NewHierarchicalMLP(features, batch int, g *G.ExprGraph,
	c Config) (*HierarchicalMLP, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newHierarchicalMLP: %w", err)
	}
	if features <= 0 || batch <= 0 {
		return nil, fmt.Errorf("newHierarchicalMLP: features (%v) and batch "+
			"(%v) must be > 0", features, batch)
	}

	init, err := c.Init.Create()
	if err != nil {
		return nil, fmt.Errorf("newHierarchicalMLP: %w", err)
	}
	act, _ := NewActivation(c.Activation)

	var enc encoder
	if c.SeparateModels {
		enc = newSeparateEncoder(g, features, c.Levels, c.Hidden, c.Decoder,
			init, act)
	} else {
		enc = newSharedEncoder(g, features, c.Levels, c.Hidden, c.Decoder,
			init, act)
	}

	heads := make([]*fcLayer, c.Levels)
	for i := range heads {
		headInit := init
		if i > 0 {
			headInit = initwfn.Scaled(init, c.RefinementScale)
		}
		heads[i] = newFCLayer(g, c.Decoder, lod.NumActions(i),
			"head"+strconv.Itoa(i), headInit, Identity())
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &HierarchicalMLP{
		g:         g,
		input:     input,
		features:  features,
		batchSize: batch,
		config:    c,
		encoder:   enc,
		heads:     heads,
		composer:  newComposer(c),
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newHierarchicalMLP: %v", err)
	}
	return net, nil
}

// newComposer returns the composer described by c
func newComposer(c Config) composer {
	if c.SeparateHeads {
		return independentComposer{}
	}
	return additiveComposer{}
}

// fwd performs the forward pass on the network input and records the
// predictions
func (h *HierarchicalMLP) fwd(input *G.Node) error {
	totals, deltas, err := h.Forward(input)
	if err != nil {
		return err
	}

	h.predictions = totals
	h.deltas = deltas
	h.predVals = make([]G.Value, len(totals))
	for i := range totals {
		G.Read(totals[i], &h.predVals[i])
	}
	return nil
}

// Forward adds a forward pass of the network on input to the network's
// graph. The returned totals hold each level's action values and the
// deltas hold the refinement of each level i > 0 over level i-1, which
// are empty if levels are independent.
//
// Forward can be used to evaluate the network's weights on inputs other
// than the network's own input node.
func (h *HierarchicalMLP) Forward(input *G.Node) (totals, deltas []*G.Node,
	err error) {
	if input.Graph() != h.g {
		return nil, nil, fmt.Errorf("forward: input is not in the network "+
			"graph")
	}
	if !input.IsMatrix() || input.Shape()[1] != h.features {
		return nil, nil, fmt.Errorf("forward: invalid input shape "+
			"\n\twant(_, %v) \n\thave(%v)", h.features, input.Shape())
	}

	feats, err := h.encoder.embed(input)
	if err != nil {
		return nil, nil, fmt.Errorf("forward: %v", err)
	}

	heads := make([]*G.Node, len(h.heads))
	for i, head := range h.heads {
		if heads[i], err = head.fwd(feats[i]); err != nil {
			return nil, nil, fmt.Errorf("forward: head %v: %v", i, err)
		}
	}
	return h.composer.compose(heads)
}

// CloneWithBatch clones the network into a new computational graph
// with a new input batch size. Weights are copied.
func (h *HierarchicalMLP) CloneWithBatch(batch int) (*HierarchicalMLP,
	error) {
	g := G.NewGraph()

	heads := make([]*fcLayer, len(h.heads))
	for i := range h.heads {
		heads[i] = h.heads[i].cloneTo(g)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, h.features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &HierarchicalMLP{
		g:         g,
		input:     input,
		features:  h.features,
		batchSize: batch,
		config:    h.config,
		encoder:   h.encoder.cloneTo(g),
		heads:     heads,
		composer:  newComposer(h.config),
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return net, nil
}

// Graph returns the computational graph of the network
func (h *HierarchicalMLP) Graph() *G.ExprGraph {
	return h.g
}

// Levels returns the number of levels of detail predicted
func (h *HierarchicalMLP) Levels() int {
	return len(h.heads)
}

// BatchSize returns the batch size of inputs to the network
func (h *HierarchicalMLP) BatchSize() int {
	return h.batchSize
}

// Features returns the number of features in a single input
func (h *HierarchicalMLP) Features() int {
	return h.features
}

// SetInput sets the value of the input node before running the forward
// pass.
func (h *HierarchicalMLP) SetInput(input []float64) error {
	if len(input) != h.features*h.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", h.features*h.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(h.input.Shape()...),
	)
	return G.Let(h.input, inputTensor)
}

// Prediction returns the nodes holding each level's action values
func (h *HierarchicalMLP) Prediction() []*G.Node {
	return h.predictions
}

// Deltas returns the nodes holding each level's refinement of the
// coarser level
func (h *HierarchicalMLP) Deltas() []*G.Node {
	return h.deltas
}

// Values returns the action values predicted at level after the graph
// has been run, one row per input in the batch
func (h *HierarchicalMLP) Values(level int) ([][]float64, error) {
	if level < 0 || level >= h.Levels() {
		return nil, fmt.Errorf("values: level %v ∉ [0, %v)", level,
			h.Levels())
	}
	if h.predVals[level] == nil {
		return nil, fmt.Errorf("values: graph has not been run")
	}

	data, ok := h.predVals[level].Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("values: unexpected output type %T",
			h.predVals[level].Data())
	}

	n := lod.NumActions(level)
	rows := make([][]float64, h.batchSize)
	for i := range rows {
		rows[i] = make([]float64, n)
		copy(rows[i], data[i*n:(i+1)*n])
	}
	return rows, nil
}

// Set sets the weights of the network to be equal to the weights of
// source
func (h *HierarchicalMLP) Set(source *HierarchicalMLP) error {
	sourceNodes := source.Learnables()
	nodes := h.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source has %v learnables, have %v",
			len(sourceNodes), len(nodes))
	}

	for i, destLearnable := range nodes {
		weights := sourceNodes[i].Value().(*tensor.Dense).Clone()
		if err := G.Let(destLearnable, weights.(*tensor.Dense)); err != nil {
			return fmt.Errorf("set: %v", err)
		}
	}
	return nil
}

// Polyak sets the weights of the network to be a polyak average
// between its existing weights and the weights of source:
//
//	θ ← (1-τ)θ + τθ_source
func (h *HierarchicalMLP) Polyak(source *HierarchicalMLP, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := h.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("polyak: source has %v learnables, have %v",
			len(sourceNodes), len(nodes))
	}

	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense).Clone().(*tensor.Dense)
		data := weights.Data().([]float64)
		sourceData := sourceNodes[i].Value().Data().([]float64)

		floats.Scale(1-tau, data)
		floats.AddScaled(data, tau, sourceData)

		if err := G.Let(nodes[i], weights); err != nil {
			return fmt.Errorf("polyak: %v", err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the network
func (h *HierarchicalMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if h.learnables == nil {
		learnables := h.encoder.learnables()
		for _, head := range h.heads {
			learnables = append(learnables, head.learnables()...)
		}
		h.learnables = learnables
	}
	return h.learnables
}

// HeadLearnables returns the weights and bias of the head of level
func (h *HierarchicalMLP) HeadLearnables(level int) G.Nodes {
	return h.heads[level].learnables()
}

// Model returns the learnables nodes with their gradients.
func (h *HierarchicalMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if h.model == nil {
		h.model = G.NodesToValueGrads(h.Learnables())
	}
	return h.model
}
