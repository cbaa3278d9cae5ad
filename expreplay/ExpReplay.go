// Package expreplay implements a fixed-capacity prioritized experience
// replay buffer. Transitions are written circularly and sampled with
// replacement, proportionally to a per-slot priority.
package expreplay

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultPriority is the priority given to the first transition pushed
// into an empty buffer.
const DefaultPriority = 1.0

// Config implements a specific configuration of a prioritized buffer
type Config struct {
	Capacity int     `yaml:"capacity"`
	Alpha    float64 `yaml:"alpha"`
}

// Validate returns an error if the Config cannot be used to construct a
// buffer
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("validate: capacity must be > 0, have %v", c.Capacity)
	}
	if c.Alpha < 0 || math.IsNaN(c.Alpha) {
		return fmt.Errorf("validate: alpha must be >= 0, have %v", c.Alpha)
	}
	return nil
}

// Transition is a single environmental transition. Action is an index
// into the action space of level LOD, not of the finest level.
type Transition struct {
	State     []float64
	Action    int
	LOD       int
	Reward    float64
	NextState []float64
	Done      bool
}

// Batch is a batch of transitions sampled from a buffer. States and
// NextStates are stored row-major with one row per transition. Dones
// holds 1.0 for terminal transitions and 0.0 otherwise. Indices holds
// the buffer slot of each transition so that priorities can be updated
// after the batch is used.
type Batch struct {
	States     []float64
	Actions    []int
	LODs       []int
	Rewards    []float64
	NextStates []float64
	Dones      []float64
	Indices    []int
}

// Size returns the number of transitions in the batch
func (b Batch) Size() int {
	return len(b.Indices)
}

// Prioritized implements a circular prioritized experience replay
// buffer. Once the buffer has been filled, every slot holds a
// transition forever, and new transitions overwrite the oldest.
type Prioritized struct {
	stateCache     []float64
	actionCache    []int
	lodCache       []int
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []bool
	priorities     []float64

	// pos is the next slot to be written
	pos  int
	size int

	sampler     Selector
	capacity    int
	featureSize int
}

// New creates and returns a new prioritized buffer holding transitions
// with featureSize-dimensional states
func New(c Config, featureSize int, seed uint64) (*Prioritized, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if featureSize <= 0 {
		return nil, fmt.Errorf("new: feature size must be > 0, have %v",
			featureSize)
	}

	return &Prioritized{
		stateCache:     make([]float64, c.Capacity*featureSize),
		actionCache:    make([]int, c.Capacity),
		lodCache:       make([]int, c.Capacity),
		rewardCache:    make([]float64, c.Capacity),
		nextStateCache: make([]float64, c.Capacity*featureSize),
		doneCache:      make([]bool, c.Capacity),
		priorities:     make([]float64, c.Capacity),
		sampler:        NewPrioritySelector(c.Alpha, seed),
		capacity:       c.Capacity,
		featureSize:    featureSize,
	}, nil
}

// Push adds a transition to the buffer at the current write position,
// overwriting the oldest transition once the buffer is full. The new
// transition is given the current maximum priority so that it is
// likely to be sampled before its true priority is known.
func (p *Prioritized) Push(t Transition) error {
	if len(t.State) != p.featureSize || len(t.NextState) != p.featureSize {
		return fmt.Errorf("push: invalid feature size \n\twant(%v)"+
			"\n\thave(%v, %v)", p.featureSize, len(t.State), len(t.NextState))
	}

	prio := p.MaxPriority()

	stateInd := p.pos * p.featureSize
	copy(p.stateCache[stateInd:stateInd+p.featureSize], t.State)
	copy(p.nextStateCache[stateInd:stateInd+p.featureSize], t.NextState)
	p.actionCache[p.pos] = t.Action
	p.lodCache[p.pos] = t.LOD
	p.rewardCache[p.pos] = t.Reward
	p.doneCache[p.pos] = t.Done
	p.priorities[p.pos] = prio

	p.pos = (p.pos + 1) % p.capacity
	if p.size < p.capacity {
		p.size++
	}
	return nil
}

// Sample samples batchSize transitions with replacement
func (p *Prioritized) Sample(batchSize int) (Batch, error) {
	if batchSize <= 0 {
		return Batch{}, fmt.Errorf("sample: batch size must be > 0, have %v",
			batchSize)
	}
	if batchSize > p.capacity {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errBatchTooLarge}
	}
	if p.size == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}

	indices := p.sampler.choose(p.priorities[:p.size], batchSize)

	b := Batch{
		States:     make([]float64, batchSize*p.featureSize),
		Actions:    make([]int, batchSize),
		LODs:       make([]int, batchSize),
		Rewards:    make([]float64, batchSize),
		NextStates: make([]float64, batchSize*p.featureSize),
		Dones:      make([]float64, batchSize),
		Indices:    indices,
	}
	for i, index := range indices {
		batchStartInd := i * p.featureSize
		expStartInd := index * p.featureSize
		copy(b.States[batchStartInd:batchStartInd+p.featureSize],
			p.stateCache[expStartInd:expStartInd+p.featureSize])
		copy(b.NextStates[batchStartInd:batchStartInd+p.featureSize],
			p.nextStateCache[expStartInd:expStartInd+p.featureSize])

		b.Actions[i] = p.actionCache[index]
		b.LODs[i] = p.lodCache[index]
		b.Rewards[i] = p.rewardCache[index]
		if p.doneCache[index] {
			b.Dones[i] = 1.0
		}
	}
	return b, nil
}

// UpdatePriorities overwrites the priority of each slot in indices with
// the corresponding value. Values are used as given.
func (p *Prioritized) UpdatePriorities(indices []int, values []float64) error {
	if len(indices) != len(values) {
		return fmt.Errorf("updatePriorities: have %v indices but %v values",
			len(indices), len(values))
	}
	for i, index := range indices {
		if index < 0 || index >= p.size {
			return &ExpReplayError{
				Op:  "updatePriorities",
				Err: fmt.Errorf("%w: %v", errInvalidIndex, index),
			}
		}
		if values[i] < 0 || math.IsNaN(values[i]) {
			return &ExpReplayError{
				Op:  "updatePriorities",
				Err: fmt.Errorf("%w: %v", errInvalidPriority, values[i]),
			}
		}
	}

	for i, index := range indices {
		p.priorities[index] = values[i]
	}
	return nil
}

// MaxPriority returns the maximum priority over all valid slots, or
// DefaultPriority if the buffer is empty
func (p *Prioritized) MaxPriority() float64 {
	if p.size == 0 {
		return DefaultPriority
	}
	return floats.Max(p.priorities[:p.size])
}

// Priorities returns a copy of the priorities of all valid slots
func (p *Prioritized) Priorities() []float64 {
	prios := make([]float64, p.size)
	copy(prios, p.priorities[:p.size])
	return prios
}

// Len returns the number of transitions in the buffer
func (p *Prioritized) Len() int {
	return p.size
}

// Capacity returns the maximum number of transitions in the buffer
func (p *Prioritized) Capacity() int {
	return p.capacity
}

// FeatureSize returns the dimension of stored states
func (p *Prioritized) FeatureSize() int {
	return p.featureSize
}

// String returns the string representation of the buffer
func (p *Prioritized) String() string {
	return fmt.Sprintf("Prioritized | Size: %v  |  Capacity: %v  |  "+
		"Position: %v  |  Max Priority: %v", p.size, p.capacity, p.pos,
		p.MaxPriority())
}
