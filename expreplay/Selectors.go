package expreplay

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Selector implements functionality for choosing which slots of a
// replay buffer should be sampled. Selections are always made with
// replacement.
type Selector interface {
	// choose selects n slots from the first len(priorities) slots of
	// the buffer
	choose(priorities []float64, n int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, ignoring priorities
type uniformSelector struct {
	rng *rand.Rand
}

// choose selects a number of indices at which to draw data from the
// buffer
func (u *uniformSelector) choose(priorities []float64, n int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = u.rng.Intn(len(priorities))
	}
	return selected
}

// prioritySelector selects slot i with probability proportional to
// priorities[i]^alpha.
type prioritySelector struct {
	alpha   float64
	src     rand.Source
	uniform *uniformSelector
	weights []float64
}

// NewPrioritySelector returns a new Selector which draws data
// proportionally to priority raised to the power alpha. An alpha of 0
// degenerates to uniform sampling.
func NewPrioritySelector(alpha float64, seed uint64) Selector {
	src := rand.NewSource(seed)
	return &prioritySelector{
		alpha:   alpha,
		src:     src,
		uniform: &uniformSelector{rng: rand.New(src)},
	}
}

// choose selects a number of indices at which to draw data from the
// buffer
func (p *prioritySelector) choose(priorities []float64, n int) []int {
	if cap(p.weights) < len(priorities) {
		p.weights = make([]float64, len(priorities))
	}
	p.weights = p.weights[:len(priorities)]
	for i, prio := range priorities {
		p.weights[i] = math.Pow(prio, p.alpha)
	}

	// All-zero priorities carry no preference
	if floats.Sum(p.weights) <= 0 {
		return p.uniform.choose(priorities, n)
	}

	dist := distuv.NewCategorical(p.weights, p.src)
	selected := make([]int, n)
	for i := range selected {
		selected[i] = int(dist.Rand())
	}
	return selected
}
