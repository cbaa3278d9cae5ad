package network

import (
	"fmt"
	"strconv"

	"github.com/samuelfneumann/gas/lod"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// composer combines the raw head outputs of each level into the total
// value of each level.
type composer interface {
	// compose returns the total values of each level and the deltas
	// which refine each coarser level
	compose(heads []*G.Node) (totals, deltas []*G.Node, err error)
}

// additiveComposer computes the total of level i > 0 as the total of
// level i-1, upsampled by repeating each value twice, plus the level's
// head output, which is the level's delta.
type additiveComposer struct{}

func (additiveComposer) compose(heads []*G.Node) ([]*G.Node, []*G.Node,
	error) {
	totals := make([]*G.Node, len(heads))
	deltas := make([]*G.Node, 0, len(heads)-1)

	totals[0] = heads[0]
	for i := 1; i < len(heads); i++ {
		up, err := upsample(totals[i-1], i-1, i)
		if err != nil {
			return nil, nil, fmt.Errorf("compose: level %v: %v", i, err)
		}
		if totals[i], err = G.Add(up, heads[i]); err != nil {
			return nil, nil, fmt.Errorf("compose: level %v: %v", i, err)
		}
		deltas = append(deltas, heads[i])
	}
	return totals, deltas, nil
}

// independentComposer uses each level's head output as the level's
// total. Levels have no deltas.
type independentComposer struct{}

func (independentComposer) compose(heads []*G.Node) ([]*G.Node, []*G.Node,
	error) {
	totals := make([]*G.Node, len(heads))
	copy(totals, heads)
	return totals, nil, nil
}

// upsample expands the batch of level values x from level from to
// level to, repeating each value in contiguous blocks
func upsample(x *G.Node, from, to int) (*G.Node, error) {
	e := ExpansionNode(x.Graph(), from, to)
	return G.Mul(x, e)
}

// ExpansionNode returns a constant node in g holding
// lod.ExpansionMatrix(from, to). Right-multiplying a batch of level
// from values by the node expands them to level to.
func ExpansionNode(g *G.ExprGraph, from, to int) *G.Node {
	e := lod.ExpansionMatrix(from, to)
	r, c := e.Dims()

	name := "expand_" + strconv.Itoa(from) + "_" + strconv.Itoa(to)
	if n := g.ByName(name); len(n) > 0 {
		return n[0]
	}

	backing := make([]float64, r*c)
	copy(backing, e.RawMatrix().Data)
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(r, c),
		G.WithName(name),
		G.WithValue(tensor.New(
			tensor.WithShape(r, c),
			tensor.WithBacking(backing),
		)),
	)
}
