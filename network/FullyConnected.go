package network

import (
	"strconv"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds a new fully connected layer to g which maps in
// features to out features. Weights are initialized with init and the
// bias with zeroes.
func newFCLayer(g *G.ExprGraph, in, out int, name string, init G.InitWFn,
	act *Activation) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(name+"_W"),
		G.WithInit(init),
	)
	bias := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, out),
		G.WithName(name+"_B"),
		G.WithInit(G.Zeroes()),
	)
	return &fcLayer{weights: weights, bias: bias, act: act}
}

// newFCLayers adds a stack of fully connected layers with the given
// output sizes to g, all using activation act
func newFCLayers(g *G.ExprGraph, in int, sizes []int, prefix string,
	init G.InitWFn, act *Activation) []*fcLayer {
	layers := make([]*fcLayer, len(sizes))
	for i, size := range sizes {
		layers[i] = newFCLayer(g, in, size, prefix+strconv.Itoa(i), init, act)
		in = size
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
	if err != nil {
		return nil, err
	}

	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// cloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) cloneTo(g *G.ExprGraph) *fcLayer {
	return &fcLayer{
		weights: f.weights.CloneTo(g),
		bias:    f.bias.CloneTo(g),
		act:     f.act,
	}
}

// learnables returns the weights and bias of the layer
func (f *fcLayer) learnables() G.Nodes {
	return G.Nodes{f.weights, f.bias}
}

// cloneLayersTo clones each layer to g
func cloneLayersTo(layers []*fcLayer, g *G.ExprGraph) []*fcLayer {
	cloned := make([]*fcLayer, len(layers))
	for i := range layers {
		cloned[i] = layers[i].cloneTo(g)
	}
	return cloned
}

// fwdLayers runs the forward pass of each layer in sequence
func fwdLayers(layers []*fcLayer, x *G.Node) (*G.Node, error) {
	var err error
	for _, l := range layers {
		if x, err = l.fwd(x); err != nil {
			return nil, err
		}
	}
	return x, nil
}
