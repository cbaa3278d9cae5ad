package network

import (
	"fmt"
	"strconv"

	G "gorgonia.org/gorgonia"
)

// encoder computes the per-level features that each level's head
// evaluates. Implementations decide which parameters are shared
// between levels.
type encoder interface {
	// embed returns one feature node per level for the input x
	embed(x *G.Node) ([]*G.Node, error)

	// learnables returns all learnable nodes in a fixed order
	learnables() G.Nodes

	// cloneTo clones the encoder to another computational graph
	cloneTo(g *G.ExprGraph) encoder
}

// sharedEncoder uses one trunk for every level. Each level then has its
// own decoder layer, and the decoder of level i consumes the decoded
// features of level i-1, so coarse-level features feed the finer
// levels.
type sharedEncoder struct {
	trunk    []*fcLayer
	decoders []*fcLayer
}

// newSharedEncoder adds a sharedEncoder to g
func newSharedEncoder(g *G.ExprGraph, features, levels int, hidden []int,
	decoder int, init G.InitWFn, act *Activation) *sharedEncoder {
	trunk := newFCLayers(g, features, hidden, "trunk", init, act)

	decoders := make([]*fcLayer, levels)
	in := hidden[len(hidden)-1]
	for i := range decoders {
		decoders[i] = newFCLayer(g, in, decoder, "decoder"+strconv.Itoa(i),
			init, act)
		in = decoder
	}
	return &sharedEncoder{trunk: trunk, decoders: decoders}
}

func (s *sharedEncoder) embed(x *G.Node) ([]*G.Node, error) {
	h, err := fwdLayers(s.trunk, x)
	if err != nil {
		return nil, fmt.Errorf("embed: trunk: %v", err)
	}

	feats := make([]*G.Node, len(s.decoders))
	for i, d := range s.decoders {
		if h, err = d.fwd(h); err != nil {
			return nil, fmt.Errorf("embed: decoder %v: %v", i, err)
		}
		feats[i] = h
	}
	return feats, nil
}

func (s *sharedEncoder) learnables() G.Nodes {
	var nodes G.Nodes
	for _, l := range s.trunk {
		nodes = append(nodes, l.learnables()...)
	}
	for _, l := range s.decoders {
		nodes = append(nodes, l.learnables()...)
	}
	return nodes
}

func (s *sharedEncoder) cloneTo(g *G.ExprGraph) encoder {
	return &sharedEncoder{
		trunk:    cloneLayersTo(s.trunk, g),
		decoders: cloneLayersTo(s.decoders, g),
	}
}

// separateEncoder gives each level its own trunk and decoder, so no
// parameters are shared between levels.
type separateEncoder struct {
	trunks   [][]*fcLayer
	decoders []*fcLayer
}

// newSeparateEncoder adds a separateEncoder to g
func newSeparateEncoder(g *G.ExprGraph, features, levels int, hidden []int,
	decoder int, init G.InitWFn, act *Activation) *separateEncoder {
	trunks := make([][]*fcLayer, levels)
	decoders := make([]*fcLayer, levels)
	for i := range trunks {
		prefix := "level" + strconv.Itoa(i) + "_trunk"
		trunks[i] = newFCLayers(g, features, hidden, prefix, init, act)
		decoders[i] = newFCLayer(g, hidden[len(hidden)-1], decoder,
			"decoder"+strconv.Itoa(i), init, act)
	}
	return &separateEncoder{trunks: trunks, decoders: decoders}
}

func (s *separateEncoder) embed(x *G.Node) ([]*G.Node, error) {
	feats := make([]*G.Node, len(s.decoders))
	for i := range s.decoders {
		h, err := fwdLayers(s.trunks[i], x)
		if err != nil {
			return nil, fmt.Errorf("embed: trunk %v: %v", i, err)
		}
		if feats[i], err = s.decoders[i].fwd(h); err != nil {
			return nil, fmt.Errorf("embed: decoder %v: %v", i, err)
		}
	}
	return feats, nil
}

func (s *separateEncoder) learnables() G.Nodes {
	var nodes G.Nodes
	for i := range s.trunks {
		for _, l := range s.trunks[i] {
			nodes = append(nodes, l.learnables()...)
		}
		nodes = append(nodes, s.decoders[i].learnables()...)
	}
	return nodes
}

func (s *separateEncoder) cloneTo(g *G.ExprGraph) encoder {
	trunks := make([][]*fcLayer, len(s.trunks))
	for i := range s.trunks {
		trunks[i] = cloneLayersTo(s.trunks[i], g)
	}
	return &separateEncoder{
		trunks:   trunks,
		decoders: cloneLayersTo(s.decoders, g),
	}
}
