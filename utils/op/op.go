// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/G.ld on GitHub
package op

import (
	G "gorgonia.org/gorgonia"
)

// Min returns the min value between the nodes. If values are equal
// the first value is returned
func Min(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	aMask, err := G.Lte(a, b, true)
	if err != nil {
		return nil, err
	}
	aVal, err := G.HadamardProd(a, aMask)
	if err != nil {
		return nil, err
	}

	bMask, err := G.Lt(b, a, true)
	if err != nil {
		return nil, err
	}
	bVal, err := G.HadamardProd(b, bMask)
	if err != nil {
		return nil, err
	}
	return G.Add(aVal, bVal)
}

// SmoothL1 computes the elementwise smooth L1 (Huber with unit
// threshold) loss of diff:
//
//	0.5 * diff²		if |diff| < 1
//	|diff| - 0.5	otherwise
//
// computed as 0.5*q² + (|diff| - q) with q = min(|diff|, 1).
func SmoothL1(diff *G.Node) (retVal *G.Node, err error) {
	one := G.NewConstant(1.0)
	half := G.NewConstant(0.5)

	abs, err := G.Abs(diff)
	if err != nil {
		return nil, err
	}
	q, err := Min(abs, one)
	if err != nil {
		return nil, err
	}

	quadratic, err := G.Square(q)
	if err != nil {
		return nil, err
	}
	quadratic, err = G.HadamardProd(half, quadratic)
	if err != nil {
		return nil, err
	}

	linear, err := G.Sub(abs, q)
	if err != nil {
		return nil, err
	}
	return G.Add(quadratic, linear)
}
