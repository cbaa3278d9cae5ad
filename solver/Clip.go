package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

// ClipNorm rescales the gradients of model in place so that their
// global L2 norm, taken over all parameters together, is at most
// maxNorm. The norm before clipping is returned.
func ClipNorm(model []G.ValueGrad, maxNorm float64) (float64, error) {
	grads := make([][]float64, len(model))
	var sumSq float64
	for i, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return 0, fmt.Errorf("clipNorm: %w", err)
		}
		grads[i], err = float64Data(grad)
		if err != nil {
			return 0, fmt.Errorf("clipNorm: %w", err)
		}
		sumSq += floats.Dot(grads[i], grads[i])
	}

	norm := math.Sqrt(sumSq)
	if norm > maxNorm {
		scale := maxNorm / (norm + 1e-6)
		for _, grad := range grads {
			floats.Scale(scale, grad)
		}
	}
	return norm, nil
}

// ZeroGrad sets the gradients of model to zero
func ZeroGrad(model []G.ValueGrad) error {
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return fmt.Errorf("zeroGrad: %w", err)
		}
		data, err := float64Data(grad)
		if err != nil {
			return fmt.Errorf("zeroGrad: %w", err)
		}
		for i := range data {
			data[i] = 0
		}
	}
	return nil
}
