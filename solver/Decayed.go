package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Decayed wraps a Gorgonia Solver and multiplies the size of each
// update the Solver makes by a scale factor. Gorgonia solvers fix their
// learning rate at construction, so scaling the update is how the
// learning rate is decayed over training.
type Decayed struct {
	G.Solver
	scale  float64
	before [][]float64
}

// NewDecayed returns a new Decayed solver wrapping s with an initial
// scale of 1
func NewDecayed(s G.Solver) *Decayed {
	return &Decayed{Solver: s, scale: 1.0}
}

// Scale returns the current learning rate multiplier
func (d *Decayed) Scale() float64 {
	return d.scale
}

// Decay multiplies the learning rate multiplier by factor
func (d *Decayed) Decay(factor float64) {
	d.scale *= factor
}

// Step performs a single update of the model parameters, scaling the
// update made by the wrapped Solver.
func (d *Decayed) Step(model []G.ValueGrad) error {
	if d.scale == 1.0 {
		return d.Solver.Step(model)
	}

	if len(d.before) != len(model) {
		d.before = make([][]float64, len(model))
	}
	for i, vg := range model {
		weights, err := float64Data(vg.Value())
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		d.before[i] = append(d.before[i][:0], weights...)
	}

	if err := d.Solver.Step(model); err != nil {
		return err
	}

	for i, vg := range model {
		weights, err := float64Data(vg.Value())
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		for j, prev := range d.before[i] {
			weights[j] = prev + d.scale*(weights[j]-prev)
		}
	}
	return nil
}

// float64Data returns the backing data of a tensor-valued Gorgonia
// Value
func float64Data(v G.Value) ([]float64, error) {
	data, ok := v.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("expected []float64 backing data, have %T",
			v.Data())
	}
	return data, nil
}
