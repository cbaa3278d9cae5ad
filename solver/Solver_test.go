package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// linearModel returns a weight vector w initialized to ones, bound to a
// tape machine computing d/dw of sum(w ⊙ c), which is c.
func linearModel(t *testing.T, c []float64) (*G.Node, G.VM) {
	g := G.NewGraph()
	w := G.NewVector(g, tensor.Float64, G.WithShape(len(c)), G.WithName("w"),
		G.WithInit(G.Ones()))
	coef := G.NewVector(g, tensor.Float64, G.WithShape(len(c)),
		G.WithName("c"), G.WithValue(tensor.New(
			tensor.WithShape(len(c)),
			tensor.WithBacking(c),
		)))

	cost := G.Must(G.Sum(G.Must(G.HadamardProd(w, coef))))
	_, err := G.Grad(cost, w)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g, G.BindDualValues(w))
	require.NoError(t, vm.RunAll())
	return w, vm
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, NewAdam(5e-4, 1e-4, 0.9, 0.999).Validate())
	assert.Error(t, NewAdam(0, 1e-4, 0.9, 0.999).Validate())
	assert.Error(t, NewAdam(1e-3, 1e-4, 1.0, 0.999).Validate())
	assert.Error(t, Config{Type: RMSProp, StepSize: 0.1}.Validate())
	assert.Error(t, Config{Type: "SGD", StepSize: 0.1}.Validate())
	assert.NoError(t, Config{Type: Vanilla, StepSize: 0.1}.Validate())
}

func TestClipNorm(t *testing.T) {
	w, vm := linearModel(t, []float64{3, 4})
	defer vm.Close()

	model := G.NodesToValueGrads(G.Nodes{w})
	norm, err := ClipNorm(model, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, norm, 1e-12)

	grad, err := w.Grad()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, grad.Data().([]float64), 1e-6)

	// Norms below the bound are untouched
	norm, err = ClipNorm(model, 10.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm, 1e-6)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, grad.Data().([]float64), 1e-6)

	require.NoError(t, ZeroGrad(model))
	assert.Equal(t, []float64{0, 0}, grad.Data().([]float64))
}

func TestDecayedScalesUpdates(t *testing.T) {
	c := Config{Type: Vanilla, StepSize: 0.1}

	// Reference update without decay
	w, vm := linearModel(t, []float64{1, -2})
	defer vm.Close()
	s, err := c.Create()
	require.NoError(t, err)
	require.NoError(t, NewDecayed(s).Step(G.NodesToValueGrads(G.Nodes{w})))
	assert.InDeltaSlice(t, []float64{0.9, 1.2}, w.Value().Data().([]float64),
		1e-12)

	// Halved learning rate
	w, vm = linearModel(t, []float64{1, -2})
	defer vm.Close()
	s, err = c.Create()
	require.NoError(t, err)
	decayed := NewDecayed(s)
	decayed.Decay(0.5)
	assert.Equal(t, 0.5, decayed.Scale())
	require.NoError(t, decayed.Step(G.NodesToValueGrads(G.Nodes{w})))
	assert.InDeltaSlice(t, []float64{0.95, 1.1}, w.Value().Data().([]float64),
		1e-12)
}
