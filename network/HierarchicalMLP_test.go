package network

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gas/lod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func newNet(t *testing.T, c Config, features, batch int) *HierarchicalMLP {
	net, err := NewHierarchicalMLP(features, batch, G.NewGraph(), c)
	require.NoError(t, err)
	return net
}

func run(t *testing.T, net *HierarchicalMLP, input []float64) {
	require.NoError(t, net.SetInput(input))
	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig(2).Validate())

	c := DefaultConfig(0)
	assert.Error(t, c.Validate())

	c = DefaultConfig(2)
	c.Hidden = nil
	assert.Error(t, c.Validate())

	c = DefaultConfig(2)
	c.Activation = "softsign"
	assert.Error(t, c.Validate())

	c = DefaultConfig(2)
	c.RefinementScale = 0
	assert.Error(t, c.Validate())
}

func TestOutputShapes(t *testing.T) {
	for _, separateModels := range []bool{false, true} {
		for _, separateHeads := range []bool{false, true} {
			c := DefaultConfig(3)
			c.SeparateModels = separateModels
			c.SeparateHeads = separateHeads
			net := newNet(t, c, 2, 4)

			run(t, net, []float64{0.1, 0.2, -0.3, 0.4, 0.5, -0.6, 0.7, 0.8})
			for level := 0; level < 3; level++ {
				values, err := net.Values(level)
				require.NoError(t, err)
				require.Len(t, values, 4)
				for _, row := range values {
					assert.Len(t, row, lod.NumActions(level))
				}
			}

			if separateHeads {
				assert.Empty(t, net.Deltas())
			} else {
				assert.Len(t, net.Deltas(), 2)
			}
		}
	}
}

func TestLearnableCounts(t *testing.T) {
	c := DefaultConfig(3)
	shared := newNet(t, c, 4, 1)
	// Trunk, one decoder per level, one head per level
	assert.Len(t, shared.Learnables(), 2*len(c.Hidden)+2*3+2*3)

	c.SeparateModels = true
	separate := newNet(t, c, 4, 1)
	assert.Len(t, separate.Learnables(), 3*(2*len(c.Hidden)+2)+2*3)
	assert.Len(t, separate.Model(), len(separate.Learnables()))
}

func TestAdditiveComposition(t *testing.T) {
	net := newNet(t, DefaultConfig(3), 3, 2)

	deltaVals := make([]G.Value, len(net.Deltas()))
	for i, d := range net.Deltas() {
		G.Read(d, &deltaVals[i])
	}
	run(t, net, []float64{1, -1, 0.5, 0.2, 0.3, -0.7})

	for level := 1; level < 3; level++ {
		coarse, err := net.Values(level - 1)
		require.NoError(t, err)
		fine, err := net.Values(level)
		require.NoError(t, err)
		delta := deltaVals[level-1].Data().([]float64)

		n := lod.NumActions(level)
		for b := range fine {
			up := lod.ExpandValues(coarse[b], level-1, level)
			for a := range fine[b] {
				assert.InDelta(t, up[a]+delta[b*n+a], fine[b][a], 1e-9)
			}
		}
	}
}

func TestRefinementHeadsStartSmall(t *testing.T) {
	c := DefaultConfig(2)
	net := newNet(t, c, 4, 1)

	maxAbs := func(values []float64) float64 {
		var m float64
		for _, v := range values {
			m = math.Max(m, math.Abs(v))
		}
		return m
	}

	coarse := maxAbs(net.HeadLearnables(0)[0].Value().Data().([]float64))
	fine := maxAbs(net.HeadLearnables(1)[0].Value().Data().([]float64))
	assert.Greater(t, coarse, 0.0)
	assert.Less(t, fine, 2*c.RefinementScale*coarse)

	for _, b := range net.HeadLearnables(1)[1].Value().Data().([]float64) {
		assert.Equal(t, 0.0, b)
	}
}

func TestCloneWithBatchMatches(t *testing.T) {
	net := newNet(t, DefaultConfig(2), 2, 3)
	single, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	assert.Equal(t, 1, single.BatchSize())
	assert.NotSame(t, net.Graph(), single.Graph())

	batch := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	run(t, net, batch)
	run(t, single, batch[2:4])

	for level := 0; level < 2; level++ {
		all, err := net.Values(level)
		require.NoError(t, err)
		one, err := single.Values(level)
		require.NoError(t, err)
		assert.InDeltaSlice(t, all[1], one[0], 1e-12)
	}
}

func TestSetAndPolyak(t *testing.T) {
	c := DefaultConfig(2)
	source := newNet(t, c, 2, 1)
	dest := newNet(t, c, 2, 1)

	require.NoError(t, dest.Polyak(source, 0.5))
	for i, n := range dest.Learnables() {
		assert.Equal(t, len(source.Learnables()[i].Value().Data().([]float64)),
			len(n.Value().Data().([]float64)))
	}

	require.NoError(t, dest.Set(source))
	for i, n := range dest.Learnables() {
		assert.Equal(t, source.Learnables()[i].Value().Data(),
			n.Value().Data())
	}

	// The copy is independent of the source
	data := source.Learnables()[0].Value().Data().([]float64)
	data[0] += 1
	assert.NotEqual(t, data[0],
		dest.Learnables()[0].Value().Data().([]float64)[0])

	input := []float64{0.3, -0.2}
	require.NoError(t, dest.Set(source))
	run(t, source, input)
	run(t, dest, input)
	for level := 0; level < 2; level++ {
		s, _ := source.Values(level)
		d, _ := dest.Values(level)
		assert.InDeltaSlice(t, s[0], d[0], 1e-12)
	}
}

func TestSetInputValidates(t *testing.T) {
	net := newNet(t, DefaultConfig(1), 2, 2)
	assert.Error(t, net.SetInput([]float64{1, 2, 3}))

	_, err := net.Values(1)
	assert.Error(t, err)
}
