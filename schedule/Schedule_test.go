package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestEpsilonEndpoints(t *testing.T) {
	e := Epsilon{Start: 1.0, Final: 0.1, LeadIn: 500, Decay: 25000}
	require.NoError(t, e.Validate())

	assert.InDelta(t, e.Start, e.At(e.LeadIn), 1e-12)
	assert.InDelta(t, e.Final, e.At(e.LeadIn+e.Decay), 1e-12)

	// Clamped on both sides
	assert.InDelta(t, e.Start, e.At(0), 1e-12)
	assert.InDelta(t, e.Final, e.At(10*e.Decay), 1e-12)

	prev := e.At(e.LeadIn)
	for step := e.LeadIn; step <= e.LeadIn+e.Decay+100; step += 37 {
		eps := e.At(step)
		assert.LessOrEqual(t, eps, prev)
		assert.GreaterOrEqual(t, eps, e.Final)
		prev = eps
	}
}

func TestEpsilonValidate(t *testing.T) {
	assert.Error(t, Epsilon{Start: 1, Final: 0.1, Decay: 0}.Validate())
	assert.Error(t, Epsilon{Start: 0.1, Final: 0.5, Decay: 10}.Validate())
	assert.Error(t, Epsilon{Start: 1.5, Final: 0.5, Decay: 10}.Validate())
}

func TestLODFractional(t *testing.T) {
	l := LOD{LeadIn: 100, Plateau: 50, Growth: 50, Levels: 3}
	require.NoError(t, l.Validate())

	tests := []struct {
		step int
		want float64
	}{
		{0, 0},
		{99, 0},
		{100, 0},
		{125, 0.5},
		{150, 1},
		{199, 1},
		{200, 1},
		{225, 1.5},
		{250, 2},
		{1000, 2},
	}
	for _, test := range tests {
		assert.InDelta(t, test.want, l.Fractional(test.step), 1e-12,
			"step %v", test.step)
	}
}

func TestLODLeadInIsCoarsest(t *testing.T) {
	l := LOD{LeadIn: 1000, Plateau: 10, Growth: 10, Levels: 4}
	rng := rand.New(rand.NewSource(1))
	for step := 0; step < l.LeadIn; step++ {
		level, plod := l.Sample(step, rng)
		assert.Equal(t, 0, level)
		assert.Equal(t, 0.0, plod)
	}
}

func TestLODStochasticRounding(t *testing.T) {
	l := LOD{LeadIn: 0, Plateau: 100, Growth: 100, Levels: 4}
	rng := rand.New(rand.NewSource(2))

	// Halfway through the first growth phase
	const draws = 20000
	sum := 0
	for i := 0; i < draws; i++ {
		level, plod := l.Sample(50, rng)
		assert.InDelta(t, 0.5, plod, 1e-12)
		assert.Contains(t, []int{0, 1}, level)
		sum += level
	}
	assert.InDelta(t, 0.5, float64(sum)/draws, 0.02)

	// Far into training every draw is the finest level
	sum = 0
	for i := 0; i < draws; i++ {
		level, _ := l.Sample(1_000_000+i, rng)
		sum += level
	}
	assert.InDelta(t, float64(l.Levels-1), float64(sum)/draws, 1e-12)
}

func TestLODFixed(t *testing.T) {
	l := LOD{LeadIn: 100, Plateau: 1, Growth: 1, Levels: 3, Fixed: true}
	level, plod := l.Sample(0, rand.New(rand.NewSource(1)))
	assert.Equal(t, 2, level)
	assert.Equal(t, 0.0, plod)
}

func TestLODValidate(t *testing.T) {
	assert.Error(t, LOD{Growth: 1}.Validate())
	assert.Error(t, LOD{Levels: 1}.Validate())
	assert.Error(t, LOD{Levels: 1, Growth: 1, Plateau: -1}.Validate())
}
