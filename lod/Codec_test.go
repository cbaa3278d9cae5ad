package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

var unitBounds = r1.Interval{Min: -1, Max: 1}

func TestNewCodecValidates(t *testing.T) {
	_, err := NewCodec(0, unitBounds)
	assert.Error(t, err)

	_, err = NewCodec(2, r1.Interval{Min: 1, Max: 1})
	assert.Error(t, err)

	_, err = NewCodec(2, r1.Interval{Min: 1, Max: -1})
	assert.Error(t, err)

	c, err := NewCodec(3, unitBounds)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Finest())
}

func TestEncodeKnownValues(t *testing.T) {
	c, err := NewCodec(2, unitBounds)
	require.NoError(t, err)

	tests := []struct {
		action, level int
		want          float64
	}{
		{0, 0, -1.0},
		{1, 0, 1.0},
		{0, 1, -1.0},
		{1, 1, -0.5},
		{2, 1, 0.5},
		{3, 1, 1.0},
	}
	for _, test := range tests {
		have, err := c.Encode(test.action, test.level)
		require.NoError(t, err)
		assert.InDelta(t, test.want, have, 1e-12, "encode(%v, %v)",
			test.action, test.level)
	}
}

func TestEncodeRangeAndMonotonicity(t *testing.T) {
	bounds := r1.Interval{Min: -2, Max: 3}
	c, err := NewCodec(6, bounds)
	require.NoError(t, err)

	for level := 0; level < c.Levels; level++ {
		n := NumActions(level)
		prev, err := c.Encode(0, level)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prev, bounds.Min)

		for i := 1; i < n; i++ {
			v, err := c.Encode(i, level)
			require.NoError(t, err)
			assert.Greater(t, v, prev, "level %v action %v", level, i)
			assert.LessOrEqual(t, v, bounds.Max)
			prev = v
		}

		// Bins mirror each other about the centre of the range
		centre := (bounds.Min + bounds.Max) / 2
		for i := 0; i < n/2; i++ {
			lo, _ := c.Encode(i, level)
			hi, _ := c.Encode(n-1-i, level)
			assert.InDelta(t, centre-lo, hi-centre, 1e-12)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	c, err := NewCodec(2, unitBounds)
	require.NoError(t, err)

	_, err = c.Encode(0, 2)
	assert.Error(t, err)
	_, err = c.Encode(-1, 0)
	assert.Error(t, err)
	_, err = c.Encode(4, 1)
	assert.Error(t, err)
}

func TestExpandIndexIdentityAtFinest(t *testing.T) {
	for finest := 0; finest < 6; finest++ {
		for a := 0; a < NumActions(finest); a++ {
			assert.Equal(t, a, ExpandIndex(a, finest, finest))
		}
	}
}

func TestExpandIndexMatchesOneLevelUp(t *testing.T) {
	// The upper half of a coarse level maps one bin past the linear
	// scale-up
	assert.Equal(t, []int{0, 3}, []int{ExpandIndex(0, 0, 1),
		ExpandIndex(1, 0, 1)})
}

func TestExpandGatherIdempotent(t *testing.T) {
	for finest := 0; finest <= 4; finest++ {
		for level := 0; level <= finest; level++ {
			n := NumActions(level)
			values := make([]float64, n)
			for i := range values {
				values[i] = float64(i*i) - 3.5*float64(i) + 0.25
			}
			expanded := ExpandValues(values, level, finest)
			require.Len(t, expanded, NumActions(finest))

			for a := 0; a < n; a++ {
				index := ExpandIndex(a, level, finest)
				require.Less(t, index, len(expanded))
				assert.Equal(t, values[a], expanded[index],
					"level %v finest %v action %v", level, finest, a)
			}
		}
	}
}

func TestExpandValuesContiguous(t *testing.T) {
	have := ExpandValues([]float64{1, 2}, 0, 2)
	assert.Equal(t, []float64{1, 1, 1, 1, 2, 2, 2, 2}, have)
}

func TestExpansionMatrixMatchesExpandValues(t *testing.T) {
	for from := 0; from < 3; from++ {
		for to := from; to < 4; to++ {
			n := NumActions(from)
			values := make([]float64, n)
			for i := range values {
				values[i] = float64(i) + 0.5
			}
			e := ExpansionMatrix(from, to)

			var out mat.Dense
			out.Mul(mat.NewDense(1, n, values), e)
			assert.Equal(t, ExpandValues(values, from, to), out.RawRowView(0))
		}
	}
}
