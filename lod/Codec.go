// Package lod implements the action levels of detail. Level l splits a
// one-dimensional continuous control range into 2^(l+1) equal bins. This
// package converts bin indices at any level to continuous controls and
// translates indices and value vectors from coarse levels to finer ones.
package lod

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// NumActions returns the number of discrete actions at level
func NumActions(level int) int {
	return 1 << (level + 1)
}

// Codec converts action indices at some level of detail into
// continuous control values within Bounds
type Codec struct {
	Levels int
	Bounds r1.Interval
}

// NewCodec returns a new Codec for levels levels of detail over the
// action range bounds
func NewCodec(levels int, bounds r1.Interval) (Codec, error) {
	if levels < 1 {
		return Codec{}, fmt.Errorf("newCodec: levels must be >= 1, have %v",
			levels)
	}
	if !(bounds.Min < bounds.Max) {
		return Codec{}, fmt.Errorf("newCodec: invalid action bounds [%v, %v]",
			bounds.Min, bounds.Max)
	}
	return Codec{Levels: levels, Bounds: bounds}, nil
}

// Finest returns the finest level of detail of the Codec
func (c Codec) Finest() int {
	return c.Levels - 1
}

// Encode returns the continuous control value of action at level.
//
// Actions in the upper half of the level are offset by one bin so that
// the two central bins do not collapse onto the same control value.
func (c Codec) Encode(action, level int) (float64, error) {
	if level < 0 || level >= c.Levels {
		return 0, fmt.Errorf("encode: level %v ∉ [0, %v)", level,
			c.Levels)
	}
	n := NumActions(level)
	if action < 0 || action >= n {
		return 0, fmt.Errorf("encode: action %v ∉ [0, %v)", action, n)
	}

	var frac float64
	if action < n/2 {
		frac = float64(action) / float64(n)
	} else {
		frac = float64(action+1) / float64(n)
	}
	return frac*(c.Bounds.Max-c.Bounds.Min) + c.Bounds.Min, nil
}

// ExpandIndex translates action at level to the index of the
// corresponding action at level finest. Gathering a value vector
// expanded with ExpandValues at the returned index gives the same value
// as gathering the unexpanded vector at action.
func ExpandIndex(action, level, finest int) int {
	expanded := action << (finest - level)
	if action >= NumActions(level)/2 && level < finest {
		expanded++
	}
	return expanded
}

// ExpandValues repeats each entry of the level values 2^(finest-level)
// times in contiguous blocks, returning a vector at the resolution of
// level finest.
func ExpandValues(values []float64, level, finest int) []float64 {
	factor := 1 << (finest - level)
	expanded := make([]float64, len(values)*factor)
	for i, v := range values {
		for j := 0; j < factor; j++ {
			expanded[i*factor+j] = v
		}
	}
	return expanded
}

// ExpansionMatrix returns the 0/1 matrix E with NumActions(from) rows
// and NumActions(to) columns such that the row vector v·E equals
// ExpandValues(v, from, to).
func ExpansionMatrix(from, to int) *mat.Dense {
	if to < from {
		panic(fmt.Sprintf("expansionMatrix: cannot expand level %v to "+
			"coarser level %v", from, to))
	}
	rows, cols := NumActions(from), NumActions(to)
	factor := cols / rows

	e := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < factor; j++ {
			e.Set(i, i*factor+j, 1.0)
		}
	}
	return e
}
