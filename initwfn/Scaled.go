package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Scaled returns an InitWFn which draws weights from init and
// multiplies each of them by factor.
func Scaled(init G.InitWFn, factor float64) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		switch values := init(dt, s...).(type) {
		case []float64:
			for i := range values {
				values[i] *= factor
			}
			return values

		case []float32:
			for i := range values {
				values[i] *= float32(factor)
			}
			return values

		default:
			panic(fmt.Sprintf("scaled: cannot scale weights of type %T",
				values))
		}
	}
}
