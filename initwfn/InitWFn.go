// Package initwfn implements functionality to describe Gorgonia InitWFn
// in configuration files.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
)

// InitWFn describes a Gorgonia InitWFn. Gain is used by the Glorot and
// He initializers. Low and High are the mean and standard deviation of
// Gaussian initializers and the bounds of Uniform initializers.
type InitWFn struct {
	Type Type    `yaml:"type"`
	Gain float64 `yaml:"gain,omitempty"`
	Low  float64 `yaml:"low,omitempty"`
	High float64 `yaml:"high,omitempty"`
}

// NewGlorotU returns a new Glorot Uniform weight initializer description
func NewGlorotU(gain float64) InitWFn {
	return InitWFn{Type: GlorotU, Gain: gain}
}

// Create returns the Gorgonia InitWFn that the InitWFn describes
func (i InitWFn) Create() (G.InitWFn, error) {
	switch i.Type {
	case GlorotU:
		return G.GlorotU(i.Gain), nil
	case GlorotN:
		return G.GlorotN(i.Gain), nil
	case HeU:
		return G.HeU(i.Gain), nil
	case HeN:
		return G.HeN(i.Gain), nil
	case Gaussian:
		return G.Gaussian(i.Low, i.High), nil
	case Uniform:
		if i.Low >= i.High {
			return nil, fmt.Errorf("create: uniform bounds [%v, %v] are empty",
				i.Low, i.High)
		}
		return G.Uniform(i.Low, i.High), nil
	case Zeroes:
		return G.Zeroes(), nil
	case Ones:
		return G.Ones(), nil
	}
	return nil, fmt.Errorf("create: unknown initializer type %q", i.Type)
}

// String implements the fmt.Stringer interface
func (i InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: gain=%v low=%v high=%v}", i.Type, i.Gain,
		i.Low, i.High)
}
