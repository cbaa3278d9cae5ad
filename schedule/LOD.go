package schedule

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// LOD grows the level of detail over training. After LeadIn steps,
// time is split into cycles of Plateau+Growth steps. Each completed
// cycle adds one level, and within a cycle the level grows linearly
// over the first Growth steps. The level never exceeds Levels-1.
type LOD struct {
	LeadIn  int `yaml:"lead_in"`
	Plateau int `yaml:"plateau"`
	Growth  int `yaml:"growth"`
	Levels  int `yaml:"-"`

	// Fixed pins every step to the finest level
	Fixed bool `yaml:"-"`
}

// Validate returns an error if the schedule is malformed
func (l LOD) Validate() error {
	if l.Levels < 1 {
		return fmt.Errorf("validate: levels must be >= 1, have %v", l.Levels)
	}
	if l.Growth <= 0 {
		return fmt.Errorf("validate: lod growth must be > 0, have %v",
			l.Growth)
	}
	if l.Plateau < 0 || l.LeadIn < 0 {
		return fmt.Errorf("validate: lod plateau (%v) and lead in (%v) "+
			"must be >= 0", l.Plateau, l.LeadIn)
	}
	return nil
}

// Fractional returns the fractional level of detail at step
func (l LOD) Fractional(step int) float64 {
	if step < l.LeadIn {
		return 0
	}
	cycle := l.Plateau + l.Growth
	base := float64((step - l.LeadIn) / cycle)
	offset := float64(l.LeadIn) + base*float64(cycle)

	progress := math.Min(1, math.Max(0, (float64(step)-offset)/
		float64(l.Growth)))
	return math.Min(base+progress, float64(l.Levels-1))
}

// Sample returns the integer level of detail used at step along with
// the fractional level it was rounded from. The fractional level is
// rounded up with probability equal to its fractional part.
//
// Fixed schedules always return the finest level and a fractional
// level of 0.
func (l LOD) Sample(step int, rng *rand.Rand) (int, float64) {
	if l.Fixed {
		return l.Levels - 1, 0
	}

	plod := l.Fractional(step)
	base, grow := math.Modf(plod)
	level := int(base)
	if rng.Float64() < grow {
		level++
	}
	return level, plod
}
