// Package schedule implements the training curriculum: exploration
// rate and level of detail as pure functions of the global step.
package schedule

import (
	"fmt"
	"math"
)

// Epsilon linearly decays the exploration rate from Start to Final over
// Decay steps, beginning after LeadIn steps
type Epsilon struct {
	Start  float64 `yaml:"start"`
	Final  float64 `yaml:"final"`
	LeadIn int     `yaml:"lead_in"`
	Decay  int     `yaml:"decay"`
}

// Validate returns an error if the schedule is malformed
func (e Epsilon) Validate() error {
	if e.Decay <= 0 {
		return fmt.Errorf("validate: epsilon decay must be > 0, have %v",
			e.Decay)
	}
	if e.Final < 0 || e.Start > 1 || e.Final > e.Start {
		return fmt.Errorf("validate: need 0 <= final (%v) <= start (%v) <= 1",
			e.Final, e.Start)
	}
	return nil
}

// At returns the exploration rate at step
func (e Epsilon) At(step int) float64 {
	progress := 1 - float64(step-e.LeadIn)/float64(e.Decay)
	return e.Final + math.Max(0, (e.Start-e.Final)*math.Min(1, progress))
}
