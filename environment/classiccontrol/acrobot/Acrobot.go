// Package acrobot implements the classic control environment Acrobot
// with continuous actions
package acrobot

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/gas/environment"
	ts "github.com/samuelfneumann/gas/timestep"
	"github.com/samuelfneumann/gas/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// dynamicsType determines whether the dynamics of the environment
// follows those defined in the NeurIPS paper or the RL book.
type dynamicsType bool

const (
	// Dynamics of environment is consistent with RL book
	book dynamicsType = true

	// Dynamics of environment is consistent with NeurIPS paper
	nips dynamicsType = false
)

const (
	dt float64 = 0.2

	// Physical constants
	LinkLength1 float64 = 1.0 // Metres, length of link 1
	LinkLength2 float64 = 1.0 // Metres, length of link 2
	LinkMass1   float64 = 1.0 // Kg, mass of link 1
	LinkMass2   float64 = 1.0 // Kg, mass of link 2
	LinkCOMPos1 float64 = 0.5 // Metres, centre of mass link 1
	LinkCOMPos2 float64 = 0.5 // Metres, cetnre of mass link 2
	LinkMOI     float64 = 1.0 // Moments of inertia for both links
	MaxVel1     float64 = 4 * math.Pi
	MinVel1     float64 = -MaxVel1
	MaxVel2     float64 = 9 * math.Pi
	MinVel2     float64 = -MaxVel2
	Gravity     float64 = 9.8
	MaxAngle    float64 = math.Pi
	MinAngle    float64 = -MaxAngle
	MinTorque   float64 = -1.0
	MaxTorque   float64 = 1.0

	// Environment constants
	ObservationDims     int     = 4
	ActionDims          int     = 1
	MinContinuousAction float64 = MinTorque
	MaxContinuousAction float64 = MaxTorque

	BookOrNips dynamicsType = book
)

// Continuous implements the classic control environment Acrobot. In
// this environment, a double hinged and double linked pendulum is
// attached to a single actuated fixed base. Torque can be applied to
// the base to swing the double pendulum (acrobot) around.
//
// State feature vectors are 4-dimensional:
//
//	v⃗ = [θ1, θ2, θ̇1, θ̇2], where:
//	θ1 = angle of the first link measured from the negative y-axis
//	θ2 = angle of the second link relative to the first link
//	θ̇1 = angular velocity of the first link
//	θ̇2 = angular velocity of the second link
//
// Angles are wrapped to stay within [-π, π] and angular velocities are
// clipped to [MinVel1, MaxVel1] and [MinVel2, MaxVel2].
//
// Actions are the torque applied to the base. Actions outside of
// [MinContinuousAction, MaxContinuousAction] are clipped.
type Continuous struct {
	env.Task
	lastStep        ts.TimeStep
	discount        float64
	angleBounds     r1.Interval
	velocity1Bounds r1.Interval
	velocity2Bounds r1.Interval
}

// NewContinuous returns a new Acrobot environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous,
	ts.TimeStep, error) {
	a := &Continuous{
		Task:            t,
		discount:        discount,
		angleBounds:     r1.Interval{Min: MinAngle, Max: MaxAngle},
		velocity1Bounds: r1.Interval{Min: MinVel1, Max: MaxVel1},
		velocity2Bounds: r1.Interval{Min: MinVel2, Max: MaxVel2},
	}

	firstStep, err := a.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}
	return a, firstStep, nil
}

// validateState returns an error if state is not a legal state
func validateState(state *mat.VecDense, angleBounds, vel1Bounds,
	vel2Bounds r1.Interval) error {
	if l := state.Len(); l != ObservationDims {
		return fmt.Errorf("illegal state length \n\twant(%v) \n\thave(%v)",
			ObservationDims, l)
	}

	bounds := []r1.Interval{angleBounds, angleBounds, vel1Bounds, vel2Bounds}
	names := []string{"angle 1", "angle 2", "angular velocity 1",
		"angular velocity 2"}
	for i, b := range bounds {
		if v := state.AtVec(i); v < b.Min || v > b.Max {
			return fmt.Errorf("%v out of bounds: %v ∉ [%v, %v]", names[i], v,
				b.Min, b.Max)
		}
	}
	return nil
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (a *Continuous) Reset() (ts.TimeStep, error) {
	state := a.Start()
	err := validateState(state, a.angleBounds, a.velocity1Bounds,
		a.velocity2Bounds)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	a.lastStep = ts.New(ts.First, 0, a.discount, state, 0)
	return a.lastStep, nil
}

// Step takes one environmental step given action act and returns the
// next timestep and a bool indicating whether or not the episode has
// ended.
func (a *Continuous) Step(act *mat.VecDense) (ts.TimeStep, bool, error) {
	if act.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional, have %v", ActionDims, act.Len())
	}
	if a.lastStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: episode has ended, " +
			"call Reset")
	}

	torque := floatutils.Clip(act.AtVec(0), MinContinuousAction,
		MaxContinuousAction)
	newState := a.nextState(torque)

	reward := a.GetReward(a.lastStep.Observation, act, newState)
	nextStep := ts.New(ts.Mid, reward, a.discount, newState,
		a.lastStep.Number+1)

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	a.End(&nextStep)

	a.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState returns the next state of the environment given the
// torque to apply to the fixed base of the acrobot.
func (a *Continuous) nextState(torque float64) *mat.VecDense {
	s := a.lastStep.Observation

	sAugmented := mat.NewVecDense(s.Len()+1, nil)
	sAugmented.CopyVec(s)
	sAugmented.SetVec(sAugmented.Len()-1, torque)

	integrated := rk4(dsDt, sAugmented, []float64{0.0, dt})
	r, c := integrated.Dims()
	ns := mat.NewVecDense(c-1, nil)
	ns.CopyVec(integrated.RowView(r - 1).(*mat.VecDense).SliceVec(0, c-1))

	// Ensure state stays in an acceptable range
	ns.SetVec(0, floatutils.WrapInterval(ns.AtVec(0), a.angleBounds))
	ns.SetVec(1, floatutils.WrapInterval(ns.AtVec(1), a.angleBounds))
	ns.SetVec(2, floatutils.ClipInterval(ns.AtVec(2), a.velocity1Bounds))
	ns.SetVec(3, floatutils.ClipInterval(ns.AtVec(3), a.velocity2Bounds))

	return ns
}

// ObservationSpec returns the observation specification of the
// environment
func (a *Continuous) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims, []float64{MinAngle,
		MinAngle, MinVel1, MinVel2})
	upperBound := mat.NewVecDense(ObservationDims, []float64{MaxAngle,
		MaxAngle, MaxVel1, MaxVel2})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (a *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (a *Continuous) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{a.discount})
	upperBound := mat.NewVecDense(1, []float64{a.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// String implements the fmt.Stringer interface
func (a *Continuous) String() string {
	state := a.lastStep.Observation

	return fmt.Sprintf("Acrobot  |  θ1: %v  |  θ2: %v  |  θ̇1: %v  |  θ̇2: %v",
		state.AtVec(0), state.AtVec(1), state.AtVec(2), state.AtVec(3))
}

// dsDt calculate ds/dt for the environment, where s = the current
// environment state
func dsDt(sAugmented *mat.VecDense, t float64) []float64 {
	m1 := LinkMass1
	m2 := LinkMass2
	l1 := LinkLength1
	lc1 := LinkCOMPos1
	lc2 := LinkCOMPos2
	i1 := LinkMOI
	i2 := LinkMOI
	g := Gravity

	s := sAugmented.SliceVec(0, sAugmented.Len()-1)
	a := sAugmented.AtVec(sAugmented.Len() - 1)

	theta1 := s.AtVec(0)
	theta2 := s.AtVec(1)
	dtheta1 := s.AtVec(2)
	dtheta2 := s.AtVec(3)

	d1 := (m1*math.Pow(lc1, 2) +
		m2*(math.Pow(l1, 2)+math.Pow(lc2, 2)+2*l1*lc2*math.Cos(theta2)) +
		i1 + i2)

	d2 := m2*(math.Pow(lc2, 2)+l1*lc2*math.Cos(theta2)) + i2

	phi2 := m2 * lc2 * g * math.Cos(theta1+theta2-(math.Pi/2.0))
	phi1 := (-m2*l1*lc2*math.Pow(dtheta2, 2)*math.Sin(theta2) -
		2*m2*l1*lc2*dtheta2*dtheta1*math.Sin(theta2) +
		(m1*lc1+m2*l1)*g*math.Cos(theta1-(math.Pi/2.0)) +
		phi2)

	var ddtheta2 float64
	if BookOrNips == nips {
		ddtheta2 = (a + d2/d1*phi1 - phi2) / (m2*math.Pow(lc2, 2) + i2 -
			math.Pow(d2, 2)/d1)
	} else {
		ddtheta2 = (a + d2/d1*phi1 - m2*l1*lc2*math.Pow(dtheta1, 2)*
			math.Sin(theta2) - phi2) /
			(m2*math.Pow(lc2, 2) + i2 - math.Pow(d2, 2)/d1)
	}
	ddtheta1 := -(d2*ddtheta2 + phi1) / d1

	// Last component is da/dt == 0.0
	return []float64{dtheta1, dtheta2, ddtheta1, ddtheta2, 0.0}
}

// rk4 integrates an n-dimensional system of ODEs using 4-th order
// RUnge-Kutta.
//
// Adapted from OpenAI Gym Acrobot:
// https://github.com/openai/gym/blob/7c9ae6d14087fe50714d59bc36b1797560
// 961710/gym/envs/classic_control/acrobot.py
func rk4(derivs func(*mat.VecDense, float64) []float64, y0 *mat.VecDense, t []float64) *mat.Dense {
	Ny := y0.Len()

	var yout *mat.Dense
	if Ny == 1 {
		yout = mat.NewDense(len(t), 1, nil)
	} else {
		yout = mat.NewDense(len(t), Ny, nil)
	}

	yout.SetRow(0, y0.RawVector().Data)

	for i := 0; i < len(t)-1; i++ {
		thist := t[i]
		dt := t[i+1] - thist // shadowing package constant
		dt2 := dt / 2.0

		y0 := yout.RowView(i).(*mat.VecDense) // shadowing input y0

		dsdt := derivs(y0, thist)
		k1 := mat.NewVecDense(len(dsdt), dsdt)

		input := mat.NewVecDense(len(dsdt), nil)
		input.AddScaledVec(y0, dt2, k1)
		dsdt = derivs(input, thist+dt2)
		k2 := mat.NewVecDense(len(dsdt), dsdt)

		input.AddScaledVec(y0, dt2, k2)
		dsdt = derivs(input, thist+dt2)
		k3 := mat.NewVecDense(len(dsdt), dsdt)

		input.AddScaledVec(y0, dt, k3)
		dsdt = derivs(input, thist+dt)
		k4 := mat.NewVecDense(len(dsdt), dsdt)

		row := mat.NewVecDense(k1.Len(), nil)
		row.CopyVec(k1)
		row.AddScaledVec(row, 2.0, k2)
		row.AddScaledVec(row, 2.0, k3)
		row.AddVec(row, k4)
		row.AddScaledVec(y0, dt/6.0, row)

		yout.SetRow(i+1, row.RawVector().Data)
	}
	return yout
}
