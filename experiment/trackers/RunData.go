package trackers

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Names of the scalar series of a RunData
const (
	Loss      = "loss"
	RegLoss   = "reg_loss"
	Value     = "value"
	LOD       = "lod"
	Returns   = "returns"
	FoundGoal = "found_goal"
	Force     = "force"
)

// SeriesNames lists the scalar series of a RunData in a fixed order
var SeriesNames = []string{Loss, RegLoss, Value, LOD, Returns, FoundGoal,
	Force}

// Point is a single value recorded at a global step. It is encoded in
// JSON as the pair [step, value].
type Point struct {
	Step  int
	Value float64
}

// MarshalJSON implements the json.Marshaler interface
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Step, p.Value})
}

// EvalPoint holds the returns of the evaluation episodes run at a
// global step. It is encoded in JSON as [step, [returns...]].
type EvalPoint struct {
	Step    int
	Returns []float64
}

// MarshalJSON implements the json.Marshaler interface
func (e EvalPoint) MarshalJSON() ([]byte, error) {
	returns := e.Returns
	if returns == nil {
		returns = []float64{}
	}
	return json.Marshal([2]any{e.Step, returns})
}

// RunData is the record of the metrics produced by a single training
// run
type RunData struct {
	series      map[string][]Point
	EvalReturns []EvalPoint
}

// NewRunData returns a new, empty RunData
func NewRunData() *RunData {
	series := make(map[string][]Point, len(SeriesNames))
	for _, name := range SeriesNames {
		series[name] = []Point{}
	}
	return &RunData{series: series}
}

// Add appends value at step to the series name. NaN values carry no
// measurement and are dropped.
func (r *RunData) Add(name string, step int, value float64) {
	if math.IsNaN(value) {
		return
	}
	r.series[name] = append(r.series[name], Point{Step: step, Value: value})
}

// AddEval appends the returns of an evaluation at step
func (r *RunData) AddEval(step int, returns []float64) {
	r.EvalReturns = append(r.EvalReturns, EvalPoint{step, returns})
}

// Series returns the points of the series name
func (r *RunData) Series(name string) []Point {
	return r.series[name]
}

// Mean returns the mean of the last n values of the series name, or of
// the whole series if n <= 0. The mean of an empty series is NaN.
func (r *RunData) Mean(name string, n int) float64 {
	v := values(r.series[name], n)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Max returns the maximum value of the series name, or NaN if the
// series is empty
func (r *RunData) Max(name string) float64 {
	v := values(r.series[name], 0)
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}

// LastEval returns the mean and maximum return of the last evaluation,
// or NaN if no evaluation has finished
func (r *RunData) LastEval() (mean, max float64) {
	if len(r.EvalReturns) == 0 || len(r.EvalReturns[len(r.EvalReturns)-1].
		Returns) == 0 {
		return math.NaN(), math.NaN()
	}
	returns := r.EvalReturns[len(r.EvalReturns)-1].Returns
	return stat.Mean(returns, nil), floats.Max(returns)
}

// MarshalJSON implements the json.Marshaler interface. Each series is
// a list of [step, value] pairs keyed by its name.
func (r *RunData) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.series)+1)
	for name, points := range r.series {
		doc[name] = points
	}
	evals := r.EvalReturns
	if evals == nil {
		evals = []EvalPoint{}
	}
	doc["eval_returns"] = evals
	return json.Marshal(doc)
}

// values returns the values of the last n points, or all points if
// n <= 0
func values(points []Point, n int) []float64 {
	if n > 0 && len(points) > n {
		points = points[len(points)-n:]
	}
	v := make([]float64, len(points))
	for i, p := range points {
		v[i] = p.Value
	}
	return v
}
