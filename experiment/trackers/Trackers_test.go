package trackers

import (
	"encoding/json"
	"math"
	"testing"

	ts "github.com/samuelfneumann/gas/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func step(t ts.StepType, reward float64, n int) ts.TimeStep {
	return ts.New(t, reward, 1, mat.NewVecDense(1, nil), n)
}

func TestReturn(t *testing.T) {
	r := NewReturn()
	assert.Equal(t, 0.0, r.Last())

	require.NoError(t, r.Track(step(ts.First, 0, 0)))
	require.NoError(t, r.Track(step(ts.Mid, 1, 1)))
	assert.Equal(t, 1.0, r.Current())
	require.NoError(t, r.Track(step(ts.Last, 2, 2)))
	assert.Equal(t, 3.0, r.Last())

	// The first step of an episode need not be tracked
	require.NoError(t, r.Track(step(ts.Mid, 0.5, 1)))
	require.NoError(t, r.Track(step(ts.Last, 0, 2)))
	assert.Equal(t, []float64{3, 0.5}, r.Returns())

	require.NoError(t, r.Track(step(ts.Mid, 0, 1)))
	assert.Error(t, r.Track(step(ts.Mid, 0, 3)))
}

func TestRunDataJSON(t *testing.T) {
	r := NewRunData()
	r.Add(Loss, 4, 0.25)
	r.Add(Returns, 10, 1)
	r.Add(Loss, 8, math.NaN())
	r.AddEval(2000, []float64{0, 1})
	assert.Len(t, r.Series(Loss), 1)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, name := range append(SeriesNames, "eval_returns") {
		assert.Contains(t, doc, name)
	}
	assert.JSONEq(t, `[[4, 0.25]]`, string(doc[Loss]))
	assert.JSONEq(t, `[]`, string(doc[Force]))
	assert.JSONEq(t, `[[2000, [0, 1]]]`, string(doc["eval_returns"]))
}

func TestRunDataAggregates(t *testing.T) {
	r := NewRunData()
	assert.True(t, math.IsNaN(r.Mean(Returns, 10)))
	assert.True(t, math.IsNaN(r.Max(Returns)))
	mean, max := r.LastEval()
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(max))

	for i, v := range []float64{5, 1, 2, 3} {
		r.Add(Returns, i, v)
	}
	assert.Equal(t, 2.5, r.Mean(Returns, 2))
	assert.Equal(t, 2.75, r.Mean(Returns, 0))
	assert.Equal(t, 5.0, r.Max(Returns))

	r.AddEval(1, []float64{1, 3})
	mean, max = r.LastEval()
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 3.0, max)
}
