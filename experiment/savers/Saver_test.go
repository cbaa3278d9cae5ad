package savers

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gas/experiment/trackers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runData() *trackers.RunData {
	r := trackers.NewRunData()
	r.Add(trackers.Loss, 4, 0.5)
	r.Add(trackers.Loss, 8, 0.25)
	r.Add(trackers.Returns, 100, 1)
	r.Add(trackers.Force, 1000, math.NaN())
	r.AddEval(2000, []float64{0, 1, 1})
	return r
}

func meta(repeat int) Meta {
	return Meta{
		RunID:  uuid.New(),
		Repeat: repeat,
		Env:    "Acrobot",
		Config: map[string]int{"frames": 10},
	}
}

func TestJSONSave(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "results", "experimental", "test")
	s := NewJSON(prefix)
	require.NoError(t, s.Save(meta(3), runData()))

	data, err := os.ReadFile(prefix + "3.json")
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `[[4, 0.5], [8, 0.25]]`, string(doc["loss"]))
	assert.JSONEq(t, `[[2000, [0, 1, 1]]]`, string(doc["eval_returns"]))
	assert.JSONEq(t, `[]`, string(doc["force"]))
}

func TestSQLiteSave(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	m := meta(0)
	require.NoError(t, s.Save(m, runData()))
	require.NoError(t, s.Save(meta(1), runData()))

	var runs int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM runs`).
		Scan(&runs))
	assert.Equal(t, 2, runs)

	var sum float64
	require.NoError(t, s.DB().QueryRow(
		`SELECT SUM(value) FROM series WHERE run_id = ? AND name = 'loss'`,
		m.RunID.String()).Scan(&sum))
	assert.Equal(t, 0.75, sum)

	var episodes int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM eval_returns WHERE run_id = ?`,
		m.RunID.String()).Scan(&episodes))
	assert.Equal(t, 3, episodes)

	var force int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM series WHERE run_id = ? AND name = 'force'`,
		m.RunID.String()).Scan(&force))
	assert.Equal(t, 0, force)

	// Run ids are unique
	assert.Error(t, s.Save(m, runData()))
}

type failing struct{ calls int }

func (f *failing) Save(Meta, *trackers.RunData) error {
	f.calls++
	return errors.New("failed")
}

func TestMulti(t *testing.T) {
	f := &failing{}
	prefix := filepath.Join(t.TempDir(), "run")
	m := Multi{f, NewJSON(prefix)}

	assert.Error(t, m.Save(meta(0), runData()))
	assert.Equal(t, 1, f.calls)
	assert.FileExists(t, prefix+"0.json")
}
