// Package savers implements Savers, which save the data recorded during
// an experiment
package savers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gas/experiment/trackers"
)

// Meta describes the run that produced a RunData
type Meta struct {
	RunID  uuid.UUID
	Repeat int
	Env    string

	// Config is the configuration of the run. It must be encodable as
	// YAML.
	Config any
}

// Saver saves the data recorded in a run after the run has finished
type Saver interface {
	Save(meta Meta, data *trackers.RunData) error
}

// JSON saves each run as a JSON document at <Prefix><repeat>.json
type JSON struct {
	Prefix string
}

// NewJSON returns a new JSON saver writing files at prefix
func NewJSON(prefix string) *JSON {
	return &JSON{Prefix: prefix}
}

// Filename returns the file that the run of repeat is saved to
func (j *JSON) Filename(repeat int) string {
	return j.Prefix + strconv.Itoa(repeat) + ".json"
}

// Save implements the Saver interface
func (j *JSON) Save(meta Meta, data *trackers.RunData) error {
	filename := j.Filename(meta.Repeat)
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("save: could not encode run %v: %w", meta.RunID,
			err)
	}
	if err := os.WriteFile(filename, encoded, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Multi saves each run with every one of its Savers
type Multi []Saver

// Save implements the Saver interface. Every Saver is called even if
// an earlier one fails.
func (m Multi) Save(meta Meta, data *trackers.RunData) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(meta, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
