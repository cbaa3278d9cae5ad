// Package experiment implements functionality for running an experiment.
// An experiment consists of one or more independent runs of the same
// configuration, each of which trains a fresh agent on a fresh
// environment and records its progress.
package experiment

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/gas/experiment/savers"
	"github.com/samuelfneumann/gas/experiment/trackers"
)

// Experiment is a single run of an experiment. Run trains until the
// frame budget is exhausted and returns the recorded data. Meta
// describes the run for savers.
type Experiment interface {
	Run() (*trackers.RunData, error)
	Meta() savers.Meta
	Close() error
}

var _ Experiment = &Online{}

// Repeat runs c.Repeats independent runs of c in sequence. Each run
// constructs its own components and is handed to saver once finished.
// The first failing run aborts the experiment.
func Repeat(c Config, saver savers.Saver) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("repeat: %w", err)
	}
	c = c.Resolve()

	for i := 0; i < c.Repeats; i++ {
		if err := runOnce(c, i, saver); err != nil {
			return fmt.Errorf("repeat: run %v: %w", i, err)
		}
	}
	return nil
}

// runOnce runs and saves the run repeat of c
func runOnce(c Config, repeat int, saver savers.Saver) (err error) {
	exp, err := NewOnline(c, repeat)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, exp.Close())
	}()

	data, err := exp.Run()
	if err != nil {
		return err
	}

	meta := exp.Meta()
	if err := saver.Save(meta, data); err != nil {
		return err
	}
	c.Logger.Info("saved run", slog.String("run", meta.RunID.String()),
		slog.Int("repeat", repeat))
	return nil
}
