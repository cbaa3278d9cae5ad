package cmd

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/gas/experiment"
	"github.com/samuelfneumann/gas/experiment/savers"
	"github.com/spf13/cobra"
)

var trainFlags *configFlags

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train agents",
	Long: `Train runs the configured number of independent repeats. Each run is
saved as a JSON document at <prefix><repeat>.json and, when --sqlite is given,
to a SQLite database.

Examples:
  gas train --env MountainCar --n-levels 4
  gas train --config run.yaml --seed 3 --sqlite runs.db`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainFlags = newConfigFlags(trainCmd.Flags())
}

func runTrain(cmd *cobra.Command, _ []string) error {
	c, err := trainFlags.resolve(cmd.Flags(), configPath)
	if err != nil {
		return err
	}
	if c.Logger, err = newLogger(os.Stderr, logLevel); err != nil {
		return err
	}

	saver := savers.Multi{savers.NewJSON(c.Prefix)}
	if c.SQLite != "" {
		db, err := savers.OpenSQLite(c.SQLite)
		if err != nil {
			return err
		}
		defer db.Close()
		saver = append(saver, db)
	}

	if err := experiment.Repeat(c, saver); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	return nil
}
