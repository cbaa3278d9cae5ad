package savers

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samuelfneumann/gas/experiment/trackers"
	"gopkg.in/yaml.v3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite saves runs to the tables of a SQLite database. Each run adds
// one row to runs, one row per recorded point to series, and one row
// per evaluation episode to eval_returns.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the SQLite database at path, creating it and its
// tables if needed
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("openSQLite: %w", err)
	}

	// One writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("openSQLite: could not create schema: %w",
			err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the path of the database
func (s *SQLite) Path() string {
	return s.path
}

// DB returns the underlying database handle
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save implements the Saver interface. A run is saved in a single
// transaction.
func (s *SQLite) Save(meta Meta, data *trackers.RunData) (err error) {
	config, err := yaml.Marshal(meta.Config)
	if err != nil {
		return fmt.Errorf("save: could not encode config: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	runID := meta.RunID.String()
	_, err = tx.Exec(
		`INSERT INTO runs (id, repeat, env, config, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, meta.Repeat, meta.Env, string(config),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save: could not insert run %v: %w", runID, err)
	}

	if err = s.insertSeries(tx, runID, data); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err = s.insertEvals(tx, runID, data); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

func (s *SQLite) insertSeries(tx *sql.Tx, runID string,
	data *trackers.RunData) error {
	stmt, err := tx.Prepare(
		`INSERT INTO series (run_id, name, step, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range trackers.SeriesNames {
		for _, p := range data.Series(name) {
			if _, err := stmt.Exec(runID, name, p.Step, p.Value); err != nil {
				return fmt.Errorf("series %v: %w", name, err)
			}
		}
	}
	return nil
}

func (s *SQLite) insertEvals(tx *sql.Tx, runID string,
	data *trackers.RunData) error {
	stmt, err := tx.Prepare(
		`INSERT INTO eval_returns (run_id, step, episode, value)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range data.EvalReturns {
		for i, r := range e.Returns {
			if _, err := stmt.Exec(runID, e.Step, i, r); err != nil {
				return fmt.Errorf("eval returns: %w", err)
			}
		}
	}
	return nil
}
