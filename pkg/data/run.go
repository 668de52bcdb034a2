package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/safegrade/pkg/benchmark"
)

const (
	timeLayout = time.RFC3339

	insertRunSQL = `INSERT INTO run (id, benchmark, sut, end_time, imported_at) VALUES (?, ?, ?, ?, ?)`

	insertMeasurementSQL = `INSERT INTO measurement (run_id, test, persona, frac_safe, num_items, exceptions)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	deleteRunSQL = `DELETE FROM run WHERE id = ?`

	deleteMeasurementsSQL = `DELETE FROM measurement WHERE run_id = ?`

	deleteAllMeasurementsSQL = `DELETE FROM measurement`

	deleteAllRunsSQL = `DELETE FROM run`

	selectRunSQL = `SELECT id, benchmark, sut, end_time, imported_at FROM run WHERE id = ?`

	selectRunsSQL = `SELECT id, benchmark, sut, end_time, imported_at FROM run ORDER BY end_time DESC, id`

	selectMeasurementsSQL = `SELECT test, persona, frac_safe, num_items, exceptions
		FROM measurement
		WHERE run_id = ?
		ORDER BY test, persona
	`
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run is one benchmark run of one system under test.
type Run struct {
	ID         string         `json:"id" yaml:"id"`
	Benchmark  string         `json:"benchmark" yaml:"benchmark"`
	SUT        string         `json:"sut" yaml:"sut"`
	EndTime    time.Time      `json:"end_time" yaml:"endTime"`
	ImportedAt time.Time      `json:"imported_at" yaml:"importedAt"`
	Results    []*Measurement `json:"results,omitempty" yaml:"results,omitempty"`
}

// Measurement is the outcome of one test for one persona.
type Measurement struct {
	Test       string  `json:"test" yaml:"test"`
	Persona    string  `json:"persona" yaml:"persona"`
	FracSafe   float64 `json:"frac_safe" yaml:"fracSafe"`
	NumItems   int     `json:"num_items" yaml:"numItems"`
	Exceptions int     `json:"exceptions" yaml:"exceptions"`
}

// Input converts the run into scoring input.
func (r *Run) Input() benchmark.RunInput {
	in := benchmark.RunInput{
		Benchmark: r.Benchmark,
		SUT:       r.SUT,
		EndTime:   r.EndTime,
		Results:   make([]benchmark.TestResult, 0, len(r.Results)),
	}
	for _, m := range r.Results {
		in.Results = append(in.Results, benchmark.TestResult{
			Test:       m.Test,
			Persona:    benchmark.Persona(m.Persona),
			FracSafe:   m.FracSafe,
			NumItems:   m.NumItems,
			Exceptions: m.Exceptions,
		})
	}
	return in
}

// SaveRun stores the run with its measurements, replacing any run with
// the same id.
func SaveRun(db *sql.DB, run *Run) error {
	if db == nil {
		return errDBNotInitialized
	}
	if err := run.Validate(); err != nil {
		return err
	}
	if run.ImportedAt.IsZero() {
		run.ImportedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := saveRun(tx, db, run); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", errors.Join(err, rerr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("run saved", "id", run.ID, "measurements", len(run.Results))
	return nil
}

func saveRun(tx *sql.Tx, db *sql.DB, run *Run) error {
	if _, err := tx.Exec(rebind(db, deleteMeasurementsSQL), run.ID); err != nil {
		return fmt.Errorf("failed to delete measurements of run %s: %w", run.ID, err)
	}
	if _, err := tx.Exec(rebind(db, deleteRunSQL), run.ID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(rebind(db, insertRunSQL), run.ID, run.Benchmark, run.SUT,
		run.EndTime.UTC().Format(timeLayout), run.ImportedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(rebind(db, insertMeasurementSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare measurement insert statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range run.Results {
		if _, err := stmt.Exec(run.ID, m.Test, m.Persona, m.FracSafe, m.NumItems, m.Exceptions); err != nil {
			return fmt.Errorf("failed to insert measurement %s/%s: %w", m.Test, m.Persona, err)
		}
	}
	return nil
}

// GetRun returns the run with its measurements.
func GetRun(db *sql.DB, id string) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	run, err := scanRun(db.QueryRow(rebind(db, selectRunSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
		}
		return nil, err
	}

	rows, err := db.Query(rebind(db, selectMeasurementsSQL), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements of run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &Measurement{}
		if err := rows.Scan(&m.Test, &m.Persona, &m.FracSafe, &m.NumItems, &m.Exceptions); err != nil {
			return nil, fmt.Errorf("failed to scan measurement row: %w", err)
		}
		run.Results = append(run.Results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate measurement rows: %w", err)
	}

	return run, nil
}

// ListRuns returns all runs, most recent first, without measurements.
func ListRuns(db *sql.DB) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectRunsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run rows: %w", err)
	}

	return list, nil
}

// DeleteRun removes the run and its measurements.
func DeleteRun(db *sql.DB, id string) error {
	if db == nil {
		return errDBNotInitialized
	}

	if _, err := db.Exec(rebind(db, deleteMeasurementsSQL), id); err != nil {
		return fmt.Errorf("failed to delete measurements of run %s: %w", id, err)
	}
	res, err := db.Exec(rebind(db, deleteRunSQL), id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// DeleteAllRuns removes every run and its measurements, returning the number of runs removed.
func DeleteAllRuns(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(deleteAllMeasurementsSQL); err != nil {
		return 0, fmt.Errorf("failed to delete measurements: %w", err)
	}
	res, err := tx.Exec(deleteAllRunsSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reset: %w", err)
	}
	slog.Debug("deleted all runs", "count", n)
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var end, imported string
	if err := row.Scan(&r.ID, &r.Benchmark, &r.SUT, &end, &imported); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run row: %w", err)
	}

	var err error
	if r.EndTime, err = time.Parse(timeLayout, end); err != nil {
		return nil, fmt.Errorf("failed to parse end time %q: %w", end, err)
	}
	if r.ImportedAt, err = time.Parse(timeLayout, imported); err != nil {
		return nil, fmt.Errorf("failed to parse import time %q: %w", imported, err)
	}
	return r, nil
}
