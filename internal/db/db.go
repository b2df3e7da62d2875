// Package db keeps a history of calibration runs in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/forcecal/internal/principal"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and migrates it to the
// latest schema.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; a CLI run never needs more.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s on %s: %w", pragma, path, err)
		}
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	version, dirty, err := db.MigrateVersion()
	if err == nil && (dirty || version != LatestVersion) {
		err = fmt.Errorf("schema at version %d (dirty=%v), want %d", version, dirty, LatestVersion)
	}
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("check schema of %s: %w", path, err)
	}
	return db, nil
}

// Run is one stored calibration run.
type Run struct {
	RunID     string
	TestID    string
	Input     string
	Channel   string
	Samples   int
	Duration  time.Duration
	CreatedAt time.Time
	Axes      []Axis
}

// Axis is one principal axis of one sensor.
type Axis struct {
	Sensor    string
	Index     int // 1-based, as printed in the report
	X, Y, Z   float64
	Magnitude float64
}

// AxesFromResult flattens an extraction result into three Axis rows.
func AxesFromResult(sensor string, r principal.Result) []Axis {
	axes := make([]Axis, 0, len(r.Axes))
	for i, a := range r.Axes {
		axes = append(axes, Axis{
			Sensor:    sensor,
			Index:     i + 1,
			X:         a.X,
			Y:         a.Y,
			Z:         a.Z,
			Magnitude: r.Magnitudes[i],
		})
	}
	return axes
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun stores a run and its axes in one transaction. Empty RunID and
// zero CreatedAt are filled in and written back to run.
func (db *DB) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.RunID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO calibration_runs (
			run_id, test_id, input_path, channel, samples, duration_s, created_unix_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TestID, run.Input, run.Channel, run.Samples,
		run.Duration.Seconds(), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	for _, a := range run.Axes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO calibration_axes (run_id, sensor, axis, x, y, z, magnitude)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, a.Sensor, a.Index, a.X, a.Y, a.Z, a.Magnitude,
		)
		if err != nil {
			return fmt.Errorf("insert %s axis %d for run %s: %w", a.Sensor, a.Index, run.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.RunID, err)
	}
	return nil
}

// Runs returns every stored run for testID, oldest first. An empty testID
// returns all runs.
func (db *DB) Runs(ctx context.Context, testID string) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, test_id, input_path, channel, samples, duration_s, created_unix_ns
		FROM calibration_runs
		WHERE ? = '' OR test_id = ?
		ORDER BY created_unix_ns, run_id`,
		testID, testID,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			duration float64
			created  int64
		)
		if err := rows.Scan(&r.RunID, &r.TestID, &r.Input, &r.Channel, &r.Samples, &duration, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(duration * float64(time.Second))
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	// Close before the per-run queries; the pool holds a single connection.
	rows.Close()

	for i := range runs {
		axes, err := db.axes(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Axes = axes
	}
	return runs, nil
}

func (db *DB) axes(ctx context.Context, runID string) ([]Axis, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sensor, axis, x, y, z, magnitude
		FROM calibration_axes
		WHERE run_id = ?
		ORDER BY sensor, axis`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query axes for run %s: %w", runID, err)
	}
	defer rows.Close()

	var axes []Axis
	for rows.Next() {
		var a Axis
		if err := rows.Scan(&a.Sensor, &a.Index, &a.X, &a.Y, &a.Z, &a.Magnitude); err != nil {
			return nil, fmt.Errorf("scan axis: %w", err)
		}
		axes = append(axes, a)
	}
	return axes, rows.Err()
}
