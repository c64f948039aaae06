package report

import (
	"database/sql"
	"fmt"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/cachesim/sweep"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS results (
	run_id        TEXT    NOT NULL,
	plan          TEXT    NOT NULL,
	trace         TEXT    NOT NULL,
	size          INTEGER NOT NULL,
	block_size    INTEGER NOT NULL,
	associativity INTEGER NOT NULL,
	num_sets      INTEGER NOT NULL,
	hits          INTEGER NOT NULL,
	misses        INTEGER NOT NULL,
	hit_rate      REAL    NOT NULL,
	miss_rate     REAL    NOT NULL,
	error         TEXT    NOT NULL
)`

const insertResult = `
INSERT INTO results (
	run_id, plan, trace, size, block_size, associativity, num_sets,
	hits, misses, hit_rate, miss_rate, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteRecorder appends sweep results to a SQLite database. Every Record
// call is one transaction.
type SQLiteRecorder struct {
	*sql.DB
	runID string
}

// NewSQLiteRecorder opens or creates the database at path. Records are
// tagged with runID.
func NewSQLiteRecorder(path, runID string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	if _, err := db.Exec(createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}

	return &SQLiteRecorder{DB: db, runID: runID}, nil
}

// RunID returns the identifier records are tagged with.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// Record inserts results.
func (r *SQLiteRecorder) Record(results []sweep.Result) error {
	tx, err := r.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(insertResult)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		_, err := stmt.Exec(
			r.runID,
			res.Plan,
			res.Trace,
			res.Config.Size,
			res.Config.BlockSize,
			res.Config.Associativity,
			res.Geometry.NumSets,
			int64(res.Stats.Hits),
			int64(res.Stats.Misses),
			res.HitRate(),
			res.MissRate(),
			res.Err,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert result %s/%s: %w", res.Plan, res.Trace, err)
		}
	}

	return tx.Commit()
}
