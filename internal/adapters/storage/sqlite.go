// Package storage persists solved-batch history to SQLite: a pure-Go
// driver, a schema applied at open, and an automatic prune of old rows on
// startup.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gnosis/dex-open-solver/internal/matchengine"
	"github.com/gnosis/dex-open-solver/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS solves (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id    TEXT     NOT NULL,
    solved_at   DATETIME NOT NULL,
    matched     INTEGER  NOT NULL DEFAULT 0,
    rate        TEXT,
    objective   TEXT,
    order_count INTEGER  NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_solves_at ON solves(solved_at DESC);
`

const retention = 30 * 24 * time.Hour

// SQLiteStorage implements ports.Storage on top of modernc.org/sqlite
// (pure Go, no cgo).
type SQLiteStorage struct {
	db *sql.DB
}

var _ ports.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at path, applies the
// schema, and prunes rows older than the retention window.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSolve persists one batch's solve outcome.
func (s *SQLiteStorage) SaveSolve(ctx context.Context, batchID string, res matchengine.Result) error {
	now := time.Now().UTC()
	matched := 0
	var rate, objective sql.NullString
	if res.Matched {
		matched = 1
		rate = sql.NullString{String: res.Rate.RatString(), Valid: true}
		objective = sql.NullString{String: res.Objective.RatString(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO solves (batch_id, solved_at, matched, rate, objective, order_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		batchID, now, matched, rate, objective, res.OrderCount,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSolve: insert %s: %w", batchID, err)
	}
	return nil
}

// GetHistory returns solved batches recorded in the given time range,
// most recent first.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]ports.SolveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, solved_at, matched, rate, objective, order_count
		FROM solves
		WHERE solved_at BETWEEN ? AND ?
		ORDER BY solved_at DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var out []ports.SolveRecord
	for rows.Next() {
		var rec ports.SolveRecord
		var matched int
		var rate, objective sql.NullString
		if err := rows.Scan(&rec.BatchID, &rec.SolvedAt, &matched, &rate, &objective, &rec.OrderCount); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}
		rec.Matched = matched == 1
		rec.Rate = rate.String
		rec.Objective = objective.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	s.db.ExecContext(ctx, `DELETE FROM solves WHERE solved_at < ?`, cutoff)
}
