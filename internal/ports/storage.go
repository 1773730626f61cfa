package ports

import (
	"context"
	"time"

	"github.com/gnosis/dex-open-solver/internal/matchengine"
)

// Storage persists the result of each solved batch.
type Storage interface {
	// SaveSolve persists one batch's solve outcome.
	SaveSolve(ctx context.Context, batchID string, res matchengine.Result) error

	// GetHistory returns solved batches recorded in the given time range.
	GetHistory(ctx context.Context, from, to time.Time) ([]SolveRecord, error)

	// Close cleanly closes the underlying connection.
	Close() error
}

// SolveRecord is one historical entry returned by Storage.GetHistory.
type SolveRecord struct {
	BatchID    string
	SolvedAt   time.Time
	Matched    bool
	Rate       string // big.Rat RatString of the clearing rate ("a/b" or an integer), empty if unmatched
	Objective  string // big.Rat RatString of the objective value, empty if unmatched
	OrderCount int
}
