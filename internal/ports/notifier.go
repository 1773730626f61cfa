package ports

import (
	"context"

	"github.com/gnosis/dex-open-solver/internal/matchengine"
)

// Notifier presents one solved batch's outcome to the user.
type Notifier interface {
	// Notify reports res for the given batch. The console implementation
	// prints either a compact one-line summary or a full table.
	Notify(ctx context.Context, batchID string, res matchengine.Result) error
}
