package ports

import (
	"context"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

// Batch is one unit of work handed to the core: a raw order list plus the
// token pair that fixes the direction of the clearing rate.
type Batch struct {
	ID    string
	Tau1  domain.Token
	Tau2  domain.Token
	Orders []domain.Order
}

// BatchSource supplies batches to solve. The CLI's single-file mode reads
// one Batch and returns io.EOF-like exhaustion via ok=false; its -watch
// mode polls a directory and returns one Batch per new file.
type BatchSource interface {
	Next(ctx context.Context) (Batch, bool, error)
}
