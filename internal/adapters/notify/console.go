// Package notify implements ports.Notifier for the terminal: a compact
// one-line mode and a full per-order table mode.
package notify

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/gnosis/dex-open-solver/internal/matchengine"
	"github.com/gnosis/dex-open-solver/internal/ports"
)

// Console implements ports.Notifier, writing to an io.Writer.
type Console struct {
	out   io.Writer
	table bool
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify prints res in the configured mode.
func (c *Console) Notify(_ context.Context, batchID string, res matchengine.Result) error {
	if !res.Matched {
		fmt.Fprintf(c.out, "[%s] %s: no match\n", time.Now().Format("15:04:05"), batchID)
		return nil
	}
	if c.table {
		c.printFull(batchID, res)
	} else {
		c.printCompact(batchID, res)
	}
	return nil
}

func (c *Console) printCompact(batchID string, res matchengine.Result) {
	fmt.Fprintf(c.out, "[%s] %s: rate=%s objective=%s orders=%d\n",
		time.Now().Format("15:04:05"), batchID, res.Rate.RatString(),
		res.Objective.RatString(), res.OrderCount)
}

func (c *Console) printFull(batchID string, res matchengine.Result) {
	fmt.Fprintf(c.out, "\n[%s] batch %s matched at r = %s\n",
		time.Now().Format("15:04:05"), batchID, res.Rate.RatString())

	ids := make([]string, 0, len(res.Executions))
	for id := range res.Executions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := tablewriter.NewWriter(c.out)
	table.Header("Order", "Executed y", "Traded")
	for _, id := range ids {
		y := res.Executions[id]
		table.Append(id, y.RatString(), tradedLabel(y))
	}
	table.Render()

	fmt.Fprintf(c.out, "  objective f = %s\n\n", res.Objective.RatString())
}

func tradedLabel(y *big.Rat) string {
	if y.Sign() <= 0 {
		return "no"
	}
	return "yes"
}
