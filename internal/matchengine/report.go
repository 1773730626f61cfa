package matchengine

import (
	"math/big"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

// Report is a human-facing summary of a Result: a handful of small,
// independently computed figures a CLI or notifier can print without
// reaching back into the raw execution map.
type Report struct {
	Rate          *big.Rat
	Objective     *big.Rat
	FilledBuy     int
	PartialBuy    int
	UnfilledBuy   int
	FilledSell    int
	PartialSell   int
	UnfilledSell  int
	TrueArbitrage bool
}

// Summarize builds a Report from a matched Result and the original order
// sides (domain.Partition.B/.S). It is meaningless to call on an unmatched
// Result.
func Summarize(res Result, b, s []domain.Order) Report {
	rpt := Report{Rate: res.Rate, Objective: res.Objective}
	for _, o := range b {
		switch domain.ClassifyFill(fillOf(res, o), o.MaxSell) {
		case domain.Unfilled:
			rpt.UnfilledBuy++
		case domain.Partial:
			rpt.PartialBuy++
		case domain.Filled:
			rpt.FilledBuy++
		}
	}
	for _, o := range s {
		switch domain.ClassifyFill(fillOf(res, o), o.MaxSell) {
		case domain.Unfilled:
			rpt.UnfilledSell++
		case domain.Partial:
			rpt.PartialSell++
		case domain.Filled:
			rpt.FilledSell++
		}
	}
	// A match reads as a "true arbitrage" when every order on both sides
	// traded at all -- no unfilled remainder on either side of the book.
	rpt.TrueArbitrage = rpt.UnfilledBuy == 0 && rpt.UnfilledSell == 0 && res.Objective.Sign() > 0
	return rpt
}

func fillOf(res Result, o domain.Order) *big.Rat {
	if y, ok := res.Executions[o.ID]; ok {
		return y
	}
	return new(big.Rat)
}
