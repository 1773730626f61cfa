// Package matchengine is the global driver: it wires the classifier,
// interval generator, partition enumerator, root solver, and reconstructor
// together, fans candidate-rate generation out across rate intervals, and
// reduces every surviving candidate to the single highest-objective
// execution.
package matchengine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/gnosis/dex-open-solver/internal/domain"
	"github.com/gnosis/dex-open-solver/internal/partition"
	"github.com/gnosis/dex-open-solver/internal/ratemath"
	"github.com/gnosis/dex-open-solver/internal/reconstruct"
	"github.com/gnosis/dex-open-solver/internal/solver"
)

// Result is the outward shape of one solve: either a matched batch with a
// clearing rate, a per-order execution and the objective value attained,
// or Matched == false (the no-overlap / exhausted-candidates outcome,
// deliberately not an error).
type Result struct {
	Matched    bool
	Rate       *big.Rat
	Executions map[string]*big.Rat // order ID -> executed sell amount y
	Objective  *big.Rat
	OrderCount int
}

// Solve classifies, enumerates candidates, solves for roots, and
// reconstructs executions to find the best clearing rate, or
// Matched == false if no feasible match exists. The only error this
// returns is domain.InvalidOrderError (fatal at ingest); no-overlap and
// exhausted-candidate outcomes are both folded into Result{Matched: false}.
func Solve(ctx context.Context, orders []domain.Order, tau1, tau2 domain.Token) (Result, error) {
	p, err := domain.Classify(orders, tau1, tau2)
	if err != nil {
		if err == domain.ErrNoOverlap {
			return Result{}, nil
		}
		return Result{}, err
	}

	cover := ratemath.GenerateCover(p.B, p.S, p.RMin, p.RMax)
	rates := candidateRates(ctx, cover, p)
	rates = append(rates, p.RMin, p.RMax)
	rates = dedup(rates)

	best := Result{}
	for _, r := range rates {
		if r.Cmp(p.RMin) < 0 || r.Cmp(p.RMax) > 0 {
			continue
		}
		y, ok := reconstruct.Reconstruct(r, p.B, p.S)
		if !ok {
			continue
		}
		f := reconstruct.Evaluate(r, p.B, p.S, y)
		if !best.Matched || f.Cmp(best.Objective) > 0 ||
			(f.Cmp(best.Objective) == 0 && r.Cmp(best.Rate) < 0) {
			best = Result{Matched: true, Rate: r, Executions: y, Objective: f, OrderCount: len(orders)}
		}
	}
	return best, nil
}

// candidateRates fans root-generation for every (interval, partition) pair
// out across a bounded worker pool: a work channel of intervals, a result
// channel of candidate rates, reduced by the caller once every worker
// finishes. Each worker owns its own candidate iteration state, so no
// package-level mutable state is shared across goroutines.
func candidateRates(ctx context.Context, cover []ratemath.Interval, p domain.Partition) []*big.Rat {
	if len(cover) == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > len(cover) {
		workers = len(cover)
	}

	workCh := make(chan ratemath.Interval, len(cover))
	resultCh := make(chan *big.Rat, len(cover)*4)

	g, gctx := errgroup.WithContext(ctx)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for iv := range workCh {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				bPrime, sPrime, ineligB, ineligSInv := partition.Eligible(iv, p.B, p.S)
				for cand := range partition.Enumerate(bPrime, sPrime, ineligB, ineligSInv) {
					for _, r := range solver.Roots(cand) {
						if r.Cmp(iv.A) < 0 || r.Cmp(iv.B) > 0 {
							slog.Debug("solver root outside its interval, discarding", "rate", r.RatString())
							continue
						}
						resultCh <- r
					}
				}
			}
			return nil
		})
	}

	for _, iv := range cover {
		workCh <- iv
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var rates []*big.Rat
	for r := range resultCh {
		rates = append(rates, r)
	}
	if err := g.Wait(); err != nil {
		slog.Debug("candidate generation aborted", "err", err)
	}
	return rates
}

func dedup(rates []*big.Rat) []*big.Rat {
	seen := make(map[string]bool, len(rates))
	out := make([]*big.Rat, 0, len(rates))
	for _, r := range rates {
		key := r.RatString()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
