// Package ratemath builds the ordered cover of the clearing-rate domain for
// the matching engine: the rate axis is split into subintervals on which
// the disregarded-utility objective is smooth, so each one can be
// optimized independently by internal/partition and internal/solver.
package ratemath

import (
	"math/big"
	"sort"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

// Interval is one element of the cover C: a closed, non-degenerate
// subinterval [A, B] of [r_min, r_max] bounded by consecutive distinct
// candidate rates.
type Interval struct {
	A, B *big.Rat
}

// GenerateCover emits C as the sorted sequence of non-degenerate
// subintervals spanning [rMin, rMax]. Endpoints are the union of every
// order's relevant rate (pi_i for buy orders, 1/pi_j for sell orders) that
// falls inside [rMin, rMax], deduplicated and sorted ascending. Degenerate
// intervals (equal endpoints, from duplicate candidate rates) are skipped,
// but their endpoint remains a candidate rate in its own right — the
// caller still evaluates rMin and rMax directly.
func GenerateCover(b, s []domain.Order, rMin, rMax *big.Rat) []Interval {
	if rMin == nil || rMax == nil {
		return nil
	}

	points := make([]*big.Rat, 0, len(b)+len(s)+2)
	points = append(points, new(big.Rat).Set(rMin), new(big.Rat).Set(rMax))
	for _, o := range b {
		if inRange(o.LimitPrice, rMin, rMax) {
			points = append(points, new(big.Rat).Set(o.LimitPrice))
		}
	}
	for _, o := range s {
		inv := new(big.Rat).Inv(o.LimitPrice)
		if inRange(inv, rMin, rMax) {
			points = append(points, inv)
		}
	}

	points = dedupSort(points)

	intervals := make([]Interval, 0, len(points))
	for i := 0; i+1 < len(points); i++ {
		a, bb := points[i], points[i+1]
		if a.Cmp(bb) == 0 {
			continue
		}
		intervals = append(intervals, Interval{A: a, B: bb})
	}
	return intervals
}

func inRange(r, rMin, rMax *big.Rat) bool {
	return r.Cmp(rMin) >= 0 && r.Cmp(rMax) <= 0
}

// dedupSort sorts rationals ascending and removes duplicates.
func dedupSort(points []*big.Rat) []*big.Rat {
	sort.Slice(points, func(i, j int) bool { return points[i].Cmp(points[j]) < 0 })
	out := points[:0:0]
	for i, p := range points {
		if i > 0 && p.Cmp(points[i-1]) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
