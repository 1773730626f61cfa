package domain

import (
	"errors"
	"math/big"
	"sort"
)

// ErrNoOverlap reports r_min > r_max: no rate can satisfy every active
// order's limit price simultaneously. It is not an ingest error — callers
// treat it as the structured NoMatch result.
var ErrNoOverlap = errors.New("domain: no overlap between buy and sell limit prices")

// Partition is the output of the order classifier: B and S sorted by
// decreasing limit price (this coincides with the greedy execution order
// used by the reconstructor), plus the domain bound [RMin, RMax] the
// clearing rate must lie in.
type Partition struct {
	B    []Order // orders buying tau1, sorted by limit price descending
	S    []Order // orders selling tau1, sorted by limit price descending
	RMin *big.Rat
	RMax *big.Rat
}

// Classify validates every order against {tau1, tau2}, splits them into B
// and S, sorts each by decreasing limit price, and derives the rate
// domain bound. It returns ErrNoOverlap when RMin > RMax; any structural
// problem with an order is returned as *InvalidOrderError instead (fatal
// at ingest).
func Classify(orders []Order, tau1, tau2 Token) (Partition, error) {
	var b, s []Order
	for _, o := range orders {
		if err := validate(o, tau1, tau2); err != nil {
			return Partition{}, err
		}
		if o.Of(tau1) == SideBuy {
			b = append(b, o)
		} else {
			s = append(s, o)
		}
	}

	sort.SliceStable(b, func(i, j int) bool { return b[i].LimitPrice.Cmp(b[j].LimitPrice) > 0 })
	sort.SliceStable(s, func(i, j int) bool { return s[i].LimitPrice.Cmp(s[j].LimitPrice) > 0 })

	if len(b) == 0 || len(s) == 0 {
		return Partition{B: b, S: s}, ErrNoOverlap
	}

	rMin, rMax := domainBound(b, s)
	if rMin.Cmp(rMax) > 0 {
		return Partition{B: b, S: s, RMin: rMin, RMax: rMax}, ErrNoOverlap
	}
	return Partition{B: b, S: s, RMin: rMin, RMax: rMax}, nil
}

// domainBound computes r_min = min_{j in S} 1/pi_j and r_max = max_{i in B} pi_i.
// Callers must ensure b and s are both non-empty.
func domainBound(b, s []Order) (rMin, rMax *big.Rat) {
	rMax = new(big.Rat).Set(b[0].LimitPrice)
	for _, o := range b[1:] {
		if o.LimitPrice.Cmp(rMax) > 0 {
			rMax.Set(o.LimitPrice)
		}
	}
	rMin = new(big.Rat).Inv(s[0].LimitPrice)
	for _, o := range s[1:] {
		inv := new(big.Rat).Inv(o.LimitPrice)
		if inv.Cmp(rMin) < 0 {
			rMin.Set(inv)
		}
	}
	return rMin, rMax
}
