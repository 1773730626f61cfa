// Package reconstruct, given one candidate clearing rate, reconstructs the
// executed sell amount for every order and evaluates the disregarded-
// utility objective over that execution.
package reconstruct

import (
	"math/big"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

// Reconstruct computes the executed sell amount yᵢ/yⱼ for every order in B
// and S at rate r, by a greedy two-pointer walk: process the eligible
// orders on both sides in decreasing limit-price order, each step filling
// whichever side's current head has the smaller remaining capacity
// (expressed in a common tau2-equivalent unit), which keeps the
// tau2-balance invariant tight at every step rather than only at the end.
//
// The returned map holds an entry (possibly zero) for every order in B and
// S, not just the ones touched, so internal/reconstruct.Evaluate can sum
// the objective over the full order set without a second filter pass.
// Reconstruct returns ok=false if r reconstructs no trade at all (the
// walk touches no order on either side).
func Reconstruct(r *big.Rat, b, s []domain.Order) (map[string]*big.Rat, bool) {
	y := make(map[string]*big.Rat, len(b)+len(s))
	for _, o := range b {
		y[o.ID] = new(big.Rat)
	}
	for _, o := range s {
		y[o.ID] = new(big.Rat)
	}

	bPrime := eligibleBuy(r, b)
	sPrime := eligibleSell(r, s)

	pb, ps := 0, 0
	var remB, remS2 *big.Rat // remaining capacity of the current head, both in tau2 units
	if len(bPrime) > 0 {
		remB = new(big.Rat).Set(bPrime[0].MaxSell)
	}
	if len(sPrime) > 0 {
		remS2 = new(big.Rat).Mul(r, sPrime[0].MaxSell)
	}

	traded := false
	for pb < len(bPrime) && ps < len(sPrime) {
		step := remB
		if remS2.Cmp(step) < 0 {
			step = remS2
		}
		if step.Sign() <= 0 {
			break
		}
		traded = true

		y[bPrime[pb].ID].Add(y[bPrime[pb].ID], step)
		incrS := new(big.Rat).Quo(step, r)
		y[sPrime[ps].ID].Add(y[sPrime[ps].ID], incrS)

		remB = new(big.Rat).Sub(remB, step)
		remS2 = new(big.Rat).Sub(remS2, step)

		if remB.Sign() == 0 {
			pb++
			if pb < len(bPrime) {
				remB = new(big.Rat).Set(bPrime[pb].MaxSell)
			}
		}
		if remS2.Sign() == 0 {
			ps++
			if ps < len(sPrime) {
				remS2 = new(big.Rat).Mul(r, sPrime[ps].MaxSell)
			}
		}
	}

	if !traded {
		return nil, false
	}
	if !balances(y, b, s, r) {
		return nil, false
	}
	return y, true
}

// eligibleBuy/eligibleSell mirror partition.Eligible's filter but against a
// single rate rather than an interval, since reconstruction operates
// candidate-by-candidate rather than interval-by-interval.
func eligibleBuy(r *big.Rat, b []domain.Order) []domain.Order {
	var out []domain.Order
	for _, o := range b {
		if r.Cmp(o.LimitPrice) <= 0 {
			out = append(out, o)
		}
	}
	return out
}

func eligibleSell(r *big.Rat, s []domain.Order) []domain.Order {
	var out []domain.Order
	for _, o := range s {
		inv := new(big.Rat).Inv(o.LimitPrice)
		if r.Cmp(inv) >= 0 {
			out = append(out, o)
		}
	}
	return out
}

// balances re-checks the tau2-balance invariant and each order's
// sell-amount bounds directly against the reconstructed y, as belt-and-
// suspenders against the walk's own bookkeeping.
func balances(y map[string]*big.Rat, b, s []domain.Order, r *big.Rat) bool {
	sumB := new(big.Rat)
	for _, o := range b {
		yi := y[o.ID]
		if yi.Sign() < 0 || yi.Cmp(o.MaxSell) > 0 {
			return false
		}
		sumB.Add(sumB, yi)
	}
	sumS := new(big.Rat)
	for _, o := range s {
		yj := y[o.ID]
		if yj.Sign() < 0 || yj.Cmp(o.MaxSell) > 0 {
			return false
		}
		sumS.Add(sumS, yj)
	}
	rhs := new(big.Rat).Mul(r, sumS)
	return sumB.Cmp(rhs) == 0
}

// Evaluate computes the disregarded-utility objective f at rate r given a
// full execution y (as returned by Reconstruct), from the per-order term
// family: (2yᵢ-ȳᵢ)(πᵢ-r)/(πᵢr) for buy orders, (2yⱼ-ȳⱼ)(πⱼr-1)/(πⱼr) for
// sell orders, summed over every order (not just the eligible B'/S'
// subset -- an order outside the interval's eligible set simply has y=0,
// which the same formula handles without a special case).
func Evaluate(r *big.Rat, b, s []domain.Order, y map[string]*big.Rat) *big.Rat {
	f := new(big.Rat)
	for _, o := range b {
		f.Add(f, buyTerm(r, o, y[o.ID]))
	}
	for _, o := range s {
		f.Add(f, sellTerm(r, o, y[o.ID]))
	}
	return f
}

func buyTerm(r *big.Rat, o domain.Order, yi *big.Rat) *big.Rat {
	u := new(big.Rat).Sub(new(big.Rat).Mul(big.NewRat(2, 1), yi), o.MaxSell)
	num := new(big.Rat).Sub(o.LimitPrice, r)
	den := new(big.Rat).Mul(o.LimitPrice, r)
	return u.Mul(u, new(big.Rat).Quo(num, den))
}

func sellTerm(r *big.Rat, o domain.Order, yj *big.Rat) *big.Rat {
	u := new(big.Rat).Sub(new(big.Rat).Mul(big.NewRat(2, 1), yj), o.MaxSell)
	num := new(big.Rat).Sub(new(big.Rat).Mul(o.LimitPrice, r), big.NewRat(1, 1))
	den := new(big.Rat).Mul(o.LimitPrice, r)
	return u.Mul(u, new(big.Rat).Quo(num, den))
}
