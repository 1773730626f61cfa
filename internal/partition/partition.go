// Package partition enumerates, for one rate interval, the candidate
// (unfilled, partial, filled) partitions of the orders eligible to trade on
// it. Candidates are streamed rather than materialized so the enumerator's
// peak working set stays O(n).
package partition

import (
	"iter"
	"math/big"

	"github.com/gnosis/dex-open-solver/internal/domain"
	"github.com/gnosis/dex-open-solver/internal/ratemath"
)

// Case names which side of the book is fully filled in a candidate.
type Case int

const (
	// CaseBF: every order in B' is Filled; S' has a prefix Filled, at most
	// one Partial, and a remainder Unfilled.
	CaseBF Case = iota
	// CaseSF: every order in S' is Filled; B' has a prefix Filled, at most
	// one Partial, and a remainder Unfilled.
	CaseSF
	// CaseBoth: both B' and S' are fully Filled, no partial order at all.
	CaseBoth
)

func (c Case) String() string {
	switch c {
	case CaseBF:
		return "BF"
	case CaseSF:
		return "SF"
	default:
		return "both"
	}
}

// Candidate is one structured triple the enumerator yields. BPrime and
// SPrime are shared, already-sorted (by decreasing limit price) slices;
// PartialIdxB/PartialIdxS locate the partial order within them (-1 when
// absent). Every order before the partial index is Filled and every order
// after it is Unfilled — fill status only ever changes at that one index.
//
// IneligB and IneligSInv summarize the orders outside B'/S' on this same
// interval: they never trade here (their executed amount is pinned at zero
// for every rate in the interval), but that zero still plugs into their
// objective term and makes it vary with r, so a root solver that wants the
// true stationary point of the full objective -- not just the part B'/S'
// contribute -- needs these two sums alongside the candidate itself.
type Candidate struct {
	Case                     Case
	BPrime, SPrime           []domain.Order
	PartialIdxB, PartialIdxS int
	AcF, BcF                 *big.Rat // filled-prefix sell-amount sums for B' and S'
	IneligB, IneligSInv      *big.Rat // fixed contribution of orders outside B'/S'
}

// K returns the partial buy order, or nil if this candidate has none.
func (c Candidate) K() *domain.Order {
	if c.PartialIdxB < 0 {
		return nil
	}
	return &c.BPrime[c.PartialIdxB]
}

// L returns the partial sell order, or nil if this candidate has none.
func (c Candidate) L() *domain.Order {
	if c.PartialIdxS < 0 {
		return nil
	}
	return &c.SPrime[c.PartialIdxS]
}

// Eligible narrows B and S (already sorted by decreasing limit price, per
// domain.Classify) to B' and S': the orders whose limit price admits every
// clearing rate in [a, b] (pi_i >= b for buys, 1/pi_j <= a for sells). It
// also sums the two fixed quantities
// the excluded orders contribute to the objective on this interval:
// ineligB is the total max-sell of buy orders outside B' (each stuck at
// y=0, pi_i < b), ineligSInv is sum(max-sell/limit-price) of sell orders
// outside S' (each stuck at y=0, 1/pi_j > a).
func Eligible(iv ratemath.Interval, b, s []domain.Order) (bPrime, sPrime []domain.Order, ineligB, ineligSInv *big.Rat) {
	ineligB = new(big.Rat)
	ineligSInv = new(big.Rat)
	for _, o := range b {
		if iv.B.Cmp(o.LimitPrice) <= 0 {
			bPrime = append(bPrime, o)
		} else {
			ineligB.Add(ineligB, o.MaxSell)
		}
	}
	for _, o := range s {
		inv := new(big.Rat).Inv(o.LimitPrice)
		if iv.A.Cmp(inv) >= 0 {
			sPrime = append(sPrime, o)
		} else {
			ineligSInv.Add(ineligSInv, new(big.Rat).Mul(o.MaxSell, inv))
		}
	}
	return bPrime, sPrime, ineligB, ineligSInv
}

// Enumerate streams every candidate partition for the given B'/S'.
// ineligB and ineligSInv (as returned by Eligible for the same interval)
// are copied onto every yielded Candidate unchanged -- they don't depend
// on the partition, only on which orders are eligible at all. There are
// O(|B'| + |S'|) candidates per interval: the CaseBF sweep (one per
// S'-prefix length, including the fully-filled boundary), the CaseSF sweep
// (symmetric over B'), and the single CaseBoth candidate. Prefix sums are
// carried forward in O(1) per step rather than recomputed.
func Enumerate(bPrime, sPrime []domain.Order, ineligB, ineligSInv *big.Rat) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		acfAll := sumCaps(bPrime)
		bcfAll := sumCaps(sPrime)

		// CaseBF: all of B' filled; sweep the partial pointer over S'.
		bcf := new(big.Rat)
		for i := range sPrime {
			cand := Candidate{
				Case: CaseBF, BPrime: bPrime, SPrime: sPrime,
				PartialIdxB: -1, PartialIdxS: i,
				AcF: new(big.Rat).Set(acfAll), BcF: new(big.Rat).Set(bcf),
				IneligB: ineligB, IneligSInv: ineligSInv,
			}
			if !yield(cand) {
				return
			}
			bcf.Add(bcf, sPrime[i].MaxSell)
		}
		// Boundary: no partial, all of S' filled too (coincides with CaseBoth).
		if !yield(Candidate{
			Case: CaseBF, BPrime: bPrime, SPrime: sPrime,
			PartialIdxB: -1, PartialIdxS: -1,
			AcF: new(big.Rat).Set(acfAll), BcF: new(big.Rat).Set(bcf),
			IneligB: ineligB, IneligSInv: ineligSInv,
		}) {
			return
		}

		// CaseSF: all of S' filled; sweep the partial pointer over B'.
		acf := new(big.Rat)
		for i := range bPrime {
			cand := Candidate{
				Case: CaseSF, BPrime: bPrime, SPrime: sPrime,
				PartialIdxB: i, PartialIdxS: -1,
				AcF: new(big.Rat).Set(acf), BcF: new(big.Rat).Set(bcfAll),
				IneligB: ineligB, IneligSInv: ineligSInv,
			}
			if !yield(cand) {
				return
			}
			acf.Add(acf, bPrime[i].MaxSell)
		}
		if !yield(Candidate{
			Case: CaseSF, BPrime: bPrime, SPrime: sPrime,
			PartialIdxB: -1, PartialIdxS: -1,
			AcF: new(big.Rat).Set(acf), BcF: new(big.Rat).Set(bcfAll),
			IneligB: ineligB, IneligSInv: ineligSInv,
		}) {
			return
		}

		// CaseBoth: both sides fully filled, no partial order anywhere.
		yield(Candidate{
			Case: CaseBoth, BPrime: bPrime, SPrime: sPrime,
			PartialIdxB: -1, PartialIdxS: -1,
			AcF: new(big.Rat).Set(acfAll), BcF: new(big.Rat).Set(bcfAll),
			IneligB: ineligB, IneligSInv: ineligSInv,
		})
	}
}

func sumCaps(orders []domain.Order) *big.Rat {
	total := new(big.Rat)
	for _, o := range orders {
		total.Add(total, o.MaxSell)
	}
	return total
}
