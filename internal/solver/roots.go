// Package solver finds the stationary and boundary candidate rates for one
// partition.Candidate: the analytic roots of the disregarded-utility
// objective restricted to that candidate's structural case. Every
// computation stays in exact rational arithmetic except the single case
// that requires a square root, where the result is a documented,
// bounded-precision rational approximation (sqrtRat below).
//
// A naive closed form for the partial order's contribution breaks down
// whenever the candidate has no partial order on that side, so Roots
// re-derives each case from the balance constraint directly: the single
// free variable on the partial side is substituted out, turning the
// objective into a rational function of r alone, and its stationary point
// is found by clearing denominators and solving the resulting low-degree
// polynomial. CaseBF reduces to a linear equation (no partial order can
// appear on the buy side, so no square root is ever needed); CaseSF
// reduces to a quadratic with a single positive root.
package solver

import (
	"math/big"

	"github.com/gnosis/dex-open-solver/internal/partition"
)

// sqrtPrecisionBits bounds the precision used for the one case (CaseSF)
// whose stationary point is an irrational ratio in general. 200 bits is
// comfortably beyond what big.Rat inputs built from realistic order sizes
// need to distinguish the root from its neighboring candidate rates.
const sqrtPrecisionBits = 200

// Roots returns every candidate clearing rate implied by c: the boundary
// rates of its partial order(s) plus the stationary point of its case, if
// one exists. A case whose stationary equation has no solution (a zero
// leading coefficient, or a negative radicand under the square root) is a
// numeric degeneracy and contributes no stationary root, handled by
// returning fewer candidates rather than an error.
func Roots(c partition.Candidate) []*big.Rat {
	var roots []*big.Rat

	if k := c.K(); k != nil {
		roots = append(roots, new(big.Rat).Set(k.LimitPrice))
	}
	if l := c.L(); l != nil {
		roots = append(roots, new(big.Rat).Inv(l.LimitPrice))
	}

	switch c.Case {
	case CaseBoth:
		if r := bothFilledRoot(c); r != nil {
			roots = append(roots, r)
		}
	case CaseBFRoot:
		if r := caseBFRoot(c); r != nil {
			roots = append(roots, r)
		}
	case CaseSFRoot:
		if r := caseSFRoot(c); r != nil {
			roots = append(roots, r)
		}
	}
	return roots
}

// Aliases so this file reads in terms of the case it's solving rather than
// re-deriving which branch a partition.Case maps to at every call site.
const (
	CaseBoth   = partition.CaseBoth
	CaseBFRoot = partition.CaseBF
	CaseSFRoot = partition.CaseSF
)

// bothFilledRoot handles the case with no free variable left: the balance
// constraint alone pins r = a_cf / b_cf.
func bothFilledRoot(c partition.Candidate) *big.Rat {
	if c.BcF.Sign() == 0 {
		return nil
	}
	return new(big.Rat).Quo(c.AcF, c.BcF)
}

// caseBFRoot solves dF/dr = 0 for the candidate where all of B' is Filled
// and S' splits into a Filled prefix, an optional Partial order l, and an
// Unfilled remainder, where F is the full objective over every order, not
// just B'/S' -- orders outside B'/S' never trade on this interval, but
// their y=0 term still depends on r, contributing the fixed correction
// IneligB - IneligSInv to the r^-2 coefficient below. Substituting the
// balance constraint y_l(r) = a_cf/r - b_cf into the objective and
// differentiating leaves an equation of the form CoeffR2/r^2 +
// CoeffR3/r^3 = 0, i.e. linear in r after clearing denominators.
func caseBFRoot(c partition.Candidate) *big.Rat {
	coeffR2 := new(big.Rat).Neg(c.AcF) // all of B' filled: -(2*yi - yi) summed = -AcF
	coeffR2.Add(coeffR2, c.IneligB)
	coeffR2.Sub(coeffR2, c.IneligSInv)

	for idx, o := range c.SPrime {
		if idx == c.PartialIdxS {
			continue
		}
		invPi := new(big.Rat).Inv(o.LimitPrice)
		term := new(big.Rat).Mul(o.MaxSell, invPi)
		if idx < c.PartialIdxS || c.PartialIdxS < 0 {
			coeffR2.Add(coeffR2, term) // filled: +(ybar_j / pi_j)
		} else {
			coeffR2.Sub(coeffR2, term) // unfilled: -(ybar_j / pi_j)
		}
	}

	l := c.L()
	if l == nil {
		// No partial order: the candidate is the CaseBoth boundary already
		// covered separately by the enumerator.
		return nil
	}
	invPiL := new(big.Rat).Inv(l.LimitPrice)

	// p' = 2*(-b_cf) - ybar_l, q' = 2*a_cf
	pPrime := new(big.Rat).Sub(new(big.Rat).Mul(big.NewRat(-2, 1), c.BcF), l.MaxSell)
	qPrime := new(big.Rat).Mul(big.NewRat(2, 1), c.AcF)

	coeffR2.Sub(coeffR2, qPrime)
	coeffR2.Add(coeffR2, new(big.Rat).Mul(pPrime, invPiL))

	coeffR3 := new(big.Rat).Mul(big.NewRat(2, 1), new(big.Rat).Mul(qPrime, invPiL))

	if coeffR2.Sign() == 0 {
		return nil
	}
	return new(big.Rat).Neg(new(big.Rat).Quo(coeffR3, coeffR2))
}

// caseSFRoot is the mirror of caseBFRoot: all of S' is Filled, B' splits
// into a Filled prefix, an optional Partial order k, and an Unfilled
// remainder. Substituting y_k(r) = b_cf*r - a_cf leaves
// CoeffConst*r^2 + CoeffR2 = 0, a quadratic whose one economically
// meaningful (positive) root requires a square root. CoeffR2 carries the
// same IneligB - IneligSInv correction as caseBFRoot, for the same reason:
// orders outside B'/S' still contribute an r-dependent term at y=0.
func caseSFRoot(c partition.Candidate) *big.Rat {
	coeffR2 := new(big.Rat) // all of S' filled: +(ybar_j / pi_j) summed
	coeffR2.Add(coeffR2, c.IneligB)
	coeffR2.Sub(coeffR2, c.IneligSInv)

	for _, o := range c.SPrime {
		invPi := new(big.Rat).Inv(o.LimitPrice)
		coeffR2.Add(coeffR2, new(big.Rat).Mul(o.MaxSell, invPi))
	}

	for idx, o := range c.BPrime {
		if idx == c.PartialIdxB {
			continue
		}
		if idx < c.PartialIdxB || c.PartialIdxB < 0 {
			coeffR2.Sub(coeffR2, o.MaxSell) // filled: -ybar_i
		} else {
			coeffR2.Add(coeffR2, o.MaxSell) // unfilled: +ybar_i
		}
	}

	k := c.K()
	if k == nil {
		return nil
	}

	// p = 2*(-a_cf) - ybar_k, q = 2*b_cf
	p := new(big.Rat).Sub(new(big.Rat).Mul(big.NewRat(-2, 1), c.AcF), k.MaxSell)
	q := new(big.Rat).Mul(big.NewRat(2, 1), c.BcF)

	coeffR2.Sub(coeffR2, p)

	invPiK := new(big.Rat).Inv(k.LimitPrice)
	coeffConst := new(big.Rat).Neg(new(big.Rat).Mul(q, invPiK))

	if coeffConst.Sign() == 0 {
		return nil
	}
	radicand := new(big.Rat).Neg(new(big.Rat).Quo(coeffR2, coeffConst))
	if radicand.Sign() < 0 {
		return nil
	}
	return sqrtRat(radicand, sqrtPrecisionBits)
}
