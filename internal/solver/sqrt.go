package solver

import "math/big"

// sqrtRat returns an approximation of sqrt(x) as an exact big.Rat, computed
// at the given binary precision. big.Rat has no native square root; x is
// lifted into a big.Float (which does), and the result is converted back
// losslessly since every big.Float value is already rational. The caller
// (caseSFRoot) only needs this for a candidate rate that the driver then
// reconstructs and scores with reconstruct.Evaluate against the other
// candidates, so precision bits, not exactness, is what matters.
func sqrtRat(x *big.Rat, prec uint) *big.Rat {
	f := new(big.Float).SetPrec(prec).SetRat(x)
	f.Sqrt(f)
	r, _ := f.Rat(nil)
	return r
}
