package reconstruct

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

func rat(n, d int64) *big.Rat { return big.NewRat(n, d) }

func TestReconstruct_SingleOrderEachSideFullyFilled(t *testing.T) {
	// One buy, one sell, overlapping limit prices.
	b := []domain.Order{{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(2, 1), MaxSell: rat(10, 1)}}
	s := []domain.Order{{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 1), MaxSell: rat(5, 1)}}
	r := rat(2, 1)

	y, ok := Reconstruct(r, b, s)
	require.True(t, ok)
	// S caps the trade: 5 tau1 * r=2 = 10 tau2, matching B's full 10 tau2 cap.
	assert.Equal(t, 0, y["b1"].Cmp(rat(10, 1)))
	assert.Equal(t, 0, y["s1"].Cmp(rat(5, 1)))
}

func TestReconstruct_PartialOnSmallerSide(t *testing.T) {
	// B has more capacity than S: S fully filled, B partially filled.
	b := []domain.Order{{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(2, 1), MaxSell: rat(100, 1)}}
	s := []domain.Order{{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 1), MaxSell: rat(5, 1)}}
	r := rat(2, 1)

	y, ok := Reconstruct(r, b, s)
	require.True(t, ok)
	assert.Equal(t, 0, y["s1"].Cmp(rat(5, 1)), "sell order fully filled")
	assert.Equal(t, 0, y["b1"].Cmp(rat(10, 1)), "buy order only partially filled: 5 tau1 * r=2")
	assert.Equal(t, domain.Partial, domain.ClassifyFill(y["b1"], big.NewRat(100, 1)))
	assert.Equal(t, domain.Filled, domain.ClassifyFill(y["s1"], big.NewRat(5, 1)))
}

func TestReconstruct_NoOverlapAtRateRejects(t *testing.T) {
	b := []domain.Order{{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(1, 1), MaxSell: rat(10, 1)}}
	s := []domain.Order{{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 2), MaxSell: rat(5, 1)}}
	// r=5 satisfies s1's limit price (r>=2) but not b1's (r<=1), so no buy
	// order is eligible and nothing trades.
	_, ok := Reconstruct(rat(5, 1), b, s)
	assert.False(t, ok)
}

func TestReconstruct_BalanceInvariantHolds(t *testing.T) {
	b := []domain.Order{
		{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(3, 1), MaxSell: rat(9, 1)},
		{ID: "b2", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(2, 1), MaxSell: rat(6, 1)},
	}
	s := []domain.Order{
		{ID: "s2", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 1), MaxSell: rat(10, 1)},
		{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 2), MaxSell: rat(4, 1)},
	}
	r := rat(2, 1)

	y, ok := Reconstruct(r, b, s)
	require.True(t, ok)

	sumB := new(big.Rat)
	for _, o := range b {
		sumB.Add(sumB, y[o.ID])
	}
	sumS := new(big.Rat)
	for _, o := range s {
		sumS.Add(sumS, y[o.ID])
	}
	rhs := new(big.Rat).Mul(r, sumS)
	assert.Equal(t, 0, sumB.Cmp(rhs), "tau2 balance invariant: sum(y_B) == r * sum(y_S)")
}

func TestEvaluate_UnfilledOrderContributesItsFixedTerm(t *testing.T) {
	b := []domain.Order{{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(2, 1), MaxSell: rat(10, 1)}}
	s := []domain.Order{{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 1), MaxSell: rat(5, 1)}}
	r := rat(2, 1)
	y := map[string]*big.Rat{"b1": rat(10, 1), "s1": rat(0, 1)}

	f := Evaluate(r, b, s, y)
	// b1 filled: (2*10-10)(2-2)/(2*2) = 0. s1 unfilled: (0-5)(1*2-1)/(1*2) = -5/2.
	assert.Equal(t, 0, f.Cmp(rat(-5, 2)))
}

func TestEvaluate_MonotoneImprovabilityBound(t *testing.T) {
	// The reported objective must be >= the objective of the trivial
	// single-order execution at r = pi_i filling just i and its
	// counterpart. Domain here is [2, 3] (r_min = 1/(1/2) = 2, r_max = 3),
	// so both the boundary r = 3 and an interior r = 5/2 are valid
	// clearing rates for the same two orders.
	b := []domain.Order{{ID: "b1", BuyToken: "T1", SellToken: "T2", LimitPrice: rat(3, 1), MaxSell: rat(9, 1)}}
	s := []domain.Order{{ID: "s1", BuyToken: "T2", SellToken: "T1", LimitPrice: rat(1, 2), MaxSell: rat(9, 1)}}

	trivialR := rat(3, 1)
	trivialY, ok := Reconstruct(trivialR, b, s)
	require.True(t, ok)
	trivialF := Evaluate(trivialR, b, s, trivialY)

	betterR := rat(5, 2)
	betterY, ok := Reconstruct(betterR, b, s)
	require.True(t, ok)
	betterF := Evaluate(betterR, b, s, betterY)

	assert.True(t, betterF.Cmp(trivialF) >= 0, "an interior rate should not do worse than the boundary rate")
}
