package ratemath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosis/dex-open-solver/internal/domain"
)

func rat(n, d int64) *big.Rat { return big.NewRat(n, d) }

func TestGenerateCover_TwoBuysTwoSells(t *testing.T) {
	// S = {(pi=3), (pi=2)}, B = {(pi=2), (pi=2.5)}.
	b := []domain.Order{
		{ID: "b1", LimitPrice: rat(2, 1)},
		{ID: "b2", LimitPrice: rat(5, 2)},
	}
	s := []domain.Order{
		{ID: "s1", LimitPrice: rat(3, 1)},
		{ID: "s2", LimitPrice: rat(2, 1)},
	}
	rMin := rat(1, 3) // 1/3
	rMax := rat(5, 2) // 2.5

	cover := GenerateCover(b, s, rMin, rMax)
	require.NotEmpty(t, cover)

	// Cover must span exactly [rMin, rMax] contiguously with no gaps/overlaps.
	assert.True(t, cover[0].A.Cmp(rMin) == 0)
	assert.True(t, cover[len(cover)-1].B.Cmp(rMax) == 0)
	for i := 0; i+1 < len(cover); i++ {
		assert.Equal(t, 0, cover[i].B.Cmp(cover[i+1].A), "interval %d must abut interval %d", i, i+1)
	}
	for _, iv := range cover {
		assert.True(t, iv.A.Cmp(iv.B) < 0, "every interval must be non-degenerate")
	}
}

func TestGenerateCover_NoIntervalsWithoutBound(t *testing.T) {
	assert.Nil(t, GenerateCover(nil, nil, nil, nil))
}

func TestGenerateCover_DuplicateEndpointsCollapse(t *testing.T) {
	b := []domain.Order{{ID: "b1", LimitPrice: rat(2, 1)}}
	s := []domain.Order{{ID: "s1", LimitPrice: rat(1, 2)}} // 1/pi = 2, duplicate of b1
	cover := GenerateCover(b, s, rat(2, 1), rat(2, 1))
	assert.Empty(t, cover, "a single-point domain with only duplicate endpoints yields no non-degenerate interval")
}
