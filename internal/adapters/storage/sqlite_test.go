package storage_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosis/dex-open-solver/internal/adapters/storage"
	"github.com/gnosis/dex-open-solver/internal/matchengine"
)

func rat(n, d int64) *big.Rat { return big.NewRat(n, d) }

func TestSQLiteStorage_SaveAndGetHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	matched := matchengine.Result{
		Matched: true, Rate: rat(1, 1), Objective: rat(5, 2),
		Executions: map[string]*big.Rat{"b1": rat(10, 1)}, OrderCount: 2,
	}
	require.NoError(t, db.SaveSolve(ctx, "batch-1", matched))
	require.NoError(t, db.SaveSolve(ctx, "batch-2", matchengine.Result{Matched: false}))

	from := time.Now().UTC().Add(-time.Minute)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.GetHistory(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Most recent first.
	assert.Equal(t, "batch-2", history[0].BatchID)
	assert.False(t, history[0].Matched)
	assert.Equal(t, "batch-1", history[1].BatchID)
	assert.True(t, history[1].Matched)
	assert.Equal(t, "1", history[1].Rate)
	assert.Equal(t, 2, history[1].OrderCount)
}

func TestSQLiteStorage_GetHistory_EmptyRange(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	history, err := db.GetHistory(context.Background(),
		time.Now().Add(-time.Hour),
		time.Now(),
	)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSQLiteStorage_UnmatchedBatchHasEmptyRateAndObjective(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveSolve(ctx, "empty", matchengine.Result{Matched: false}))

	from := time.Now().UTC().Add(-time.Minute)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.GetHistory(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Rate)
	assert.Empty(t, history[0].Objective)
}

func TestSQLiteStorage_MultipleBatchesOrderedMostRecentFirst(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.SaveSolve(ctx, id, matchengine.Result{
			Matched: true, Rate: rat(1, 1), Objective: rat(1, 1), OrderCount: 1,
		}))
	}

	from := time.Now().UTC().Add(-time.Minute)
	to := time.Now().UTC().Add(time.Minute)
	history, err := db.GetHistory(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "c", history[0].BatchID)
}
