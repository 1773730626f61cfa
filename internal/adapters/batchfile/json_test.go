package batchfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnosis/dex-open-solver/internal/adapters/batchfile"
	"github.com/gnosis/dex-open-solver/internal/domain"
)

const sampleBatch = `{
	"id": "batch-1",
	"tau1": "A",
	"tau2": "B",
	"orders": [
		{"id": "b1", "buy_token": "A", "sell_token": "B", "max_sell_amount": "10", "limit_price": "1"},
		{"id": "s1", "buy_token": "B", "sell_token": "A", "max_sell_amount": "10", "limit_price": "1"}
	]
}`

func TestFileSource_ReadsOnceThenExhausts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleBatch), 0o644))

	src := batchfile.NewFileSource(path)
	batch, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "batch-1", batch.ID)
	assert.Equal(t, domain.Token("A"), batch.Tau1)
	assert.Len(t, batch.Orders, 2)
	assert.Equal(t, "10", batch.Orders[0].MaxSell.RatString())

	_, ok, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSource_InvalidAmountErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"tau1":"A","tau2":"B",
		"orders":[{"id":"b1","buy_token":"A","sell_token":"B","max_sell_amount":"not-a-number","limit_price":"1"}]
	}`), 0o644))

	src := batchfile.NewFileSource(path)
	_, _, err := src.Next(context.Background())
	assert.Error(t, err)
}

func TestDirWatcher_PicksUpNewFileOldestFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(sampleBatch), 0o644))

	w := batchfile.NewDirWatcher(dir, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	batch, ok, err := w.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "batch-1", batch.ID)

	// No new files: Next should block until ctx is cancelled.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	_, _, err = w.Next(ctx2)
	assert.Error(t, err)
}
