package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombolalabs/tombola/pkg/db"
)

func TestBatch(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{
			name: "atomic_commit",
			fn:   testAtomicCommit,
		},
		{
			name: "single_use",
			fn:   testBatchSingleUse,
		},
		{
			name: "independent_batches",
			fn:   testIndependentBatches,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewKVStore()
			require.NoError(t, err)
			defer store.Close() //nolint:errcheck

			tc.fn(t, store)
		})
	}
}

func testAtomicCommit(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("draw/1"), []byte("stale")))

	batch := store.NewBatch()
	defer batch.Close() //nolint:errcheck

	require.NoError(t, batch.Put([]byte("draw/2"), []byte("record-2")))
	require.NoError(t, batch.Put([]byte("draw/3"), []byte("record-3")))
	require.NoError(t, batch.Delete([]byte("draw/1")))
	assert.Equal(t, 3, batch.Count())

	// Nothing lands before the commit.
	_, err := store.Get([]byte("draw/2"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, batch.Commit())

	got, err := store.Get([]byte("draw/2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("record-2"), got)
	got, err = store.Get([]byte("draw/3"))
	require.NoError(t, err)
	assert.Equal(t, []byte("record-3"), got)
	_, err = store.Get([]byte("draw/1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBatchSingleUse(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Commit())

	assert.ErrorIs(t, batch.Put([]byte("other"), []byte("value")), ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("other")), ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
	assert.Equal(t, 0, batch.Count())

	assert.NoError(t, batch.Close())
	assert.NoError(t, batch.Close())
}

func testIndependentBatches(t *testing.T, store db.KVStore) {
	first := store.NewBatch()
	second := store.NewBatch()
	defer first.Close()  //nolint:errcheck
	defer second.Close() //nolint:errcheck

	require.NoError(t, first.Put([]byte("a"), []byte("from-first")))
	require.NoError(t, second.Put([]byte("b"), []byte("from-second")))

	require.NoError(t, first.Commit())
	require.NoError(t, second.Commit())

	got, err := store.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-first"), got)
	got, err = store.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("from-second"), got)
}
