package pebble

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/tombolalabs/tombola/pkg/db"
)

// Batch accumulates writes that commit atomically. A batch is single-use:
// once committed or closed it rejects further operations.
type Batch struct {
	batch *pebble.Batch
	done  atomic.Bool
}

func (p *KVStore) NewBatch() db.Batch {
	return &Batch{
		batch: p.db.NewBatch(),
	}
}

func (b *Batch) Put(key, value []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

func (b *Batch) Delete(key []byte) error {
	if b.done.Load() {
		return ErrBatchDone
	}
	return b.batch.Delete(key, nil)
}

// Count reports zero once the batch is spent; the underlying batch is
// recycled on close and must not be read again.
func (b *Batch) Count() int {
	if b.done.Load() {
		return 0
	}
	return int(b.batch.Count())
}

func (b *Batch) Commit() error {
	if b.done.Load() {
		return ErrBatchDone
	}
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	b.done.Store(true)
	return nil
}

func (b *Batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}
