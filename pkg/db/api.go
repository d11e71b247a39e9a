package db

// KVStore is the storage surface the draw archive builds on: point reads
// and writes, atomic batches, and ordered range iteration.
type KVStore interface {
	Writer
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch collects writes and deletes that commit as one atomic unit.
type Batch interface {
	Writer
	Delete(key []byte) error
	// Count reports the number of operations collected so far.
	Count() int
	Commit() error
	Close() error
}

// Iterator yields key-value pairs in ascending key order over the half-open
// range it was created with. Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
