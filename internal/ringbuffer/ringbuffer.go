// Package ringbuffer provides index arithmetic for a fixed-capacity ring of
// records that fills monotonically and then overwrites its oldest slot.
//
// Positions are addressed two ways. A physical index names a slot in the
// backing array. A logical index counts forward from the oldest occupied slot
// and may run past the capacity before folding; Wrap folds it back onto a
// physical index. While the ring is not yet full the occupied slots are
// exactly [0, count), so folding modulo count and modulo capacity agree.
package ringbuffer

// Wrap folds index onto [0, cardinality). A zero cardinality yields 0.
func Wrap(index, cardinality uint32) uint32 {
	if cardinality == 0 {
		return 0
	}
	return index % cardinality
}

// NextIndex returns the index one position forward of index, wrapping at
// cardinality.
func NextIndex(index, cardinality uint32) uint32 {
	if cardinality == 0 {
		return 0
	}
	return uint32((uint64(index) + 1) % uint64(cardinality))
}

// PrevIndex returns the index one position back of index, wrapping at
// cardinality.
func PrevIndex(index, cardinality uint32) uint32 {
	if cardinality == 0 {
		return 0
	}
	return uint32((uint64(index) + uint64(cardinality) - 1) % uint64(cardinality))
}

// Offset returns the index amount positions back of index, wrapping at
// cardinality. Amounts larger than the cardinality are reduced modulo the
// cardinality first.
func Offset(index, amount, cardinality uint32) uint32 {
	if cardinality == 0 {
		return 0
	}
	back := uint64(amount) % uint64(cardinality)
	return uint32((uint64(index) + uint64(cardinality) - back) % uint64(cardinality))
}

// OldestIndex returns the physical index of the oldest occupied slot given
// the write cursor, the number of occupied slots and the ring capacity.
// Until the ring fills, records occupy [0, count) and the oldest sits at 0;
// once full, the oldest is the slot the cursor is about to overwrite.
func OldestIndex(nextIndex, count, capacity uint32) uint32 {
	if count < capacity {
		return 0
	}
	return Wrap(nextIndex, capacity)
}

// NewestIndex returns the physical index of the most recently written slot
// given the write cursor and the number of occupied slots. An empty ring
// yields 0.
func NewestIndex(nextIndex, count uint32) uint32 {
	if count == 0 {
		return 0
	}
	return uint32((uint64(count) + uint64(nextIndex) - 1) % uint64(count))
}
