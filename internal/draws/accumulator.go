// Package draws keeps per-draw contribution balances and answers range
// totals over them in logarithmic time.
//
// Balances live in a fixed ring of observations, newest last. Each
// observation pairs the draw's own balance with the running total of every
// balance recorded before it, so the total over a draw range collapses to
// one subtraction between two observations instead of a walk.
package draws

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/ringbuffer"
)

// MaxObservations is the ring capacity. One record per draw at the daily
// production cadence keeps a full year of history, leap years included,
// before the oldest record is overwritten.
const MaxObservations = 366

const (
	// AvailableBits bounds a single draw's contribution balance.
	AvailableBits = 96

	// DisbursedBits bounds the running total of balances before a draw.
	DisbursedBits = 160
)

// Observation records the contributions of one draw. Available is the
// balance contributed to the draw itself; DisbursedBefore is the sum of
// every recorded balance older than it.
type Observation struct {
	Available       uint256.Int
	DisbursedBefore uint256.Int
}

// Accumulator keeps contribution balances for the most recent
// MaxObservations draws. Contributions must arrive in non-decreasing draw
// order; crediting a draw older than the newest recorded one fails. Use
// NewAccumulator to construct one.
type Accumulator struct {
	ring         [MaxObservations]drawtime.DrawID
	observations map[drawtime.DrawID]*Observation
	nextIndex    uint32
	count        uint32
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		observations: make(map[drawtime.DrawID]*Observation),
	}
}

// Add credits amount to draw id. A contribution to the newest recorded draw
// merges into its balance; a later id opens a fresh record, evicting the
// oldest once the ring is full. It reports whether a fresh record was
// opened.
func (a *Accumulator) Add(amount *uint256.Int, id drawtime.DrawID) (bool, error) {
	if id == drawtime.NoDraw {
		return false, ErrDrawZero
	}

	newest := a.NewestDrawID()
	if id < newest {
		return false, fmt.Errorf("%w: draw %d is older than draw %d", ErrDrawClosed, id, newest)
	}

	if id == newest && a.count > 0 {
		obs := a.observations[newest]
		balance, err := fixedpoint.Add(&obs.Available, amount)
		if err != nil {
			return false, fmt.Errorf("crediting draw %d: %w", id, err)
		}
		if !fixedpoint.FitsBits(balance, AvailableBits) {
			return false, fmt.Errorf("crediting draw %d: %w", id, fixedpoint.ErrOverflow)
		}
		obs.Available.Set(balance)
		return false, nil
	}

	if !fixedpoint.FitsBits(amount, AvailableBits) {
		return false, fmt.Errorf("crediting draw %d: %w", id, fixedpoint.ErrOverflow)
	}

	disbursed := new(uint256.Int)
	if a.count > 0 {
		prev := a.observations[newest]
		carried, err := fixedpoint.Add(&prev.DisbursedBefore, &prev.Available)
		if err != nil {
			return false, fmt.Errorf("carrying disbursed total to draw %d: %w", id, err)
		}
		if !fixedpoint.FitsBits(carried, DisbursedBits) {
			return false, fmt.Errorf("carrying disbursed total to draw %d: %w", id, fixedpoint.ErrOverflow)
		}
		disbursed = carried
	}

	if a.count < MaxObservations {
		a.count++
	} else {
		delete(a.observations, a.ring[a.nextIndex])
	}
	a.ring[a.nextIndex] = id
	a.observations[id] = &Observation{
		Available:       *amount.Clone(),
		DisbursedBefore: *disbursed,
	}
	a.nextIndex = ringbuffer.NextIndex(a.nextIndex, MaxObservations)
	return true, nil
}

// NewestDrawID returns the most recently recorded draw, or NoDraw when
// nothing has been recorded yet.
func (a *Accumulator) NewestDrawID() drawtime.DrawID {
	if a.count == 0 {
		return drawtime.NoDraw
	}
	return a.ring[ringbuffer.NewestIndex(a.nextIndex, a.count)]
}

// OldestDrawID returns the oldest draw still retained, or NoDraw when
// nothing has been recorded yet.
func (a *Accumulator) OldestDrawID() drawtime.DrawID {
	if a.count == 0 {
		return drawtime.NoDraw
	}
	return a.ring[ringbuffer.OldestIndex(a.nextIndex, a.count, MaxObservations)]
}

// Len returns the number of draws currently retained.
func (a *Accumulator) Len() int {
	return int(a.count)
}

// At returns a copy of the record for draw id, if it is still retained.
func (a *Accumulator) At(id drawtime.DrawID) (Observation, bool) {
	obs, ok := a.observations[id]
	if !ok {
		return Observation{}, false
	}
	return *obs, true
}

// DisbursedBetween returns the total balance contributed to draws in the
// closed range [start, end]. Draws that were never credited, or whose
// records have been evicted, contribute nothing.
func (a *Accumulator) DisbursedBetween(start, end drawtime.DrawID) (*uint256.Int, error) {
	if start > end {
		return nil, fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
	}
	if a.count == 0 {
		return new(uint256.Int), nil
	}

	oldestIdx := ringbuffer.OldestIndex(a.nextIndex, a.count, MaxObservations)
	newestIdx := ringbuffer.NewestIndex(a.nextIndex, a.count)
	oldest := a.ring[oldestIdx]
	newest := a.ring[newestIdx]

	if end < oldest || start > newest {
		return new(uint256.Int), nil
	}

	// The record standing in for the range start: the one at start, or
	// failing that the nearest after it.
	var lower Observation
	switch {
	case start <= oldest || a.count == 1:
		lower = *a.observations[oldest]
	default:
		if obs, ok := a.observations[start]; ok {
			lower = *obs
		} else {
			_, afterID := a.search(oldestIdx, newestIdx, start)
			lower = *a.observations[afterID]
		}
	}

	// The record standing in for the range end: the one at end, or failing
	// that the nearest before it.
	var upper Observation
	switch {
	case end >= newest || a.count == 1:
		upper = *a.observations[newest]
	default:
		if obs, ok := a.observations[end]; ok {
			upper = *obs
		} else {
			beforeID, _ := a.search(oldestIdx, newestIdx, end)
			upper = *a.observations[beforeID]
		}
	}

	// Running totals are monotone and adjacent records differ by exactly
	// the older record's balance, so this cannot underflow; the widths of
	// the two fields leave ample headroom above 160 bits.
	total := new(uint256.Int).Add(&upper.Available, &upper.DisbursedBefore)
	return total.Sub(total, &lower.DisbursedBefore), nil
}

// search locates the adjacent pair of records bracketing target, returning
// both draw ids. The target must lie strictly between the oldest and newest
// recorded draws and must not itself be recorded. Logical indices count
// forward from the oldest record and are folded modulo the record count;
// before the ring fills the records occupy [0, count) so the fold is the
// identity, and once full the count equals the capacity.
func (a *Accumulator) search(oldestIdx, newestIdx uint32, target drawtime.DrawID) (beforeID, afterID drawtime.DrawID) {
	left := oldestIdx
	right := newestIdx
	if right < left {
		right = left + a.count - 1
	}
	for {
		mid := (left + right) / 2
		beforeIdx := ringbuffer.Wrap(mid, a.count)
		beforeID = a.ring[beforeIdx]
		afterID = a.ring[ringbuffer.NextIndex(beforeIdx, a.count)]

		targetAtOrAfter := beforeID <= target
		if targetAtOrAfter && target <= afterID {
			return beforeID, afterID
		}
		if !targetAtOrAfter {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}
}
