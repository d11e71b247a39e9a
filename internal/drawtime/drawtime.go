package drawtime

import (
	"time"
)

// DrawID numbers one award cycle of the prize pool. Ids start at 1 and grow
// by one per cycle; zero is the sentinel for "no draw", which is what a pool
// that has never been awarded reports as its last awarded draw.
type DrawID uint32

const (
	// NoDraw is the zero sentinel. It never identifies a real draw.
	NoDraw DrawID = 0

	// MinDraw is the first draw of the protocol.
	MinDraw DrawID = 1

	// MaxDraw is the last draw id representable in 32 bits. With daily
	// draws it sits roughly eleven million years out.
	MaxDraw DrawID = ^DrawID(0)
)

// DefaultDrawPeriod is the cadence of the production schedule: one draw per
// calendar day, which pairs with the accumulator's 366-record retention to
// give a one-year contribution history.
const DefaultDrawPeriod = 24 * time.Hour

// Genesis is the protocol launch instant draw ids count forward from.
// 2024-10-01 00:00:00 UTC
var Genesis = time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

var now = time.Now

// Next returns the draw after d.
func (d DrawID) Next() (DrawID, error) {
	if d == MaxDraw {
		return d, ErrMaxDrawReached
	}
	return d + 1, nil
}

// Prev returns the draw before d. The first draw has no predecessor, and
// neither does the NoDraw sentinel.
func (d DrawID) Prev() (DrawID, error) {
	if d <= MinDraw {
		return d, ErrMinDrawReached
	}
	return d - 1, nil
}
