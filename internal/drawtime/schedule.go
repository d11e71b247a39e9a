package drawtime

import (
	"math"
	"time"

	"github.com/tombolalabs/tombola/internal/safemath"
)

// Schedule fixes the genesis instant and period that draw ids are derived
// from. Draw d occupies the half-open window
// [genesis+(d-1)*period, genesis+d*period), so a draw closes at the exact
// instant its successor opens.
type Schedule struct {
	genesis time.Time
	period  time.Duration
}

// NewSchedule builds a schedule from a genesis instant and a draw period.
func NewSchedule(genesis time.Time, period time.Duration) (Schedule, error) {
	if genesis.IsZero() {
		return Schedule{}, ErrGenesisZero
	}
	if period <= 0 {
		return Schedule{}, ErrPeriodNotPositive
	}
	return Schedule{genesis: genesis, period: period}, nil
}

// DefaultSchedule returns the production schedule: daily draws counted from
// Genesis.
func DefaultSchedule() Schedule {
	return Schedule{genesis: Genesis, period: DefaultDrawPeriod}
}

// Genesis returns the schedule's genesis instant.
func (s Schedule) Genesis() time.Time {
	return s.genesis
}

// Period returns the schedule's draw period.
func (s Schedule) Period() time.Duration {
	return s.period
}

// At returns the draw whose window contains t.
func (s Schedule) At(t time.Time) (DrawID, error) {
	if s.period <= 0 {
		return NoDraw, ErrPeriodNotPositive
	}
	if t.Before(s.genesis) {
		return NoDraw, ErrBeforeGenesis
	}
	elapsed := t.Sub(s.genesis)
	n := uint64(elapsed/s.period) + 1
	if n > uint64(MaxDraw) {
		return NoDraw, ErrMaxDrawReached
	}
	return DrawID(n), nil
}

// Current returns the draw open at this moment.
func (s Schedule) Current() (DrawID, error) {
	return s.At(now())
}

// OpensAt returns the instant draw d begins accepting contributions.
func (s Schedule) OpensAt(d DrawID) (time.Time, error) {
	if d == NoDraw {
		return time.Time{}, ErrDrawZero
	}
	return s.offset(uint64(d - 1))
}

// ClosesAt returns the instant draw d closes, which is the open of the draw
// after it.
func (s Schedule) ClosesAt(d DrawID) (time.Time, error) {
	if d == NoDraw {
		return time.Time{}, ErrDrawZero
	}
	return s.offset(uint64(d))
}

func (s Schedule) offset(steps uint64) (time.Time, error) {
	if s.period <= 0 {
		return time.Time{}, ErrPeriodNotPositive
	}
	ns, ok := safemath.Mul64(steps, uint64(s.period))
	if !ok || ns > math.MaxInt64 {
		return time.Time{}, ErrDrawTooFar
	}
	return s.genesis.Add(time.Duration(ns)), nil
}
