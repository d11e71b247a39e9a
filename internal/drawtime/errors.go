package drawtime

import "errors"

var (
	// ErrGenesisZero is returned when constructing a schedule from the zero
	// time instant.
	ErrGenesisZero = errors.New("schedule genesis is the zero time")

	// ErrPeriodNotPositive is returned when constructing a schedule whose
	// draw period is zero or negative.
	ErrPeriodNotPositive = errors.New("draw period must be positive")

	// ErrBeforeGenesis is returned when converting an instant that precedes
	// the schedule's genesis, where no draw exists.
	ErrBeforeGenesis = errors.New("time is before schedule genesis")

	// ErrDrawZero is returned when an operation is asked about the NoDraw
	// sentinel, which never identifies a real draw.
	ErrDrawZero = errors.New("draw id zero is not a draw")

	// ErrMaxDrawReached is returned when attempting to step past the
	// maximum representable draw.
	ErrMaxDrawReached = errors.New("maximum draw reached")

	// ErrMinDrawReached is returned when attempting to step before the
	// first draw.
	ErrMinDrawReached = errors.New("minimum draw reached")

	// ErrDrawTooFar is returned when a draw's schedule position cannot be
	// represented as a time.Time offset from genesis.
	ErrDrawTooFar = errors.New("draw time is beyond representable range")
)
