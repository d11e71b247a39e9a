package draws

import "errors"

var (
	// ErrDrawZero is returned when crediting the NoDraw sentinel, which
	// never identifies a real draw.
	ErrDrawZero = errors.New("draw id zero cannot be credited")

	// ErrDrawClosed is returned when crediting a draw older than the
	// newest recorded one. Once a later draw has received a contribution,
	// every earlier draw's balance is final.
	ErrDrawClosed = errors.New("draw is closed")

	// ErrInvalidRange is returned when a range query's start draw exceeds
	// its end draw.
	ErrInvalidRange = errors.New("invalid draw range")
)
