package pool

import "errors"

var (
	// ErrDrawAlreadyAwarded is returned when awarding a draw at or before
	// the last awarded one. Draws close in strict order, once each.
	ErrDrawAlreadyAwarded = errors.New("draw already awarded")
)
