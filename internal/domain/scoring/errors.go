package scoring

import "errors"

// Sentinel kinds for score table errors.
var (
	ErrPositionOutOfRange = errors.New("position out of range")
)
