package pairing

import "errors"

// Sentinel kinds for schedule errors.
var (
	ErrInsufficientItems = errors.New("insufficient items: at least two are required")
)
