package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNoCurrentPair  = errors.New("no current pair")
	ErrInvalidWinner  = errors.New("winner is not part of the current pair")
	ErrStaleStep      = errors.New("comparison already resolved")
	ErrInvalidRestart = errors.New("restart is only allowed after completion")
	ErrNotComplete    = errors.New("session is not complete")
)
