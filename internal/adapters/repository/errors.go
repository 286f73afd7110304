package repository

import "errors"

// Sentinel kinds for session store errors.
var (
	ErrNotFound  = errors.New("session not found")
	ErrNilRecord = errors.New("nil session record")
)
