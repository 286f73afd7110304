package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoCatalog              = errors.New("no catalog configured")
	ErrNotStarted             = errors.New("service not started")
	ErrInsufficientCandidates = errors.New("album has fewer than two tracks with previews")
)
