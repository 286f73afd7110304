package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrEmptyQuery    = errors.New("query cannot be empty")
	ErrInvalidAlbum  = errors.New("invalid album id")
	ErrAlbumNotFound = errors.New("album not found")
	ErrUpstream      = errors.New("catalog upstream error")
	ErrUnavailable   = errors.New("catalog temporarily unavailable")
)
