// Package cli is the interactive terminal client for ranking album tracks.
package cli

import (
	"context"

	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/types"
)

// Config holds configuration for a terminal run.
type Config struct {
	Query   string // Initial search query; prompts when empty
	AlbumID string // Skip the search and rank this album
	LogFile string // Log file; logs are discarded when empty
	Verbose bool   // Enable debug logging
}

// Ranker is the ranking service as seen by the terminal client.
type Ranker interface {
	SearchAlbums(ctx context.Context, query string) ([]model.Album, error)
	StartSession(ctx context.Context, albumID string) (types.SessionView, error)
	Choose(ctx context.Context, id string, step, winner int) (types.SessionView, error)
	Restart(ctx context.Context, id string) (types.SessionView, error)
	Results(ctx context.Context, id string) (types.Results, error)
	Discard(ctx context.Context, id string) error
}
