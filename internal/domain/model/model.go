// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Album is a catalog album offered as a ranking candidate source.
type Album struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	ReleaseDate string `json:"release_date"` // YYYY-MM-DD, may be empty
	Image       string `json:"image"`        // artwork URL
	TotalTracks int    `json:"total_tracks"`
}

// ReleaseYear returns the year part of the release date.
func (a Album) ReleaseYear() string {
	year, _, _ := strings.Cut(a.ReleaseDate, "-")
	return year
}

// Track is one entry of an album's track listing.
type Track struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	PreviewURL  string `json:"preview_url"`
	DurationMS  int    `json:"duration_ms"`
	TrackNumber int    `json:"track_number"`
	HasPreview  bool   `json:"has_preview"`
}

// FormatDuration renders the track length as m:ss.
func (t Track) FormatDuration() string {
	seconds := t.DurationMS / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// EligibleTracks returns the tracks that can be compared, i.e. those with a
// preview reference, in their original order.
func EligibleTracks(tracks []Track) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if strings.TrimSpace(t.PreviewURL) != "" {
			out = append(out, t)
		}
	}
	return out
}
