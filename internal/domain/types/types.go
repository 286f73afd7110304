// Package types contains the read shapes returned to presentation layers.
package types

import "github.com/okian/tracksort/internal/domain/model"

// Candidate is a track at its position in a session's candidate list.
type Candidate struct {
	Position int         `json:"position"`
	Track    model.Track `json:"track"`
}

// Comparison is the pair currently awaiting a choice.
type Comparison struct {
	Step  int       `json:"step"`
	Left  Candidate `json:"left"`
	Right Candidate `json:"right"`
}

// SessionView is the presentation state of one ranking session.
type SessionView struct {
	ID         string      `json:"id"`
	Album      model.Album `json:"album"`
	State      string      `json:"state"`
	Step       int         `json:"step"`
	Total      int         `json:"total"`
	Progress   float64     `json:"progress"`
	Label      string      `json:"label,omitempty"` // "Comparison k of n"
	Comparison *Comparison `json:"comparison,omitempty"`
}

// Entry is one row of a finished ranking.
type Entry struct {
	Rank     int         `json:"rank"`
	Position int         `json:"position"`
	Wins     int         `json:"wins"`
	Track    model.Track `json:"track"`
}

// Results is the final ranking of a complete session, best first.
type Results struct {
	SessionID string      `json:"session_id"`
	Album     model.Album `json:"album"`
	Entries   []Entry     `json:"entries"`
}
