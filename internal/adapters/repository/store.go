// Package repository keeps ranking sessions between requests.
package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/session"
)

// Record binds a session to the album and candidate tracks it ranks.
// Tracks[i] is the candidate at session position i.
type Record struct {
	ID        string
	Album     model.Album
	Tracks    []model.Track
	Session   *session.Session
	CreatedAt time.Time

	touched atomic.Int64
}

// NewRecord creates a record created and touched at now.
func NewRecord(id string, album model.Album, tracks []model.Track, s *session.Session, now time.Time) *Record {
	r := &Record{
		ID:        id,
		Album:     album,
		Tracks:    tracks,
		Session:   s,
		CreatedAt: now,
	}
	r.touch(now)
	return r
}

// TouchedAt returns the last time the record was stored or read.
func (r *Record) TouchedAt() time.Time {
	return time.Unix(0, r.touched.Load())
}

func (r *Record) touch(now time.Time) { r.touched.Store(now.UnixNano()) }

// Store provides access to live sessions.
type Store interface {
	// Put stores rec under rec.ID, replacing any record with the same id.
	Put(ctx context.Context, rec *Record) error
	// Get returns the record for id and marks it as recently used.
	// Returns ErrNotFound if the id is unknown or expired.
	Get(ctx context.Context, id string) (*Record, error)
	// Delete removes id and reports whether it was present.
	Delete(ctx context.Context, id string) bool
	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
