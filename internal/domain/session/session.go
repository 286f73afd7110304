// Package session walks a comparison schedule one pair at a time.
//
// A Session owns its schedule, its score table and its cursor. The only way
// to change scores is to resolve the current pair; results become readable
// once every pair has been resolved.
package session

import (
	"fmt"
	"sync"

	"github.com/okian/tracksort/internal/domain/pairing"
	"github.com/okian/tracksort/internal/domain/ranking"
	"github.com/okian/tracksort/internal/domain/scoring"
)

// State is the lifecycle state of a session.
type State int

const (
	// StateActive means a pair is waiting to be resolved.
	StateActive State = iota
	// StateComplete means every scheduled pair has been resolved.
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithScheduleOptions forwards options to the schedule generator on every
// (re)build of the schedule.
func WithScheduleOptions(opts ...pairing.Option) Option {
	return func(s *Session) {
		s.scheduleOpts = append(s.scheduleOpts, opts...)
	}
}

// Session is a comparison run over n candidates. It is safe for concurrent
// use; calls are serialized.
type Session struct {
	mu sync.Mutex

	size     int
	schedule []pairing.Pair
	scores   *scoring.Table
	cursor   int

	scheduleOpts []pairing.Option
}

// New creates an active session over n candidates.
func New(n int, opts ...Option) (*Session, error) {
	s := &Session{size: n}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset builds a fresh schedule and score table. Must be called with s.mu held
// or before the session is shared.
func (s *Session) reset() error {
	schedule, err := pairing.Generate(s.size, s.scheduleOpts...)
	if err != nil {
		return err
	}
	s.schedule = schedule
	s.scores = scoring.NewTable(s.size)
	s.cursor = 0
	return nil
}

func (s *Session) complete() bool { return s.cursor >= len(s.schedule) }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete() {
		return StateComplete
	}
	return StateActive
}

// Size returns the number of candidates.
func (s *Session) Size() int { return s.size }

// Step returns the cursor: the number of pairs resolved so far.
func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Total returns the number of scheduled pairs.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.schedule)
}

// CurrentPair returns the pair awaiting resolution.
func (s *Session) CurrentPair() (pairing.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete() {
		return pairing.Pair{}, ErrNoCurrentPair
	}
	return s.schedule[s.cursor], nil
}

// Progress returns cursor/len(schedule) while active and 1 once complete.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete() {
		return 1.0
	}
	return float64(s.cursor) / float64(len(s.schedule))
}

// Wins returns the wins recorded so far for position.
func (s *Session) Wins(position int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores.WinsOf(position)
}

// Resolve records winner for the current pair and advances.
func (s *Session) Resolve(winner int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.cursor, winner)
}

// ResolveAt resolves the pair at step. A step other than the current cursor
// means another resolution already moved the session on, and is rejected
// with ErrStaleStep.
func (s *Session) ResolveAt(step, winner int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(step, winner)
}

func (s *Session) resolveLocked(step, winner int) error {
	if s.complete() {
		return ErrNoCurrentPair
	}
	if step != s.cursor {
		return fmt.Errorf("%w: got %d, current %d", ErrStaleStep, step, s.cursor)
	}
	pair := s.schedule[s.cursor]
	if !pair.Contains(winner) {
		return fmt.Errorf("%w: %d not in (%d,%d)", ErrInvalidWinner, winner, pair.A, pair.B)
	}
	if err := s.scores.RecordWin(winner); err != nil {
		return err
	}
	s.cursor++
	return nil
}

// Restart rebuilds the schedule and clears all scores. Only legal once the
// session is complete.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.complete() {
		return ErrInvalidRestart
	}
	return s.reset()
}

// Ranking returns the final standings of a complete session.
func (s *Session) Ranking() ([]ranking.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.complete() {
		return nil, ErrNotComplete
	}
	return ranking.Standings(s.size, s.scores), nil
}

// Snapshot is a consistent read of the session at one instant.
type Snapshot struct {
	State    State
	Step     int
	Total    int
	Progress float64
	Pair     *pairing.Pair
	Wins     []int
}

// Snapshot returns the session state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:    StateActive,
		Step:     s.cursor,
		Total:    len(s.schedule),
		Progress: 1.0,
		Wins:     s.scores.Snapshot(),
	}
	if s.complete() {
		snap.State = StateComplete
		return snap
	}
	pair := s.schedule[s.cursor]
	snap.Pair = &pair
	snap.Progress = float64(s.cursor) / float64(len(s.schedule))
	return snap
}
