// Package service provides the ranking service that implements the
// dependencies required by the HTTP API and the terminal client.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tracksort/internal/adapters/repository"
	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/pairing"
	"github.com/okian/tracksort/internal/domain/session"
	"github.com/okian/tracksort/internal/domain/types"
	"github.com/okian/tracksort/pkg/logger"
	"github.com/okian/tracksort/pkg/metrics"
)

// Catalog is the album source the service ranks tracks from.
type Catalog interface {
	SearchAlbums(ctx context.Context, query string) ([]model.Album, error)
	AlbumTracks(ctx context.Context, albumID string) (model.Album, []model.Track, error)
}

// Service owns the catalog and the live sessions.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog Catalog
	store   repository.Store

	// Configuration
	maxSessions  int
	sessionTTL   time.Duration
	scheduleOpts []pairing.Option
	newID        func() string
	now          func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the album source.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStore replaces the in-memory session store built by Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL sets how long an untouched session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithScheduleOptions forwards options to every session's schedule generator.
func WithScheduleOptions(opts ...pairing.Option) Option {
	return func(s *Service) {
		s.scheduleOpts = append(s.scheduleOpts, opts...)
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSessions: 10000,
		sessionTTL:  time.Hour,
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the session store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.catalog == nil {
		return ErrNoCatalog
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithCapacity(s.maxSessions),
			repository.WithTTL(s.sessionTTL),
		)
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.String("sessionTTL", s.sessionTTL.String()),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

func (s *Service) sessions() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// SearchAlbums returns albums matching query.
func (s *Service) SearchAlbums(ctx context.Context, query string) ([]model.Album, error) {
	if _, err := s.sessions(); err != nil {
		return nil, err
	}
	albums, err := s.catalog.SearchAlbums(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search albums: %w", err)
	}
	s.logger.Debug(ctx, "album search",
		logger.String("query", query),
		logger.Int("results", len(albums)),
	)
	return albums, nil
}

// AlbumTracks returns an album and its full track listing.
func (s *Service) AlbumTracks(ctx context.Context, albumID string) (model.Album, []model.Track, error) {
	if _, err := s.sessions(); err != nil {
		return model.Album{}, nil, err
	}
	album, tracks, err := s.catalog.AlbumTracks(ctx, albumID)
	if err != nil {
		return model.Album{}, nil, fmt.Errorf("album tracks: %w", err)
	}
	return album, tracks, nil
}

// StartSession fetches the album's tracks and starts ranking the ones that
// have previews.
func (s *Service) StartSession(ctx context.Context, albumID string) (types.SessionView, error) {
	store, err := s.sessions()
	if err != nil {
		return types.SessionView{}, err
	}

	album, tracks, err := s.catalog.AlbumTracks(ctx, albumID)
	if err != nil {
		return types.SessionView{}, fmt.Errorf("start session: %w", err)
	}
	candidates := model.EligibleTracks(tracks)

	sess, err := session.New(len(candidates), session.WithScheduleOptions(s.scheduleOpts...))
	if errors.Is(err, pairing.ErrInsufficientItems) {
		metrics.RecordSessionRefused()
		s.logger.Info(ctx, "album has too few previewable tracks",
			logger.String("albumID", albumID),
			logger.Int("tracks", len(tracks)),
			logger.Int("eligible", len(candidates)),
		)
		return types.SessionView{}, fmt.Errorf("%w: %d eligible: %w", ErrInsufficientCandidates, len(candidates), err)
	}
	if err != nil {
		return types.SessionView{}, fmt.Errorf("start session: %w", err)
	}

	rec := repository.NewRecord(s.newID(), album, candidates, sess, s.now())
	if err := store.Put(ctx, rec); err != nil {
		return types.SessionView{}, fmt.Errorf("store session: %w", err)
	}

	metrics.RecordSessionCreated(sess.Total())
	s.logger.Info(ctx, "session started",
		logger.String("sessionID", rec.ID),
		logger.String("album", album.Name),
		logger.Int("candidates", len(candidates)),
		logger.Int("comparisons", sess.Total()),
	)
	return view(rec), nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (types.SessionView, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return types.SessionView{}, err
	}
	return view(rec), nil
}

// Choose records winner for the comparison at step. Rejected choices leave
// the session unchanged.
func (s *Service) Choose(ctx context.Context, id string, step, winner int) (types.SessionView, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return types.SessionView{}, err
	}

	if err := rec.Session.ResolveAt(step, winner); err != nil {
		reason := rejectionReason(err)
		metrics.RecordResolutionRejected(reason)
		s.logger.Warn(ctx, "comparison choice rejected",
			logger.String("sessionID", id),
			logger.Int("step", step),
			logger.Int("winner", winner),
			logger.String("reason", reason),
			logger.Error(err),
		)
		return types.SessionView{}, err
	}

	metrics.RecordComparisonResolved()
	out := view(rec)
	if out.State == session.StateComplete.String() && step == out.Total-1 {
		metrics.RecordSessionCompleted()
		s.logger.Info(ctx, "session complete",
			logger.String("sessionID", id),
			logger.Int("comparisons", out.Total),
		)
	}
	return out, nil
}

// Restart starts a complete session over with a fresh schedule.
func (s *Service) Restart(ctx context.Context, id string) (types.SessionView, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return types.SessionView{}, err
	}
	if err := rec.Session.Restart(); err != nil {
		s.logger.Warn(ctx, "restart rejected",
			logger.String("sessionID", id),
			logger.Error(err),
		)
		return types.SessionView{}, err
	}
	metrics.RecordSessionRestarted(rec.Session.Total())
	return view(rec), nil
}

// Results returns the ranking of a complete session.
func (s *Service) Results(ctx context.Context, id string) (types.Results, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return types.Results{}, err
	}
	standings, err := rec.Session.Ranking()
	if err != nil {
		return types.Results{}, err
	}

	entries := make([]types.Entry, len(standings))
	for i, st := range standings {
		entries[i] = types.Entry{
			Rank:     st.Place,
			Position: st.Position,
			Wins:     st.Wins,
			Track:    rec.Tracks[st.Position],
		}
	}
	return types.Results{
		SessionID: rec.ID,
		Album:     rec.Album,
		Entries:   entries,
	}, nil
}

// Discard drops a session. Unknown ids report repository.ErrNotFound.
func (s *Service) Discard(ctx context.Context, id string) error {
	store, err := s.sessions()
	if err != nil {
		return err
	}
	if !store.Delete(ctx, id) {
		return repository.ErrNotFound
	}
	metrics.RecordSessionDiscarded()
	s.logger.Debug(ctx, "session discarded", logger.String("sessionID", id))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"maxSessions": s.maxSessions,
		"sessionTTL":  s.sessionTTL.String(),
	}

	if s.started {
		active := s.store.Count(context.Background())
		stats["activeSessions"] = active
		metrics.UpdateActiveSessions(active)
	}
	if b, ok := s.catalog.(interface{ BreakerState() string }); ok {
		stats["catalogBreaker"] = b.BreakerState()
	}

	return stats
}

func (s *Service) get(ctx context.Context, id string) (*repository.Record, error) {
	store, err := s.sessions()
	if err != nil {
		return nil, err
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", id, err)
	}
	return rec, nil
}

// view renders rec from a single consistent session snapshot.
func view(rec *repository.Record) types.SessionView {
	snap := rec.Session.Snapshot()
	out := types.SessionView{
		ID:       rec.ID,
		Album:    rec.Album,
		State:    snap.State.String(),
		Step:     snap.Step,
		Total:    snap.Total,
		Progress: snap.Progress,
	}
	if snap.Pair != nil {
		out.Label = fmt.Sprintf("Comparison %d of %d", snap.Step+1, snap.Total)
		out.Comparison = &types.Comparison{
			Step:  snap.Step,
			Left:  types.Candidate{Position: snap.Pair.A, Track: rec.Tracks[snap.Pair.A]},
			Right: types.Candidate{Position: snap.Pair.B, Track: rec.Tracks[snap.Pair.B]},
		}
	}
	return out
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, session.ErrStaleStep):
		return "stale_step"
	case errors.Is(err, session.ErrInvalidWinner):
		return "invalid_winner"
	case errors.Is(err, session.ErrNoCurrentPair):
		return "no_current_pair"
	default:
		return "other"
	}
}
