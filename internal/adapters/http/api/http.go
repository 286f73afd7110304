// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/okian/tracksort/internal/adapters/catalog"
	"github.com/okian/tracksort/internal/adapters/repository"
	service "github.com/okian/tracksort/internal/app"
	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/session"
	"github.com/okian/tracksort/internal/domain/types"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AlbumDependencies
	SessionDependencies
}

// AlbumDependencies covers catalog lookups.
type AlbumDependencies interface {
	SearchAlbums(ctx context.Context, query string) ([]model.Album, error)
	AlbumTracks(ctx context.Context, albumID string) (model.Album, []model.Track, error)
}

// SessionDependencies covers the ranking session lifecycle.
type SessionDependencies interface {
	StartSession(ctx context.Context, albumID string) (types.SessionView, error)
	Session(ctx context.Context, id string) (types.SessionView, error)
	Choose(ctx context.Context, id string, step, winner int) (types.SessionView, error)
	Restart(ctx context.Context, id string) (types.SessionView, error)
	Results(ctx context.Context, id string) (types.Results, error)
	Discard(ctx context.Context, id string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	albumsHandler   *AlbumsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := newValidator()
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		albumsHandler:   NewAlbumsHandler(deps, v),
		sessionsHandler: NewSessionsHandler(deps, v),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /api/search-albums", MetricsMiddleware(s.albumsHandler.HandleSearch, "search_albums"))
	mux.HandleFunc("GET /api/album-tracks/{album_id}", MetricsMiddleware(s.albumsHandler.HandleTracks, "album_tracks"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions_delete"))
	mux.HandleFunc("POST /sessions/{id}/choice", MetricsMiddleware(s.sessionsHandler.HandleChoice, "sessions_choice"))
	mux.HandleFunc("POST /sessions/{id}/restart", MetricsMiddleware(s.sessionsHandler.HandleRestart, "sessions_restart"))
	mux.HandleFunc("GET /sessions/{id}/results", MetricsMiddleware(s.sessionsHandler.HandleResults, "sessions_results"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, catalog.ErrEmptyQuery),
		errors.Is(err, catalog.ErrInvalidAlbum):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, session.ErrInvalidWinner):
		return http.StatusBadRequest, "invalid_winner"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, catalog.ErrAlbumNotFound):
		return http.StatusNotFound, "album_not_found"
	case errors.Is(err, session.ErrStaleStep):
		return http.StatusConflict, "stale_step"
	case errors.Is(err, session.ErrNoCurrentPair):
		return http.StatusConflict, "session_complete"
	case errors.Is(err, session.ErrInvalidRestart):
		return http.StatusConflict, "invalid_restart"
	case errors.Is(err, session.ErrNotComplete):
		return http.StatusConflict, "not_complete"
	case errors.Is(err, service.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity, "insufficient_candidates"
	case errors.Is(err, catalog.ErrUpstream):
		return http.StatusBadGateway, "catalog_error"
	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(r *http.Request, v *validator.Validate, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrBadRequest, err)
	}
	if err := v.Struct(dst); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			return fmt.Errorf("%w: %s failed %q", ErrValidation, f.Field(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
