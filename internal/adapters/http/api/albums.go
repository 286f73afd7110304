package api

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/tracksort/internal/domain/model"
)

type searchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

type searchResponse struct {
	Albums []model.Album `json:"albums"`
}

type tracksResponse struct {
	Album  model.Album   `json:"album"`
	Tracks []model.Track `json:"tracks"`
}

// AlbumsHandler handles catalog lookups.
type AlbumsHandler struct {
	deps     AlbumDependencies
	validate *validator.Validate
}

// NewAlbumsHandler creates a new albums handler.
func NewAlbumsHandler(deps AlbumDependencies, v *validator.Validate) *AlbumsHandler {
	return &AlbumsHandler{deps: deps, validate: v}
}

// HandleSearch handles POST /api/search-albums requests.
func (h *AlbumsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_albums"
	var req searchRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeFailure(w, NewKind(op, ErrValidation))
		return
	}

	albums, err := h.deps.SearchAlbums(r.Context(), req.Query)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if albums == nil {
		albums = []model.Album{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Albums: albums})
}

// HandleTracks handles GET /api/album-tracks/{album_id} requests.
func (h *AlbumsHandler) HandleTracks(w http.ResponseWriter, r *http.Request) {
	const op = "api.album_tracks"
	albumID := r.PathValue("album_id")
	if albumID == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	album, tracks, err := h.deps.AlbumTracks(r.Context(), albumID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if tracks == nil {
		tracks = []model.Track{}
	}
	writeJSON(w, http.StatusOK, tracksResponse{Album: album, Tracks: tracks})
}
