package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
)

type createSessionRequest struct {
	AlbumID string `json:"album_id" validate:"required,numeric"`
}

type choiceRequest struct {
	Step   *int `json:"step" validate:"required,min=0"`
	Winner *int `json:"winner" validate:"required,min=0"`
}

// SessionsHandler handles the ranking session lifecycle.
type SessionsHandler struct {
	deps     SessionDependencies
	validate *validator.Validate
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies, v *validator.Validate) *SessionsHandler {
	return &SessionsHandler{deps: deps, validate: v}
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createSessionRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	view, err := h.deps.StartSession(r.Context(), req.AlbumID)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	view, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleChoice handles POST /sessions/{id}/choice requests.
func (h *SessionsHandler) HandleChoice(w http.ResponseWriter, r *http.Request) {
	const op = "api.choose"
	var req choiceRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	view, err := h.deps.Choose(r.Context(), r.PathValue("id"), *req.Step, *req.Winner)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRestart handles POST /sessions/{id}/restart requests.
func (h *SessionsHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	const op = "api.restart"
	view, err := h.deps.Restart(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleResults handles GET /sessions/{id}/results requests.
func (h *SessionsHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.results"
	results, err := h.deps.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.discard"
	if err := h.deps.Discard(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
