package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/tracksort/internal/adapters/catalog"
	"github.com/okian/tracksort/internal/adapters/http/api"
	"github.com/okian/tracksort/internal/adapters/repository"
	service "github.com/okian/tracksort/internal/app"
	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/session"
	"github.com/okian/tracksort/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records calls and returns canned values.
type mockDependencies struct {
	albums    []model.Album
	searchErr error

	album     model.Album
	tracks    []model.Track
	tracksErr error

	view    types.SessionView
	viewErr error
	results types.Results
	resErr  error
	discErr error

	lastQuery  string
	lastAlbum  string
	lastID     string
	lastStep   int
	lastWinner int
}

func (m *mockDependencies) SearchAlbums(ctx context.Context, query string) ([]model.Album, error) {
	m.lastQuery = query
	return m.albums, m.searchErr
}

func (m *mockDependencies) AlbumTracks(ctx context.Context, albumID string) (model.Album, []model.Track, error) {
	m.lastAlbum = albumID
	return m.album, m.tracks, m.tracksErr
}

func (m *mockDependencies) StartSession(ctx context.Context, albumID string) (types.SessionView, error) {
	m.lastAlbum = albumID
	return m.view, m.viewErr
}

func (m *mockDependencies) Session(ctx context.Context, id string) (types.SessionView, error) {
	m.lastID = id
	return m.view, m.viewErr
}

func (m *mockDependencies) Choose(ctx context.Context, id string, step, winner int) (types.SessionView, error) {
	m.lastID, m.lastStep, m.lastWinner = id, step, winner
	return m.view, m.viewErr
}

func (m *mockDependencies) Restart(ctx context.Context, id string) (types.SessionView, error) {
	m.lastID = id
	return m.view, m.viewErr
}

func (m *mockDependencies) Results(ctx context.Context, id string) (types.Results, error) {
	m.lastID = id
	return m.results, m.resErr
}

func (m *mockDependencies) Discard(ctx context.Context, id string) error {
	m.lastID = id
	return m.discErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}).
		Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var e errorBody
	So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
	return e
}

func activeView() types.SessionView {
	return types.SessionView{
		ID:       "abc",
		State:    "active",
		Step:     2,
		Total:    9,
		Progress: 2.0 / 9.0,
		Label:    "Comparison 3 of 9",
		Comparison: &types.Comparison{
			Step:  2,
			Left:  types.Candidate{Position: 0, Track: model.Track{Name: "One"}},
			Right: types.Candidate{Position: 3, Track: model.Track{Name: "Four"}},
		},
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint serves JSON", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("And a wrong method is rejected", func() {
			w := do(mux, "GET", "/api/search-albums", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestAlbumsHandler(t *testing.T) {
	Convey("Given the album endpoints", t, func() {
		deps := &mockDependencies{
			albums: []model.Album{{ID: 1, Name: "Discovery", Artist: "Daft Punk"}},
			album:  model.Album{ID: 1, Name: "Discovery"},
			tracks: []model.Track{{ID: 10, Name: "One More Time", HasPreview: true}},
		}
		mux := newMux(deps)

		Convey("When searching with a query", func() {
			w := do(mux, "POST", "/api/search-albums", `{"query":"  daft "}`)

			Convey("Then the albums are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastQuery, ShouldEqual, "daft")
				var resp struct {
					Albums []model.Album `json:"albums"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Albums), ShouldEqual, 1)
				So(resp.Albums[0].Name, ShouldEqual, "Discovery")
			})
		})

		Convey("When the query is missing or blank", func() {
			for _, body := range []string{`{}`, `{"query":""}`, `{"query":"   "}`} {
				w := do(mux, "POST", "/api/search-albums", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "validation_failed")
			}
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, "POST", "/api/search-albums", `query=x`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "bad_request")
		})

		Convey("When the search finds nothing", func() {
			deps.albums = nil
			w := do(mux, "POST", "/api/search-albums", `{"query":"zzz"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"albums":[]`)
		})

		Convey("When the catalog is unavailable", func() {
			deps.searchErr = fmt.Errorf("search albums: %w", catalog.ErrUnavailable)
			w := do(mux, "POST", "/api/search-albums", `{"query":"x"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When listing album tracks", func() {
			w := do(mux, "GET", "/api/album-tracks/1", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastAlbum, ShouldEqual, "1")
			So(w.Body.String(), ShouldContainSubstring, "One More Time")
		})

		Convey("When the album does not exist", func() {
			deps.tracksErr = catalog.ErrAlbumNotFound
			w := do(mux, "GET", "/api/album-tracks/9", "")

			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "album_not_found")
		})
	})
}

func TestSessionsHandler(t *testing.T) {
	Convey("Given the session endpoints", t, func() {
		deps := &mockDependencies{view: activeView()}
		mux := newMux(deps)

		Convey("When a session is created", func() {
			w := do(mux, "POST", "/sessions", `{"album_id":"302127"}`)

			Convey("Then it returns 201 with the first comparison", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Location"), ShouldEqual, "/sessions/abc")
				So(deps.lastAlbum, ShouldEqual, "302127")
				var v types.SessionView
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.Label, ShouldEqual, "Comparison 3 of 9")
				So(v.Comparison.Right.Position, ShouldEqual, 3)
			})
		})

		Convey("When the album id is not numeric", func() {
			w := do(mux, "POST", "/sessions", `{"album_id":"abc"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "validation_failed")
		})

		Convey("When the album has too few previews", func() {
			deps.viewErr = fmt.Errorf("%w: 1 eligible", service.ErrInsufficientCandidates)
			w := do(mux, "POST", "/sessions", `{"album_id":"1"}`)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeError(w).Code, ShouldEqual, "insufficient_candidates")
		})

		Convey("When a session is read", func() {
			w := do(mux, "GET", "/sessions/abc", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastID, ShouldEqual, "abc")
		})

		Convey("When an unknown session is read", func() {
			deps.viewErr = repository.ErrNotFound
			w := do(mux, "GET", "/sessions/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "session_not_found")
		})

		Convey("When a choice is posted", func() {
			w := do(mux, "POST", "/sessions/abc/choice", `{"step":2,"winner":3}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastStep, ShouldEqual, 2)
			So(deps.lastWinner, ShouldEqual, 3)
		})

		Convey("When a choice of step zero is posted", func() {
			w := do(mux, "POST", "/sessions/abc/choice", `{"step":0,"winner":0}`)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a choice is missing fields", func() {
			for _, body := range []string{`{"winner":1}`, `{"step":1}`, `{"step":-1,"winner":1}`} {
				w := do(mux, "POST", "/sessions/abc/choice", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the winner is not in the comparison", func() {
			deps.viewErr = session.ErrInvalidWinner
			w := do(mux, "POST", "/sessions/abc/choice", `{"step":2,"winner":5}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "invalid_winner")
		})

		Convey("When the step is stale", func() {
			deps.viewErr = session.ErrStaleStep
			w := do(mux, "POST", "/sessions/abc/choice", `{"step":1,"winner":0}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w).Code, ShouldEqual, "stale_step")
		})

		Convey("When restart is requested early", func() {
			deps.viewErr = session.ErrInvalidRestart
			w := do(mux, "POST", "/sessions/abc/restart", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w).Code, ShouldEqual, "invalid_restart")
		})

		Convey("When results are requested", func() {
			deps.results = types.Results{
				SessionID: "abc",
				Entries: []types.Entry{
					{Rank: 1, Position: 3, Wins: 4, Track: model.Track{Name: "Four"}},
					{Rank: 2, Position: 0, Wins: 1, Track: model.Track{Name: "One"}},
				},
			}
			w := do(mux, "GET", "/sessions/abc/results", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			var res types.Results
			So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.Entries[0].Track.Name, ShouldEqual, "Four")
		})

		Convey("When results are requested before completion", func() {
			deps.resErr = session.ErrNotComplete
			w := do(mux, "GET", "/sessions/abc/results", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeError(w).Code, ShouldEqual, "not_complete")
		})

		Convey("When a session is discarded", func() {
			w := do(mux, "DELETE", "/sessions/abc", "")
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(deps.lastID, ShouldEqual, "abc")
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given an op-tagged error", t, func() {
		cause := errors.New("boom")

		Convey("When it wraps a kind and a cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)

			Convey("Then both are reachable", func() {
				So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
				So(errors.Is(err, cause), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "api.op: bad request: boom")
			})
		})

		Convey("When a nil error is wrapped", func() {
			So(api.WrapKind("op", api.ErrBadRequest, nil), ShouldBeNil)
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("When a tagged error is wrapped again", func() {
			err := api.Wrap("outer", api.NewKind("inner", api.ErrValidation))

			var e *api.Error
			So(errors.As(err, &e), ShouldBeTrue)
			So(e.Op, ShouldEqual, "outer")
			So(e.Kind, ShouldEqual, api.ErrValidation)
		})
	})
}
