package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/tracksort/internal/adapters/catalog"
	"github.com/okian/tracksort/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const searchBody = `{"data":[
 {"id":302127,"title":"Discovery","cover_small":"s.jpg","cover_medium":"m.jpg","cover_big":"b.jpg",
  "nb_tracks":14,"release_date":"2001-03-07","artist":{"name":"Daft Punk"}},
 {"id":11,"title":"Homework","cover_small":"s2.jpg","nb_tracks":16,"artist":{"name":"Daft Punk"}}
],"total":2}`

const albumBody = `{"id":302127,"title":"Discovery","cover_big":"b.jpg","release_date":"2001-03-07",
 "nb_tracks":3,"artist":{"name":"Daft Punk"}}`

const tracksBody = `{"data":[
 {"id":1,"title":"One More Time","duration":320,"track_position":1,"preview":"https://cdn/1.mp3",
  "artist":{"name":"Daft Punk"}},
 {"id":2,"title":"Aerodynamic","duration":207,"track_position":2,"preview":"",
  "artist":{"name":"Daft Punk"}},
 {"id":3,"title":"Digital Love","duration":298,"track_position":3,"preview":"https://cdn/3.mp3",
  "artist":{"name":"Daft Punk"},"contributors":[{"name":"Daft Punk"},{"name":"DJ Sneak"}]}
]}`

func newClient(srv *httptest.Server, opts ...catalog.Option) *catalog.Client {
	base := []catalog.Option{
		catalog.WithBaseURL(srv.URL),
		catalog.WithHTTPClient(srv.Client()),
		catalog.WithRateLimit(1000, 100),
	}
	return catalog.New(append(base, opts...)...)
}

func TestSearchAlbums(t *testing.T) {
	Convey("Given a catalog server", t, func() {
		var gotQuery, gotLimit string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			gotLimit = r.URL.Query().Get("limit")
			if r.URL.Path != "/search/album" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(searchBody))
		}))
		defer srv.Close()
		client := newClient(srv, catalog.WithSearchLimit(5))

		Convey("When searching for albums", func() {
			albums, err := client.SearchAlbums(context.Background(), "  daft punk ")

			Convey("Then the query and limit are forwarded", func() {
				So(err, ShouldBeNil)
				So(gotQuery, ShouldEqual, "daft punk")
				So(gotLimit, ShouldEqual, "5")
			})

			Convey("And albums are mapped with artwork fallback", func() {
				So(len(albums), ShouldEqual, 2)
				So(albums[0].ID, ShouldEqual, 302127)
				So(albums[0].Name, ShouldEqual, "Discovery")
				So(albums[0].Artist, ShouldEqual, "Daft Punk")
				So(albums[0].Image, ShouldEqual, "b.jpg")
				So(albums[0].TotalTracks, ShouldEqual, 14)
				So(albums[0].ReleaseYear(), ShouldEqual, "2001")
				So(albums[1].Image, ShouldEqual, "s2.jpg")
				So(albums[1].ReleaseDate, ShouldEqual, "")
			})
		})

		Convey("When the query is blank", func() {
			gotQuery = "untouched"
			albums, err := client.SearchAlbums(context.Background(), "   ")

			Convey("Then no request is made", func() {
				So(err, ShouldEqual, catalog.ErrEmptyQuery)
				So(albums, ShouldBeNil)
				So(gotQuery, ShouldEqual, "untouched")
			})
		})
	})
}

func TestAlbumTracks(t *testing.T) {
	Convey("Given a catalog server with one album", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/album/302127":
				_, _ = w.Write([]byte(albumBody))
			case "/album/302127/tracks":
				_, _ = w.Write([]byte(tracksBody))
			default:
				_, _ = w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
			}
		}))
		defer srv.Close()
		client := newClient(srv)

		Convey("When fetching the album", func() {
			album, tracks, err := client.AlbumTracks(context.Background(), "302127")

			Convey("Then album details and tracks are mapped", func() {
				So(err, ShouldBeNil)
				So(album.Name, ShouldEqual, "Discovery")
				So(album.Image, ShouldEqual, "b.jpg")
				So(len(tracks), ShouldEqual, 3)

				So(tracks[0].Name, ShouldEqual, "One More Time")
				So(tracks[0].DurationMS, ShouldEqual, 320_000)
				So(tracks[0].TrackNumber, ShouldEqual, 1)
				So(tracks[0].HasPreview, ShouldBeTrue)

				So(tracks[1].HasPreview, ShouldBeFalse)
				So(tracks[2].Artist, ShouldEqual, "Daft Punk, DJ Sneak")
			})
		})

		Convey("When the album does not exist", func() {
			_, _, err := client.AlbumTracks(context.Background(), "42")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, catalog.ErrAlbumNotFound), ShouldBeTrue)
				So(client.BreakerState(), ShouldEqual, "closed")
			})
		})

		Convey("When the album id is not numeric", func() {
			_, _, err := client.AlbumTracks(context.Background(), "../search")

			So(errors.Is(err, catalog.ErrInvalidAlbum), ShouldBeTrue)
		})
	})
}

func TestUpstreamFailures(t *testing.T) {
	Convey("Given a failing catalog server", t, func() {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		client := newClient(srv, catalog.WithBreaker(2, time.Minute))

		Convey("When requests keep failing", func() {
			_, err1 := client.SearchAlbums(context.Background(), "a")
			_, err2 := client.SearchAlbums(context.Background(), "b")
			_, err3 := client.SearchAlbums(context.Background(), "c")

			Convey("Then the breaker opens and stops calling upstream", func() {
				So(errors.Is(err1, catalog.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err2, catalog.ErrUpstream), ShouldBeTrue)
				So(errors.Is(err3, catalog.ErrUnavailable), ShouldBeTrue)
				So(hits.Load(), ShouldEqual, 2)
				So(client.BreakerState(), ShouldEqual, "open")
			})
		})
	})

	Convey("Given a catalog server reporting a quota error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`))
		}))
		defer srv.Close()
		client := newClient(srv)

		_, err := client.SearchAlbums(context.Background(), "x")

		So(errors.Is(err, catalog.ErrUpstream), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "Quota limit exceeded")
	})

	Convey("Given a cancelled context", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(searchBody))
		}))
		defer srv.Close()
		client := newClient(srv)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.SearchAlbums(ctx, "x")

		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
