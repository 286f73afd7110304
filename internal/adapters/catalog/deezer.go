package catalog

import (
	"strings"

	"github.com/okian/tracksort/internal/domain/model"
)

// Deezer error code meaning the requested object does not exist.
const deezerNoData = 800

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// envelope is the part shared by every Deezer response.
type envelope struct {
	Error *deezerError `json:"error"`
}

type deezerArtist struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	CoverSmall  string       `json:"cover_small"`
	CoverMedium string       `json:"cover_medium"`
	CoverBig    string       `json:"cover_big"`
	ReleaseDate string       `json:"release_date"`
	NbTracks    int          `json:"nb_tracks"`
	Artist      deezerArtist `json:"artist"`
}

type deezerTrack struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Duration      int            `json:"duration"` // seconds
	TrackPosition int            `json:"track_position"`
	Preview       string         `json:"preview"`
	Artist        deezerArtist   `json:"artist"`
	Contributors  []deezerArtist `json:"contributors"`
}

type albumList struct {
	Data []deezerAlbum `json:"data"`
}

type trackList struct {
	Data []deezerTrack `json:"data"`
}

func (a deezerAlbum) toModel() model.Album {
	return model.Album{
		ID:          a.ID,
		Name:        a.Title,
		Artist:      a.Artist.Name,
		ReleaseDate: a.ReleaseDate,
		Image:       firstNonEmpty(a.CoverBig, a.CoverMedium, a.CoverSmall),
		TotalTracks: a.NbTracks,
	}
}

func (t deezerTrack) toModel() model.Track {
	artist := t.Artist.Name
	if len(t.Contributors) > 0 {
		names := make([]string, 0, len(t.Contributors))
		for _, c := range t.Contributors {
			names = append(names, c.Name)
		}
		artist = strings.Join(names, ", ")
	}
	return model.Track{
		ID:          t.ID,
		Name:        t.Title,
		Artist:      artist,
		PreviewURL:  t.Preview,
		DurationMS:  t.Duration * 1000,
		TrackNumber: t.TrackPosition,
		HasPreview:  t.Preview != "",
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
