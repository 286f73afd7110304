package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	service "github.com/okian/tracksort/internal/app"
	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/internal/domain/types"
	"github.com/okian/tracksort/pkg/logger"
)

var (
	// errQuit ends the run without error.
	errQuit = errors.New("quit")
	// errBack abandons the current session and returns to search.
	errBack = errors.New("back")
)

// next steps of the interactive loop.
type next int

const (
	nextSearch next = iota
	nextRank
	nextQuit
)

// Runner drives one interactive terminal run.
type Runner struct {
	cfg    *Config
	ranker Ranker
	in     *bufio.Scanner
	out    io.Writer
	logger logger.Logger
}

// NewRunner creates a runner reading answers from in and writing to out.
func NewRunner(cfg *Config, ranker Ranker, in io.Reader, out io.Writer) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Runner{
		cfg:    cfg,
		ranker: ranker,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logger.Get().Named("cli"),
	}
}

// Run is a convenience wrapper around NewRunner(...).Run.
func Run(ctx context.Context, cfg *Config, ranker Ranker, in io.Reader, out io.Writer) error {
	return NewRunner(cfg, ranker, in, out).Run(ctx)
}

// Run searches, ranks and repeats until the user quits or input ends.
func (r *Runner) Run(ctx context.Context) error {
	query := r.cfg.Query
	albumID := r.cfg.AlbumID

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if albumID == "" {
			album, err := r.pickAlbum(ctx, query)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				return err
			}
			albumID = strconv.FormatInt(album.ID, 10)
		}
		query = ""

		n, err := r.rank(ctx, albumID)
		albumID = ""
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, service.ErrInsufficientCandidates):
			r.printf("Not enough tracks with previews available. Try another album.\n")
			continue
		case err != nil:
			return err
		}
		if n == nextQuit {
			return nil
		}
	}
}

// pickAlbum searches for query (prompting when empty) and lets the user
// choose one result.
func (r *Runner) pickAlbum(ctx context.Context, query string) (model.Album, error) {
	for {
		if strings.TrimSpace(query) == "" {
			line, err := r.prompt("Search albums: ")
			if err != nil {
				return model.Album{}, err
			}
			query = line
			if query == "" {
				continue
			}
		}

		albums, err := r.ranker.SearchAlbums(ctx, query)
		query = ""
		if err != nil {
			if ctx.Err() != nil {
				return model.Album{}, ctx.Err()
			}
			r.logger.Warn(ctx, "album search failed", logger.Error(err))
			r.printf("Search failed: %v\n", err)
			continue
		}
		if len(albums) == 0 {
			r.printf("No albums found.\n")
			continue
		}

		r.printf("\n")
		for i, a := range albums {
			r.printf("%2d) %s — %s", i+1, a.Name, a.Artist)
			if year := a.ReleaseYear(); year != "" {
				r.printf(" (%s)", year)
			}
			r.printf(", %d tracks\n", a.TotalTracks)
		}

		for {
			line, err := r.prompt(fmt.Sprintf("Choose an album [1-%d, s=search again]: ", len(albums)))
			if err != nil {
				return model.Album{}, err
			}
			if strings.EqualFold(line, "s") {
				break
			}
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(albums) {
				r.printf("Please enter a number between 1 and %d.\n", len(albums))
				continue
			}
			return albums[n-1], nil
		}
	}
}

// rank runs one session over albumID and returns what the user wants next.
func (r *Runner) rank(ctx context.Context, albumID string) (next, error) {
	view, err := r.ranker.StartSession(ctx, albumID)
	if err != nil {
		return nextSearch, err
	}
	r.printf("\nRanking %s — %s\n", view.Album.Name, view.Album.Artist)

	for {
		if view.Comparison == nil {
			n, err := r.results(ctx, view.ID)
			if err != nil || n != nextRank {
				r.discard(ctx, view.ID)
				return n, err
			}
			if view, err = r.ranker.Restart(ctx, view.ID); err != nil {
				return nextSearch, err
			}
			continue
		}

		winner, err := r.ask(view)
		if errors.Is(err, errBack) {
			r.discard(ctx, view.ID)
			return nextSearch, nil
		}
		if err != nil {
			r.discard(ctx, view.ID)
			return nextQuit, err
		}

		updated, err := r.ranker.Choose(ctx, view.ID, view.Comparison.Step, winner)
		if err != nil {
			// The session is unchanged; show the same comparison again.
			r.printf("Choice rejected: %v\n", err)
			continue
		}
		view = updated
	}
}

// ask presents the current comparison and returns the chosen position.
func (r *Runner) ask(view types.SessionView) (int, error) {
	c := view.Comparison
	r.printf("\n%s\n", view.Label)
	r.printCandidate(1, c.Left)
	r.printCandidate(2, c.Right)

	for {
		line, err := r.prompt("Which do you prefer? [1/2, b=back]: ")
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(line) {
		case "1":
			return c.Left.Position, nil
		case "2":
			return c.Right.Position, nil
		case "b":
			return 0, errBack
		default:
			r.printf("Please type 1 or 2.\n")
		}
	}
}

func (r *Runner) printCandidate(n int, c types.Candidate) {
	t := c.Track
	r.printf("  [%d] #%d %s — %s (%s)\n", n, t.TrackNumber, t.Name, t.Artist, t.FormatDuration())
	if t.PreviewURL != "" {
		r.printf("      preview: %s\n", t.PreviewURL)
	}
}

// results prints the final ranking and asks what to do next.
func (r *Runner) results(ctx context.Context, id string) (next, error) {
	res, err := r.ranker.Results(ctx, id)
	if err != nil {
		return nextSearch, err
	}

	r.printf("\nYour ranking:\n")
	for _, e := range res.Entries {
		r.printf("#%d %s — %s\n", e.Rank, e.Track.Name, e.Track.Artist)
	}

	for {
		line, err := r.prompt("\n[r] rank again, [n] new search, [q] quit: ")
		if err != nil {
			return nextQuit, err
		}
		switch strings.ToLower(line) {
		case "r":
			return nextRank, nil
		case "n":
			return nextSearch, nil
		case "q":
			return nextQuit, nil
		}
	}
}

func (r *Runner) discard(ctx context.Context, id string) {
	if err := r.ranker.Discard(ctx, id); err != nil {
		r.logger.Debug(ctx, "discard failed", logger.String("sessionID", id), logger.Error(err))
	}
}

// prompt writes msg and reads one trimmed line. End of input is errQuit.
func (r *Runner) prompt(msg string) (string, error) {
	r.printf("%s", msg)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		r.printf("\n")
		return "", errQuit
	}
	return strings.TrimSpace(r.in.Text()), nil
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
