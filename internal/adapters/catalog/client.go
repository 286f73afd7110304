package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/tracksort/internal/domain/model"
	"github.com/okian/tracksort/pkg/logger"
	"github.com/okian/tracksort/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultBaseURL          = "https://api.deezer.com"
	defaultTimeout          = 10 * time.Second
	defaultSearchLimit      = 12
	defaultRateLimit        = 8
	defaultRateBurst        = 4
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second
	maxResponseBytes        = 4 << 20
)

// Endpoint labels used for metrics and logs.
const (
	endpointSearch = "search"
	endpointAlbum  = "album"
	endpointTracks = "tracks"
)

// Client is a Deezer public API client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	searchLimit int
	limiter     *rate.Limiter

	breakerThreshold uint32
	breakerTimeout   time.Duration
	breaker          *gobreaker.CircuitBreaker[[]byte]

	logger logger.Logger
}

// New creates a catalog client with configuration options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:          defaultBaseURL,
		timeout:          defaultTimeout,
		searchLimit:      defaultSearchLimit,
		limiter:          rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
		breakerThreshold: defaultBreakerThreshold,
		breakerTimeout:   defaultBreakerTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("catalog")
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	threshold := c.breakerThreshold
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A missing album is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAlbumNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateCatalogBreakerState(int(to))
			c.logger.Warn(context.Background(), "catalog breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	metrics.UpdateCatalogBreakerState(int(gobreaker.StateClosed))

	return c
}

// BreakerState reports the circuit breaker state, e.g. "closed".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// SearchAlbums returns albums matching a free-text query.
func (c *Client) SearchAlbums(ctx context.Context, query string) ([]model.Album, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.searchLimit))

	body, err := c.get(ctx, endpointSearch, "/search/album", params)
	if err != nil {
		return nil, err
	}

	var list albumList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrUpstream, err)
	}

	albums := make([]model.Album, 0, len(list.Data))
	for _, a := range list.Data {
		albums = append(albums, a.toModel())
	}
	return albums, nil
}

// AlbumTracks returns an album and its ordered track listing. The album
// details and the tracks are fetched concurrently.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) (model.Album, []model.Track, error) {
	albumID = strings.TrimSpace(albumID)
	if _, err := strconv.ParseInt(albumID, 10, 64); err != nil {
		return model.Album{}, nil, fmt.Errorf("%w: %q", ErrInvalidAlbum, albumID)
	}
	base := "/album/" + url.PathEscape(albumID)

	var (
		album  deezerAlbum
		tracks trackList
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.get(gctx, endpointAlbum, base, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &album); err != nil {
			return fmt.Errorf("%w: decode album: %v", ErrUpstream, err)
		}
		return nil
	})
	g.Go(func() error {
		body, err := c.get(gctx, endpointTracks, base+"/tracks", nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &tracks); err != nil {
			return fmt.Errorf("%w: decode tracks: %v", ErrUpstream, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Album{}, nil, err
	}

	out := make([]model.Track, 0, len(tracks.Data))
	for _, t := range tracks.Data {
		out = append(out, t.toModel())
	}
	return album.toModel(), out, nil
}

// get performs one rate-limited, breaker-guarded GET and returns the body.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.observe(endpoint, "canceled", start)
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	metrics.RecordCatalogRateLimitWait(float64(time.Since(start).Milliseconds()))

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, target)
	})
	switch {
	case err == nil:
		c.observe(endpoint, "ok", start)
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.observe(endpoint, "unavailable", start)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrAlbumNotFound):
		c.observe(endpoint, "not_found", start)
		return nil, err
	case ctx.Err() != nil:
		c.observe(endpoint, "canceled", start)
		return nil, fmt.Errorf("catalog %s: %w", endpoint, ctx.Err())
	default:
		c.observe(endpoint, "upstream_error", start)
		metrics.RecordErrorByComponent("catalog", endpoint)
		c.logger.Error(ctx, "catalog request failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		return nil, err
	}
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAlbumNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	// Deezer reports most failures as 200 with an error object.
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrUpstream, err)
	}
	if env.Error != nil {
		if env.Error.Code == deezerNoData {
			return nil, ErrAlbumNotFound
		}
		return nil, fmt.Errorf("%w: %s (%d): %s", ErrUpstream, env.Error.Type, env.Error.Code, env.Error.Message)
	}
	return body, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	metrics.RecordCatalogRequest(endpoint, outcome, float64(time.Since(start).Milliseconds()))
}
