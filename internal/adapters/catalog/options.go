// Package catalog talks to the public music catalog used as a source of
// ranking candidates.
package catalog

import (
	"net/http"
	"time"

	"github.com/okian/tracksort/pkg/logger"
	"golang.org/x/time/rate"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the catalog API root, e.g. "https://api.deezer.com".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each outbound request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithSearchLimit caps the number of albums a search returns.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// WithRateLimit shapes outbound traffic with a token bucket.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBreaker configures the circuit breaker: it opens after threshold
// consecutive failures and probes again after openTimeout.
func WithBreaker(threshold uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		if threshold > 0 {
			c.breakerThreshold = threshold
		}
		if openTimeout > 0 {
			c.breakerTimeout = openTimeout
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
