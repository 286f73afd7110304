// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CatalogBaseURL is the root of the music catalog API.
	CatalogBaseURL string `koanf:"catalog_base_url"`

	// CatalogTimeoutMS bounds a single catalog HTTP request.
	CatalogTimeoutMS int `koanf:"catalog_timeout_ms"`

	// CatalogSearchLimit caps the albums returned by a search.
	CatalogSearchLimit int `koanf:"catalog_search_limit"`

	// CatalogRateLimit and CatalogRateBurst shape outbound catalog traffic
	// (requests per second, bucket size).
	CatalogRateLimit float64 `koanf:"catalog_rate_limit"`
	CatalogRateBurst int     `koanf:"catalog_rate_burst"`

	// BreakerFailureThreshold consecutive failures open the catalog breaker
	// for BreakerOpenTimeoutMS.
	BreakerFailureThreshold uint32 `koanf:"breaker_failure_threshold"`
	BreakerOpenTimeoutMS    int    `koanf:"breaker_open_timeout_ms"`

	// MaxSessions bounds the number of sessions kept in memory.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLMinutes expires sessions left idle this long.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		CatalogBaseURL:          "https://api.deezer.com",
		CatalogTimeoutMS:        10_000,
		CatalogSearchLimit:      12,
		CatalogRateLimit:        8,
		CatalogRateBurst:        4,
		BreakerFailureThreshold: 5,
		BreakerOpenTimeoutMS:    30_000,
		MaxSessions:             10_000,
		SessionTTLMinutes:       60,
	}
}

// CatalogTimeout returns CatalogTimeoutMS as a duration.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutMS) * time.Millisecond
}

// BreakerOpenTimeout returns BreakerOpenTimeoutMS as a duration.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutMS) * time.Millisecond
}

// SessionTTL returns SessionTTLMinutes as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
