package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TRACKSORT_"
	envConfig  = "TRACKSORT_CONFIG"
	koanfDelim = "."
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TRACKSORT_CONFIG is set
//  3. env (prefix TRACKSORT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(koanfDelim)

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// TRACKSORT_MAX_SESSIONS -> max_sessions. Underscores are kept so the
	// flat keys match the koanf struct tags.
	envProvider := env.Provider(envPrefix, koanfDelim, func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	// The path variable itself is not a config key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.CatalogBaseURL) == "":
		return fmt.Errorf("%w: catalog_base_url must not be empty", ErrInvalidConfig)
	case c.CatalogSearchLimit < 1:
		return fmt.Errorf("%w: catalog_search_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
