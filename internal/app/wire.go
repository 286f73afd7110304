package service

import (
	"github.com/okian/tracksort/internal/adapters/catalog"
	"github.com/okian/tracksort/internal/config"
	"github.com/okian/tracksort/pkg/logger"
)

// NewCatalog builds the catalog client described by cfg.
func NewCatalog(cfg *config.Config) *catalog.Client {
	return catalog.New(
		catalog.WithBaseURL(cfg.CatalogBaseURL),
		catalog.WithTimeout(cfg.CatalogTimeout()),
		catalog.WithSearchLimit(cfg.CatalogSearchLimit),
		catalog.WithRateLimit(cfg.CatalogRateLimit, cfg.CatalogRateBurst),
		catalog.WithBreaker(cfg.BreakerFailureThreshold, cfg.BreakerOpenTimeout()),
		catalog.WithLogger(logger.Get().Named("catalog")),
	)
}

// FromConfig constructs a Service backed by the catalog client and session
// limits in cfg. Later options override the configured ones.
func FromConfig(cfg *config.Config, opts ...Option) *Service {
	base := []Option{
		WithCatalog(NewCatalog(cfg)),
		WithMaxSessions(cfg.MaxSessions),
		WithSessionTTL(cfg.SessionTTL()),
	}
	return New(append(base, opts...)...)
}
