package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/tracksort/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRACKSORT_ADDR", ":8080")
			_ = os.Setenv("TRACKSORT_MAX_SESSIONS", "250")
			_ = os.Setenv("TRACKSORT_SESSION_TTL_MINUTES", "5")
			_ = os.Setenv("TRACKSORT_CATALOG_RATE_LIMIT", "2.5")
			_ = os.Setenv("TRACKSORT_BREAKER_FAILURE_THRESHOLD", "3")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 250)
				convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 5)
				convey.So(cfg.CatalogRateLimit, convey.ShouldEqual, 2.5)
				convey.So(cfg.BreakerFailureThreshold, convey.ShouldEqual, uint32(3))
				convey.So(cfg.CatalogSearchLimit, convey.ShouldEqual, 12)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_format: json
catalog_base_url: "http://localhost:9999"
catalog_search_limit: 20
max_sessions: 50
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TRACKSORT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CatalogBaseURL, convey.ShouldEqual, "http://localhost:9999")
				convey.So(cfg.CatalogSearchLimit, convey.ShouldEqual, 20)
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 50)
				convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 60)
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("TRACKSORT_ADDR", ":7070")

				cfg, err := config.Load(ctx)

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TRACKSORT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TRACKSORT_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TRACKSORT_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero search limit", func() {
			_ = os.Setenv("TRACKSORT_CATALOG_SEARCH_LIMIT", "0")

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TRACKSORT_MAX_SESSIONS", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"TRACKSORT_CONFIG",
		"TRACKSORT_ADDR",
		"TRACKSORT_MAX_SESSIONS",
		"TRACKSORT_SESSION_TTL_MINUTES",
		"TRACKSORT_CATALOG_RATE_LIMIT",
		"TRACKSORT_CATALOG_SEARCH_LIMIT",
		"TRACKSORT_BREAKER_FAILURE_THRESHOLD",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "tracksort-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
