package testsupport

import (
	"path/filepath"
	"testing"

	"recallhub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithResultLimit overrides the matching result cap on the test config.
func WithResultLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.ResultLimit = limit
	}
}

// WithFeed appends an ingest feed to the test config.
func WithFeed(agency, url, mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.Feeds = append(cfg.Ingest.Feeds, config.Feed{Agency: agency, URL: url, Mode: mode})
	}
}
