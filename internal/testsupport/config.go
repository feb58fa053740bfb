// Package testsupport provides helpers shared by package tests: canned
// configurations and generated WAV fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"tracklist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a validated config seeded with fake credentials and a
// unique temp cache directory per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Providers.ACRCloud.AccessKey = "test-key"
	cfg.Providers.ACRCloud.AccessSecret = "test-secret"
	cfg.Providers.AudD.APIToken = "test-token"
	cfg.Cache.Dir = filepath.Join(base, "cache")
	cfg.Output.Dir = filepath.Join(base, "out")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithMemoryCache switches the test config to the in-memory cache backend.
func WithMemoryCache() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Backend = "memory"
	}
}

// WithFallbackDisabled restricts identification to the primary provider.
func WithFallbackDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Providers.FallbackEnabled = false
	}
}
