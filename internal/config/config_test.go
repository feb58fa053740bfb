package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.Providers.ACRCloud.AccessKey = "key"
	cfg.Providers.ACRCloud.AccessSecret = "secret"
	cfg.Providers.AudD.APIToken = "token"
	return cfg
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	_, resolved, exists, err := Load(path)
	// Defaults lack provider credentials, so validation must fail loudly
	// rather than let a run start without usable providers.
	if err == nil {
		t.Fatal("expected validation error for missing credentials")
	}
	_ = resolved
	_ = exists
}

func TestLoadParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[identification]
segment_length = 30.0
segment_overlap = 5.0

[providers]
primary = "audd"
fallback_enabled = false

[providers.audd]
api_token = "token"

[cache]
backend = "memory"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if got, want := cfg.Identification.SegmentLength, 30.0; got != want {
		t.Errorf("segment_length %v, want %v", got, want)
	}
	// Unset keys keep their defaults.
	if got, want := cfg.Identification.MinConfidence, 0.5; got != want {
		t.Errorf("min_confidence %v, want default %v", got, want)
	}
	if got := cfg.ProviderOrder(); len(got) != 1 || got[0] != "audd" {
		t.Errorf("provider order %v, want [audd]", got)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[identification\nsegment_length="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"segment length too short", func(c *Config) { c.Identification.SegmentLength = 5 }},
		{"segment length too long", func(c *Config) { c.Identification.SegmentLength = 400 }},
		{"overlap equals length", func(c *Config) { c.Identification.SegmentOverlap = c.Identification.SegmentLength }},
		{"negative overlap", func(c *Config) { c.Identification.SegmentOverlap = -1 }},
		{"confidence above one", func(c *Config) { c.Identification.MinConfidence = 1.5 }},
		{"negative max duplicates", func(c *Config) { c.Identification.MaxDuplicates = -1 }},
		{"zero workers", func(c *Config) { c.Identification.MaxConcurrentSegments = 0 }},
		{"empty primary", func(c *Config) { c.Providers.Primary = "" }},
		{"unknown primary", func(c *Config) { c.Providers.Primary = "shazam" }},
		{"missing acrcloud key", func(c *Config) { c.Providers.ACRCloud.AccessKey = "" }},
		{"missing audd token", func(c *Config) { c.Providers.AudD.APIToken = "" }},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"max delay below base", func(c *Config) { c.Retry.MaxDelayMs = c.Retry.BaseDelayMs - 1 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"no output formats", func(c *Config) { c.Output.Formats = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate succeeded, want error")
			}
		})
	}
}

func TestValidateAcceptsDefaultsWithCredentials(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateSkipsDisabledFallbackCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Providers.FallbackEnabled = false
	cfg.Providers.AudD.APIToken = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestProviderOrderDeduplicates(t *testing.T) {
	cfg := validConfig()
	cfg.Providers.Primary = "acrcloud"
	cfg.Providers.Fallback = []string{"acrcloud", "audd", "audd"}

	got := cfg.ProviderOrder()
	want := []string{"acrcloud", "audd"}
	if len(got) != len(want) {
		t.Fatalf("order %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestDerivedSettings(t *testing.T) {
	cfg := validConfig()

	if got, want := cfg.CacheTTL(), 24*time.Hour; got != want {
		t.Errorf("CacheTTL() = %v, want %v", got, want)
	}

	policy := cfg.RetryPolicy()
	if policy.MaxAttempts != 3 || policy.BaseDelay != 500*time.Millisecond || policy.MaxDelay != 8*time.Second {
		t.Errorf("unexpected retry policy: %+v", policy)
	}

	limit := cfg.ProviderLimit("acrcloud")
	if limit.Requests != 12 || limit.Window != time.Minute {
		t.Errorf("acrcloud limit %+v", limit)
	}
	if unknown := cfg.ProviderLimit("other"); unknown.Requests != 0 {
		t.Errorf("unknown provider limit %+v, want zero", unknown)
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	// The sample must parse; it fails validation only on blank credentials.
	_, _, exists, err := Load(path)
	if !exists && err == nil {
		t.Fatal("sample config not found after CreateSample")
	}
	if err == nil {
		t.Fatal("expected credential validation error from blank sample")
	}
}
