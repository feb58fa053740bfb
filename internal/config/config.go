package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tracklist/internal/ratelimit"
	"tracklist/internal/retry"
)

//go:embed sample_config.toml
var sampleConfig string

// Identification contains segmenting and matching parameters.
type Identification struct {
	SegmentLength         float64 `toml:"segment_length"`
	SegmentOverlap        float64 `toml:"segment_overlap"`
	MinConfidence         float64 `toml:"min_confidence"`
	TimeThreshold         float64 `toml:"time_threshold"`
	MaxDuplicates         int     `toml:"max_duplicates"`
	MaxConcurrentSegments int     `toml:"max_concurrent_segments"`
}

// Providers contains provider ordering and per-provider credentials.
type Providers struct {
	Primary         string   `toml:"primary"`
	FallbackEnabled bool     `toml:"fallback_enabled"`
	Fallback        []string `toml:"fallback"`

	ACRCloud ACRCloud `toml:"acrcloud"`
	AudD     AudD     `toml:"audd"`
}

// ACRCloud contains credentials and limits for the ACRCloud provider.
type ACRCloud struct {
	Host              string `toml:"host"`
	AccessKey         string `toml:"access_key"`
	AccessSecret      string `toml:"access_secret"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerWindow int    `toml:"requests_per_window"`
	WindowSeconds     int    `toml:"window_seconds"`
}

// AudD contains credentials and limits for the AudD provider.
type AudD struct {
	APIToken          string `toml:"api_token"`
	Endpoint          string `toml:"endpoint"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerWindow int    `toml:"requests_per_window"`
	WindowSeconds     int    `toml:"window_seconds"`
}

// Cache contains configuration for the identification result cache.
type Cache struct {
	Enabled    bool   `toml:"enabled"`
	Backend    string `toml:"backend"` // "memory" or "sqlite"
	Dir        string `toml:"dir"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// Retry contains the provider retry policy.
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMs int `toml:"base_delay_ms"`
	MaxDelayMs  int `toml:"max_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Output contains export settings.
type Output struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Identification: segment schedule and track matching thresholds
//   - Providers: provider ordering, credentials, and rate limits
//   - Cache: identification result cache backend and TTL
//   - Retry: provider retry attempts and backoff bounds
//   - Logging: log format and level
//   - Output: export directory and formats
type Config struct {
	Identification Identification `toml:"identification"`
	Providers      Providers      `toml:"providers"`
	Cache          Cache          `toml:"cache"`
	Retry          Retry          `toml:"retry"`
	Logging        Logging        `toml:"logging"`
	Output         Output         `toml:"output"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tracklist/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file is not
// an error: defaults apply and exists reports false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tracklist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// normalize trims string fields and expands path values.
func (c *Config) normalize() error {
	c.Providers.Primary = strings.ToLower(strings.TrimSpace(c.Providers.Primary))
	for i, name := range c.Providers.Fallback {
		c.Providers.Fallback[i] = strings.ToLower(strings.TrimSpace(name))
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Cache.Dir != "" {
		expanded, err := expandPath(c.Cache.Dir)
		if err != nil {
			return err
		}
		c.Cache.Dir = expanded
	}
	if c.Output.Dir != "" {
		expanded, err := expandPath(c.Output.Dir)
		if err != nil {
			return err
		}
		c.Output.Dir = expanded
	}
	return nil
}

// ProviderOrder returns the provider priority list: the primary followed by
// fallbacks, deduplicated. When fallback is disabled only the primary is
// returned.
func (c *Config) ProviderOrder() []string {
	order := []string{c.Providers.Primary}
	if !c.Providers.FallbackEnabled {
		return order
	}
	seen := map[string]bool{c.Providers.Primary: true}
	for _, name := range c.Providers.Fallback {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	return order
}

// CacheTTL returns the configured cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RetryPolicy builds the retry policy from configuration.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.Retry.MaxDelayMs) * time.Millisecond,
	}
}

// ProviderLimit returns the rate limit configured for a provider, or the
// zero Limit when the provider has none.
func (c *Config) ProviderLimit(name string) ratelimit.Limit {
	switch name {
	case "acrcloud":
		return ratelimit.Limit{
			Requests: c.Providers.ACRCloud.RequestsPerWindow,
			Window:   time.Duration(c.Providers.ACRCloud.WindowSeconds) * time.Second,
		}
	case "audd":
		return ratelimit.Limit{
			Requests: c.Providers.AudD.RequestsPerWindow,
			Window:   time.Duration(c.Providers.AudD.WindowSeconds) * time.Second,
		}
	default:
		return ratelimit.Limit{}
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
