package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minSegmentLength = 10.0
	maxSegmentLength = 300.0
)

var knownProviders = map[string]bool{
	"acrcloud": true,
	"audd":     true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentification(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateOutput()
}

func (c *Config) validateIdentification() error {
	id := c.Identification
	if id.SegmentLength < minSegmentLength || id.SegmentLength > maxSegmentLength {
		return fmt.Errorf("identification.segment_length must be between %.0f and %.0f seconds", minSegmentLength, maxSegmentLength)
	}
	if id.SegmentOverlap < 0 {
		return errors.New("identification.segment_overlap must be >= 0")
	}
	if id.SegmentOverlap >= id.SegmentLength {
		return errors.New("identification.segment_overlap must be less than identification.segment_length")
	}
	if id.MinConfidence < 0 || id.MinConfidence > 1 {
		return errors.New("identification.min_confidence must be between 0 and 1")
	}
	if id.TimeThreshold < 0 {
		return errors.New("identification.time_threshold must be >= 0")
	}
	if id.MaxDuplicates < 0 {
		return errors.New("identification.max_duplicates must be >= 0")
	}
	if id.MaxConcurrentSegments < 1 {
		return errors.New("identification.max_concurrent_segments must be >= 1")
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.Providers.Primary == "" {
		return errors.New("providers.primary must be set")
	}
	for _, name := range c.ProviderOrder() {
		if !knownProviders[name] {
			return fmt.Errorf("unknown provider %q (expected acrcloud or audd)", name)
		}
		if err := c.validateProviderCredentials(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateProviderCredentials(name string) error {
	switch name {
	case "acrcloud":
		p := c.Providers.ACRCloud
		if strings.TrimSpace(p.Host) == "" {
			return errors.New("providers.acrcloud.host must be set")
		}
		if strings.TrimSpace(p.AccessKey) == "" || strings.TrimSpace(p.AccessSecret) == "" {
			return errors.New("providers.acrcloud.access_key and access_secret must be set (create a project at console.acrcloud.com)")
		}
		if p.TimeoutSeconds <= 0 {
			return errors.New("providers.acrcloud.timeout_seconds must be positive")
		}
	case "audd":
		p := c.Providers.AudD
		if strings.TrimSpace(p.APIToken) == "" {
			return errors.New("providers.audd.api_token must be set (create a token at dashboard.audd.io)")
		}
		if strings.TrimSpace(p.Endpoint) == "" {
			return errors.New("providers.audd.endpoint must be set")
		}
		if p.TimeoutSeconds <= 0 {
			return errors.New("providers.audd.timeout_seconds must be positive")
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	switch c.Cache.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Cache.Dir) == "" {
			return errors.New("cache.dir must be set when cache.backend is sqlite")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or sqlite, got %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseDelayMs <= 0 {
		return errors.New("retry.base_delay_ms must be positive")
	}
	if c.Retry.MaxDelayMs < c.Retry.BaseDelayMs {
		return errors.New("retry.max_delay_ms must be >= retry.base_delay_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir must be set")
	}
	if len(c.Output.Formats) == 0 {
		return errors.New("output.formats must include at least one format")
	}
	return nil
}
