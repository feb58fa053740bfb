// Package config loads, validates, and normalizes the TOML configuration
// that drives identification runs: segmenting parameters, provider
// credentials and ordering, cache and retry behavior, and output settings.
//
// Configuration errors are reported before any audio is touched so a bad
// config never wastes provider quota.
package config
