// Package logging assembles the structured slog loggers used across
// tracklist components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes typed attribute helpers so pipeline code tags log
// lines consistently. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
