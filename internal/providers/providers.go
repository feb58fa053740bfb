package providers

import (
	"context"
	"sort"
	"strings"
)

// Client identifies a track from a raw audio sample. One implementation
// exists per external recognition service.
type Client interface {
	// Name returns the stable provider identifier used in configuration,
	// rate limiting, and results (e.g. "acrcloud").
	Name() string
	// Identify submits the sample and returns the recognition result.
	// Failures are reported as *Error so callers can classify them.
	Identify(ctx context.Context, sample []byte, offset float64) (Result, error)
}

// Result is the outcome of a single (segment, provider) identification
// attempt. It is never mutated after creation.
type Result struct {
	Provider   string         `json:"provider"`
	Title      string         `json:"title,omitempty"`
	Artist     string         `json:"artist,omitempty"`
	Album      string         `json:"album,omitempty"`
	Confidence float64        `json:"confidence"`
	Offset     float64        `json:"offset_seconds"`
	Raw        map[string]any `json:"raw,omitempty"`
	Succeeded  bool           `json:"succeeded"`
	ErrorKind  ErrorKind      `json:"error_kind,omitempty"`
}

// Failed builds the zero-confidence placeholder result recorded when an
// identification attempt did not produce a match.
func Failed(provider string, offset float64, kind ErrorKind) Result {
	return Result{
		Provider:  strings.TrimSpace(provider),
		Offset:    offset,
		Succeeded: false,
		ErrorKind: kind,
	}
}

// SortBestFirst orders results so the most useful one comes first:
// successes before failures, then by descending confidence.
func SortBestFirst(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Succeeded != results[j].Succeeded {
			return results[i].Succeeded
		}
		return results[i].Confidence > results[j].Confidence
	})
}
