// Package identify coordinates a single segment's identification across
// the configured providers: cache lookup first, then the provider priority
// walk with rate limiting, retries, and confidence-gated fallback.
//
// The orchestrator never fails a segment outright. When every provider
// exhausts its retries it records zero-confidence placeholder results so
// the pipeline keeps moving through the rest of the mix.
package identify
