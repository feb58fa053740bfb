package retry

import (
	"math/rand"
	"time"

	"tracklist/internal/providers"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second

	// jitterFraction bounds the random spread added to each computed delay.
	jitterFraction = 0.25
)

// Policy decides whether a failed identification attempt should be retried
// and after what delay. The zero value is unusable; construct with Default
// or populate every field.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Rand supplies the jitter source as a value in [0, 1). Defaults to
	// math/rand; tests inject a fixed function.
	Rand func() float64
}

// Default returns the policy used when configuration supplies no overrides.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// Next returns the delay before the next attempt, or ok=false when the
// attempt should not be retried. attempt is the 1-based number of attempts
// already made. retryAfter is the provider-supplied hint for rate-limited
// failures; it overrides the computed backoff when positive.
func (p Policy) Next(attempt int, kind providers.ErrorKind, retryAfter time.Duration) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	if !kind.Transient() {
		return 0, false
	}
	if kind == providers.KindRateLimited && retryAfter > 0 {
		return p.cap(retryAfter), true
	}
	return p.backoff(attempt), true
}

// backoff computes base * 2^(attempt-1) with jitter, capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > p.MaxDelay/2 {
			delay = p.MaxDelay
			break
		}
		delay *= 2
	}
	delay = p.cap(delay)

	random := p.Rand
	if random == nil {
		random = rand.Float64
	}
	jitter := time.Duration(float64(delay) * jitterFraction * random())
	return p.cap(delay + jitter)
}

func (p Policy) cap(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
