package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limit describes a provider's request budget: Requests tokens per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) valid() bool {
	return l.Requests > 0 && l.Window > 0
}

// Utilization is a point-in-time view of a provider's bucket for
// observability. Used counts tokens currently spent out of Capacity.
type Utilization struct {
	Used     int
	Capacity int
	Window   time.Duration
}

// Limiter hands out request tokens per provider. Safe for concurrent use by
// all segment workers.
type Limiter struct {
	mu        sync.Mutex
	defaults  Limit
	overrides map[string]Limit
	buckets   map[string]*bucket

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type bucket struct {
	limit    Limit
	tokens   float64
	lastFill time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithProviderLimit overrides the default budget for one provider.
func WithProviderLimit(provider string, limit Limit) Option {
	return func(l *Limiter) {
		l.overrides[provider] = limit
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleeper overrides how waits are performed (tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New constructs a limiter with the given default per-provider budget.
func New(defaults Limit, opts ...Option) *Limiter {
	l := &Limiter{
		defaults:  defaults,
		overrides: make(map[string]Limit),
		buckets:   make(map[string]*bucket),
		now:       time.Now,
		sleep:     sleepWithContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a token is available for the provider or ctx ends.
// Providers without a usable limit are granted immediately.
func (l *Limiter) Acquire(ctx context.Context, provider string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		b := l.bucketFor(provider)
		if b == nil {
			l.mu.Unlock()
			return nil
		}
		l.refill(b)
		if b.tokens >= 1 {
			b.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.timeToNextToken(b)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Utilization reports the provider's current bucket usage.
func (l *Limiter) Utilization(provider string) Utilization {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(provider)
	if b == nil {
		return Utilization{}
	}
	l.refill(b)
	used := b.limit.Requests - int(b.tokens)
	if used < 0 {
		used = 0
	}
	return Utilization{
		Used:     used,
		Capacity: b.limit.Requests,
		Window:   b.limit.Window,
	}
}

// bucketFor returns the provider's bucket, creating it on first use.
// Returns nil when no usable limit applies. Caller holds l.mu.
func (l *Limiter) bucketFor(provider string) *bucket {
	if b, ok := l.buckets[provider]; ok {
		return b
	}
	limit, ok := l.overrides[provider]
	if !ok {
		limit = l.defaults
	}
	if !limit.valid() {
		return nil
	}
	b := &bucket{
		limit:    limit,
		tokens:   float64(limit.Requests),
		lastFill: l.now(),
	}
	l.buckets[provider] = b
	return b
}

// refill credits tokens for time elapsed since the last fill. Caller holds l.mu.
func (l *Limiter) refill(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastFill)
	if elapsed <= 0 {
		return
	}
	rate := float64(b.limit.Requests) / float64(b.limit.Window)
	b.tokens += rate * float64(elapsed)
	if max := float64(b.limit.Requests); b.tokens > max {
		b.tokens = max
	}
	b.lastFill = now
}

// timeToNextToken estimates how long until one full token accrues. Caller
// holds l.mu.
func (l *Limiter) timeToNextToken(b *bucket) time.Duration {
	deficit := 1 - b.tokens
	if deficit <= 0 {
		return 0
	}
	perToken := float64(b.limit.Window) / float64(b.limit.Requests)
	wait := time.Duration(deficit * perToken)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
