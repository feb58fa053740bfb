package identify

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"tracklist/internal/audio"
	"tracklist/internal/idcache"
	"tracklist/internal/logging"
	"tracklist/internal/providers"
	"tracklist/internal/ratelimit"
	"tracklist/internal/retry"
	"tracklist/internal/segment"
)

// Options configure an Orchestrator.
type Options struct {
	// Clients lists provider clients in priority order. The first entry is
	// the primary; the rest are fallbacks.
	Clients []providers.Client
	// Cache may be nil to disable caching.
	Cache   *idcache.Cache
	Limiter *ratelimit.Limiter
	Policy  retry.Policy
	// MinConfidence is the acceptance threshold: a successful result at or
	// above it stops the provider walk.
	MinConfidence float64
	// FallbackEnabled permits walking past the primary provider.
	FallbackEnabled bool
	Logger          *slog.Logger
}

// Metrics accumulates run-level counters across all segments. Safe for
// concurrent use by the pipeline workers.
type Metrics struct {
	cacheHits     atomic.Int64
	providerCalls atomic.Int64
	retries       atomic.Int64
	fallbacks     atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	CacheHits     int64
	ProviderCalls int64
	Retries       int64
	Fallbacks     int64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:     m.cacheHits.Load(),
		ProviderCalls: m.providerCalls.Load(),
		Retries:       m.retries.Load(),
		Fallbacks:     m.fallbacks.Load(),
	}
}

// Orchestrator resolves one segment at a time: cache first, then the
// provider priority walk with retries and confidence-gated fallback. Safe
// for concurrent use.
type Orchestrator struct {
	clients       []providers.Client
	names         []string
	cache         *idcache.Cache
	limiter       *ratelimit.Limiter
	policy        retry.Policy
	minConfidence float64
	fallback      bool
	logger        *slog.Logger
	metrics       Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator constructs an orchestrator from options.
func NewOrchestrator(opts Options) *Orchestrator {
	names := make([]string, len(opts.Clients))
	for i, c := range opts.Clients {
		names[i] = c.Name()
	}
	return &Orchestrator{
		clients:       opts.Clients,
		names:         names,
		cache:         opts.Cache,
		limiter:       opts.Limiter,
		policy:        opts.Policy,
		minConfidence: opts.MinConfidence,
		fallback:      opts.FallbackEnabled,
		logger:        logging.NewComponentLogger(opts.Logger, "identify"),
		sleep:         sleepWithContext,
	}
}

// WithSleep overrides how retry delays are waited out (tests).
func (o *Orchestrator) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Orchestrator {
	if sleep != nil {
		o.sleep = sleep
	}
	return o
}

// Metrics exposes the run counters for the final summary.
func (o *Orchestrator) Metrics() *Metrics { return &o.metrics }

// ProviderNames returns the configured provider order.
func (o *Orchestrator) ProviderNames() []string {
	names := make([]string, len(o.names))
	copy(names, o.names)
	return names
}

// Identify resolves one segment into its full result set, best first. It
// only returns an error when ctx ends; every other failure degrades into
// zero-confidence placeholder results so the caller can keep going.
func (o *Orchestrator) Identify(ctx context.Context, src audio.Source, seg segment.Segment) ([]providers.Result, error) {
	fingerprint := idcache.Fingerprint(src.ID(), seg.Start, seg.Duration, o.names)
	if cached, ok := o.cache.Get(ctx, fingerprint); ok {
		o.metrics.cacheHits.Add(1)
		o.logger.Debug("cache hit",
			logging.Int(logging.FieldSegment, seg.Index),
			logging.String(logging.FieldEventType, "segment_cache_hit"))
		return cached, nil
	}

	sample, err := src.ReadRange(seg.Start, seg.Duration)
	if err != nil {
		o.logger.Warn("segment read failed",
			logging.Int(logging.FieldSegment, seg.Index),
			logging.Error(err),
			logging.String(logging.FieldEventType, "segment_read_failed"))
		return o.allFailed(seg), nil
	}

	results := make([]providers.Result, 0, len(o.clients))
	for i, client := range o.clients {
		if i > 0 {
			if !o.fallback {
				break
			}
			o.metrics.fallbacks.Add(1)
		}

		res, err := o.attempt(ctx, client, sample, seg)
		if err != nil {
			// Context ended mid-walk; report what we have.
			return results, err
		}
		results = append(results, res)

		if res.Succeeded && res.Confidence >= o.minConfidence {
			break
		}
	}
	if len(results) == 0 {
		results = o.allFailed(seg)
	}

	// Sort before caching so a later cache hit replays the same best-first
	// order the live walk produced.
	providers.SortBestFirst(results)
	o.cache.Put(ctx, fingerprint, results)
	return results, nil
}

// attempt runs one provider's retry loop for a segment. The returned error
// is non-nil only when ctx ended.
func (o *Orchestrator) attempt(ctx context.Context, client providers.Client, sample []byte, seg segment.Segment) (providers.Result, error) {
	name := client.Name()
	for attempt := 1; ; attempt++ {
		if err := o.limiter.Acquire(ctx, name); err != nil {
			return providers.Failed(name, seg.Start, providers.KindTimeout), err
		}

		o.metrics.providerCalls.Add(1)
		res, err := client.Identify(ctx, sample, seg.Start)
		if err == nil {
			res.Provider = name
			res.Offset = seg.Start
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return providers.Failed(name, seg.Start, providers.KindOf(err)), ctxErr
		}

		kind := providers.KindOf(err)
		delay, ok := o.policy.Next(attempt, kind, providers.RetryAfterOf(err))
		if !ok {
			o.logger.Warn("provider attempt exhausted",
				logging.String(logging.FieldProvider, name),
				logging.Int(logging.FieldSegment, seg.Index),
				logging.Int("attempts", attempt),
				logging.Error(err),
				logging.String(logging.FieldEventType, "provider_failed"))
			return providers.Failed(name, seg.Start, kind), nil
		}

		o.metrics.retries.Add(1)
		o.logger.Debug("provider attempt failed; retrying",
			logging.String(logging.FieldProvider, name),
			logging.Int(logging.FieldSegment, seg.Index),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := o.sleep(ctx, delay); err != nil {
			return providers.Failed(name, seg.Start, kind), err
		}
	}
}

// allFailed builds the placeholder result set recorded when no provider
// could be consulted for a segment.
func (o *Orchestrator) allFailed(seg segment.Segment) []providers.Result {
	results := make([]providers.Result, len(o.names))
	for i, name := range o.names {
		results[i] = providers.Failed(name, seg.Start, providers.KindUnknown)
	}
	return results
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
