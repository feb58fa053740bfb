package idcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tracklist/internal/logging"
	"tracklist/internal/providers"
)

// Store is the persistence capability behind the cache. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the payload and its expiry for a key, or ok=false when absent.
	Get(ctx context.Context, key string) (payload []byte, expiresAt time.Time, ok bool, err error)
	// Put stores a payload, replacing any existing entry (last write wins).
	Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	// Prune removes entries that expired before now and reports how many.
	Prune(ctx context.Context, now time.Time) (int64, error)
	// Clear removes every entry and reports how many.
	Clear(ctx context.Context) (int64, error)
	// Stats summarizes the store's contents.
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Close() error
}

// Stats summarizes cache contents for the CLI.
type Stats struct {
	Entries int64
	Expired int64
}

// entryPayload is the serialized form stored by the backend.
type entryPayload struct {
	Fingerprint string             `json:"fingerprint"`
	Results     []providers.Result `json:"results"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Cache wraps a Store with TTL semantics and graceful degradation.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a cache over the given store. A nil store disables caching
// entirely (every Get misses, every Put is a no-op).
func New(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "idcache"),
		now:    time.Now,
	}
}

// WithClock overrides the time source (tests).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	if now != nil {
		c.now = now
	}
	return c
}

// Get returns the cached results for a fingerprint. Expired entries and
// backend failures both read as misses.
func (c *Cache) Get(ctx context.Context, fingerprint string) ([]providers.Result, bool) {
	if c == nil || c.store == nil || fingerprint == "" {
		return nil, false
	}
	payload, expiresAt, ok, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		c.logger.Warn("cache read failed; treating as miss",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cache_read_failed"))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if !expiresAt.IsZero() && !c.now().Before(expiresAt) {
		return nil, false
	}
	var entry entryPayload
	if err := json.Unmarshal(payload, &entry); err != nil {
		c.logger.Warn("cache entry corrupt; treating as miss",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cache_entry_corrupt"))
		return nil, false
	}
	return entry.Results, true
}

// Put stores the results for a fingerprint with the configured TTL.
// Backend failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, fingerprint string, results []providers.Result) {
	if c == nil || c.store == nil || fingerprint == "" {
		return
	}
	now := c.now()
	payload, err := json.Marshal(entryPayload{
		Fingerprint: fingerprint,
		Results:     results,
		CreatedAt:   now,
	})
	if err != nil {
		c.logger.Warn("cache entry encode failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cache_write_failed"))
		return
	}
	if err := c.store.Put(ctx, fingerprint, payload, now.Add(c.ttl)); err != nil {
		c.logger.Warn("cache write failed; continuing without caching",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cache_write_failed"))
	}
}

// Fingerprint derives the deterministic cache key for a segment. It hashes
// the source identity, segment bounds, and the provider set so the same
// audio sliced the same way hits cache across runs.
func Fingerprint(sourceID string, start, duration float64, providerNames []string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(start, 'f', 3, 64)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(duration, 'f', 3, 64)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(providerNames, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Describe renders a short human-readable stats line.
func (s Stats) Describe() string {
	return fmt.Sprintf("%d entries (%d expired)", s.Entries, s.Expired)
}
