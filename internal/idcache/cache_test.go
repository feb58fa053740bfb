package idcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracklist/internal/logging"
	"tracklist/internal/providers"
)

func testResults() []providers.Result {
	return []providers.Result{
		{Provider: "acrcloud", Title: "One More Time", Artist: "Daft Punk", Confidence: 0.93, Succeeded: true},
		{Provider: "audd", Succeeded: false, ErrorKind: providers.KindTimeout},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := New(NewMemoryStore(), time.Hour, logging.NewNop())
	ctx := context.Background()

	key := Fingerprint("mix.wav", 0, 60, []string{"acrcloud", "audd"})
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss before Put")
	}

	cache.Put(ctx, key, testResults())
	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Title != "One More Time" || !got[0].Succeeded {
		t.Fatalf("unexpected first result: %+v", got[0])
	}
	if got[1].ErrorKind != providers.KindTimeout {
		t.Fatalf("failure kind %q, want timeout", got[1].ErrorKind)
	}
}

func TestCacheExpiresEntries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cache := New(NewMemoryStore(), time.Hour, logging.NewNop()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	key := Fingerprint("mix.wav", 0, 60, []string{"acrcloud"})
	cache.Put(ctx, key, testResults())

	now = now.Add(59 * time.Minute)
	if _, ok := cache.Get(ctx, key); !ok {
		t.Fatal("expected hit before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss after TTL")
	}
}

// failingStore simulates a broken backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, time.Time, bool, error) {
	return nil, time.Time{}, false, errors.New("backend down")
}
func (failingStore) Put(context.Context, string, []byte, time.Time) error {
	return errors.New("backend down")
}
func (failingStore) Prune(context.Context, time.Time) (int64, error) { return 0, nil }
func (failingStore) Clear(context.Context) (int64, error)            { return 0, nil }
func (failingStore) Stats(context.Context, time.Time) (Stats, error) { return Stats{}, nil }
func (failingStore) Close() error                                    { return nil }

func TestCacheDegradesOnBackendFailure(t *testing.T) {
	cache := New(failingStore{}, time.Hour, logging.NewNop())
	ctx := context.Background()

	key := Fingerprint("mix.wav", 0, 60, []string{"acrcloud"})
	// Neither call may panic or surface the backend error.
	cache.Put(ctx, key, testResults())
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss from failing backend")
	}
}

func TestCacheNilStoreDisablesCaching(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	cache.Put(ctx, "key", testResults())
	if _, ok := cache.Get(ctx, "key"); ok {
		t.Fatal("nil cache must always miss")
	}
}

func TestCacheCorruptEntryReadsAsMiss(t *testing.T) {
	store := NewMemoryStore()
	cache := New(store, time.Hour, logging.NewNop())
	ctx := context.Background()

	key := Fingerprint("mix.wav", 0, 60, []string{"acrcloud"})
	if err := store.Put(ctx, key, []byte("{not json"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("expected miss for corrupt entry")
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	a := Fingerprint("mix.wav", 50, 60, []string{"acrcloud", "audd"})
	b := Fingerprint("mix.wav", 50, 60, []string{"acrcloud", "audd"})
	if a != b {
		t.Fatal("identical inputs produced different fingerprints")
	}

	variants := []string{
		Fingerprint("other.wav", 50, 60, []string{"acrcloud", "audd"}),
		Fingerprint("mix.wav", 100, 60, []string{"acrcloud", "audd"}),
		Fingerprint("mix.wav", 50, 30, []string{"acrcloud", "audd"}),
		Fingerprint("mix.wav", 50, 60, []string{"audd"}),
	}
	for i, v := range variants {
		if v == a {
			t.Errorf("variant %d collides with base fingerprint", i)
		}
	}
}
