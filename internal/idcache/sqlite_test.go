package idcache

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer store.Close()

	expires := time.Now().Add(time.Hour).UTC()
	if err := store.Put(ctx, "abc", []byte(`{"v":1}`), expires); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	payload, gotExpires, ok, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if string(payload) != `{"v":1}` {
		t.Fatalf("payload %q, want original", payload)
	}
	if gotExpires.Sub(expires).Abs() > time.Second {
		t.Fatalf("expiry drifted: got %v, want %v", gotExpires, expires)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	if err := store.Put(ctx, "abc", []byte("payload"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()

	_, _, ok, err := reopened.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("entry lost across reopen")
	}
}

func TestSQLiteStorePruneAndStats(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	now := time.Now()

	store, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer store.Close()

	if err := store.Put(ctx, "live", []byte("x"), now.Add(time.Hour)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(ctx, "dead", []byte("x"), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	stats, err := store.Stats(ctx, now)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Entries != 2 || stats.Expired != 1 {
		t.Fatalf("stats %+v, want 2 entries with 1 expired", stats)
	}

	removed, err := store.Prune(ctx, now)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("pruned %d entries, want 1", removed)
	}
	if _, _, ok, _ := store.Get(ctx, "live"); !ok {
		t.Fatal("live entry removed by prune")
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer store.Close()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, key, []byte("x"), time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("Put returned error: %v", err)
		}
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("cleared %d entries, want 3", removed)
	}
}

func TestSQLiteStoreRejectsSecondOpener(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer store.Close()

	if _, err := OpenSQLite(dir); err == nil {
		t.Fatal("expected lock error from second opener")
	}
}
