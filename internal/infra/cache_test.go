package infra

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestLayered(t *testing.T) *LayeredCache {
	t.Helper()
	disk, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { disk.Close() })
	return NewLayeredCache(NewMemoryCache(128), disk)
}

func TestBuildKeyCanonical(t *testing.T) {
	a := BuildKey("dart", "company", map[string]string{"b": "2", "a": "1", "c": "3"})
	b := BuildKey("dart", "company", map[string]string{"c": "3", "a": "1", "b": "2"})
	if a != b {
		t.Errorf("param order changed the key: %q vs %q", a, b)
	}

	c := BuildKey("dart", "company", map[string]string{"a": "1", "b": "2", "c": "4"})
	if a == c {
		t.Error("different params must produce a different key")
	}
}

func TestBuildKeyExcludesAuthParams(t *testing.T) {
	a := BuildKey("dart", "company", map[string]string{"corp_code": "00126380", "crtfc_key": "key-one"})
	b := BuildKey("dart", "company", map[string]string{"corp_code": "00126380", "crtfc_key": "key-two"})
	if a != b {
		t.Error("rotating credentials must not change the cache key")
	}
}

func TestLookupColdWarmProvenance(t *testing.T) {
	lc := newTestLayered(t)
	ctx := context.Background()
	key := BuildKey("dart", "company", map[string]string{"corp_code": "00126380"})

	calls := 0
	origin := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{"name":"삼성전자"}`), nil
	}

	_, prov, err := lc.Lookup(ctx, key, TTLFor(time.Minute), false, origin)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromOrigin {
		t.Errorf("cold lookup provenance = %s, want origin", prov)
	}

	_, prov, err = lc.Lookup(ctx, key, TTLFor(time.Minute), false, origin)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromMemory {
		t.Errorf("warm lookup provenance = %s, want memory", prov)
	}
	if calls != 1 {
		t.Errorf("origin calls = %d, want 1", calls)
	}

	// Invalidation forces the next lookup back to the origin.
	if _, err := lc.InvalidatePrefix("dart:company"); err != nil {
		t.Fatal(err)
	}
	_, prov, err = lc.Lookup(ctx, key, TTLFor(time.Minute), false, origin)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromOrigin {
		t.Errorf("post-invalidation provenance = %s, want origin", prov)
	}
	if calls != 2 {
		t.Errorf("origin calls = %d, want 2", calls)
	}
}

func TestLookupDiskHitWritesThroughToMemory(t *testing.T) {
	disk, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	mem := NewMemoryCache(16)
	lc := NewLayeredCache(mem, disk)

	if err := disk.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	_, prov, err := lc.Lookup(context.Background(), "k", TTLFor(time.Hour), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromDisk {
		t.Fatalf("provenance = %s, want disk", prov)
	}
	if !mem.Has("k") {
		t.Error("disk hit should write through to memory for positive TTL")
	}
}

func TestLookupPermanentSkipsMemory(t *testing.T) {
	disk, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Close()

	mem := NewMemoryCache(16)
	lc := NewLayeredCache(mem, disk)

	origin := func(ctx context.Context) ([]byte, error) { return []byte("v"), nil }
	_, _, err = lc.Lookup(context.Background(), "k", Forever(), false, origin)
	if err != nil {
		t.Fatal(err)
	}
	if mem.Has("k") {
		t.Error("permanent entries are stored only on disk")
	}
	if !disk.Has("k") {
		t.Error("permanent entry missing from disk")
	}
}

func TestLookupForceRefresh(t *testing.T) {
	lc := newTestLayered(t)
	ctx := context.Background()

	calls := 0
	origin := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	for i := 0; i < 2; i++ {
		_, prov, err := lc.Lookup(ctx, "k", TTLFor(time.Hour), true, origin)
		if err != nil {
			t.Fatal(err)
		}
		if prov != FromOrigin {
			t.Errorf("force refresh provenance = %s, want origin", prov)
		}
	}
	if calls != 2 {
		t.Errorf("origin calls = %d, want 2", calls)
	}
}

func TestLookupOriginErrorNotCached(t *testing.T) {
	lc := newTestLayered(t)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	calls := 0
	origin := func(ctx context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, wantErr
		}
		return []byte("ok"), nil
	}

	if _, _, err := lc.Lookup(ctx, "k", TTLFor(time.Hour), false, origin); !errors.Is(err, wantErr) {
		t.Fatalf("expected origin error, got %v", err)
	}

	// Failure must not have produced a cache entry.
	_, prov, err := lc.Lookup(ctx, "k", TTLFor(time.Hour), false, origin)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromOrigin {
		t.Errorf("provenance = %s, want origin after failed first call", prov)
	}
}

func TestLookupCancelledNotCached(t *testing.T) {
	lc := newTestLayered(t)

	cctx, cancel := context.WithCancel(context.Background())
	origin := func(ctx context.Context) ([]byte, error) {
		cancel() // cancellation lands mid-flight
		return []byte("v"), nil
	}

	if _, _, err := lc.Lookup(cctx, "k", TTLFor(time.Hour), false, origin); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	calls := 0
	fresh := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}
	_, prov, err := lc.Lookup(context.Background(), "k", TTLFor(time.Hour), false, fresh)
	if err != nil {
		t.Fatal(err)
	}
	if prov != FromOrigin || calls != 1 {
		t.Error("cancelled call must not have written a cache entry")
	}
}
