package infra

import (
	"fmt"
	"testing"
	"time"
)

func TestMemoryCacheLRUBound(t *testing.T) {
	c := NewMemoryCache(3)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte{byte(i)}, 0)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	// The three most recently used keys survive.
	for _, k := range []string{"k2", "k3", "k4"} {
		if !c.Has(k) {
			t.Errorf("expected %s present", k)
		}
	}
	for _, k := range []string{"k0", "k1"} {
		if c.Has(k) {
			t.Errorf("expected %s evicted", k)
		}
	}
}

func TestMemoryCacheGetRefreshesRecency(t *testing.T) {
	c := NewMemoryCache(2)
	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	// Touch a so that b becomes least-recent.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a present")
	}
	c.Set("c", []byte("3"), 0)

	if c.Has("b") {
		t.Error("expected b evicted as least-recent")
	}
	if !c.Has("a") || !c.Has("c") {
		t.Error("expected a and c present")
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemoryCache(10)
	c.Set("short", []byte("v"), 30*time.Millisecond)
	c.Set("forever", []byte("v"), 0)

	if _, ok := c.Get("short"); !ok {
		t.Fatal("expected short present before expiry")
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected short expired")
	}
	if c.Has("short") {
		t.Error("Has should treat expired entries as absent")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("zero-TTL entry should be permanent")
	}
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemoryCache(10)
	c.Set("dart:company:1", []byte("a"), 0)
	c.Set("dart:company:2", []byte("b"), 0)
	c.Set("dart:fin:1", []byte("c"), 0)

	if n := c.DeletePrefix("dart:company"); n != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", n)
	}
	if !c.Has("dart:fin:1") {
		t.Error("unrelated key should survive")
	}
}
