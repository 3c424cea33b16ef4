package infra

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Provenance records which layer satisfied a cache-through lookup.
type Provenance string

const (
	FromMemory Provenance = "memory"
	FromDisk   Provenance = "disk"
	FromOrigin Provenance = "origin"
)

// Freshness describes how long a cached payload stays valid. Permanent
// entries are stored only on disk, never time-expire, and are removed only
// by explicit invalidation.
type Freshness struct {
	TTL       time.Duration
	Permanent bool
}

// TTLFor returns a time-bounded freshness.
func TTLFor(d time.Duration) Freshness { return Freshness{TTL: d} }

// Forever returns a permanent freshness.
func Forever() Freshness { return Freshness{Permanent: true} }

// Origin fetches a payload from the upstream when both cache tiers miss.
type Origin func(ctx context.Context) ([]byte, error)

// LayeredCache composes the memory and disk tiers in front of an origin.
type LayeredCache struct {
	mem  *MemoryCache
	disk *DiskCache
}

// NewLayeredCache composes an existing memory and disk cache.
func NewLayeredCache(mem *MemoryCache, disk *DiskCache) *LayeredCache {
	return &LayeredCache{mem: mem, disk: disk}
}

// Lookup resolves key through memory, then disk, then the origin.
// Origin results are written to memory (time-bounded entries only) and to
// disk (always). forceRefresh bypasses both tiers but still writes through
// on success. Origin failures are never cached, and a cancelled context
// never produces a cache write.
func (lc *LayeredCache) Lookup(ctx context.Context, key string, fresh Freshness, forceRefresh bool, origin Origin) ([]byte, Provenance, error) {
	if !forceRefresh {
		if v, ok := lc.mem.Get(key); ok {
			return v, FromMemory, nil
		}
		if v, ok := lc.disk.Get(key); ok {
			if !fresh.Permanent && fresh.TTL > 0 {
				lc.mem.Set(key, v, fresh.TTL)
			}
			return v, FromDisk, nil
		}
	}

	v, err := origin(ctx)
	if err != nil {
		return nil, FromOrigin, err
	}
	if ctx.Err() != nil {
		return nil, FromOrigin, ctx.Err()
	}

	if !fresh.Permanent && fresh.TTL > 0 {
		lc.mem.Set(key, v, fresh.TTL)
	}
	diskTTL := fresh.TTL
	if fresh.Permanent {
		diskTTL = 0
	}
	_ = lc.disk.Set(key, v, diskTTL)

	return v, FromOrigin, nil
}

// Invalidate removes key from both tiers.
func (lc *LayeredCache) Invalidate(key string) {
	lc.mem.Delete(key)
	_ = lc.disk.Delete(key)
}

// InvalidatePrefix removes all keys with the given prefix from both tiers
// and returns the number of disk rows removed.
func (lc *LayeredCache) InvalidatePrefix(prefix string) (int, error) {
	lc.mem.DeletePrefix(prefix)
	return lc.disk.InvalidatePrefix(prefix)
}

// Prune removes expired rows from the disk tier and returns the count.
func (lc *LayeredCache) Prune() (int, error) {
	return lc.disk.Prune()
}

// authParams are credential-bearing parameters excluded from cache keys so
// that rotating credentials does not invalidate cached payloads.
var authParams = map[string]bool{
	"crtfc_key":     true,
	"apiKey":        true,
	"appkey":        true,
	"appsecret":     true,
	"authorization": true,
	"tr_id":         true,
	"token":         true,
	"access_token":  true,
}

// BuildKey builds the canonical cache key
// "<provider>:<endpoint>:<hex of the first 16 bytes of the sha256 of
// sorted param pairs>". Parameter order
// does not affect the key, and auth-bearing parameters are excluded.
func BuildKey(provider, endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if authParams[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return provider + ":" + endpoint + ":" + hex.EncodeToString(sum[:16])
}
