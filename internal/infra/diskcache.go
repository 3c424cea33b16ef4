package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)
)

const diskCacheSchema = `
CREATE TABLE IF NOT EXISTS cache (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER,
    hit_count  INTEGER NOT NULL DEFAULT 0
);
`

// DiskCacheStats summarizes the store for observability.
type DiskCacheStats struct {
	Entries   int   `json:"entries"`
	TotalHits int64 `json:"total_hits"`
}

// DiskCache is a persistent key/value row store backed by SQLite. A NULL
// expires_at marks a permanent entry: it never expires by TTL and is only
// removed by explicit invalidation. Writes are per-row atomic with
// last-writer-wins semantics.
type DiskCache struct {
	db *sql.DB
}

// OpenDiskCache opens (creating if needed) the cache database at path.
func OpenDiskCache(path string) (*DiskCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// Serialize writers at the pool level; SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(diskCacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return &DiskCache{db: db}, nil
}

// Close releases the database handle.
func (d *DiskCache) Close() error {
	return d.db.Close()
}

// Get returns the stored value for key, treating expired rows as absent.
// Each successful Get increments the row's hit counter.
func (d *DiskCache) Get(key string) ([]byte, bool) {
	var value []byte
	var expiresAt sql.NullInt64
	err := d.db.QueryRow(`SELECT value, expires_at FROM cache WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if err != nil {
		return nil, false
	}
	if expiresAt.Valid && expiresAt.Int64 <= time.Now().UnixMilli() {
		return nil, false
	}
	_, _ = d.db.Exec(`UPDATE cache SET hit_count = hit_count + 1 WHERE key = ?`, key)
	return value, true
}

// Has reports whether an unexpired entry exists without counting a hit.
func (d *DiskCache) Has(key string) bool {
	var expiresAt sql.NullInt64
	err := d.db.QueryRow(`SELECT expires_at FROM cache WHERE key = ?`, key).Scan(&expiresAt)
	if err != nil {
		return false
	}
	return !expiresAt.Valid || expiresAt.Int64 > time.Now().UnixMilli()
}

// Set upserts a value. A positive ttl sets the expiry; zero or negative
// stores a permanent entry (NULL expires_at).
func (d *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	now := time.Now().UnixMilli()
	var expiresAt any
	if ttl > 0 {
		expiresAt = now + ttl.Milliseconds()
	}
	_, err := d.db.Exec(`
INSERT INTO cache (key, value, created_at, expires_at, hit_count)
VALUES (?, ?, ?, ?, 0)
ON CONFLICT(key) DO UPDATE SET
    value      = excluded.value,
    created_at = excluded.created_at,
    expires_at = excluded.expires_at`,
		key, value, now, expiresAt)
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes a single key.
func (d *DiskCache) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM cache WHERE key = ?`, key)
	return err
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. LIKE metacharacters in the prefix are escaped.
func (d *DiskCache) InvalidatePrefix(prefix string) (int, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	res, err := d.db.Exec(`DELETE FROM cache WHERE key LIKE ? ESCAPE '\'`, escaped+"%")
	if err != nil {
		return 0, fmt.Errorf("invalidate prefix %s: %w", prefix, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Prune removes all entries whose expiry has passed. Permanent entries
// are preserved. Returns the number removed.
func (d *DiskCache) Prune() (int, error) {
	res, err := d.db.Exec(`DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats returns entry count and aggregate hit count.
func (d *DiskCache) Stats() (DiskCacheStats, error) {
	var st DiskCacheStats
	err := d.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM cache`).
		Scan(&st.Entries, &st.TotalHits)
	if err != nil {
		return st, fmt.Errorf("cache stats: %w", err)
	}
	return st, nil
}
