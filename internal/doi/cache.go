// Package doi enriches parsed references with DOIs from the CrossRef API,
// backed by a persistent SQLite cache keyed on the canonicalized lookup.
package doi

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// Cache is the persistent DOI lookup cache. Negative results are cached
// too, so repeated misses cost nothing.
type Cache struct {
	db  *sql.DB
	ttl time.Duration // 0 means entries never expire
}

// DefaultCachePath returns <user-cache-dir>/refextract/doi_cache.db.
func DefaultCachePath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determining cache directory: %w", err)
	}
	return filepath.Join(base, "refextract", "doi_cache.db"), nil
}

// OpenCache opens (creating if needed) the cache database at path. A ttl
// of zero keeps entries forever.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	// SQLite allows one writer; readers queue behind it.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS doi_cache (
			key TEXT PRIMARY KEY,
			doi TEXT,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get looks up a key. found reports a cache hit; a hit with an empty doi
// is a cached negative.
func (c *Cache) Get(key string) (doi string, found bool, err error) {
	row := c.db.QueryRow("SELECT doi, created_at FROM doi_cache WHERE key = ?", key)
	var stored sql.NullString
	var createdAt int64
	if err := row.Scan(&stored, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	if c.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > c.ttl {
		return "", false, nil
	}
	if stored.Valid {
		return stored.String, true, nil
	}
	return "", true, nil
}

// Put stores a lookup result; an empty doi records a negative.
func (c *Cache) Put(key, doi string) error {
	var stored any
	if doi != "" {
		stored = doi
	}
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO doi_cache (key, doi, created_at) VALUES (?, ?, ?)",
		key, stored, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// CacheKey hashes canonicalized lookup terms into a stable cache key.
func CacheKey(terms string) string {
	sum := blake2b.Sum256([]byte(terms))
	return hex.EncodeToString(sum[:])
}
