package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// encodeFieldSet/decodeFieldSet serialize a Field map to/from JSON for the
// field registry table.
func encodeFieldSet(fields map[string]Field) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeFieldSet(s string) (map[string]Field, error) {
	var fields map[string]Field
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// StatementCache is a bounded LRU of prepared statements keyed by their SQL
// text, per spec §4.3 ("every query is prepared once per shape and cached
// by statement signature... bounded, default ~64 entries"). Grounded on
// spec §9's "LRU with a fixed bound"; wires hashicorp/golang-lru/v2, which
// the teacher's own go.mod already carries for other bounded caches.
type StatementCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *sql.Stmt]
}

// NewStatementCache builds a cache bounded at size entries, closing
// evicted statements as they fall out.
func NewStatementCache(size int) *StatementCache {
	if size <= 0 {
		size = 64
	}
	c, _ := lru.NewWithEvict[string, *sql.Stmt](size, func(_ string, stmt *sql.Stmt) {
		_ = stmt.Close()
	})
	return &StatementCache{cache: c}
}

// Prepared returns a cached *sql.Stmt for sqlText, preparing and caching it
// against db on first use.
func (c *StatementCache) Prepared(db *sql.DB, sqlText string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stmt, ok := c.cache.Get(sqlText); ok {
		return stmt, nil
	}
	stmt, err := db.Prepare(sqlText)
	if err != nil {
		return nil, err
	}
	c.cache.Add(sqlText, stmt)
	return stmt, nil
}

// InvalidateIndex evicts every cached statement that references index
// (schema change for that index makes its prepared statements stale).
func (c *StatementCache) InvalidateIndex(index string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	needle := "_" + index
	for _, key := range c.cache.Keys() {
		if strings.Contains(key, needle) {
			c.cache.Remove(key)
		}
	}
}

// CacheConfig mirrors the cache.* config keys from spec §6.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	MaxSize int
}

type resultCacheEntry struct {
	rows      []SearchRow
	total     int
	expiresAt time.Time
}

// ResultCache is the optional per-shape query result cache from spec §4.3,
// disabled by default, invalidated on any successful write to the index it
// caches for (spec §9: "a single invalidation signal: any successful write
// to an index invalidates all query-result entries for that index").
type ResultCache struct {
	mu      sync.Mutex
	enabled bool
	ttl     time.Duration
	cache   *lru.Cache[string, resultCacheEntry]
}

// NewResultCache builds a ResultCache from cache.* configuration.
func NewResultCache(cfg CacheConfig) *ResultCache {
	size := cfg.MaxSize
	if size <= 0 {
		size = 1000
	}
	c, _ := lru.New[string, resultCacheEntry](size)
	return &ResultCache{enabled: cfg.Enabled, ttl: cfg.TTL, cache: c}
}

// Key builds a deterministic cache key for one (index, query-shape) pair.
func (rc *ResultCache) Key(index, shape string) string {
	return index + "\x00" + shape
}

// Get returns the cached rows for key if present, not expired, and caching
// is enabled.
func (rc *ResultCache) Get(key string) ([]SearchRow, int, bool) {
	if rc == nil || !rc.enabled {
		return nil, 0, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	entry, ok := rc.cache.Get(key)
	if !ok {
		return nil, 0, false
	}
	if time.Now().After(entry.expiresAt) {
		rc.cache.Remove(key)
		return nil, 0, false
	}
	return entry.rows, entry.total, true
}

// Put caches rows/total under key, if caching is enabled.
func (rc *ResultCache) Put(key string, rows []SearchRow, total int) {
	if rc == nil || !rc.enabled {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cache.Add(key, resultCacheEntry{rows: rows, total: total, expiresAt: time.Now().Add(rc.ttl)})
}

// InvalidateIndex drops every cached entry belonging to index.
func (rc *ResultCache) InvalidateIndex(index string) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	prefix := index + "\x00"
	for _, key := range rc.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			rc.cache.Remove(key)
		}
	}
}
