package fuzzy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// TermCache is the persistent, advisory term cache named in spec §3
// invariant 5 ("missing/corrupt cache never produces wrong results, only
// slower ones") and owned exclusively by one index's SearchEngine (spec
// §3 "Ownership in design terms"). It stores the most recently/frequently
// queried terms to short-circuit vocabulary fetches when the fuzzy driver
// needs candidate terms.
//
// Grounded on the teacher's internal/embed/lock.go FileLock: cross-process
// safety via gofrs/flock, the same Lock/Unlock shape, applied here to
// guard an atomic write-to-temp-then-rename of the cache file rather than
// a model download.
type TermCache struct {
	mu       sync.Mutex
	path     string
	lock     *flock.Flock
	maxSize  int
	entries  map[string]cacheEntry
}

type cacheEntry struct {
	Term      string    `json:"term"`
	HitCount  int       `json:"hit_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

type cacheFile struct {
	Entries []cacheEntry `json:"entries"`
}

// NewTermCache opens (without yet loading) the cache file at path, capped
// at maxSize entries.
func NewTermCache(path string, maxSize int) *TermCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &TermCache{
		path:    path,
		lock:    flock.New(path + ".lock"),
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

// Load reads the cache file from disk. A missing or corrupt file is
// treated as an empty cache, never an error, per invariant 5.
func (c *TermCache) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return
	}
	for _, e := range f.Entries {
		c.entries[e.Term] = e
	}
}

// Touch records (or bumps) a term's presence in the cache, used whenever a
// fuzzy candidate is accepted so future queries see it favored.
func (c *TermCache) Touch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[term]
	if !ok {
		e = cacheEntry{Term: term}
	}
	e.HitCount++
	e.UpdatedAt = time.Now()
	c.entries[term] = e

	if len(c.entries) > c.maxSize {
		c.evictOldestLocked()
	}
}

// Terms returns every cached term, most-hit first.
func (c *TermCache) Terms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].HitCount > list[j].HitCount })

	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Term
	}
	return out
}

// evictOldestLocked drops roughly the oldest third of entries, called with
// mu held. Cheap amortized eviction rather than strict LRU bookkeeping.
func (c *TermCache) evictOldestLocked() {
	list := make([]cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.Before(list[j].UpdatedAt) })

	evictCount := len(list) / 3
	for i := 0; i < evictCount; i++ {
		delete(c.entries, list[i].Term)
	}
}

// Flush persists the cache to disk atomically: write to a temp file in the
// same directory, then rename over the target, guarded by a cross-process
// file lock so concurrent processes never interleave partial writes.
func (c *TermCache) Flush() error {
	if err := c.lock.Lock(); err != nil {
		// Advisory cache: a lock failure must not fail the caller's search.
		return nil
	}
	defer c.lock.Unlock()

	c.mu.Lock()
	list := make([]cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		list = append(list, e)
	}
	c.mu.Unlock()

	data, err := json.Marshal(cacheFile{Entries: list})
	if err != nil {
		return nil
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".termcache-*.tmp")
	if err != nil {
		return nil
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil
	}
	_ = os.Rename(tmpPath, c.path)
	return nil
}
