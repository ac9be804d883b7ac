// SPDX-License-Identifier: MIT

package genre

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/utawakulab/utacatalog/internal/fsutil"
)

// DefaultCacheTTL bounds how long an external lookup result is trusted
// before it is fetched again.
const DefaultCacheTTL = 30 * 24 * time.Hour

type cacheEntry struct {
	Genre     string    `json:"genre"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache persists external lookup results keyed by (artist, song), both
// lowercased. Entries expire after TTL. The whole file is rewritten
// atomically on Save under an advisory lock, so concurrent runs cannot
// interleave partial writes.
type Cache struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	entries map[string]cacheEntry
	dirty   bool
	now     func() time.Time
}

// OpenCache loads the cache file at path. A missing file yields an empty
// cache. ttl <= 0 selects DefaultCacheTTL.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		path:    path,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read genre cache %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		return nil, fmt.Errorf("parse genre cache %s: %w", path, err)
	}
	return c, nil
}

func cacheKey(artist, song string) string {
	return strings.ToLower(artist) + "|" + strings.ToLower(song)
}

// Get returns the cached genre for (artist, song) if present and fresh.
func (c *Cache) Get(artist, song string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(artist, song)]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.FetchedAt) > c.ttl {
		return "", false
	}
	return e.Genre, true
}

// Put records a lookup result. The entry is persisted on the next Save.
func (c *Cache) Put(artist, song, genre string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(artist, song)] = cacheEntry{Genre: genre, FetchedAt: c.now()}
	c.dirty = true
}

// Save writes the cache back to disk if anything changed. Expired entries
// are dropped on the way out so the file does not grow without bound.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	lock, err := fsutil.AcquireLock(c.path + ".lock")
	if err != nil {
		return fmt.Errorf("lock genre cache %s: %w", c.path, err)
	}
	defer func() { _ = lock.Release() }()

	fresh := make(map[string]cacheEntry, len(c.entries))
	for k, e := range c.entries {
		if c.now().Sub(e.FetchedAt) <= c.ttl {
			fresh[k] = e
		}
	}

	raw, err := json.MarshalIndent(fresh, "", "  ")
	if err != nil {
		return fmt.Errorf("encode genre cache: %w", err)
	}
	if err := fsutil.WriteFileAtomic(c.path, raw); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
