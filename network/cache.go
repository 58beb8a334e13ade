package network

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultTTL applies to responses without explicit freshness information.
const defaultTTL = 5 * time.Minute

// CacheEntry is a cached stylesheet response.
type CacheEntry struct {
	Response  *Response
	ETag      string
	LastMod   string
	MaxAge    time.Duration
	HasMaxAge bool // max-age was present, including max-age=0
	Expires   time.Time
	CachedAt  time.Time
}

// IsExpired reports whether the entry is stale.
func (e *CacheEntry) IsExpired() bool {
	if e.HasMaxAge {
		return time.Since(e.CachedAt) >= e.MaxAge
	}
	if !e.Expires.IsZero() {
		return time.Now().After(e.Expires)
	}
	return time.Since(e.CachedAt) > defaultTTL
}

// CanRevalidate reports whether a conditional request can refresh the entry.
func (e *CacheEntry) CanRevalidate() bool {
	return e.ETag != "" || e.LastMod != ""
}

// Cache is an in-memory response cache shared by the stylesheets of one
// load, so a file imported twice is fetched once.
type Cache struct {
	entries map[string]*CacheEntry
	maxSize int
	mu      sync.RWMutex
}

// NewCache creates a cache holding at most maxSize entries.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Cache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get returns the entry for url, fresh or not.
func (c *Cache) Get(url string) (*CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	return entry, ok
}

// Set stores resp under url unless its Cache-Control forbids storing.
func (c *Cache) Set(url string, resp *Response) {
	headers := resp.Headers
	if headers == nil {
		headers = http.Header{}
	}
	cacheControl := parseCacheControl(headers.Get("Cache-Control"))
	if _, ok := cacheControl["no-store"]; ok {
		return
	}

	entry := &CacheEntry{
		Response: resp,
		ETag:     headers.Get("ETag"),
		LastMod:  headers.Get("Last-Modified"),
		CachedAt: time.Now(),
	}
	if v, ok := cacheControl["max-age"]; ok {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			entry.MaxAge = time.Duration(seconds) * time.Second
			entry.HasMaxAge = true
		}
	}
	if _, ok := cacheControl["no-cache"]; ok {
		entry.MaxAge, entry.HasMaxAge = 0, true
	}
	if !entry.HasMaxAge {
		if t, err := http.ParseTime(headers.Get("Expires")); err == nil {
			entry.Expires = t
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[url] = entry
}

// Delete removes an entry from the cache.
func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Size returns the number of entries in the cache.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest must be called with c.mu held.
func (c *Cache) evictOldest() {
	var (
		oldestURL  string
		oldestTime time.Time
	)
	for url, entry := range c.entries {
		if oldestURL == "" || entry.CachedAt.Before(oldestTime) {
			oldestURL = url
			oldestTime = entry.CachedAt
		}
	}
	if oldestURL != "" {
		delete(c.entries, oldestURL)
	}
}

// parseCacheControl maps lower-cased directive names to their values.
func parseCacheControl(value string) map[string]string {
	directives := make(map[string]string)
	for _, d := range strings.Split(value, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, arg, _ := strings.Cut(d, "=")
		directives[strings.ToLower(name)] = strings.Trim(arg, `"`)
	}
	return directives
}
