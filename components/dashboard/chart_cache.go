package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// DefaultChartCacheSize bounds the entries a ChartCache keeps. Counter charts
// change with every generated order, so keys churn quickly.
const DefaultChartCacheSize = 64

// RenderCache memoizes rendered chart HTML by key.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered charts for a fixed TTL, evicting the entry
// closest to expiry once the size bound is reached.
type ChartCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	limit   int
	now     func() time.Time
	entries map[string]chartEntry
}

type chartEntry struct {
	html    string
	expires time.Time
}

// NewChartCache returns a cache holding up to DefaultChartCacheSize charts.
// A non-positive ttl disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		limit:   DefaultChartCacheSize,
		now:     time.Now,
		entries: make(map[string]chartEntry),
	}
}

// GetOrRender returns the live entry for key or stores the output of render.
// Failed renders are not cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.limit {
		c.evictLocked()
	}
	c.entries[key] = chartEntry{html: html, expires: now.Add(c.ttl)}
	return html, nil
}

// Len reports the number of unexpired entries.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
	return len(c.entries)
}

func (c *ChartCache) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
}

func (c *ChartCache) evictLocked() {
	var (
		oldest   string
		first    = true
		earliest time.Time
	)
	for key, entry := range c.entries {
		if first || entry.expires.Before(earliest) {
			oldest, earliest, first = key, entry.expires, false
		}
	}
	if !first {
		delete(c.entries, oldest)
	}
}

// payloadHash fingerprints chart inputs. encoding/json sorts map keys, so
// equal payloads hash equally.
func payloadHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}
