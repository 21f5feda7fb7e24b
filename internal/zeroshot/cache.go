package zeroshot

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/dear-diary/internal/model"
)

// cacheEntry represents a cached ranking.
type cacheEntry struct {
	expiry time.Time
	scores model.LabelScores
}

// scoreCache provides thread-safe TTL caching of rankings.
type scoreCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newScoreCache creates a new cache with the specified TTL.
func newScoreCache(ttl time.Duration) *scoreCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &scoreCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func cacheKey(text string, labels []string) string {
	return text + "\x00" + strings.Join(labels, "\x1f")
}

// get returns a copy of a cached ranking if present and fresh.
func (c *scoreCache) get(key string) (model.LabelScores, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return nil, false
	}

	out := make(model.LabelScores, len(entry.scores))
	copy(out, entry.scores)
	return out, true
}

func (c *scoreCache) set(key string, scores model.LabelScores) {
	stored := make(model.LabelScores, len(scores))
	copy(stored, scores)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		scores: stored,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *scoreCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *scoreCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *scoreCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
