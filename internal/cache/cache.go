// Package cache memoizes completed project analyses. Entries are keyed by
// project path plus a hash of the config fields that change the result, so a
// whole project can be invalidated by key prefix. The cache is TTL bounded
// with lazy expiry and size bounded with oldest-entry eviction.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/codescope/codescope/internal/debug"
	"github.com/codescope/codescope/internal/types"
)

const (
	// DefaultTTL is how long a cached analysis stays valid.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxEntries bounds the number of cached analyses.
	DefaultMaxEntries = 64
)

// entry is one cached analysis with its insertion time.
type entry struct {
	analysis  types.ProjectAnalysis
	createdAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
}

// AnalysisCache is a TTL and size bounded memoizing cache. Safe for
// concurrent use.
type AnalysisCache struct {
	entries    sync.Map // string -> *entry
	ttl        time.Duration
	maxEntries int

	size      atomic.Int64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache with the given bounds. Non-positive arguments fall
// back to the defaults.
func New(ttl time.Duration, maxEntries int) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &AnalysisCache{ttl: ttl, maxEntries: maxEntries}
}

// Key builds the cache key for a project and the config fields that affect
// the analysis result. Keys share the project path as a prefix so
// Invalidate can match per project.
func Key(projectPath string, cfg types.AnalysisConfig) string {
	digest := xxhash.Sum64String(fmt.Sprintf("tests=%t|depth=%s", cfg.IncludeTests, cfg.Depth))
	return fmt.Sprintf("%s#%016x", projectPath, digest)
}

// Get returns the cached analysis for key if present and fresh. Expired
// entries are removed lazily on access.
func (c *AnalysisCache) Get(key string) (types.ProjectAnalysis, bool) {
	value, ok := c.entries.Load(key)
	if !ok {
		c.misses.Add(1)
		return types.ProjectAnalysis{}, false
	}

	e := value.(*entry)
	if time.Since(e.createdAt) > c.ttl {
		c.entries.Delete(key)
		c.size.Add(-1)
		c.evictions.Add(1)
		c.misses.Add(1)
		debug.LogCache("expired entry %s\n", key)
		return types.ProjectAnalysis{}, false
	}

	c.hits.Add(1)
	return e.analysis, true
}

// Put stores an analysis under key, evicting the oldest entry when the size
// bound is reached.
func (c *AnalysisCache) Put(key string, analysis types.ProjectAnalysis) {
	if int(c.size.Load()) >= c.maxEntries {
		c.evictOldest()
	}

	_, existed := c.entries.Swap(key, &entry{analysis: analysis, createdAt: time.Now()})
	if !existed {
		c.size.Add(1)
	}
}

// Invalidate removes every entry for the given project path and returns the
// number removed.
func (c *AnalysisCache) Invalidate(projectPath string) int {
	prefix := projectPath + "#"
	removed := 0
	c.entries.Range(func(k, _ any) bool {
		key := k.(string)
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.entries.Delete(key)
			c.size.Add(-1)
			removed++
		}
		return true
	})
	if removed > 0 {
		debug.LogCache("invalidated %d entries for %s\n", removed, projectPath)
	}
	return removed
}

// InvalidateAll empties the cache and returns the prior entry count.
func (c *AnalysisCache) InvalidateAll() int {
	removed := 0
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		c.size.Add(-1)
		removed++
		return true
	})
	return removed
}

// Stats returns a snapshot of the counters.
func (c *AnalysisCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   int(c.size.Load()),
	}
}

// evictOldest removes the entry with the earliest creation time.
func (c *AnalysisCache) evictOldest() {
	var oldestKey any
	var oldestTime time.Time

	c.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		if oldestKey == nil || e.createdAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.createdAt
		}
		return true
	})

	if oldestKey != nil {
		c.entries.Delete(oldestKey)
		c.size.Add(-1)
		c.evictions.Add(1)
		debug.LogCache("evicted oldest entry %v\n", oldestKey)
	}
}
