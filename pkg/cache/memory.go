package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lborres/realty/core"
)

const (
	defaultTTL     = 5 * time.Minute
	defaultMaxSize = 500
)

var _ core.CacheWithStats = (*InMemoryCache)(nil)

// InMemoryCache is a bounded read-through cache of sessions keyed by token hash.
type InMemoryCache struct {
	mu      sync.Mutex
	records map[string]cachedRecord
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
}

type cachedRecord struct {
	session  *core.Session
	cachedAt time.Time
}

func NewInMemoryCache(c core.CacheConfig) *InMemoryCache {
	if c.TTL <= 0 {
		c.TTL = defaultTTL
	}
	if c.MaxSize <= 0 {
		c.MaxSize = defaultMaxSize
	}

	return &InMemoryCache{
		records: make(map[string]cachedRecord),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
		now:     time.Now,
	}
}

// Get returns a copy of the cached session, or core.ErrCacheNotFound when the
// entry is absent or older than the cache TTL.
func (c *InMemoryCache) Get(tokenHash string) (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[tokenHash]
	if !ok {
		c.misses.Add(1)
		return nil, core.ErrCacheNotFound
	}

	if c.now().Sub(rec.cachedAt) > c.ttl {
		delete(c.records, tokenHash)
		c.misses.Add(1)
		c.evictions.Add(1)
		return nil, core.ErrCacheNotFound
	}

	c.hits.Add(1)
	s := *rec.session
	return &s, nil
}

func (c *InMemoryCache) Set(tokenHash string, session *core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[tokenHash]; !exists && len(c.records) >= c.maxSize {
		c.evictOldestLocked()
	}

	s := *session
	c.records[tokenHash] = cachedRecord{session: &s, cachedAt: c.now()}
	c.sets.Add(1)
	return nil
}

// evictOldestLocked drops the entry cached longest ago. Caller holds mu.
func (c *InMemoryCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, rec := range c.records {
		if !found || rec.cachedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, rec.cachedAt, true
		}
	}
	if found {
		delete(c.records, oldestKey)
		c.evictions.Add(1)
	}
}

func (c *InMemoryCache) Delete(tokenHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[tokenHash]; ok {
		delete(c.records, tokenHash)
		c.deletes.Add(1)
	}
	return nil
}

func (c *InMemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]cachedRecord)
	return nil
}

func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *InMemoryCache) Stats() core.CacheStats {
	return core.CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.Len(),
		TTL:       c.ttl,
	}
}
