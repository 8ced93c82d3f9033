package dashboard

import (
	"context"
	"sync"
	"time"
)

// ResultCache memoizes query results so renders do not re-trigger auto-height.
type ResultCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[int64]cachedResult
}

type cachedResult struct {
	result  QueryResult
	expires time.Time
}

// NewResultCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[int64]cachedResult),
	}
}

// GetOrFetch returns a cached entry or fetches/stores a new one.
func (c *ResultCache) GetOrFetch(queryID int64, fetch func() (QueryResult, error)) (QueryResult, error) {
	if res, ok := c.get(queryID); ok {
		return res, nil
	}
	res, err := fetch()
	if err != nil {
		return QueryResult{}, err
	}
	c.set(queryID, res)
	return res, nil
}

// Invalidate drops the cached result for queryID.
func (c *ResultCache) Invalidate(queryID int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, queryID)
	c.mu.Unlock()
}

func (c *ResultCache) get(queryID int64) (QueryResult, bool) {
	if c == nil || c.ttl <= 0 {
		return QueryResult{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[queryID]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, queryID)
			c.mu.Unlock()
		}
		return QueryResult{}, false
	}
	return entry.result, true
}

func (c *ResultCache) set(queryID int64, res QueryResult) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[queryID] = cachedResult{
		result:  res,
		expires: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// CachedExecutor wraps an executor with a ResultCache. Refresh bypasses the cache.
type CachedExecutor struct {
	Executor QueryExecutor
	Cache    *ResultCache
}

// Execute returns the cached result when fresh.
func (e *CachedExecutor) Execute(ctx context.Context, queryID int64) (QueryResult, error) {
	return e.Cache.GetOrFetch(queryID, func() (QueryResult, error) {
		return e.Executor.Execute(ctx, queryID)
	})
}

// Refresh forces a new execution and replaces the cached entry.
func (e *CachedExecutor) Refresh(ctx context.Context, queryID int64) (QueryResult, error) {
	e.Cache.Invalidate(queryID)
	return e.Execute(ctx, queryID)
}
