package geo

import (
	"context"
	"time"
)

// negativeTTL is how long a failed lookup is remembered.
const negativeTTL = 5 * time.Minute

type cachedResult struct {
	record Record
	err    error
}

// CachedLocator memoizes another Locator. Failures are cached briefly so
// a dead hop is not queried again on every refresh.
type CachedLocator struct {
	next  Locator
	cache *Cache[cachedResult]
}

// NewCachedLocator wraps next with a cache of the given size and TTL.
func NewCachedLocator(next Locator, size int, ttl time.Duration) *CachedLocator {
	return &CachedLocator{
		next:  next,
		cache: NewCache[cachedResult](size, ttl),
	}
}

// Locate returns a cached answer or asks the wrapped locator.
func (c *CachedLocator) Locate(ctx context.Context, ip string) (Record, error) {
	if hit, ok := c.cache.Get(ip); ok {
		return hit.record, hit.err
	}

	rec, err := c.next.Locate(ctx, ip)
	if err != nil {
		// Cancellation says nothing about the IP.
		if ctx.Err() == nil {
			c.cache.SetWithTTL(ip, cachedResult{err: err}, negativeTTL)
		}
		return rec, err
	}
	c.cache.Set(ip, cachedResult{record: rec})
	return rec, nil
}

// Len returns the number of cached answers.
func (c *CachedLocator) Len() int {
	return c.cache.Size()
}
