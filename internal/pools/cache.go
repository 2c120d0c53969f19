package pools

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/fleshka4/smart-router/internal/domain"
)

const (
	DefaultTTL        = 15 * time.Second
	DefaultMaxEntries = 1024

	// a shared fetch aborted by its leader is retried this many times
	followerRetries = 2
)

type entry struct {
	pools     []domain.Pool
	expiresAt time.Time
}

// Cache is a bounded LRU of pool lists with a fixed TTL. Concurrent misses
// for one key share a single upstream fetch. Entries are replaced, never
// modified.
type Cache struct {
	entries *lru.Cache[string, entry]
	group   singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache holding up to size entries for ttl each.
func NewCache(size int, ttl time.Duration, opts ...CacheOption) (*Cache, error) {
	if size <= 0 {
		size = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, errors.Wrap(err, "lru.New")
	}

	c := &Cache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type flight struct {
	pools []domain.Pool
	hit   bool
}

// Get returns the live entry for key.
func (c *Cache) Get(key string) ([]domain.Pool, bool) {
	e, ok := c.entries.Get(key)
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.pools, true
}

// GetOrFetch returns the live entry for key or runs fetch once for all
// concurrent callers and stores its result. hit reports a cache hit.
//
// A caller stops waiting when its own ctx is done. When the shared fetch
// failed only because the caller that started it went away, callers that
// are still live start a new one.
func (c *Cache) GetOrFetch(
	ctx context.Context,
	key string,
	fetch func(ctx context.Context) ([]domain.Pool, error),
) (pools []domain.Pool, hit bool, err error) {
	for attempt := 0; ; attempt++ {
		if cached, ok := c.Get(key); ok {
			return cached, true, nil
		}

		ch := c.group.DoChan(key, func() (any, error) {
			// a flight that finished after the lookup above already stored it
			if cached, ok := c.Get(key); ok {
				return flight{pools: cached, hit: true}, nil
			}
			fetched, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			c.entries.Add(key, entry{pools: fetched, expiresAt: c.now().Add(c.ttl)})
			return flight{pools: fetched}, nil
		})

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				f := res.Val.(flight)
				return f.pools, f.hit, nil
			}
			if attempt < followerRetries && ctx.Err() == nil && errors.Is(res.Err, context.Canceled) {
				continue
			}
			return nil, false, res.Err
		}
	}
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}
