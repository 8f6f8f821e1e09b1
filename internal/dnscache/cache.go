// Package dnscache provides a run-scoped, thread-safe cache for MX lookups
// with singleflight deduplication: concurrent lookups for the same domain
// trigger one query, and every waiter receives the shared result.
package dnscache

import (
	"context"
	"net"
	"sync"
	"time"
)

// LookupFunc performs the actual MX query. The cache calls it at most once
// per domain per TTL window; callers inject rate limiting, retries and
// budget accounting by wrapping their func.
type LookupFunc func(ctx context.Context, domain string) ([]*net.MX, error)

// Cache is a thread-safe MX lookup cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	lookup  LookupFunc
}

type entry struct {
	records []*net.MX
	err     error
	expires time.Time
	done    chan struct{} // closed when the lookup completes
}

// New creates a cache around lookup with the given entry TTL. A run-scoped
// cache typically outlives its TTL, so in practice each domain is resolved
// once per run.
func New(lookup LookupFunc, ttl time.Duration) *Cache {
	if lookup == nil {
		lookup = func(ctx context.Context, domain string) ([]*net.MX, error) {
			r := &net.Resolver{}
			return r.LookupMX(ctx, domain)
		}
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		lookup:  lookup,
	}
}

// LookupMX returns MX records for domain, deduplicating concurrent calls.
// The returned slice is a copy; callers may sort it freely.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	c.mu.Lock()

	if e, ok := c.entries[domain]; ok {
		select {
		case <-e.done:
			if time.Now().Before(e.expires) {
				c.mu.Unlock()
				return copyMX(e.records), e.err
			}
			// Expired; fall through and refresh.
		default:
			// A lookup is in flight; wait for it.
			c.mu.Unlock()
			select {
			case <-e.done:
				return copyMX(e.records), e.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[domain] = e
	c.mu.Unlock()

	e.records, e.err = c.lookup(ctx, domain)
	e.expires = time.Now().Add(c.ttl)
	close(e.done)

	return copyMX(e.records), e.err
}

// Len returns the number of cached domains (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// copyMX deep-copies records so callers cannot mutate cached data.
func copyMX(records []*net.MX) []*net.MX {
	if records == nil {
		return nil
	}
	out := make([]*net.MX, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	return out
}
