// Package feedcache decorates a feed fetcher with a time-to-live response
// cache, so repeated loads with identical parameters (dashboard refreshes)
// do not hammer the upstream source. This is an optimization only; the
// durable snapshot store is what guarantees availability.
package feedcache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedFetcher wraps a domain.Fetcher with an in-memory TTL cache keyed by
// the query fingerprint. Only successful responses are cached; failures
// always reach the inner fetcher again on the next call.
type CachedFetcher struct {
	inner   domain.Fetcher
	source  string
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	body      []byte
	expiresAt time.Time
}

// New creates a cache decorator around a fetcher. A nil clock selects the
// real clock; tests pass a fake to control expiry.
func New(inner domain.Fetcher, source string, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedFetcher{
		inner:   inner,
		source:  source,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]entry),
	}
}

// Fetch returns the cached body when a fresh entry exists for the query,
// otherwise delegates to the inner fetcher and caches the result.
func (c *CachedFetcher) Fetch(ctx context.Context, q domain.Query) ([]byte, error) {
	key := q.Fingerprint()

	if body, ok := c.lookup(key); ok {
		c.metrics.FetchCache.WithLabelValues(c.source, "hit").Inc()
		return body, nil
	}
	c.metrics.FetchCache.WithLabelValues(c.source, "miss").Inc()

	body, err := c.inner.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store(key, body)
	return body, nil
}

func (c *CachedFetcher) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.body, true
}

func (c *CachedFetcher) store(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	// Drop anything already expired while we hold the lock; the key space
	// is tiny (one entry per distinct query window) so a full sweep is fine.
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry{body: body, expiresAt: now.Add(c.ttl)}
}
