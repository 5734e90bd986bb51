package dedup

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/fx"

	"github.com/abebe-delivery/gateway/internal/config"
)

// Cache is a bounded, time-expiring membership set used to suppress
// duplicate webhook deliveries. It is advisory only: the conditional
// status update remains the authoritative idempotency guard, so losing
// the cache on restart is safe.
type Cache struct {
	lru *expirable.LRU[int64, struct{}]
}

// New builds a cache with the given capacity and per-entry TTL. Entries
// beyond capacity are evicted least-recently-used first.
func New(capacity int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[int64, struct{}](capacity, nil, ttl)}
}

// Seen reports whether the key was already marked within the window and
// marks it if not. Two near-simultaneous calls may both report false;
// that race is bounded by the database-level source-state predicate.
func (c *Cache) Seen(key int64) bool {
	if _, ok := c.lru.Get(key); ok {
		return true
	}
	c.lru.Add(key, struct{}{})
	return false
}

// Forget drops a key, re-arming suppression for it.
func (c *Cache) Forget(key int64) {
	c.lru.Remove(key)
}

// Len returns the current population.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Caches bundles the two independent suppression sets the webhook router
// uses: one for order creations, one for cancellations.
type Caches struct {
	Creations     *Cache
	Cancellations *Cache
}

// NewCaches builds both caches from configuration.
func NewCaches(cfg config.Config) *Caches {
	return &Caches{
		Creations:     New(cfg.Dedup.Capacity, cfg.Dedup.TTL),
		Cancellations: New(cfg.Dedup.Capacity, cfg.Dedup.TTL),
	}
}

// Module provides the dedup caches to Fx.
var Module = fx.Provide(NewCaches)
