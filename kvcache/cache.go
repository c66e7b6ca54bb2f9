/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-cachekit/log"
)

// Loader computes a missing cache value. It may block for an arbitrary time
// (other keys stay fully concurrent) and should respect ctx cancellation.
type Loader[V any] func(ctx context.Context) (V, error)

// RemovalReason explains why an entry left the cache.
type RemovalReason int

// Removal reasons.
const (
	// RemovalReasonRemoved means the entry was removed explicitly via Remove.
	RemovalReasonRemoved RemovalReason = iota

	// RemovalReasonReplaced means the entry was replaced by a Put of the same key.
	RemovalReasonReplaced

	// RemovalReasonExpired means the entry's TTL elapsed.
	RemovalReasonExpired

	// RemovalReasonEvicted means the entry was evicted to satisfy the capacity bound.
	RemovalReasonEvicted
)

// String returns the string representation of the removal reason.
func (r RemovalReason) String() string {
	switch r {
	case RemovalReasonRemoved:
		return "removed"
	case RemovalReasonReplaced:
		return "replaced"
	case RemovalReasonExpired:
		return "expired"
	case RemovalReasonEvicted:
		return "evicted"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// RemovalListener is notified synchronously about every entry that leaves the cache,
// whatever the cause: explicit removal, replacement, expiration, or eviction.
// It is invoked after the entry is unlinked and with no shard lock held, so the
// callback may read the cache (Get, Keys, Len); the removed entry is never
// retrievable from inside the callback. Mutating the cache from the callback is not
// supported: eviction notifications run under the insert coordination lock, so a
// Put or Remove issued there can deadlock. The callback runs on the goroutine that
// triggered the removal and delays it, so it should still be fast.
// A panicking listener is recovered and logged; it never corrupts cache state.
type RemovalListener[K comparable, V any] interface {
	OnRemove(key K, value V, reason RemovalReason)
}

// RemovalListenerFunc is an adapter to allow the use of ordinary functions as RemovalListener.
type RemovalListenerFunc[K comparable, V any] func(key K, value V, reason RemovalReason)

// OnRemove is a part of RemovalListener interface.
func (f RemovalListenerFunc[K, V]) OnRemove(key K, value V, reason RemovalReason) {
	f(key, value, reason)
}

// Options represents options for the cache.
type Options struct {
	// Capacity is the maximum number of entries. 0 means the cache is unbounded.
	Capacity int

	// DefaultTTL is the default TTL for cache entries, 0 means no expiration by default.
	// Expired entries are not removed immediately, but when they are accessed
	// or during periodic cleanup (see RunPeriodicCleanup).
	DefaultTTL time.Duration

	// Policy determines which entry is removed when a bounded cache is full.
	// The zero value is EvictionPolicyLRU.
	Policy EvictionPolicy

	// ShardCount is the number of store shards, DefaultShardCount when 0.
	ShardCount int

	// Logger is used to report recovered removal listener panics. May be nil.
	Logger log.FieldLogger
}

// Cache is an embedded in-process key-value cache with a capacity bound, pluggable
// eviction, lazy per-entry expiration, and single-flight population. All methods are
// safe for concurrent use.
type Cache[K comparable, V any] struct {
	store  *store[K, V]
	flight flightGroup[K, V]

	metricsCollector MetricsCollector
	hits             atomic.Uint64
	misses           atomic.Uint64

	listenerMu sync.RWMutex
	listener   RemovalListener[K, V]

	logger log.FieldLogger
}

// New creates a new Cache with default options and the provided metrics collector.
// Metrics collector is used to collect statistics about cache usage.
// It can be nil, in this case, metrics will be disabled.
func New[K comparable, V any](metricsCollector MetricsCollector) (*Cache[K, V], error) {
	return NewWithOpts[K, V](metricsCollector, Options{})
}

// NewWithOpts creates a new Cache with the provided metrics collector and options.
func NewWithOpts[K comparable, V any](metricsCollector MetricsCollector, opts Options) (*Cache[K, V], error) {
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("capacity must be greater or equal to 0 (unbounded)")
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("defaultTTL must be greater or equal to 0 (no expiration)")
	}
	if opts.ShardCount < 0 {
		return nil, fmt.Errorf("shardCount must be greater or equal to 0")
	}
	policy, err := ParseEvictionPolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	shardCount := opts.ShardCount
	if shardCount == 0 {
		shardCount = DefaultShardCount
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	c := &Cache[K, V]{metricsCollector: metricsCollector, logger: logger}
	c.store = newStore[K, V](opts.Capacity, opts.DefaultTTL, shardCount,
		newEvictionTracker[K](policy), c.onEntryRemoved)
	return c, nil
}

// Get returns the live value stored under the key and updates the key's recency.
// An expired entry is removed and reported as missing.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	entry, ok := c.store.get(key, true)
	if !ok {
		c.misses.Inc()
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.hits.Inc()
	c.metricsCollector.IncHits()
	return entry.Value, true
}

// GetOrLoad returns the value stored under the key, or populates it using the loader.
// The cache's default TTL applies to the populated entry.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, loader Loader[V]) (V, error) {
	return c.GetOrLoadWithTTL(ctx, key, 0, loader)
}

// GetOrLoadWithTTL returns the value stored under the key, or populates it using the
// loader with the provided per-entry TTL (0 means the cache's default TTL).
//
// For a given key, at most one loader invocation is in flight at any time across all
// concurrent callers; the others wait for it and share its result, including a failure
// (wrapped in LoaderError). No store-wide lock is held while the loader runs, so other
// keys stay fully concurrent. On failure nothing is inserted and the per-key in-flight
// marker is always released.
func (c *Cache[K, V]) GetOrLoadWithTTL(ctx context.Context, key K, ttl time.Duration, loader Loader[V]) (value V, err error) {
	if ttl < 0 {
		return value, fmt.Errorf("ttl must be greater or equal to 0 (use the default TTL)")
	}
	if entry, ok := c.store.get(key, true); ok {
		c.hits.Inc()
		c.metricsCollector.IncHits()
		return entry.Value, nil
	}
	c.misses.Inc()
	c.metricsCollector.IncMisses()

	return c.flight.Do(key, func() (value V, err error) {
		// Another caller may have populated the key while this one was waiting
		// for its population round; the miss is already counted.
		if entry, ok := c.store.get(key, true); ok {
			return entry.Value, nil
		}

		if err = ctx.Err(); err != nil {
			return value, &LoaderError{Err: err}
		}
		value, err = loader(ctx)
		if err != nil {
			var zero V
			return zero, &LoaderError{Err: err}
		}
		if err = c.PutWithTTL(key, value, ttl); err != nil {
			var zero V
			return zero, err
		}
		return value, nil
	})
}

// Put stores the value under the key with the cache's default TTL.
// Replacing an existing value never fails; inserting a new key into a full cache
// whose eviction policy cannot free a slot fails with ErrCapacityExceeded.
func (c *Cache[K, V]) Put(key K, value V) error {
	return c.PutWithTTL(key, value, 0)
}

// PutWithTTL stores the value under the key with the provided per-entry TTL
// (0 means the cache's default TTL). Expired entries are not removed immediately,
// but when they are accessed or during periodic cleanup (see RunPeriodicCleanup).
func (c *Cache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("ttl must be greater or equal to 0 (use the default TTL)")
	}
	if err := c.store.put(key, value, ttl); err != nil {
		return err
	}
	c.metricsCollector.SetAmount(c.store.len())
	return nil
}

// Remove removes the value stored under the key, firing the removal listener.
// Removing an absent key is a no-op reported as false.
func (c *Cache[K, V]) Remove(key K) bool {
	_, ok := c.store.remove(key)
	return ok
}

// Len returns the number of entries in the cache, including expired but not yet removed ones.
func (c *Cache[K, V]) Len() int {
	return c.store.len()
}

// IsEmpty reports whether the cache holds no entries.
func (c *Cache[K, V]) IsEmpty() bool {
	return c.store.len() == 0
}

// Keys returns a point-in-time snapshot of the stored keys, not a live view.
func (c *Cache[K, V]) Keys() []K {
	return c.store.keys()
}

// SetRemovalListener sets the listener notified about every entry removal.
// Passing nil disables notifications. See RemovalListener for the contract.
func (c *Cache[K, V]) SetRemovalListener(listener RemovalListener[K, V]) {
	c.listenerMu.Lock()
	c.listener = listener
	c.listenerMu.Unlock()
}

// HitCount returns the monotonically increasing number of cache hits.
func (c *Cache[K, V]) HitCount() uint64 {
	return c.hits.Load()
}

// MissCount returns the monotonically increasing number of cache misses.
func (c *Cache[K, V]) MissCount() uint64 {
	return c.misses.Load()
}

// Purge clears the cache. Purged entries are not reported to the removal listener
// and are not counted as evictions.
func (c *Cache[K, V]) Purge() {
	c.store.purge()
	c.metricsCollector.SetAmount(0)
}

// Resize changes the cache capacity and returns the number of entries evicted to
// satisfy the new bound. Size 0 makes the cache unbounded, matching
// Options.Capacity; negative sizes are ignored.
func (c *Cache[K, V]) Resize(size int) (evicted int) {
	if size < 0 {
		return 0
	}
	return c.store.resize(size)
}

func (c *Cache[K, V]) onEntryRemoved(entry *Entry[K, V], reason RemovalReason) {
	c.metricsCollector.SetAmount(c.store.len())
	switch reason {
	case RemovalReasonEvicted:
		c.metricsCollector.AddEvictions(1)
	case RemovalReasonExpired:
		c.metricsCollector.AddExpirations(1)
	}

	c.listenerMu.RLock()
	listener := c.listener
	c.listenerMu.RUnlock()
	if listener == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("cache removal listener panicked",
				log.String("reason", reason.String()), log.Any("panic", p))
		}
	}()
	listener.OnRemove(entry.Key, entry.Value, reason)
}
