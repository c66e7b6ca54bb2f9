/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"context"
	"time"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/service"
)

// RemoveExpired removes all entries that are expired at the moment of the call,
// firing the removal listener for each of them, and returns their number.
// It's a no-op when neither the cache default TTL nor any per-entry TTL is set.
func (c *Cache[K, V]) RemoveExpired() int {
	return c.store.sweep(time.Now())
}

// RunPeriodicCleanup runs a cycle of periodic cleanup of expired entries.
// Entries without expiration time are not affected.
// It's supposed to be run in a separate goroutine.
func (c *Cache[K, V]) RunPeriodicCleanup(ctx context.Context, cleanupInterval time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RemoveExpired()
		}
	}
}

// CleanupWorker performs a single cleanup cycle of expired entries per Run call.
// Mount it on service.PeriodicWorker to sweep the cache on an interval.
type CleanupWorker[K comparable, V any] struct {
	cache  *Cache[K, V]
	logger log.FieldLogger
}

var _ service.Worker = (*CleanupWorker[string, string])(nil)

// NewCleanupWorker creates a new CleanupWorker for the provided cache.
func NewCleanupWorker[K comparable, V any](cache *Cache[K, V], logger log.FieldLogger) *CleanupWorker[K, V] {
	return &CleanupWorker[K, V]{cache: cache, logger: logger}
}

// Run is a part of service.Worker interface.
func (w *CleanupWorker[K, V]) Run(_ context.Context) error {
	if removed := w.cache.RemoveExpired(); removed > 0 {
		w.logger.Debug("expired cache entries removed", log.Int("removed", removed))
	}
	return nil
}
