/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import "time"

// Entry is a single cache record. Entries are created on Put or on a populating
// GetOrLoad and are owned by the cache exclusively until removed.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	CreatedAt time.Time

	// TTL is the per-entry time-to-live. Zero means the cache-wide default TTL applies.
	TTL time.Duration
}

// Expired reports whether the entry is expired at the given moment.
// The effective TTL is the entry's own TTL if it's nonzero, the passed default otherwise.
// An entry with zero effective TTL never expires by time.
func (e *Entry[K, V]) Expired(now time.Time, defaultTTL time.Duration) bool {
	ttl := e.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	if ttl == 0 {
		return false
	}
	return !now.Before(e.CreatedAt.Add(ttl))
}
