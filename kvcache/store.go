/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"
)

// DefaultShardCount is the number of store shards used when Options.ShardCount is 0.
const DefaultShardCount = 16

// removalNotifier is called by the store for every entry that leaves it, after the
// entry is unlinked and the shard lock has been released, so the notifier may read
// the store. Eviction notifications still run under the insert coordination lock.
type removalNotifier[K comparable, V any] func(entry *Entry[K, V], reason RemovalReason)

type storeShard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*Entry[K, V]
}

// store is the concurrent key-entry map. Entries are partitioned into shards so that
// operations on different keys don't contend on a single lock. The only store-wide
// coordination point is insertMu, taken while inserting a brand-new key into a
// bounded store: the capacity check, the eviction of a single victim, and the insert
// have to be atomic with respect to other inserts.
type store[K comparable, V any] struct {
	capacity   atomic.Int64 // 0 = unbounded
	defaultTTL time.Duration

	shards []*storeShard[K, V]
	seed   maphash.Seed

	size atomic.Int64

	// hasCustomTTL is set once any entry is stored with a nonzero per-entry TTL.
	// When it's unset and there is no default TTL, expiration sweeps have nothing
	// to do and are skipped.
	hasCustomTTL atomic.Bool

	insertMu sync.Mutex

	tracker evictionTracker[K]
	notify  removalNotifier[K, V]
}

func newStore[K comparable, V any](
	capacity int, defaultTTL time.Duration, shardCount int,
	tracker evictionTracker[K], notify removalNotifier[K, V],
) *store[K, V] {
	shards := make([]*storeShard[K, V], shardCount)
	for i := range shards {
		shards[i] = &storeShard[K, V]{entries: make(map[K]*Entry[K, V])}
	}
	s := &store[K, V]{
		defaultTTL: defaultTTL,
		shards:     shards,
		seed:       maphash.MakeSeed(),
		tracker:    tracker,
		notify:     notify,
	}
	s.capacity.Store(int64(capacity))
	return s
}

func (s *store[K, V]) shardFor(key K) *storeShard[K, V] {
	var h uint64
	switch k := any(key).(type) {
	case string:
		h = xxhash.Sum64String(k)
	default:
		h = maphash.Comparable(s.seed, key)
	}
	return s.shards[h%uint64(len(s.shards))]
}

// get returns the live entry for the key. An entry discovered to be expired is
// removed (firing the removal notifier) and reported as missing. When touch is true,
// a successful lookup updates the key's recency.
func (s *store[K, V]) get(key K, touch bool) (*Entry[K, V], bool) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	entry, ok := sh.entries[key]
	if ok && !entry.Expired(time.Now(), s.defaultTTL) {
		if touch {
			s.tracker.touched(key)
		}
		sh.mu.RUnlock()
		return entry, true
	}
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}

	// The entry was expired; remove it under the write lock. The entry may have been
	// replaced or removed concurrently, so it's compared with the one seen above.
	expired := false
	sh.mu.Lock()
	if cur, stillThere := sh.entries[key]; stillThere && cur == entry {
		delete(sh.entries, key)
		s.size.Dec()
		s.tracker.removed(key)
		expired = true
	}
	sh.mu.Unlock()
	if expired {
		s.notify(entry, RemovalReasonExpired)
	}
	return nil, false
}

// put stores the value under the key. Replacing an existing entry unlinks the old
// one first and fires the removal notifier for it before the new entry becomes
// visible; replacement frees its own slot, so capacity is never re-checked for it.
// Inserting a brand-new key into a full store evicts exactly one victim chosen by
// the eviction tracker, or fails with ErrCapacityExceeded if the tracker has none.
func (s *store[K, V]) put(key K, value V, ttl time.Duration) error {
	if ttl != 0 {
		s.hasCustomTTL.Store(true)
	}
	entry := &Entry[K, V]{Key: key, Value: value, CreatedAt: time.Now(), TTL: ttl}

	sh := s.shardFor(key)
	if old, ok := s.displace(sh, key); ok {
		s.notify(old, RemovalReasonReplaced)
		s.publishReplacement(sh, entry)
		return nil
	}

	// Brand-new key. In a bounded store, all new-key inserts serialize on insertMu
	// so that the size check, the eviction, and the insert are one atomic step.
	if capacity := s.capacity.Load(); capacity > 0 {
		s.insertMu.Lock()
		for s.size.Load() >= capacity {
			victimKey, ok := s.tracker.victim()
			if !ok {
				s.insertMu.Unlock()
				return ErrCapacityExceeded
			}
			s.removeWithReason(victimKey, RemovalReasonEvicted)
		}
		published := s.tryPublish(sh, entry)
		s.insertMu.Unlock()
		if published {
			return nil
		}
		// Lost a race with a concurrent writer of the same key; treat as replacement.
		s.publishReplacement(sh, entry)
		return nil
	}

	s.publishReplacement(sh, entry)
	return nil
}

// displace unlinks the current entry for the key, if any, so that the caller can
// fire the removal notifier with no shard lock held before publishing a new entry.
func (s *store[K, V]) displace(sh *storeShard[K, V], key K) (*Entry[K, V], bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	old, ok := sh.entries[key]
	if !ok {
		return nil, false
	}
	delete(sh.entries, key)
	s.size.Dec()
	s.tracker.removed(key)
	return old, true
}

// tryPublish inserts the entry if its key is still absent.
func (s *store[K, V]) tryPublish(sh *storeShard[K, V], entry *Entry[K, V]) bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.entries[entry.Key]; ok {
		return false
	}
	sh.entries[entry.Key] = entry
	s.size.Inc()
	s.tracker.added(entry.Key)
	return true
}

// publishReplacement inserts the entry, displacing and notifying any concurrent
// writer's entry that appears for the same key first; the notifier always fires
// before the entry that displaced its subject becomes visible.
func (s *store[K, V]) publishReplacement(sh *storeShard[K, V], entry *Entry[K, V]) {
	for !s.tryPublish(sh, entry) {
		if old, ok := s.displace(sh, entry.Key); ok {
			s.notify(old, RemovalReasonReplaced)
		}
	}
}

func (s *store[K, V]) remove(key K) (*Entry[K, V], bool) {
	return s.removeWithReason(key, RemovalReasonRemoved)
}

func (s *store[K, V]) removeWithReason(key K, reason RemovalReason) (*Entry[K, V], bool) {
	sh := s.shardFor(key)
	entry, ok := s.displace(sh, key)
	if !ok {
		return nil, false
	}
	s.notify(entry, reason)
	return entry, true
}

func (s *store[K, V]) len() int {
	return int(s.size.Load())
}

// keys returns a point-in-time snapshot of the stored keys, including ones that are
// expired but not yet removed.
func (s *store[K, V]) keys() []K {
	keys := make([]K, 0, s.len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key := range sh.entries {
			keys = append(keys, key)
		}
		sh.mu.RUnlock()
	}
	return keys
}

// sweep removes all entries expired at the given moment and returns their number.
// It is a no-op when no stored entry can expire. Entries of a shard are unlinked
// in one critical section and notified after it.
func (s *store[K, V]) sweep(now time.Time) int {
	if s.defaultTTL == 0 && !s.hasCustomTTL.Load() {
		return 0
	}
	removed := 0
	for _, sh := range s.shards {
		var expired []*Entry[K, V]
		sh.mu.Lock()
		for key, entry := range sh.entries {
			if !entry.Expired(now, s.defaultTTL) {
				continue
			}
			delete(sh.entries, key)
			s.size.Dec()
			s.tracker.removed(key)
			expired = append(expired, entry)
		}
		sh.mu.Unlock()
		for _, entry := range expired {
			s.notify(entry, RemovalReasonExpired)
		}
		removed += len(expired)
	}
	return removed
}

// purge drops all entries without firing the removal notifier.
func (s *store[K, V]) purge() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[K]*Entry[K, V])
		sh.mu.Unlock()
	}
	s.tracker.reset()
	s.size.Store(0)
}

// resize changes the store capacity (0 makes it unbounded) and evicts entries until
// the new bound is satisfied. It returns the number of evicted entries.
func (s *store[K, V]) resize(capacity int) (evicted int) {
	s.insertMu.Lock()
	defer s.insertMu.Unlock()

	s.capacity.Store(int64(capacity))
	if capacity == 0 {
		return 0
	}
	for s.size.Load() > int64(capacity) {
		victimKey, ok := s.tracker.victim()
		if !ok {
			return evicted
		}
		if _, removed := s.removeWithReason(victimKey, RemovalReasonEvicted); removed {
			evicted++
		}
	}
	return evicted
}
