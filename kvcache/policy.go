/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"container/list"
	"fmt"
	"sync"
)

// EvictionPolicy determines which live entry is removed when the cache is at capacity.
type EvictionPolicy string

// Supported eviction policies.
const (
	// EvictionPolicyLRU evicts the least recently used entry.
	EvictionPolicyLRU EvictionPolicy = "lru"

	// EvictionPolicyNone never evicts. Inserting a new key into a full cache
	// fails with ErrCapacityExceeded; entries leave the cache only by expiration
	// or explicit removal.
	EvictionPolicyNone EvictionPolicy = "none"
)

// ParseEvictionPolicy parses an eviction policy from its string representation.
// An empty string is parsed as EvictionPolicyLRU.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch EvictionPolicy(s) {
	case "":
		return EvictionPolicyLRU, nil
	case EvictionPolicyLRU:
		return EvictionPolicyLRU, nil
	case EvictionPolicyNone:
		return EvictionPolicyNone, nil
	}
	return "", fmt.Errorf("unknown eviction policy %q", s)
}

// evictionTracker keeps the per-key bookkeeping an eviction policy needs and
// selects victims. Implementations are safe for concurrent use; all operations
// are O(1) and never block on cache store locks.
type evictionTracker[K comparable] interface {
	// added records that a brand-new key has been inserted.
	added(key K)

	// touched records an access to a live key (recency update).
	touched(key K)

	// removed records that a key has left the cache for any reason.
	removed(key K)

	// victim returns the key that should be evicted to free one slot,
	// or false if the policy has no candidate.
	victim() (K, bool)

	// reset drops all bookkeeping.
	reset()
}

func newEvictionTracker[K comparable](policy EvictionPolicy) evictionTracker[K] {
	if policy == EvictionPolicyNone {
		return noneTracker[K]{}
	}
	return &lruTracker[K]{order: list.New(), elems: make(map[K]*list.Element)}
}

// lruTracker maintains a total recency order: the front of the list is the most
// recently used key, the back is the eviction candidate.
type lruTracker[K comparable] struct {
	mu    sync.Mutex
	order *list.List
	elems map[K]*list.Element
}

func (t *lruTracker[K]) added(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elem, ok := t.elems[key]; ok {
		t.order.MoveToFront(elem)
		return
	}
	t.elems[key] = t.order.PushFront(key)
}

func (t *lruTracker[K]) touched(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elem, ok := t.elems[key]; ok {
		t.order.MoveToFront(elem)
	}
}

func (t *lruTracker[K]) removed(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if elem, ok := t.elems[key]; ok {
		t.order.Remove(elem)
		delete(t.elems, key)
	}
}

func (t *lruTracker[K]) victim() (key K, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	elem := t.order.Back()
	if elem == nil {
		return key, false
	}
	return elem.Value.(K), true
}

func (t *lruTracker[K]) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order.Init()
	t.elems = make(map[K]*list.Element)
}

// noneTracker implements the expiration-only policy: it tracks nothing and never
// yields a victim.
type noneTracker[K comparable] struct{}

func (noneTracker[K]) added(K)   {}
func (noneTracker[K]) touched(K) {}
func (noneTracker[K]) removed(K) {}
func (noneTracker[K]) reset()    {}

func (noneTracker[K]) victim() (key K, ok bool) {
	return key, false
}
