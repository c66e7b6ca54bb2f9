/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import "sync"

// flightCall is an in-flight or completed population round for a single key.
type flightCall[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

// flightGroup suppresses duplicate population work: for a given key, at most one
// call is in flight at any time, and callers that arrive while a call is in flight
// wait for it and share its result. A completed round is always deleted from the
// table, so the table only holds keys with in-flight work.
type flightGroup[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flightCall[V]
}

// Do executes and returns the result of fn, making sure that only one execution is
// in flight for the given key at a time. If fn panics, the panic is re-raised on the
// executing goroutine, and the waiters receive a PanicError.
func (g *flightGroup[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flightCall[V])
	}
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}
	c := &flightCall[V]{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	return g.do(c, key, fn)
}

func (g *flightGroup[K, V]) do(c *flightCall[V], key K, fn func() (V, error)) (val V, err error) {
	normalReturn := false
	recovered := false

	// double-defer to distinguish panic from runtime.Goexit
	defer func() {
		if !normalReturn && !recovered {
			c.err = ErrGoexit
		}

		c.wg.Done()

		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()

		if recovered {
			panic(c.err.(*PanicError).Value) // re-panic on the same goroutine
		}

		val, err = c.val, c.err
	}()

	defer func() {
		if !normalReturn {
			if v := recover(); v != nil {
				c.err = newPanicError(v)
				recovered = true
			}
		}
	}()
	c.val, c.err = fn()
	normalReturn = true

	return c.val, c.err // will be set in the defer
}
