/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-cachekit/kvcache"
)

func Example() {
	cache, err := kvcache.NewWithOpts[string, string](nil, kvcache.Options{
		Capacity:   100,
		DefaultTTL: time.Minute,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	if err = cache.Put("greeting", "hello"); err != nil {
		fmt.Println(err)
		return
	}
	value, found := cache.Get("greeting")
	fmt.Println(value, found)

	// The loader is called only for missing keys, and concurrent calls
	// for the same key share a single invocation.
	value, err = cache.GetOrLoad(context.Background(), "answer", func(ctx context.Context) (string, error) {
		return "42", nil
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(value)

	// Output:
	// hello true
	// 42
}

func ExampleCache_SetRemovalListener() {
	cache, err := kvcache.NewWithOpts[string, int](nil, kvcache.Options{Capacity: 2})
	if err != nil {
		fmt.Println(err)
		return
	}
	cache.SetRemovalListener(kvcache.RemovalListenerFunc[string, int](
		func(key string, value int, reason kvcache.RemovalReason) {
			fmt.Printf("%s removed, reason: %s\n", key, reason)
		}))

	_ = cache.Put("a", 1)
	_ = cache.Put("b", 2)
	_ = cache.Put("c", 3) // evicts "a", the least recently used entry
	cache.Remove("b")

	// Output:
	// a removed, reason: evicted
	// b removed, reason: removed
}
