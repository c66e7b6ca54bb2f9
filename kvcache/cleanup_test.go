/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-cachekit/log"
	"github.com/acronis/go-cachekit/log/logtest"
	"github.com/acronis/go-cachekit/testutil"
)

func TestCacheRemoveExpired(t *testing.T) {
	t.Run("sweeps only expired entries", func(t *testing.T) {
		cache, _ := makeCache(t, Options{Capacity: 100})
		rec := &removalRecorder{}
		cache.SetRemovalListener(rec)

		for i := 0; i < 5; i++ {
			require.NoError(t, cache.PutWithTTL(fmt.Sprintf("short-%d", i), i, 30*time.Millisecond))
		}
		require.NoError(t, cache.Put("forever", 100))
		require.NoError(t, cache.PutWithTTL("long", 200, time.Hour))

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 5, cache.RemoveExpired())
		require.Equal(t, 2, cache.Len())

		require.Len(t, rec.records, 5)
		for _, r := range rec.records {
			require.Equal(t, RemovalReasonExpired, r.reason)
		}

		// nothing left to sweep
		require.Equal(t, 0, cache.RemoveExpired())
	})

	t.Run("no-op without any ttl", func(t *testing.T) {
		cache, _ := makeCache(t, Options{Capacity: 100})
		for i := 0; i < 10; i++ {
			require.NoError(t, cache.Put(fmt.Sprintf("key-%d", i), i))
		}
		require.Equal(t, 0, cache.RemoveExpired())
		require.Equal(t, 10, cache.Len())
	})

	t.Run("counts expirations in metrics", func(t *testing.T) {
		cache, pm := makeCache(t, Options{Capacity: 100})
		require.NoError(t, cache.PutWithTTL("a", 1, 30*time.Millisecond))
		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 1, cache.RemoveExpired())
		testutil.RequireCounterValue(t, pm.ExpirationsTotal.With(nil), 1)
		testutil.RequireGaugeValue(t, pm.EntriesAmount.With(nil), 0)
	})
}

func TestCacheRunPeriodicCleanup(t *testing.T) {
	cache, _ := makeCache(t, Options{Capacity: 100, DefaultTTL: 30 * time.Millisecond})
	require.NoError(t, cache.Put("a", 1))
	require.NoError(t, cache.Put("b", 2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.RunPeriodicCleanup(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return cache.Len() == 0
	}, time.Second, 10*time.Millisecond, "periodic cleanup must sweep expired entries")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicCleanup didn't stop after context cancellation")
	}
}

func TestCleanupWorker(t *testing.T) {
	cache, _ := makeCache(t, Options{Capacity: 100})
	recorder := logtest.NewRecorder()
	worker := NewCleanupWorker(cache, recorder)

	// nothing expired, nothing logged
	require.NoError(t, worker.Run(context.Background()))
	require.Empty(t, recorder.Entries())

	require.NoError(t, cache.PutWithTTL("a", 1, 30*time.Millisecond))
	require.NoError(t, cache.PutWithTTL("b", 2, 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, worker.Run(context.Background()))
	require.Equal(t, 0, cache.Len())

	entry, found := recorder.FindEntry("expired cache entries removed")
	require.True(t, found)
	require.Equal(t, log.LevelDebug, entry.Level)
	field, found := entry.FindField("removed")
	require.True(t, found)
	require.EqualValues(t, 2, field.Int)
}
