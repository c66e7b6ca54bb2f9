/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntryExpired(t *testing.T) {
	createdAt := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		entryTTL   time.Duration
		defaultTTL time.Duration
		now        time.Time
		want       bool
	}{
		{
			name: "no ttl anywhere, never expires",
			now:  createdAt.Add(1000 * time.Hour),
			want: false,
		},
		{
			name:       "inherits default ttl, still live",
			defaultTTL: time.Minute,
			now:        createdAt.Add(time.Minute - time.Nanosecond),
			want:       false,
		},
		{
			name:       "inherits default ttl, expired exactly at deadline",
			defaultTTL: time.Minute,
			now:        createdAt.Add(time.Minute),
			want:       true,
		},
		{
			name:       "own ttl overrides default",
			entryTTL:   time.Second,
			defaultTTL: time.Hour,
			now:        createdAt.Add(2 * time.Second),
			want:       true,
		},
		{
			name:       "own ttl overrides shorter default",
			entryTTL:   time.Hour,
			defaultTTL: time.Second,
			now:        createdAt.Add(2 * time.Second),
			want:       false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry[string, int]{Key: "k", Value: 1, CreatedAt: createdAt, TTL: tt.entryTTL}
			require.Equal(t, tt.want, e.Expired(tt.now, tt.defaultTTL))
		})
	}
}
