/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-cachekit/config"
)

func TestConfig(t *testing.T) {
	t.Run("load from yaml", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
kvcache:
  capacity: 1000
  defaultTTL: 5m
  evictionPolicy: lru
  shardCount: 32
  cleanupInterval: 30s
`)
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeYAML, cfg)
		require.NoError(t, err)

		require.Equal(t, 1000, cfg.Capacity)
		require.Equal(t, config.TimeDuration(5*time.Minute), cfg.DefaultTTL)
		require.Equal(t, EvictionPolicyLRU, cfg.EvictionPolicy)
		require.Equal(t, 32, cfg.ShardCount)
		require.Equal(t, config.TimeDuration(30*time.Second), cfg.CleanupInterval)

		opts := cfg.ToOptions()
		require.Equal(t, 1000, opts.Capacity)
		require.Equal(t, 5*time.Minute, opts.DefaultTTL)
		require.Equal(t, EvictionPolicyLRU, opts.Policy)
		require.Equal(t, 32, opts.ShardCount)
	})

	t.Run("load from json", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
{
	"kvcache": {
		"capacity": 500,
		"defaultTTL": "1h",
		"evictionPolicy": "none"
	}
}
`)
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, 500, cfg.Capacity)
		require.Equal(t, config.TimeDuration(time.Hour), cfg.DefaultTTL)
		require.Equal(t, EvictionPolicyNone, cfg.EvictionPolicy)
	})

	t.Run("defaults", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
kvcache:
  capacity: 10
`)
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Capacity)
		require.Equal(t, EvictionPolicyLRU, cfg.EvictionPolicy, "eviction policy must default to lru")
		require.Equal(t, config.TimeDuration(0), cfg.DefaultTTL)
		require.Equal(t, 0, cfg.ShardCount)
	})

	t.Run("custom key prefix", func(t *testing.T) {
		cfgData := bytes.NewBufferString(`
myservice:
  sessionCache:
    capacity: 25
    evictionPolicy: none
`)
		cfg := NewConfig(WithKeyPrefix("myservice.sessionCache"))
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 25, cfg.Capacity)
		require.Equal(t, EvictionPolicyNone, cfg.EvictionPolicy)
	})

	t.Run("env var overrides file value", func(t *testing.T) {
		t.Setenv("CACHEKIT_KVCACHE_CAPACITY", "777")
		cfgData := bytes.NewBufferString(`
kvcache:
  capacity: 10
`)
		cfg := NewConfig()
		err := config.NewDefaultLoader("cachekit").LoadFromReader(cfgData, config.DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 777, cfg.Capacity)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name       string
			cfgData    string
			wantErrMsg string
		}{
			{
				name:       "negative capacity",
				cfgData:    "kvcache:\n  capacity: -1\n",
				wantErrMsg: `kvcache.capacity: must be greater or equal to 0 (unbounded)`,
			},
			{
				name:       "negative default ttl",
				cfgData:    "kvcache:\n  defaultTTL: -5s\n",
				wantErrMsg: `kvcache.defaultTTL: must be greater or equal to 0 (no expiration)`,
			},
			{
				name:       "unknown eviction policy",
				cfgData:    "kvcache:\n  evictionPolicy: lfu\n",
				wantErrMsg: `kvcache.evictionPolicy: unknown value "lfu", should be one of [lru none]`,
			},
			{
				name:       "negative shard count",
				cfgData:    "kvcache:\n  shardCount: -4\n",
				wantErrMsg: `kvcache.shardCount: must be greater or equal to 0`,
			},
			{
				name:       "negative cleanup interval",
				cfgData:    "kvcache:\n  cleanupInterval: -1m\n",
				wantErrMsg: `kvcache.cleanupInterval: must be greater or equal to 0 (disabled)`,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := NewConfig()
				err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
					bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
				require.EqualError(t, err, tt.wantErrMsg)
			})
		}
	})

	t.Run("yaml unmarshal directly", func(t *testing.T) {
		cfgData := `
capacity: 42
defaultTTL: 90s
evictionPolicy: lru
cleanupInterval: 2m30s
`
		var cfg Config
		require.NoError(t, yaml.Unmarshal([]byte(cfgData), &cfg))
		require.Equal(t, 42, cfg.Capacity)
		require.Equal(t, config.TimeDuration(90*time.Second), cfg.DefaultTTL)
		require.Equal(t, EvictionPolicyLRU, cfg.EvictionPolicy)
		require.Equal(t, config.TimeDuration(2*time.Minute+30*time.Second), cfg.CleanupInterval)
	})

	t.Run("new default config", func(t *testing.T) {
		cfg := NewDefaultConfig()
		require.Equal(t, EvictionPolicyLRU, cfg.EvictionPolicy)
		require.Equal(t, "kvcache", cfg.KeyPrefix())
	})
}

func TestNewFromConfig(t *testing.T) {
	cfgData := bytes.NewBufferString(`
kvcache:
  capacity: 3
  evictionPolicy: none
`)
	cfg := NewConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(cfgData, config.DataTypeYAML, cfg)
	require.NoError(t, err)

	cache, err := NewWithOpts[string, int](nil, cfg.ToOptions())
	require.NoError(t, err)
	for i, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Put(key, i))
	}
	require.ErrorIs(t, cache.Put("d", 3), ErrCapacityExceeded)
}
