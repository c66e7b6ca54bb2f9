/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-cachekit/config"
)

const cfgDefaultKeyPrefix = "kvcache"

const (
	cfgKeyCapacity        = "capacity"
	cfgKeyDefaultTTL      = "defaultTTL"
	cfgKeyEvictionPolicy  = "evictionPolicy"
	cfgKeyShardCount      = "shardCount"
	cfgKeyCleanupInterval = "cleanupInterval"
)

// Config represents a set of configuration parameters for the cache.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// Capacity is the maximum number of entries, 0 means unbounded.
	Capacity int `mapstructure:"capacity" yaml:"capacity" json:"capacity"`

	// DefaultTTL is the default TTL for cache entries, 0 means no expiration by default.
	DefaultTTL config.TimeDuration `mapstructure:"defaultTTL" yaml:"defaultTTL" json:"defaultTTL"`

	// EvictionPolicy determines which entry is removed when a bounded cache is full.
	EvictionPolicy EvictionPolicy `mapstructure:"evictionPolicy" yaml:"evictionPolicy" json:"evictionPolicy"`

	// ShardCount is the number of store shards, DefaultShardCount when 0.
	ShardCount int `mapstructure:"shardCount" yaml:"shardCount" json:"shardCount"`

	// CleanupInterval is the interval of periodic cleanup of expired entries, 0 disables it.
	CleanupInterval config.TimeDuration `mapstructure:"cleanupInterval" yaml:"cleanupInterval" json:"cleanupInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{
		keyPrefix:      opts.keyPrefix,
		EvictionPolicy: EvictionPolicyLRU,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the cache in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEvictionPolicy, string(EvictionPolicyLRU))
}

// Set sets cache configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	capacity, err := dp.GetInt(cfgKeyCapacity)
	if err != nil {
		return err
	}
	if capacity < 0 {
		return dp.WrapKeyErr(cfgKeyCapacity, fmt.Errorf("must be greater or equal to 0 (unbounded)"))
	}
	c.Capacity = capacity

	defaultTTL, err := dp.GetDuration(cfgKeyDefaultTTL)
	if err != nil {
		return err
	}
	if defaultTTL < 0 {
		return dp.WrapKeyErr(cfgKeyDefaultTTL, fmt.Errorf("must be greater or equal to 0 (no expiration)"))
	}
	c.DefaultTTL = config.TimeDuration(defaultTTL)

	policyStr, err := dp.GetStringFromSet(cfgKeyEvictionPolicy,
		[]string{string(EvictionPolicyLRU), string(EvictionPolicyNone)}, true)
	if err != nil {
		return err
	}
	policy, err := ParseEvictionPolicy(strings.ToLower(policyStr))
	if err != nil {
		return dp.WrapKeyErr(cfgKeyEvictionPolicy, err)
	}
	c.EvictionPolicy = policy

	shardCount, err := dp.GetInt(cfgKeyShardCount)
	if err != nil {
		return err
	}
	if shardCount < 0 {
		return dp.WrapKeyErr(cfgKeyShardCount, fmt.Errorf("must be greater or equal to 0"))
	}
	c.ShardCount = shardCount

	cleanupInterval, err := dp.GetDuration(cfgKeyCleanupInterval)
	if err != nil {
		return err
	}
	if cleanupInterval < 0 {
		return dp.WrapKeyErr(cfgKeyCleanupInterval, fmt.Errorf("must be greater or equal to 0 (disabled)"))
	}
	c.CleanupInterval = config.TimeDuration(cleanupInterval)

	return nil
}

// ToOptions converts the Config into Options accepted by NewWithOpts.
func (c *Config) ToOptions() Options {
	return Options{
		Capacity:   c.Capacity,
		DefaultTTL: time.Duration(c.DefaultTTL),
		Policy:     c.EvictionPolicy,
		ShardCount: c.ShardCount,
	}
}
