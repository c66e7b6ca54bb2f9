/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package kvcache provides an embedded in-process key-value cache with pluggable eviction,
// per-entry expiration, single-flight population, and Prometheus metrics.
package kvcache
