/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config provides a viper-backed configuration layer: a DataProvider
// abstraction over files, readers and environment variables, and a Loader that
// applies defaults and fills configuration objects.
package config

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}
