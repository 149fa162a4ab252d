// File: lixenwraith/layered/errors.go
package layered

import "errors"

var (
	// ErrFileNotFound indicates the configured file is absent and the
	// provider was not constructed with AllowMissing.
	ErrFileNotFound = errors.New("configuration file not found")

	// ErrTypeMismatch indicates a key exists but holds a different kind
	// than the one requested.
	ErrTypeMismatch = errors.New("configuration value type mismatch")

	// ErrKeyNotFound is returned by reader accessors without a default
	// when no provider in the chain has the key. Providers themselves
	// model absence as a nil-value result, never as an error.
	ErrKeyNotFound = errors.New("configuration key not found")

	// ErrPollInterval rejects non-positive poll intervals at construction.
	ErrPollInterval = errors.New("poll interval must be positive")

	// ErrCLIParse wraps command-line tokenizing failures.
	ErrCLIParse = errors.New("failed to parse command-line arguments")

	// ErrProviderClosed is returned by fetch operations after Close.
	ErrProviderClosed = errors.New("provider is closed")
)
