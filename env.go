// FILE: lixenwraith/layered/env.go
package layered

import (
	"os"
	"strings"
)

// EnvOptions configures an environment provider.
type EnvOptions struct {
	// Prefix narrows the captured variables and participates in key
	// encoding: with prefix "APP_", the key ["server","port"] reads
	// APP_SERVER_PORT.
	Prefix string

	// Environ overrides the process environment, mainly for tests. Each
	// entry is "NAME=value".
	Environ []string

	// Name identifies the provider in diagnostics. Defaults to "env".
	Name string
}

// EnvProvider serves environment variables captured once at construction.
// The snapshot is keyed by the native variable names; lookups encode keys
// with the underscore-joined-uppercase encoder. Scalars are parsed
// eagerly, so APP_SERVER_PORT=8080 is an int value. The provider is
// static: fetch equals value and watch streams emit once.
type EnvProvider struct {
	staticProvider
}

// NewEnvProvider captures the environment and builds the provider.
func NewEnvProvider(opts EnvOptions) *EnvProvider {
	name := opts.Name
	if name == "" {
		name = "env"
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	values := make(map[string]Value)
	for _, entry := range environ {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		if opts.Prefix != "" && !strings.HasPrefix(k, opts.Prefix) {
			continue
		}
		values[k] = parseScalar(v)
	}

	return &EnvProvider{staticProvider{
		name: name,
		snap: newMapSnapshot(name, EncodeEnv(opts.Prefix), values),
	}}
}
