// FILE: lixenwraith/layered/key.go
package layered

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a configuration value: an ordered sequence of non-empty
// string components plus an optional context map of scalar qualifiers.
// Keys are immutable value types; two keys are equal iff their components
// match in order and their context maps hold the same pairs.
type Key struct {
	components []string
	context    map[string]string
}

// NewKey builds a key from individual components.
func NewKey(components ...string) Key {
	c := make([]string, len(components))
	copy(c, components)
	return Key{components: c}
}

// ParseKey splits a dot-separated path into a key.
// Empty segments are dropped, so "a..b" and "a.b" parse identically.
func ParseKey(path string) Key {
	raw := strings.Split(path, ".")
	components := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			components = append(components, s)
		}
	}
	return Key{components: components}
}

// WithContext returns a copy of the key with one context pair added or replaced.
func (k Key) WithContext(name, value string) Key {
	ctx := make(map[string]string, len(k.context)+1)
	for n, v := range k.context {
		ctx[n] = v
	}
	ctx[name] = value
	return Key{components: k.components, context: ctx}
}

// Components returns a copy of the ordered key components.
func (k Key) Components() []string {
	c := make([]string, len(k.components))
	copy(c, k.components)
	return c
}

// Context returns a copy of the key's context map. May be empty, never nil.
func (k Key) Context() map[string]string {
	ctx := make(map[string]string, len(k.context))
	for n, v := range k.context {
		ctx[n] = v
	}
	return ctx
}

// IsZero reports whether the key has no components.
func (k Key) IsZero() bool {
	return len(k.components) == 0
}

// Equal reports component-wise and context-wise equality.
func (k Key) Equal(other Key) bool {
	if len(k.components) != len(other.components) || len(k.context) != len(other.context) {
		return false
	}
	for i, c := range k.components {
		if other.components[i] != c {
			return false
		}
	}
	for n, v := range k.context {
		if ov, ok := other.context[n]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the key as a dot-joined path, with context pairs appended
// in deterministic order, e.g. "http.timeout[region=eu]". The rendering is
// canonical: equal keys produce identical strings, which lets the string
// double as a map key in watcher registries.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(k.components, "."))
	if len(k.context) > 0 {
		names := make([]string, 0, len(k.context))
		for n := range k.context {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteByte('[')
		for i, n := range names {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%s=%s", n, k.context[n])
		}
		b.WriteByte(']')
	}
	return b.String()
}

// KeyEncoder converts a key to a provider-native string representation.
// Encoders are pure functions; the context map does not participate in
// encoding, only in key equality.
type KeyEncoder func(Key) string

// EncodeDotted joins components with dots: ["http","timeout"] -> "http.timeout".
// This is the native representation of file and in-memory providers.
func EncodeDotted(key Key) string {
	return strings.Join(key.components, ".")
}

// EncodeEnv returns an encoder producing environment variable names:
// ["http","timeout"] with prefix "APP_" -> "APP_HTTP_TIMEOUT".
func EncodeEnv(prefix string) KeyEncoder {
	return func(key Key) string {
		return prefix + strings.ToUpper(strings.Join(key.components, "_"))
	}
}

// EncodeFlag joins components with dashes, the native form of CLI flags:
// ["http","timeout"] -> "http-timeout".
func EncodeFlag(key Key) string {
	return strings.Join(key.components, "-")
}
