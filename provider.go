// FILE: lixenwraith/layered/provider.go
package layered

import "context"

// LookupResult is the outcome of asking one provider for one key: the
// provider-native encoding of the key (diagnostics only) and an optional
// value. A nil Value means the key is absent in that provider, which is a
// successful answer, not an error.
type LookupResult struct {
	EncodedKey string
	Value      *Value
}

// Equal reports whether two results carry the same answer.
func (r LookupResult) Equal(other LookupResult) bool {
	if r.EncodedKey != other.EncodedKey {
		return false
	}
	if (r.Value == nil) != (other.Value == nil) {
		return false
	}
	if r.Value == nil {
		return true
	}
	return r.Value.Equal(*other.Value)
}

// Update is one element of a watch stream: a lookup result or the error
// that replaced it. Failed updates never compare equal to anything,
// including other failures, so a persistently failing lookup re-notifies
// on every reload.
type Update struct {
	Result LookupResult
	Err    error
}

// Equal implements the change-detection comparison used when diffing
// snapshots per watched key.
func (u Update) Equal(other Update) bool {
	if u.Err != nil || other.Err != nil {
		return false
	}
	return u.Result.Equal(other.Result)
}

// Provider is the capability contract every configuration source
// implements. MultiProvider itself satisfies it, so chains compose.
//
// Watch channels obey the emit-current-first contract: the first element
// delivered is the provider's value (or snapshot) as of subscription time,
// before any change-driven element. A watch stream ends, and its channel
// is closed, when the subscriber's context is cancelled or the provider is
// torn down; the registration is removed in either case.
type Provider interface {
	// Name identifies the provider in diagnostics and logs. It carries no
	// routing or equality semantics.
	Name() string

	// Value returns the provider's best currently-cached answer without
	// performing I/O. It fails only on type mismatch, never on absence.
	Value(key Key, as Kind) (LookupResult, error)

	// FetchValue may refresh from the underlying source before answering.
	// Providers without a refreshable source answer exactly like Value.
	FetchValue(ctx context.Context, key Key, as Kind) (LookupResult, error)

	// Snapshot returns the current immutable snapshot reference. O(1), no
	// copy of contents.
	Snapshot() Snapshot

	// FetchSnapshot refreshes from the underlying source, then returns the
	// resulting snapshot.
	FetchSnapshot(ctx context.Context) (Snapshot, error)

	// WatchValue streams updates for one key, current value first.
	WatchValue(ctx context.Context, key Key, as Kind) <-chan Update

	// WatchSnapshot streams whole snapshots, current snapshot first.
	WatchSnapshot(ctx context.Context) <-chan Snapshot
}
