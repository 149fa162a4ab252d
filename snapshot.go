// FILE: lixenwraith/layered/snapshot.go
package layered

import (
	"context"
	"fmt"
)

// Snapshot is an immutable point-in-time view of a provider's values.
// Snapshots are never mutated after construction; a reloading provider
// swaps in a whole new snapshot on each reload, so any number of readers
// can hold a snapshot reference and read it without locking. Reading two
// keys from the same snapshot is guaranteed to observe the same reload
// generation.
type Snapshot interface {
	// ProviderName names the provider that produced the snapshot.
	ProviderName() string

	// Value looks up a key in the snapshot with the same semantics as
	// Provider.Value: absence is a nil-value success, type mismatch an error.
	Value(key Key, as Kind) (LookupResult, error)

	// Values returns the snapshot contents keyed by the provider-native
	// key representation. The returned map is a copy.
	Values() map[string]Value
}

// mapSnapshot is the standard snapshot implementation: a plain map keyed
// by the provider-native encoding, looked up through the provider's key
// encoder.
type mapSnapshot struct {
	provider string
	encode   KeyEncoder
	values   map[string]Value
}

func newMapSnapshot(provider string, encode KeyEncoder, values map[string]Value) *mapSnapshot {
	if encode == nil {
		encode = EncodeDotted
	}
	return &mapSnapshot{provider: provider, encode: encode, values: values}
}

// emptySnapshot backs the allow-missing construction path.
func emptySnapshot(provider string, encode KeyEncoder) *mapSnapshot {
	return newMapSnapshot(provider, encode, map[string]Value{})
}

func (s *mapSnapshot) ProviderName() string { return s.provider }

func (s *mapSnapshot) Value(key Key, as Kind) (LookupResult, error) {
	enc := s.encode(key)
	v, ok := s.values[enc]
	if !ok {
		return LookupResult{EncodedKey: enc}, nil
	}
	if as != KindAny && v.kind != as {
		return LookupResult{EncodedKey: enc},
			fmt.Errorf("%w: key %q holds %s, requested %s", ErrTypeMismatch, enc, v.kind, as)
	}
	return LookupResult{EncodedKey: enc, Value: &v}, nil
}

func (s *mapSnapshot) Values() map[string]Value {
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// lookupUpdate packages a snapshot lookup as a watch stream element.
func lookupUpdate(s Snapshot, key Key, as Kind) Update {
	res, err := s.Value(key, as)
	return Update{Result: res, Err: err}
}

// staticProvider adapts a fixed snapshot into the full Provider contract.
// Environment and CLI providers embed it: their source is captured once at
// construction, fetch equals value, and watch streams emit the current
// answer exactly once and then stay silent until cancelled.
type staticProvider struct {
	name string
	snap Snapshot
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) Value(key Key, as Kind) (LookupResult, error) {
	return p.snap.Value(key, as)
}

func (p *staticProvider) FetchValue(_ context.Context, key Key, as Kind) (LookupResult, error) {
	return p.snap.Value(key, as)
}

func (p *staticProvider) Snapshot() Snapshot { return p.snap }

func (p *staticProvider) FetchSnapshot(_ context.Context) (Snapshot, error) {
	return p.snap, nil
}

func (p *staticProvider) WatchValue(ctx context.Context, key Key, as Kind) <-chan Update {
	ch := make(chan Update, 1)
	ch <- lookupUpdate(p.snap, key, as)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func (p *staticProvider) WatchSnapshot(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	ch <- p.snap
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
