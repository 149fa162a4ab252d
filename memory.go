// FILE: lixenwraith/layered/memory.go
package layered

import (
	"context"
	"sync"
)

// MemoryProvider is a mutable concurrent key/value provider: one
// lock-protected map plus the shared watcher hub. It is the simplest
// fully-worked instance of the diff-under-lock, notify-outside-lock
// protocol the reloading file provider also follows, and doubles as the
// defaults layer at the bottom of a provider chain.
type MemoryProvider struct {
	name string

	mu   sync.Mutex
	snap *mapSnapshot
	hub  *watchHub
}

// NewMemoryProvider creates an in-memory provider seeded with the given
// values, keyed by dotted path. The map is copied.
func NewMemoryProvider(name string, values map[string]Value) *MemoryProvider {
	if name == "" {
		name = "memory"
	}
	copied := make(map[string]Value, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MemoryProvider{
		name: name,
		snap: newMapSnapshot(name, EncodeDotted, copied),
		hub:  newWatchHub(),
	}
}

func (p *MemoryProvider) Name() string { return p.name }

func (p *MemoryProvider) Value(key Key, as Kind) (LookupResult, error) {
	return p.Snapshot().Value(key, as)
}

func (p *MemoryProvider) FetchValue(_ context.Context, key Key, as Kind) (LookupResult, error) {
	return p.Snapshot().Value(key, as)
}

func (p *MemoryProvider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *MemoryProvider) FetchSnapshot(_ context.Context) (Snapshot, error) {
	return p.Snapshot(), nil
}

// Set updates one key. If the new value equals the stored one the call is
// a no-op and no watcher is notified. Otherwise a new snapshot replaces
// the old wholesale, changed per-key watchers and all snapshot watchers
// are collected under the lock, and delivery happens after release.
func (p *MemoryProvider) Set(key Key, value Value) {
	p.mutate(EncodeDotted(key), &value)
}

// Delete removes one key, notifying watchers that observed it.
func (p *MemoryProvider) Delete(key Key) {
	p.mutate(EncodeDotted(key), nil)
}

func (p *MemoryProvider) mutate(encoded string, value *Value) {
	p.mu.Lock()

	old, exists := p.snap.values[encoded]
	if value == nil && !exists {
		p.mu.Unlock()
		return
	}
	if value != nil && exists && old.Equal(*value) {
		p.mu.Unlock()
		return
	}

	next := make(map[string]Value, len(p.snap.values)+1)
	for k, v := range p.snap.values {
		next[k] = v
	}
	if value == nil {
		delete(next, encoded)
	} else {
		next[encoded] = *value
	}

	oldSnap := p.snap
	newSnap := newMapSnapshot(p.name, EncodeDotted, next)
	p.snap = newSnap
	deliveries := p.hub.diff(oldSnap, newSnap)
	snapTargets := p.hub.snapshotTargets()
	p.mu.Unlock()

	dispatch(deliveries, snapTargets, newSnap)
}

func (p *MemoryProvider) WatchValue(ctx context.Context, key Key, as Kind) <-chan Update {
	p.mu.Lock()
	current := lookupUpdate(p.snap, key, as)
	id, in := p.hub.addKeyWatcher(key, as, current)
	p.mu.Unlock()

	out := make(chan Update, watchBacklog)
	go pump(ctx, nil, in, out, func() {
		p.mu.Lock()
		p.hub.removeKeyWatcher(id)
		p.mu.Unlock()
	})
	return out
}

func (p *MemoryProvider) WatchSnapshot(ctx context.Context) <-chan Snapshot {
	p.mu.Lock()
	id, in := p.hub.addSnapshotWatcher(p.snap)
	p.mu.Unlock()

	out := make(chan Snapshot, watchBacklog)
	go pump(ctx, nil, in, out, func() {
		p.mu.Lock()
		p.hub.removeSnapshotWatcher(id)
		p.mu.Unlock()
	})
	return out
}
