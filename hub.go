// FILE: lixenwraith/layered/hub.go
package layered

import "context"

// watchHub is the watcher bookkeeping shared by the mutable in-memory
// provider and the reloading file provider: two registries keyed by a
// generated id, one for per-key watchers and one for whole-snapshot
// watchers. The hub has no lock of its own; every method except dispatch
// must be called while holding the owning provider's mutex, so a watcher
// can never be registered against a half-updated snapshot.
type watchHub struct {
	nextID       int64
	keyWatchers  map[int64]*keyWatch
	snapWatchers map[int64]chan Snapshot
}

type keyWatch struct {
	key Key
	as  Kind
	ch  chan Update
}

func newWatchHub() *watchHub {
	return &watchHub{
		keyWatchers:  make(map[int64]*keyWatch),
		snapWatchers: make(map[int64]chan Snapshot),
	}
}

// addKeyWatcher registers a per-key watcher and queues the current value
// as its guaranteed first element. The fresh channel has room, so the
// send cannot block while the caller holds the provider lock.
func (h *watchHub) addKeyWatcher(key Key, as Kind, current Update) (int64, chan Update) {
	h.nextID++
	id := h.nextID
	ch := make(chan Update, watchBacklog)
	ch <- current
	h.keyWatchers[id] = &keyWatch{key: key, as: as, ch: ch}
	return id, ch
}

func (h *watchHub) removeKeyWatcher(id int64) {
	delete(h.keyWatchers, id)
}

// addSnapshotWatcher registers a whole-snapshot watcher, with the current
// snapshot queued as the first element.
func (h *watchHub) addSnapshotWatcher(current Snapshot) (int64, chan Snapshot) {
	h.nextID++
	id := h.nextID
	ch := make(chan Snapshot, watchBacklog)
	ch <- current
	h.snapWatchers[id] = ch
	return id, ch
}

func (h *watchHub) removeSnapshotWatcher(id int64) {
	delete(h.snapWatchers, id)
}

type delivery struct {
	ch  chan Update
	upd Update
}

// diff computes, per registered key watcher, whether the value changed
// between the old and new snapshot. Failed lookups never compare equal,
// so pre-existing failures re-notify on every swap. Must run under the
// provider lock, against the snapshots exchanged by the same commit.
func (h *watchHub) diff(old, next Snapshot) []delivery {
	var out []delivery
	for _, w := range h.keyWatchers {
		before := lookupUpdate(old, w.key, w.as)
		after := lookupUpdate(next, w.key, w.as)
		if !after.Equal(before) {
			out = append(out, delivery{ch: w.ch, upd: after})
		}
	}
	return out
}

// snapshotTargets collects every snapshot watcher channel for delivery.
func (h *watchHub) snapshotTargets() []chan Snapshot {
	out := make([]chan Snapshot, 0, len(h.snapWatchers))
	for _, ch := range h.snapWatchers {
		out = append(out, ch)
	}
	return out
}

// dispatch pushes computed deliveries to their watchers. Called outside
// the provider lock; sends are non-blocking so one stalled consumer never
// wedges the committer, at the cost of dropping updates past the backlog.
func dispatch(deliveries []delivery, snapTargets []chan Snapshot, snap Snapshot) {
	for _, d := range deliveries {
		trySend(d.ch, d.upd)
	}
	for _, ch := range snapTargets {
		trySend(ch, snap)
	}
}

func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// pump forwards elements from a hub-side channel to the subscriber-facing
// channel until the subscriber's context ends or the provider shuts down,
// then runs the scoped cleanup (registry removal) and closes the outward
// channel. This is what guarantees watcher registrations are released on
// every exit path, including cancellation mid-delivery.
func pump[T any](ctx context.Context, closed <-chan struct{}, in <-chan T, out chan<- T, remove func()) {
	defer close(out)
	defer remove()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case v := <-in:
			select {
			case out <- v:
			case <-ctx.Done():
				return
			case <-closed:
				return
			}
		}
	}
}
