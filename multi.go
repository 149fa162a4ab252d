// FILE: lixenwraith/layered/multi.go
package layered

import (
	"context"
	"strings"
)

// MultiProvider composes an ordered list of providers, highest priority
// first, into one logical provider.
//
// Get/fetch resolution is strictly first-match-wins: providers are
// consulted in order, the first non-absent answer is returned, and a
// provider error aborts the whole chain without consulting later
// providers. Watch resolution subscribes to every provider concurrently
// and combines the latest per-provider answers, emitting its first
// combined element only once every provider has emitted at least once.
type MultiProvider struct {
	name      string
	providers []Provider
}

// NewMultiProvider composes providers in priority order, highest first.
func NewMultiProvider(providers ...Provider) *MultiProvider {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return &MultiProvider{
		name:      "multi[" + strings.Join(names, ",") + "]",
		providers: providers,
	}
}

// Providers returns the composed chain in priority order.
func (m *MultiProvider) Providers() []Provider {
	out := make([]Provider, len(m.providers))
	copy(out, m.providers)
	return out
}

func (m *MultiProvider) Name() string { return m.name }

func (m *MultiProvider) Value(key Key, as Kind) (LookupResult, error) {
	res := LookupResult{EncodedKey: EncodeDotted(key)}
	for _, p := range m.providers {
		r, err := p.Value(key, as)
		if err != nil {
			return r, err
		}
		if r.Value != nil {
			return r, nil
		}
		res = r
	}
	return res, nil
}

func (m *MultiProvider) FetchValue(ctx context.Context, key Key, as Kind) (LookupResult, error) {
	res := LookupResult{EncodedKey: EncodeDotted(key)}
	for _, p := range m.providers {
		r, err := p.FetchValue(ctx, key, as)
		if err != nil {
			return r, err
		}
		if r.Value != nil {
			return r, nil
		}
		res = r
	}
	return res, nil
}

func (m *MultiProvider) Snapshot() Snapshot {
	children := make([]Snapshot, len(m.providers))
	for i, p := range m.providers {
		children[i] = p.Snapshot()
	}
	return &multiSnapshot{provider: m.name, children: children}
}

func (m *MultiProvider) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	children := make([]Snapshot, len(m.providers))
	for i, p := range m.providers {
		s, err := p.FetchSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		children[i] = s
	}
	return &multiSnapshot{provider: m.name, children: children}, nil
}

// WatchValue fans out to all providers and combines their latest
// emissions. Each upstream emits its current value first, so the gate
// "every provider has emitted at least once" resolves promptly; after
// that every upstream emission triggers a recomputation and a fresh
// combined emission, without deduplication of identical answers. An
// upstream error becomes one combined element but never terminates the
// subscription.
func (m *MultiProvider) WatchValue(ctx context.Context, key Key, as Kind) <-chan Update {
	out := make(chan Update, watchBacklog)
	if len(m.providers) == 0 {
		out <- Update{Result: LookupResult{EncodedKey: EncodeDotted(key)}}
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out
	}

	go func() {
		defer close(out)
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		merged := make(chan indexedUpdate)
		for i, p := range m.providers {
			forward(cctx, i, p.WatchValue(cctx, key, as), merged)
		}

		latest := make([]*Update, len(m.providers))
		seen := 0
		for {
			select {
			case <-ctx.Done():
				return
			case iu := <-merged:
				if latest[iu.index] == nil {
					seen++
				}
				u := iu.update
				latest[iu.index] = &u
				if seen < len(m.providers) {
					continue
				}
				select {
				case out <- combineLatest(latest, key):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// WatchSnapshot applies the identical combine-latest-after-all-first
// policy to whole snapshots.
func (m *MultiProvider) WatchSnapshot(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot, watchBacklog)
	if len(m.providers) == 0 {
		out <- &multiSnapshot{provider: m.name}
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out
	}

	go func() {
		defer close(out)
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		merged := make(chan indexedSnapshot)
		for i, p := range m.providers {
			ch := p.WatchSnapshot(cctx)
			go func(i int, ch <-chan Snapshot) {
				for s := range ch {
					select {
					case merged <- indexedSnapshot{index: i, snap: s}:
					case <-cctx.Done():
						return
					}
				}
			}(i, ch)
		}

		latest := make([]Snapshot, len(m.providers))
		seen := 0
		for {
			select {
			case <-ctx.Done():
				return
			case is := <-merged:
				if latest[is.index] == nil {
					seen++
				}
				latest[is.index] = is.snap
				if seen < len(m.providers) {
					continue
				}
				children := make([]Snapshot, len(latest))
				copy(children, latest)
				select {
				case out <- &multiSnapshot{provider: m.name, children: children}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type indexedUpdate struct {
	index  int
	update Update
}

type indexedSnapshot struct {
	index int
	snap  Snapshot
}

func forward(ctx context.Context, index int, in <-chan Update, merged chan<- indexedUpdate) {
	go func() {
		for u := range in {
			select {
			case merged <- indexedUpdate{index: index, update: u}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// combineLatest computes the logical chain answer from the most recent
// per-provider emissions: the first successful non-absent value in
// priority order wins; failing that, the first error is surfaced; failing
// that, the answer is absent.
func combineLatest(latest []*Update, key Key) Update {
	var firstErr *Update
	for _, u := range latest {
		if u.Err != nil {
			if firstErr == nil {
				firstErr = u
			}
			continue
		}
		if u.Result.Value != nil {
			return *u
		}
	}
	if firstErr != nil {
		return *firstErr
	}
	return Update{Result: LookupResult{EncodedKey: EncodeDotted(key)}}
}

// multiSnapshot wraps the child snapshots captured from every provider in
// the chain; lookups apply the same first-non-absent scan synchronously.
type multiSnapshot struct {
	provider string
	children []Snapshot
}

func (s *multiSnapshot) ProviderName() string { return s.provider }

func (s *multiSnapshot) Value(key Key, as Kind) (LookupResult, error) {
	res := LookupResult{EncodedKey: EncodeDotted(key)}
	for _, c := range s.children {
		r, err := c.Value(key, as)
		if err != nil {
			return r, err
		}
		if r.Value != nil {
			return r, nil
		}
		res = r
	}
	return res, nil
}

// Values merges child contents, higher-priority providers overriding
// lower ones. Keys stay in each provider's native representation.
func (s *multiSnapshot) Values() map[string]Value {
	out := make(map[string]Value)
	for i := len(s.children) - 1; i >= 0; i-- {
		for k, v := range s.children[i].Values() {
			out[k] = v
		}
	}
	return out
}
