// FILE: lixenwraith/layered/reload.go
package layered

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ParseFunc turns raw file bytes into flattened snapshot values keyed by
// dotted path. Parsers may fail on malformed input; a parse failure during
// a reload keeps the last good snapshot in place.
type ParseFunc func(data []byte) (map[string]Value, error)

// ReloadingFileOptions configures a reloading file provider.
type ReloadingFileOptions struct {
	// Name identifies the provider in diagnostics. Defaults to
	// "file:<path>".
	Name string

	// PollInterval between file stat checks. Must be positive.
	PollInterval time.Duration

	// AllowMissing substitutes an empty snapshot when the file is absent
	// instead of failing construction.
	AllowMissing bool

	// ChangeEvents additionally subscribes to file-system notifications
	// and forces an immediate poll tick on each event burst. Polling
	// remains the correctness backstop either way.
	ChangeEvents bool

	// FileSystem to read through. Defaults to the os-backed implementation.
	FileSystem FileSystem

	// Logger receives reload diagnostics. Defaults to a discard logger.
	Logger *slog.Logger
}

// DefaultReloadingFileOptions returns the standard options.
func DefaultReloadingFileOptions() ReloadingFileOptions {
	return ReloadingFileOptions{
		PollInterval: DefaultPollInterval,
		FileSystem:   OSFileSystem{},
	}
}

// ReloadingFileProvider is the generic hot-reload engine behind every
// file-backed provider. It polls the configured path, detects changes via
// the symlink-resolved real path plus modification timestamp, re-parses on
// change, and atomically swaps in a new snapshot while notifying exactly
// the watchers whose values changed.
//
// One mutex guards the {snapshot, modTime, realPath} tuple together with
// both watcher registries; it is never held across file I/O or watcher
// delivery. Concurrent reloads (a poll tick racing a fetch) are resolved
// by optimistic re-validation at commit: the loser observes that the
// stored tuple moved and discards its own result.
type ReloadingFileProvider struct {
	name         string
	path         string
	parse        ParseFunc
	interval     time.Duration
	allowMissing bool
	fs           FileSystem
	logger       *slog.Logger

	mu       sync.Mutex
	snap     *mapSnapshot
	modTime  time.Time
	realPath string
	hub      *watchHub

	kick      chan struct{}
	closed    chan struct{}
	loopDone  chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once
	events    *fsnotify.Watcher
}

// NewReloadingFileProvider constructs the provider and performs the
// initial load synchronously: a missing file fails construction unless
// AllowMissing is set, in which case an empty snapshot with a sentinel
// timestamp is substituted. The poll loop starts immediately; call Close
// to stop it.
func NewReloadingFileProvider(path string, parse ParseFunc, opts ReloadingFileOptions) (*ReloadingFileProvider, error) {
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrPollInterval, opts.PollInterval)
	}
	name := opts.Name
	if name == "" {
		name = "file:" + path
	}
	fs := opts.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &ReloadingFileProvider{
		name:         name,
		path:         path,
		parse:        parse,
		interval:     opts.PollInterval,
		allowMissing: opts.AllowMissing,
		fs:           fs,
		logger:       logger,
		hub:          newWatchHub(),
		kick:         make(chan struct{}, 1),
		closed:       make(chan struct{}),
		loopDone:     make(chan struct{}),
	}

	real, mod, values, err := p.load()
	if err != nil {
		return nil, err
	}
	p.snap = newMapSnapshot(name, EncodeDotted, values)
	p.realPath = real
	p.modTime = mod

	if opts.ChangeEvents {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("file event watcher: %w", err)
		}
		if err := w.Add(filepath.Dir(path)); err != nil {
			w.Close()
			return nil, fmt.Errorf("file event watcher: %w", err)
		}
		p.events = w
		go p.eventLoop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.pollLoop(ctx)

	return p, nil
}

// Close stops the poll loop and the event watcher and ends every watch
// stream. Safe to call more than once.
func (p *ReloadingFileProvider) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.closed)
		if p.events != nil {
			p.events.Close()
		}
		<-p.loopDone
	})
	return nil
}

func (p *ReloadingFileProvider) Name() string { return p.name }

func (p *ReloadingFileProvider) Value(key Key, as Kind) (LookupResult, error) {
	return p.Snapshot().Value(key, as)
}

func (p *ReloadingFileProvider) FetchValue(ctx context.Context, key Key, as Kind) (LookupResult, error) {
	if err := p.refresh(ctx); err != nil {
		return LookupResult{EncodedKey: EncodeDotted(key)}, err
	}
	return p.Value(key, as)
}

func (p *ReloadingFileProvider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *ReloadingFileProvider) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	if err := p.refresh(ctx); err != nil {
		return nil, err
	}
	return p.Snapshot(), nil
}

func (p *ReloadingFileProvider) WatchValue(ctx context.Context, key Key, as Kind) <-chan Update {
	p.mu.Lock()
	current := lookupUpdate(p.snap, key, as)
	id, in := p.hub.addKeyWatcher(key, as, current)
	p.mu.Unlock()

	out := make(chan Update, watchBacklog)
	go pump(ctx, p.closed, in, out, func() {
		p.mu.Lock()
		p.hub.removeKeyWatcher(id)
		p.mu.Unlock()
	})
	return out
}

func (p *ReloadingFileProvider) WatchSnapshot(ctx context.Context) <-chan Snapshot {
	p.mu.Lock()
	id, in := p.hub.addSnapshotWatcher(p.snap)
	p.mu.Unlock()

	out := make(chan Snapshot, watchBacklog)
	go pump(ctx, p.closed, in, out, func() {
		p.mu.Lock()
		p.hub.removeSnapshotWatcher(id)
		p.mu.Unlock()
	})
	return out
}

// refresh is the fetch-path entry into the reload machinery: it runs the
// same reload-if-needed pass the poll loop runs, but synchronously and
// with errors propagated to the caller instead of logged.
func (p *ReloadingFileProvider) refresh(ctx context.Context) error {
	select {
	case <-p.closed:
		return ErrProviderClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.reloadIfNeeded()
}

// observe resolves the real path and modification timestamp without
// holding the lock.
func (p *ReloadingFileProvider) observe() (real string, mod time.Time, absent bool, err error) {
	real, ok, err := p.fs.ResolvePath(p.path)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("resolve %s: %w", p.path, err)
	}
	if !ok {
		return "", time.Time{}, true, nil
	}
	mod, ok, err = p.fs.ModTime(real)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("stat %s: %w", real, err)
	}
	if !ok {
		return "", time.Time{}, true, nil
	}
	return real, mod, false, nil
}

// load performs the construction-time read: observe, read, parse. The
// absent file case degrades to an empty state only under AllowMissing.
func (p *ReloadingFileProvider) load() (string, time.Time, map[string]Value, error) {
	real, mod, absent, err := p.observe()
	if err != nil {
		return "", time.Time{}, nil, err
	}
	if absent {
		if !p.allowMissing {
			return "", time.Time{}, nil, fmt.Errorf("%w: %s", ErrFileNotFound, p.path)
		}
		return "", time.Time{}, map[string]Value{}, nil
	}
	data, ok, err := p.fs.ReadFile(real)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("read %s: %w", real, err)
	}
	if !ok {
		if !p.allowMissing {
			return "", time.Time{}, nil, fmt.Errorf("%w: %s", ErrFileNotFound, p.path)
		}
		return "", time.Time{}, map[string]Value{}, nil
	}
	values, err := p.parse(data)
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("parse %s: %w", p.path, err)
	}
	return real, mod, values, nil
}

// reloadIfNeeded is one pass of the change-detection state machine:
//
//  1. observe (real path, mod time) outside the lock
//  2. compare against the stored tuple; identical means no-op
//  3. read and parse outside the lock
//  4. re-validate the stored tuple at commit; a concurrent winner means
//     this pass lost the race and silently discards its work
//  5. swap the tuple, diff watched keys under the lock, deliver outside it
func (p *ReloadingFileProvider) reloadIfNeeded() error {
	real, mod, absent, err := p.observe()
	if err != nil {
		return err
	}
	if absent && !p.allowMissing {
		return fmt.Errorf("%w: %s", ErrFileNotFound, p.path)
	}

	p.mu.Lock()
	prevReal, prevMod := p.realPath, p.modTime
	p.mu.Unlock()
	if real == prevReal && mod.Equal(prevMod) {
		return nil
	}

	values := map[string]Value{}
	if !absent {
		data, ok, err := p.fs.ReadFile(real)
		if err != nil {
			return fmt.Errorf("read %s: %w", real, err)
		}
		if !ok {
			// Deleted between stat and read.
			if !p.allowMissing {
				return fmt.Errorf("%w: %s", ErrFileNotFound, p.path)
			}
			real, mod = "", time.Time{}
		} else {
			values, err = p.parse(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", p.path, err)
			}
		}
	}
	newSnap := newMapSnapshot(p.name, EncodeDotted, values)

	p.mu.Lock()
	if p.realPath != prevReal || !p.modTime.Equal(prevMod) {
		// Lost the race to a concurrent reload; the winner's result stands.
		p.mu.Unlock()
		return nil
	}
	oldSnap := p.snap
	p.snap = newSnap
	p.realPath = real
	p.modTime = mod
	deliveries := p.hub.diff(oldSnap, newSnap)
	snapTargets := p.hub.snapshotTargets()
	p.mu.Unlock()

	dispatch(deliveries, snapTargets, newSnap)
	p.logger.Debug("configuration reloaded",
		"provider", p.name, "path", p.path, "changed_keys", len(deliveries))
	return nil
}

func (p *ReloadingFileProvider) pollLoop(ctx context.Context) {
	defer close(p.loopDone)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.kick:
		}
		if err := p.reloadIfNeeded(); err != nil {
			// Partial-failure policy: keep serving the last good snapshot
			// and retry on the next tick.
			p.logger.Error("configuration reload failed",
				"provider", p.name, "path", p.path, "error", err)
		}
	}
}

// eventLoop coalesces file-system events for the watched file into forced
// poll ticks.
func (p *ReloadingFileProvider) eventLoop() {
	base := filepath.Base(p.path)
	var debounce *time.Timer
	for {
		select {
		case ev, ok := <-p.events.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(eventKickDebounce, func() {
					trySend(p.kick, struct{}{})
				})
			} else {
				debounce.Reset(eventKickDebounce)
			}
		case err, ok := <-p.events.Errors:
			if !ok {
				return
			}
			p.logger.Warn("file event watcher error", "provider", p.name, "error", err)
		}
	}
}
