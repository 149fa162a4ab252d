// FILE: lixenwraith/layered/builder.go
package layered

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Builder assembles the conventional provider chain behind a Reader with
// the precedence most services want:
//
//	command line > environment > custom providers > file > defaults
//
// Every With method returns the builder for chaining; configuration
// errors are deferred and surface from Build.
type Builder struct {
	args         []string
	hasArgs      bool
	envPrefix    string
	hasEnv       bool
	custom       []Provider
	filePath     string
	defaults     map[string]any
	pollInterval time.Duration
	allowMissing bool
	changeEvents bool
	fs           FileSystem
	logger       *slog.Logger
	reporter     AccessReporter
	validator    func(*SnapshotReader) error
	err          error
}

// NewBuilder creates a builder with the default poll interval.
func NewBuilder() *Builder {
	return &Builder{pollInterval: DefaultPollInterval}
}

// WithArgs adds a command-line layer at the top of the chain. Pass
// os.Args[1:] for the live process arguments.
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	b.hasArgs = true
	return b
}

// WithEnvPrefix adds an environment layer reading variables that carry
// the given prefix.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	b.hasEnv = true
	return b
}

// WithProvider inserts a custom provider between the environment and
// file layers. Repeated calls stack in priority order, earliest highest.
func (b *Builder) WithProvider(p Provider) *Builder {
	if p == nil {
		b.fail(fmt.Errorf("nil provider"))
		return b
	}
	b.custom = append(b.custom, p)
	return b
}

// WithFile adds a hot-reloading file layer; the parser is picked from
// the file extension.
func (b *Builder) WithFile(path string) *Builder {
	if path == "" {
		b.fail(fmt.Errorf("empty file path"))
		return b
	}
	b.filePath = path
	return b
}

// WithDefaults adds the bottom layer: an in-memory provider seeded from
// a dotted-path map of plain Go values.
func (b *Builder) WithDefaults(defaults map[string]any) *Builder {
	b.defaults = defaults
	return b
}

// WithPollInterval overrides the file layer's poll interval.
func (b *Builder) WithPollInterval(d time.Duration) *Builder {
	if d <= 0 {
		b.fail(fmt.Errorf("%w: %v", ErrPollInterval, d))
		return b
	}
	b.pollInterval = d
	return b
}

// WithAllowMissing lets the file layer start with an empty snapshot when
// the file does not exist yet.
func (b *Builder) WithAllowMissing() *Builder {
	b.allowMissing = true
	return b
}

// WithChangeEvents enables file-system event notifications on the file
// layer, in addition to polling.
func (b *Builder) WithChangeEvents() *Builder {
	b.changeEvents = true
	return b
}

// WithFileSystem overrides the file layer's file system, mainly for tests.
func (b *Builder) WithFileSystem(fs FileSystem) *Builder {
	b.fs = fs
	return b
}

// WithLogger sets the logger shared by the file layer and the reader.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAccessReporter installs an access reporter on the built reader.
func (b *Builder) WithAccessReporter(rep AccessReporter) *Builder {
	b.reporter = rep
	return b
}

// WithValidator runs fn against the initial chain snapshot during Build;
// a validation error fails the build and tears down anything constructed.
func (b *Builder) WithValidator(fn func(*SnapshotReader) error) *Builder {
	b.validator = fn
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build constructs the providers, composes them in precedence order, and
// wraps the chain in a Reader that owns the closeable layers.
func (b *Builder) Build() (*Reader, error) {
	if b.err != nil {
		return nil, b.err
	}

	var chain []Provider
	var closers []io.Closer

	fail := func(err error) (*Reader, error) {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}

	if b.hasArgs {
		cli, err := NewCLIProvider("cli", b.args)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cli)
	}

	if b.hasEnv {
		chain = append(chain, NewEnvProvider(EnvOptions{Prefix: b.envPrefix}))
	}

	chain = append(chain, b.custom...)

	if b.filePath != "" {
		opts := DefaultReloadingFileOptions()
		opts.PollInterval = b.pollInterval
		opts.AllowMissing = b.allowMissing
		opts.ChangeEvents = b.changeEvents
		if b.fs != nil {
			opts.FileSystem = b.fs
		}
		opts.Logger = b.logger
		fp, err := NewFileProvider(b.filePath, opts)
		if err != nil {
			return fail(err)
		}
		chain = append(chain, fp)
		closers = append(closers, fp)
	}

	if b.defaults != nil {
		values := make(map[string]Value, len(b.defaults))
		for path, raw := range b.defaults {
			if v, ok := raw.(Value); ok {
				values[path] = v
				continue
			}
			v, err := toValue(normalizeDefault(raw))
			if err != nil {
				return fail(fmt.Errorf("default %q: %w", path, err))
			}
			values[path] = v
		}
		chain = append(chain, NewMemoryProvider("defaults", values))
	}

	var opts []ReaderOption
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.reporter != nil {
		opts = append(opts, WithAccessReporter(b.reporter))
	}

	reader := NewReader(NewMultiProvider(chain...), opts...)
	reader.closers = closers

	if b.validator != nil {
		if err := reader.WithSnapshot(b.validator); err != nil {
			return fail(fmt.Errorf("validation: %w", err))
		}
	}
	return reader, nil
}

// normalizeDefault widens the numeric types callers naturally write in
// literal default maps onto the Value union's representations.
func normalizeDefault(raw any) any {
	switch v := raw.(type) {
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case time.Duration:
		return int64(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	case []bool:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x
		}
		return out
	default:
		return raw
	}
}
