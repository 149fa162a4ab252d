// FILE: lixenwraith/layered/reader.go
package layered

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// AccessEvent describes one configuration read as seen by an
// AccessReporter. Secret values are redacted before the event is built,
// so reporters can log events verbatim.
type AccessEvent struct {
	Key      string
	Provider string
	Found    bool
	Value    string
	Err      error
}

// AccessReporter observes configuration reads, typically to audit which
// keys a process actually consumes.
type AccessReporter interface {
	Report(event AccessEvent)
}

// NewLogReporter adapts a slog logger into an AccessReporter.
func NewLogReporter(logger *slog.Logger) AccessReporter {
	return logReporter{logger: logger}
}

type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) Report(ev AccessEvent) {
	if ev.Err != nil {
		r.logger.Warn("config access failed", "key", ev.Key, "provider", ev.Provider, "error", ev.Err)
		return
	}
	r.logger.Debug("config access", "key", ev.Key, "provider", ev.Provider, "found", ev.Found, "value", ev.Value)
}

// Reader is the application-facing facade over a provider chain: typed
// accessors with weak conversions, default variants that never fail,
// fetch variants that refresh the source, and snapshot-scoped reads for
// consistency across multiple keys.
type Reader struct {
	provider Provider
	logger   *slog.Logger
	reporter AccessReporter
	closers  []io.Closer
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the reader's diagnostic logger.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) { r.logger = logger }
}

// WithAccessReporter installs an access reporter invoked on every read.
func WithAccessReporter(rep AccessReporter) ReaderOption {
	return func(r *Reader) { r.reporter = rep }
}

// NewReader wraps a provider, typically a MultiProvider chain.
func NewReader(provider Provider, opts ...ReaderOption) *Reader {
	r := &Reader{
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the underlying provider chain.
func (r *Reader) Provider() Provider { return r.provider }

// Close tears down every closeable provider the reader owns. Readers
// built by hand own nothing; readers built through Builder own the
// providers it constructed.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithSnapshot runs fn against one fixed snapshot of the whole chain, so
// every read inside fn observes the same reload generation.
func (r *Reader) WithSnapshot(fn func(*SnapshotReader) error) error {
	return fn(&SnapshotReader{snap: r.provider.Snapshot(), reader: r})
}

// FetchSnapshotReader refreshes the chain and returns a snapshot-scoped
// reader over the result.
func (r *Reader) FetchSnapshotReader(ctx context.Context) (*SnapshotReader, error) {
	snap, err := r.provider.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &SnapshotReader{snap: snap, reader: r}, nil
}

// Watch streams updates for one dotted path, current value first. The
// stream ends when ctx is cancelled.
func (r *Reader) Watch(ctx context.Context, path string) <-chan Update {
	return r.provider.WatchValue(ctx, ParseKey(path), KindAny)
}

func (r *Reader) report(path string, res LookupResult, err error) {
	if r.reporter == nil {
		return
	}
	ev := AccessEvent{
		Key:      path,
		Provider: r.provider.Name(),
		Err:      err,
	}
	if res.Value != nil {
		ev.Found = true
		ev.Value = res.Value.String()
	}
	r.reporter.Report(ev)
}

func (r *Reader) lookup(path string) (LookupResult, error) {
	res, err := r.provider.Value(ParseKey(path), KindAny)
	r.report(path, res, err)
	return res, err
}

func (r *Reader) fetch(ctx context.Context, path string) (LookupResult, error) {
	res, err := r.provider.FetchValue(ctx, ParseKey(path), KindAny)
	r.report(path, res, err)
	return res, err
}

// String returns the value at path converted to a string.
func (r *Reader) String(path string) (string, error) {
	return getAs(r, path, asString)
}

// StringDefault returns the value at path, or def when absent or
// unconvertible.
func (r *Reader) StringDefault(path, def string) string {
	return getDefault(r, path, def, asString)
}

// FetchString refreshes the source before reading.
func (r *Reader) FetchString(ctx context.Context, path string) (string, error) {
	return fetchAs(ctx, r, path, asString)
}

// Int64 returns the value at path converted to an int64.
func (r *Reader) Int64(path string) (int64, error) {
	return getAs(r, path, asInt64)
}

func (r *Reader) Int64Default(path string, def int64) int64 {
	return getDefault(r, path, def, asInt64)
}

func (r *Reader) FetchInt64(ctx context.Context, path string) (int64, error) {
	return fetchAs(ctx, r, path, asInt64)
}

// Float64 returns the value at path converted to a float64.
func (r *Reader) Float64(path string) (float64, error) {
	return getAs(r, path, asFloat64)
}

func (r *Reader) Float64Default(path string, def float64) float64 {
	return getDefault(r, path, def, asFloat64)
}

func (r *Reader) FetchFloat64(ctx context.Context, path string) (float64, error) {
	return fetchAs(ctx, r, path, asFloat64)
}

// Bool returns the value at path converted to a bool.
func (r *Reader) Bool(path string) (bool, error) {
	return getAs(r, path, asBool)
}

func (r *Reader) BoolDefault(path string, def bool) bool {
	return getDefault(r, path, def, asBool)
}

func (r *Reader) FetchBool(ctx context.Context, path string) (bool, error) {
	return fetchAs(ctx, r, path, asBool)
}

// Bytes returns the value at path as a byte slice.
func (r *Reader) Bytes(path string) ([]byte, error) {
	return getAs(r, path, asBytes)
}

func (r *Reader) BytesDefault(path string, def []byte) []byte {
	return getDefault(r, path, def, asBytes)
}

func (r *Reader) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	return fetchAs(ctx, r, path, asBytes)
}

// Duration returns the value at path converted to a time.Duration.
// Strings go through time.ParseDuration; bare integers are nanoseconds.
func (r *Reader) Duration(path string) (time.Duration, error) {
	return getAs(r, path, asDuration)
}

func (r *Reader) DurationDefault(path string, def time.Duration) time.Duration {
	return getDefault(r, path, def, asDuration)
}

func (r *Reader) FetchDuration(ctx context.Context, path string) (time.Duration, error) {
	return fetchAs(ctx, r, path, asDuration)
}

// StringSlice returns the value at path converted to a string slice.
// A scalar string splits on commas.
func (r *Reader) StringSlice(path string) ([]string, error) {
	return getAs(r, path, asStringSlice)
}

func (r *Reader) StringSliceDefault(path string, def []string) []string {
	return getDefault(r, path, def, asStringSlice)
}

func (r *Reader) FetchStringSlice(ctx context.Context, path string) ([]string, error) {
	return fetchAs(ctx, r, path, asStringSlice)
}

// Int64Slice returns the value at path converted to an int64 slice.
func (r *Reader) Int64Slice(path string) ([]int64, error) {
	return getAs(r, path, asInt64Slice)
}

func (r *Reader) Int64SliceDefault(path string, def []int64) []int64 {
	return getDefault(r, path, def, asInt64Slice)
}

func getAs[T any](r *Reader, path string, conv func(Value) (T, error)) (T, error) {
	var zero T
	res, err := r.lookup(path)
	if err != nil {
		return zero, err
	}
	if res.Value == nil {
		return zero, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
	}
	return convAt(path, *res.Value, conv)
}

func getDefault[T any](r *Reader, path string, def T, conv func(Value) (T, error)) T {
	res, err := r.lookup(path)
	if err != nil || res.Value == nil {
		return def
	}
	v, err := conv(*res.Value)
	if err != nil {
		return def
	}
	return v
}

func fetchAs[T any](ctx context.Context, r *Reader, path string, conv func(Value) (T, error)) (T, error) {
	var zero T
	res, err := r.fetch(ctx, path)
	if err != nil {
		return zero, err
	}
	if res.Value == nil {
		return zero, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
	}
	return convAt(path, *res.Value, conv)
}

func convAt[T any](path string, v Value, conv func(Value) (T, error)) (T, error) {
	out, err := conv(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("key %q: %w", path, err)
	}
	return out, nil
}

// SnapshotReader offers the same typed accessors as Reader against one
// fixed snapshot.
type SnapshotReader struct {
	snap   Snapshot
	reader *Reader
}

// NewSnapshotReader wraps an already-captured snapshot.
func NewSnapshotReader(snap Snapshot) *SnapshotReader {
	return &SnapshotReader{snap: snap}
}

func (s *SnapshotReader) lookup(path string) (LookupResult, error) {
	res, err := s.snap.Value(ParseKey(path), KindAny)
	if s.reader != nil {
		s.reader.report(path, res, err)
	}
	return res, err
}

func (s *SnapshotReader) String(path string) (string, error) {
	return snapAs(s, path, asString)
}

func (s *SnapshotReader) StringDefault(path, def string) string {
	return snapDefault(s, path, def, asString)
}

func (s *SnapshotReader) Int64(path string) (int64, error) {
	return snapAs(s, path, asInt64)
}

func (s *SnapshotReader) Int64Default(path string, def int64) int64 {
	return snapDefault(s, path, def, asInt64)
}

func (s *SnapshotReader) Float64(path string) (float64, error) {
	return snapAs(s, path, asFloat64)
}

func (s *SnapshotReader) Float64Default(path string, def float64) float64 {
	return snapDefault(s, path, def, asFloat64)
}

func (s *SnapshotReader) Bool(path string) (bool, error) {
	return snapAs(s, path, asBool)
}

func (s *SnapshotReader) BoolDefault(path string, def bool) bool {
	return snapDefault(s, path, def, asBool)
}

func (s *SnapshotReader) Bytes(path string) ([]byte, error) {
	return snapAs(s, path, asBytes)
}

func (s *SnapshotReader) Duration(path string) (time.Duration, error) {
	return snapAs(s, path, asDuration)
}

func (s *SnapshotReader) DurationDefault(path string, def time.Duration) time.Duration {
	return snapDefault(s, path, def, asDuration)
}

func (s *SnapshotReader) StringSlice(path string) ([]string, error) {
	return snapAs(s, path, asStringSlice)
}

func snapAs[T any](s *SnapshotReader, path string, conv func(Value) (T, error)) (T, error) {
	var zero T
	res, err := s.lookup(path)
	if err != nil {
		return zero, err
	}
	if res.Value == nil {
		return zero, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
	}
	return convAt(path, *res.Value, conv)
}

func snapDefault[T any](s *SnapshotReader, path string, def T, conv func(Value) (T, error)) T {
	res, err := s.lookup(path)
	if err != nil || res.Value == nil {
		return def
	}
	v, err := conv(*res.Value)
	if err != nil {
		return def
	}
	return v
}

// Weak conversions between stored kinds and requested Go types. Sources
// differ in how strictly they type values (TOML is typed, env vars are
// strings), so accessors convert where the conversion is unambiguous and
// fail with ErrTypeMismatch where it is not.

func asString(v Value) (string, error) {
	switch p := v.payload.(type) {
	case string:
		return p, nil
	case int64:
		return strconv.FormatInt(p, 10), nil
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(p), nil
	case []byte:
		return string(p), nil
	default:
		return "", fmt.Errorf("%w: cannot convert %s to string", ErrTypeMismatch, v.kind)
	}
}

func asInt64(v Value) (int64, error) {
	switch p := v.payload.(type) {
	case int64:
		return p, nil
	case float64:
		if p != float64(int64(p)) {
			return 0, fmt.Errorf("%w: float %v is not integral", ErrTypeMismatch, p)
		}
		return int64(p), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot parse %q as int", ErrTypeMismatch, p)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %s to int", ErrTypeMismatch, v.kind)
	}
}

func asFloat64(v Value) (float64, error) {
	switch p := v.payload.(type) {
	case float64:
		return p, nil
	case int64:
		return float64(p), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot parse %q as float", ErrTypeMismatch, p)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %s to float", ErrTypeMismatch, v.kind)
	}
}

func asBool(v Value) (bool, error) {
	switch p := v.payload.(type) {
	case bool:
		return p, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(p))
		if err != nil {
			return false, fmt.Errorf("%w: cannot parse %q as bool", ErrTypeMismatch, p)
		}
		return b, nil
	case int64:
		switch p {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, fmt.Errorf("%w: int %d is not a bool", ErrTypeMismatch, p)
	default:
		return false, fmt.Errorf("%w: cannot convert %s to bool", ErrTypeMismatch, v.kind)
	}
}

func asBytes(v Value) ([]byte, error) {
	switch p := v.payload.(type) {
	case []byte:
		return append([]byte(nil), p...), nil
	case string:
		return []byte(p), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to bytes", ErrTypeMismatch, v.kind)
	}
}

func asDuration(v Value) (time.Duration, error) {
	switch p := v.payload.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("%w: cannot parse %q as duration", ErrTypeMismatch, p)
		}
		return d, nil
	case int64:
		return time.Duration(p), nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %s to duration", ErrTypeMismatch, v.kind)
	}
}

func asInt64Slice(v Value) ([]int64, error) {
	switch p := v.payload.(type) {
	case []int64:
		return append([]int64(nil), p...), nil
	case []string:
		out := make([]int64, len(p))
		for i, s := range p {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: cannot parse %q as int", ErrTypeMismatch, s)
			}
			out[i] = n
		}
		return out, nil
	case string:
		parts, err := asStringSlice(v)
		if err != nil {
			return nil, err
		}
		return asInt64Slice(StringArrayValue(parts))
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to []int", ErrTypeMismatch, v.kind)
	}
}

func asStringSlice(v Value) ([]string, error) {
	switch p := v.payload.(type) {
	case []string:
		return append([]string(nil), p...), nil
	case string:
		if strings.TrimSpace(p) == "" {
			return nil, nil
		}
		parts := strings.Split(p, ",")
		out := make([]string, len(parts))
		for i, s := range parts {
			out[i] = strings.TrimSpace(s)
		}
		return out, nil
	case []int64:
		out := make([]string, len(p))
		for i, n := range p {
			out[i] = strconv.FormatInt(n, 10)
		}
		return out, nil
	case []float64:
		out := make([]string, len(p))
		for i, f := range p {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return out, nil
	case []bool:
		out := make([]string, len(p))
		for i, b := range p {
			out[i] = strconv.FormatBool(b)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to []string", ErrTypeMismatch, v.kind)
	}
}
