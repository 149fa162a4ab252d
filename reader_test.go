// FILE: lixenwraith/layered/reader_test.go
package layered

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter captures access events for inspection.
type recordingReporter struct {
	mu     sync.Mutex
	events []AccessEvent
}

func (r *recordingReporter) Report(ev AccessEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) all() []AccessEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AccessEvent(nil), r.events...)
}

func testReader(opts ...ReaderOption) *Reader {
	return NewReader(NewMemoryProvider("mem", map[string]Value{
		"host":     StringValue("localhost"),
		"port":     IntValue(8080),
		"rate":     FloatValue(0.5),
		"debug":    BoolValue(true),
		"timeout":  StringValue("250ms"),
		"tags":     StringArrayValue([]string{"a", "b"}),
		"csv":      StringValue("x, y, z"),
		"ints":     IntArrayValue([]int64{1, 2, 3}),
		"csvints":  StringValue("1, 2, 3"),
		"password": StringValue("hunter2").AsSecret(),
	}), opts...)
}

func TestReaderAccessors(t *testing.T) {
	r := testReader()

	t.Run("TypedGets", func(t *testing.T) {
		host, err := r.String("host")
		require.NoError(t, err)
		assert.Equal(t, "localhost", host)

		port, err := r.Int64("port")
		require.NoError(t, err)
		assert.Equal(t, int64(8080), port)

		rate, err := r.Float64("rate")
		require.NoError(t, err)
		assert.Equal(t, 0.5, rate)

		debug, err := r.Bool("debug")
		require.NoError(t, err)
		assert.True(t, debug)

		timeout, err := r.Duration("timeout")
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, timeout)

		tags, err := r.StringSlice("tags")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)
	})

	t.Run("WeakConversions", func(t *testing.T) {
		// int renders as string, string splits as slice.
		s, err := r.String("port")
		require.NoError(t, err)
		assert.Equal(t, "8080", s)

		f, err := r.Float64("port")
		require.NoError(t, err)
		assert.Equal(t, 8080.0, f)

		parts, err := r.StringSlice("csv")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, parts)

		b, err := r.Bytes("host")
		require.NoError(t, err)
		assert.Equal(t, []byte("localhost"), b)

		ints, err := r.Int64Slice("ints")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ints)

		ints, err = r.Int64Slice("csvints")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ints)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := r.String("nope")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("UnconvertibleValue", func(t *testing.T) {
		_, err := r.Int64("host")
		require.ErrorIs(t, err, ErrTypeMismatch)
		_, err = r.Duration("rate")
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("Defaults", func(t *testing.T) {
		assert.Equal(t, "localhost", r.StringDefault("host", "fallback"))
		assert.Equal(t, "fallback", r.StringDefault("nope", "fallback"))
		assert.Equal(t, int64(7), r.Int64Default("host", 7))
		assert.Equal(t, time.Minute, r.DurationDefault("nope", time.Minute))
		assert.Equal(t, true, r.BoolDefault("nope", true))
	})

	t.Run("FetchVariants", func(t *testing.T) {
		ctx := context.Background()
		port, err := r.FetchInt64(ctx, "port")
		require.NoError(t, err)
		assert.Equal(t, int64(8080), port)

		_, err = r.FetchString(ctx, "nope")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestReaderSnapshotScope(t *testing.T) {
	mem := NewMemoryProvider("mem", map[string]Value{"a": IntValue(1), "b": IntValue(1)})
	r := NewReader(mem)

	err := r.WithSnapshot(func(s *SnapshotReader) error {
		a, err := s.Int64("a")
		require.NoError(t, err)

		// A concurrent mutation must not be visible inside the scope.
		mem.Set(NewKey("b"), IntValue(99))
		b, err := s.Int64("b")
		require.NoError(t, err)

		assert.Equal(t, a, b)
		return nil
	})
	require.NoError(t, err)

	b, err := r.Int64("b")
	require.NoError(t, err)
	assert.Equal(t, int64(99), b)
}

func TestReaderWatch(t *testing.T) {
	mem := NewMemoryProvider("mem", map[string]Value{"a": IntValue(1)})
	r := NewReader(NewMultiProvider(mem))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := r.Watch(ctx, "a")
	first := recv(t, ch)
	require.NoError(t, first.Err)
	assert.Equal(t, int64(1), first.Result.Value.Any())

	mem.Set(NewKey("a"), IntValue(2))
	second := recv(t, ch)
	assert.Equal(t, int64(2), second.Result.Value.Any())
}

func TestAccessReporter(t *testing.T) {
	rec := &recordingReporter{}
	r := testReader(WithAccessReporter(rec))

	_, err := r.String("host")
	require.NoError(t, err)
	_, err = r.String("nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = r.String("password")
	require.NoError(t, err)

	events := rec.all()
	require.Len(t, events, 3)

	assert.Equal(t, "host", events[0].Key)
	assert.True(t, events[0].Found)
	assert.Equal(t, "localhost", events[0].Value)

	assert.Equal(t, "nope", events[1].Key)
	assert.False(t, events[1].Found)

	// Secrets never reach the reporter in the clear.
	assert.Equal(t, "password", events[2].Key)
	assert.True(t, events[2].Found)
	assert.Equal(t, "<redacted>", events[2].Value)
}
