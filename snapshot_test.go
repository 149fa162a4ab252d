// FILE: lixenwraith/layered/snapshot_test.go
package layered

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recv pulls the next element from a watch channel or fails the test.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "watch channel closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch element")
		panic("unreachable")
	}
}

// recvClosed asserts the channel closes without further elements.
func recvClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch channel to close")
		}
	}
}

// assertSilent asserts no element arrives within a short grace window.
func assertSilent[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected watch element: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMapSnapshot(t *testing.T) {
	snap := newMapSnapshot("test", EncodeDotted, map[string]Value{
		"server.port": IntValue(8080),
		"server.host": StringValue("localhost"),
	})

	t.Run("Hit", func(t *testing.T) {
		res, err := snap.Value(NewKey("server", "port"), KindInt)
		require.NoError(t, err)
		require.NotNil(t, res.Value)
		assert.Equal(t, "server.port", res.EncodedKey)
		assert.Equal(t, int64(8080), res.Value.Any())
	})

	t.Run("AbsenceIsNotAnError", func(t *testing.T) {
		res, err := snap.Value(NewKey("server", "missing"), KindInt)
		require.NoError(t, err)
		assert.Nil(t, res.Value)
		assert.Equal(t, "server.missing", res.EncodedKey)
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		_, err := snap.Value(NewKey("server", "port"), KindString)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("AnyBypassesTypeCheck", func(t *testing.T) {
		res, err := snap.Value(NewKey("server", "port"), KindAny)
		require.NoError(t, err)
		require.NotNil(t, res.Value)
	})

	t.Run("ValuesIsACopy", func(t *testing.T) {
		m := snap.Values()
		m["server.port"] = IntValue(9999)
		res, err := snap.Value(NewKey("server", "port"), KindInt)
		require.NoError(t, err)
		assert.Equal(t, int64(8080), res.Value.Any())
	})
}

func TestStaticProviderWatch(t *testing.T) {
	p := &staticProvider{
		name: "static",
		snap: newMapSnapshot("static", EncodeDotted, map[string]Value{"a": IntValue(1)}),
	}

	t.Run("EmitsCurrentOnceThenSilent", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := p.WatchValue(ctx, NewKey("a"), KindAny)
		first := recv(t, ch)
		require.NoError(t, first.Err)
		require.NotNil(t, first.Result.Value)
		assert.Equal(t, int64(1), first.Result.Value.Any())
		assertSilent(t, ch)

		cancel()
		recvClosed(t, ch)
	})

	t.Run("AbsentKeyStillEmitsFirst", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := p.WatchValue(ctx, NewKey("missing"), KindAny)
		first := recv(t, ch)
		require.NoError(t, first.Err)
		assert.Nil(t, first.Result.Value)
	})

	t.Run("SnapshotWatch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := p.WatchSnapshot(ctx)
		snap := recv(t, ch)
		assert.Equal(t, "static", snap.ProviderName())
		cancel()
		recvClosed(t, ch)
	})
}

func TestUpdateEqual(t *testing.T) {
	one := IntValue(1)
	a := Update{Result: LookupResult{EncodedKey: "a", Value: &one}}
	b := Update{Result: LookupResult{EncodedKey: "a", Value: &one}}
	assert.True(t, a.Equal(b))

	// Failed updates never compare equal, even to themselves.
	failed := Update{Err: assert.AnError}
	assert.False(t, failed.Equal(failed))
	assert.False(t, failed.Equal(a))

	absent := Update{Result: LookupResult{EncodedKey: "a"}}
	assert.False(t, absent.Equal(a))
	assert.True(t, absent.Equal(Update{Result: LookupResult{EncodedKey: "a"}}))
}
