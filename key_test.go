// FILE: lixenwraith/layered/key_test.go
package layered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestKey(t *testing.T) {
	t.Run("ParseDropsEmptySegments", func(t *testing.T) {
		assert.True(t, ParseKey("a..b").Equal(ParseKey("a.b")))
		assert.True(t, ParseKey(".a.b.").Equal(NewKey("a", "b")))
		assert.True(t, ParseKey("").IsZero())
	})

	t.Run("Equality", func(t *testing.T) {
		assert.True(t, NewKey("http", "timeout").Equal(NewKey("http", "timeout")))
		assert.False(t, NewKey("http", "timeout").Equal(NewKey("timeout", "http")))
		assert.False(t, NewKey("a").Equal(NewKey("a", "b")))

		withCtx := NewKey("a").WithContext("region", "eu")
		assert.False(t, withCtx.Equal(NewKey("a")))
		assert.True(t, withCtx.Equal(NewKey("a").WithContext("region", "eu")))
		assert.False(t, withCtx.Equal(NewKey("a").WithContext("region", "us")))
	})

	t.Run("ContextOrderIndependent", func(t *testing.T) {
		a := NewKey("k").WithContext("x", "1").WithContext("y", "2")
		b := NewKey("k").WithContext("y", "2").WithContext("x", "1")
		assert.True(t, a.Equal(b))
		assert.Equal(t, a.String(), b.String())
		assert.Equal(t, "k[x=1,y=2]", a.String())
	})

	t.Run("Immutability", func(t *testing.T) {
		k := NewKey("a", "b")
		comps := k.Components()
		comps[0] = "mutated"
		assert.Equal(t, []string{"a", "b"}, k.Components())

		ctx := k.Context()
		ctx["injected"] = "x"
		assert.Empty(t, k.Context())
	})

	t.Run("Encoders", func(t *testing.T) {
		k := NewKey("server", "port")
		assert.Equal(t, "server.port", EncodeDotted(k))
		assert.Equal(t, "APP_SERVER_PORT", EncodeEnv("APP_")(k))
		assert.Equal(t, "SERVER_PORT", EncodeEnv("")(k))
		assert.Equal(t, "server-port", EncodeFlag(k))
	})

	t.Run("ContextNotEncoded", func(t *testing.T) {
		k := NewKey("server", "port").WithContext("region", "eu")
		assert.Equal(t, "server.port", EncodeDotted(k))
	})
}

func TestKeyStringCanonical(t *testing.T) {
	segment := rapid.StringMatching(`[a-z][a-z0-9_]{0,5}`)
	rapid.Check(t, func(t *rapid.T) {
		aComps := rapid.SliceOfN(segment, 1, 4).Draw(t, "a")
		bComps := rapid.SliceOfN(segment, 1, 4).Draw(t, "b")
		aCtx := rapid.MapOfN(segment, segment, 0, 3).Draw(t, "actx")
		bCtx := rapid.MapOfN(segment, segment, 0, 3).Draw(t, "bctx")

		a, b := NewKey(aComps...), NewKey(bComps...)
		for n, v := range aCtx {
			a = a.WithContext(n, v)
		}
		for n, v := range bCtx {
			b = b.WithContext(n, v)
		}

		// The rendering is canonical: string equality must coincide with
		// key equality.
		if a.Equal(b) != (a.String() == b.String()) {
			t.Fatalf("equality mismatch: %q vs %q", a, b)
		}
	})
}
