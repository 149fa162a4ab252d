// FILE: lixenwraith/layered/decode_test.go
package layered

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	mem := NewMemoryProvider("mem", map[string]Value{
		"server.host":    StringValue("localhost"),
		"server.port":    IntValue(8080),
		"server.timeout": StringValue("30s"),
		"server.tags":    StringArrayValue([]string{"a", "b"}),
		"debug":          BoolValue(true),
		"rate":           FloatValue(0.5),
	})
	r := NewReader(mem)

	type ServerConfig struct {
		Host    string        `config:"host"`
		Port    int           `config:"port"`
		Timeout time.Duration `config:"timeout"`
		Tags    []string      `config:"tags"`
	}

	t.Run("Subtree", func(t *testing.T) {
		var cfg ServerConfig
		require.NoError(t, r.Scan("server", &cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	})

	t.Run("WholeTree", func(t *testing.T) {
		var cfg struct {
			Server ServerConfig `config:"server"`
			Debug  bool         `config:"debug"`
			Rate   float64      `config:"rate"`
		}
		require.NoError(t, r.Scan("", &cfg))
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 0.5, cfg.Rate)
	})

	t.Run("WeakTyping", func(t *testing.T) {
		var cfg struct {
			Port string `config:"port"`
		}
		require.NoError(t, r.Scan("server", &cfg))
		assert.Equal(t, "8080", cfg.Port)
	})

	t.Run("MissingBasePath", func(t *testing.T) {
		var cfg ServerConfig
		err := r.Scan("does.not.exist", &cfg)
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("SnapshotScan", func(t *testing.T) {
		err := r.WithSnapshot(func(s *SnapshotReader) error {
			var cfg ServerConfig
			if err := s.Scan("server", &cfg); err != nil {
				return err
			}
			assert.Equal(t, 8080, cfg.Port)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("IntoMap", func(t *testing.T) {
		out := map[string]any{}
		require.NoError(t, r.Scan("server", &out))
		assert.Equal(t, "localhost", out["host"])
	})
}
