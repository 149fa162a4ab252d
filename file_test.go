// FILE: lixenwraith/layered/file_test.go
package layered

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsers(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		values, err := ParseJSON([]byte(`{
			"server": {"port": 8080, "host": "localhost"},
			"rate": 0.5,
			"big": 9007199254740993,
			"debug": true,
			"tags": ["a", "b"],
			"nothing": null
		}`))
		require.NoError(t, err)

		assert.Equal(t, int64(8080), values["server.port"].Any())
		assert.Equal(t, "localhost", values["server.host"].Any())
		assert.Equal(t, 0.5, values["rate"].Any())
		// Would lose precision as a float64.
		assert.Equal(t, int64(9007199254740993), values["big"].Any())
		assert.Equal(t, true, values["debug"].Any())
		assert.Equal(t, []string{"a", "b"}, values["tags"].Any())
		assert.NotContains(t, values, "nothing")
	})

	t.Run("YAML", func(t *testing.T) {
		values, err := ParseYAML([]byte(`
server:
  port: 8080
  host: localhost
weights: [1, 2.5]
flags: [true, false]
`))
		require.NoError(t, err)
		assert.Equal(t, int64(8080), values["server.port"].Any())
		assert.Equal(t, "localhost", values["server.host"].Any())
		// Mixed int/float arrays promote to float.
		assert.Equal(t, []float64{1, 2.5}, values["weights"].Any())
		assert.Equal(t, []bool{true, false}, values["flags"].Any())
	})

	t.Run("TOML", func(t *testing.T) {
		values, err := ParseTOML([]byte(`
rate = 0.5
[server]
port = 8080
host = "localhost"
`))
		require.NoError(t, err)
		assert.Equal(t, int64(8080), values["server.port"].Any())
		assert.Equal(t, "localhost", values["server.host"].Any())
		assert.Equal(t, 0.5, values["rate"].Any())
	})

	t.Run("EmptyArrayCoercesToStringArray", func(t *testing.T) {
		values, err := ParseJSON([]byte(`{"empty": []}`))
		require.NoError(t, err)
		require.Contains(t, values, "empty")
		assert.Equal(t, KindStringArray, values["empty"].Kind())
		assert.Empty(t, values["empty"].Any())
	})

	t.Run("HeterogeneousArrayFails", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"mixed": [1, "two"]}`))
		require.Error(t, err)
	})

	t.Run("NestedArrayFails", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"nested": [[1], [2]]}`))
		require.Error(t, err)
	})

	t.Run("EmptyYAMLDocument", func(t *testing.T) {
		values, err := ParseYAML(nil)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("MalformedInput", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{`))
		require.Error(t, err)
		_, err = ParseTOML([]byte(`= broken`))
		require.Error(t, err)
	})
}

func TestDetectFileFormat(t *testing.T) {
	assert.Equal(t, "json", detectFileFormat("/etc/app/config.JSON"))
	assert.Equal(t, "yaml", detectFileFormat("config.yml"))
	assert.Equal(t, "yaml", detectFileFormat("config.yaml"))
	assert.Equal(t, "toml", detectFileFormat("config.toml"))
	assert.Equal(t, "", detectFileFormat("config.conf"))
}

func TestFileProviderOnDisk(t *testing.T) {
	t.Run("TOMLRoundTrip", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8080\n"), 0644))

		p, err := NewFileProvider(path, DefaultReloadingFileOptions())
		require.NoError(t, err)
		t.Cleanup(func() { p.Close() })

		assert.Equal(t, "file:"+path, p.Name())
		res, err := p.Value(ParseKey("server.port"), KindInt)
		require.NoError(t, err)
		require.NotNil(t, res.Value)
		assert.Equal(t, int64(8080), res.Value.Any())
	})

	t.Run("RewritePickedUpByFetch", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"x": 1}`), 0644))

		opts := DefaultReloadingFileOptions()
		opts.PollInterval = time.Hour
		p, err := NewJSONFileProvider(path, opts)
		require.NoError(t, err)
		t.Cleanup(func() { p.Close() })

		require.NoError(t, os.WriteFile(path, []byte(`{"x": 2}`), 0644))
		// Filesystem timestamps can be coarse; nudge it explicitly.
		future := time.Now().Add(time.Second)
		require.NoError(t, os.Chtimes(path, future, future))

		res, err := p.FetchValue(context.Background(), ParseKey("x"), KindInt)
		require.NoError(t, err)
		require.NotNil(t, res.Value)
		assert.Equal(t, int64(2), res.Value.Any())
	})

	t.Run("UnknownExtensionSniffs", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.conf")
		require.NoError(t, os.WriteFile(path, []byte(`{"x": 1}`), 0644))

		p, err := NewFileProvider(path, DefaultReloadingFileOptions())
		require.NoError(t, err)
		t.Cleanup(func() { p.Close() })

		res, err := p.Value(ParseKey("x"), KindInt)
		require.NoError(t, err)
		require.NotNil(t, res.Value)
	})

	t.Run("ChangeEventsKickReload", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.yaml")
		require.NoError(t, os.WriteFile(path, []byte("x: 1\n"), 0644))

		opts := DefaultReloadingFileOptions()
		opts.PollInterval = time.Hour
		opts.ChangeEvents = true
		p, err := NewYAMLFileProvider(path, opts)
		require.NoError(t, err)
		t.Cleanup(func() { p.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ch := p.WatchValue(ctx, ParseKey("x"), KindAny)
		recv(t, ch)

		require.NoError(t, os.WriteFile(path, []byte("x: 2\n"), 0644))
		future := time.Now().Add(time.Second)
		require.NoError(t, os.Chtimes(path, future, future))

		upd := recv(t, ch)
		require.NoError(t, upd.Err)
		assert.Equal(t, int64(2), upd.Result.Value.Any())
	})
}
