// FILE: lixenwraith/layered/file.go
package layered

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// NewJSONFileProvider builds a reloading provider over a JSON document.
// Nested objects flatten to dot paths; numbers keep integer precision
// where possible.
func NewJSONFileProvider(path string, opts ReloadingFileOptions) (*ReloadingFileProvider, error) {
	if opts.Name == "" {
		opts.Name = "json:" + path
	}
	return NewReloadingFileProvider(path, ParseJSON, opts)
}

// NewYAMLFileProvider builds a reloading provider over a YAML document.
func NewYAMLFileProvider(path string, opts ReloadingFileOptions) (*ReloadingFileProvider, error) {
	if opts.Name == "" {
		opts.Name = "yaml:" + path
	}
	return NewReloadingFileProvider(path, ParseYAML, opts)
}

// NewTOMLFileProvider builds a reloading provider over a TOML document.
func NewTOMLFileProvider(path string, opts ReloadingFileOptions) (*ReloadingFileProvider, error) {
	if opts.Name == "" {
		opts.Name = "toml:" + path
	}
	return NewReloadingFileProvider(path, ParseTOML, opts)
}

// NewFileProvider picks the parser from the file extension, falling back
// to content sniffing for unknown extensions.
func NewFileProvider(path string, opts ReloadingFileOptions) (*ReloadingFileProvider, error) {
	if opts.Name == "" {
		opts.Name = "file:" + path
	}
	switch detectFileFormat(path) {
	case "json":
		return NewReloadingFileProvider(path, ParseJSON, opts)
	case "yaml":
		return NewReloadingFileProvider(path, ParseYAML, opts)
	case "toml":
		return NewReloadingFileProvider(path, ParseTOML, opts)
	default:
		return NewReloadingFileProvider(path, parseSniffed, opts)
	}
}

// ParseJSON flattens a JSON object into snapshot values. UseNumber
// preserves integer precision through the decode.
func ParseJSON(data []byte) (map[string]Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	nested := make(map[string]any)
	if err := decoder.Decode(&nested); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return valuesFromNested(nested)
}

// ParseYAML flattens a YAML document into snapshot values.
func ParseYAML(data []byte) (map[string]Value, error) {
	nested := make(map[string]any)
	if err := yaml.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return valuesFromNested(nested)
}

// ParseTOML flattens a TOML document into snapshot values.
func ParseTOML(data []byte) (map[string]Value, error) {
	nested := make(map[string]any)
	if err := toml.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return valuesFromNested(nested)
}

// parseSniffed tries JSON first (strict), then YAML (a JSON superset),
// then TOML.
func parseSniffed(data []byte) (map[string]Value, error) {
	if v, err := ParseJSON(data); err == nil {
		return v, nil
	}
	if v, err := ParseYAML(data); err == nil {
		return v, nil
	}
	if v, err := ParseTOML(data); err == nil {
		return v, nil
	}
	return nil, fmt.Errorf("unable to determine configuration format")
}

// detectFileFormat determines format from the file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml", ".tml":
		return "toml"
	default:
		return ""
	}
}

// valuesFromNested flattens a decoded document and converts every leaf
// into a typed Value. Null leaves are dropped: a null key is an absent
// key.
func valuesFromNested(nested map[string]any) (map[string]Value, error) {
	flat := flattenMap(nested, "")
	out := make(map[string]Value, len(flat))
	for path, raw := range flat {
		if raw == nil {
			continue
		}
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", path, err)
		}
		out[path] = v
	}
	return out, nil
}

// toValue maps a decoded leaf onto the Value union. Arrays must be
// homogeneous; mixed int/float arrays promote to float. An empty array
// carries no element type and coerces to an empty string array, so a
// typed array lookup on it reports a mismatch.
func toValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case uint64:
		return IntValue(int64(v)), nil
	case float32:
		return FloatValue(float64(v)), nil
	case float64:
		return FloatValue(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("unparsable number %q", v.String())
		}
		return FloatValue(f), nil
	case []byte:
		return BytesValue(v), nil
	case []any:
		return arrayValue(v)
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func arrayValue(items []any) (Value, error) {
	elems := make([]Value, 0, len(items))
	hasFloat := false
	for _, item := range items {
		v, err := toValue(item)
		if err != nil {
			return Value{}, err
		}
		switch v.kind {
		case KindFloat:
			hasFloat = true
		case KindString, KindInt, KindBool, KindBytes:
		default:
			return Value{}, fmt.Errorf("unsupported array element kind %s", v.kind)
		}
		elems = append(elems, v)
	}
	if len(elems) == 0 {
		return StringArrayValue(nil), nil
	}

	first := elems[0].kind
	numeric := first == KindInt || first == KindFloat
	for _, e := range elems {
		eNumeric := e.kind == KindInt || e.kind == KindFloat
		if e.kind != first && !(numeric && eNumeric) {
			return Value{}, fmt.Errorf("heterogeneous array: %s and %s", first, e.kind)
		}
	}

	switch {
	case numeric && hasFloat:
		out := make([]float64, len(elems))
		for i, e := range elems {
			if e.kind == KindInt {
				out[i] = float64(e.payload.(int64))
			} else {
				out[i] = e.payload.(float64)
			}
		}
		return FloatArrayValue(out), nil
	case first == KindInt:
		out := make([]int64, len(elems))
		for i, e := range elems {
			out[i] = e.payload.(int64)
		}
		return IntArrayValue(out), nil
	case first == KindString:
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = e.payload.(string)
		}
		return StringArrayValue(out), nil
	case first == KindBool:
		out := make([]bool, len(elems))
		for i, e := range elems {
			out[i] = e.payload.(bool)
		}
		return BoolArrayValue(out), nil
	case first == KindBytes:
		out := make([][]byte, len(elems))
		for i, e := range elems {
			out[i] = e.payload.([]byte)
		}
		return BytesArrayValue(out), nil
	default:
		return Value{}, fmt.Errorf("unsupported array element kind %s", first)
	}
}
