// FILE: lixenwraith/layered/decode.go
package layered

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ScanTagName is the struct tag consulted when scanning configuration
// into structs.
const ScanTagName = "config"

// Scan decodes the subtree rooted at basePath into target, which must be
// a pointer to a struct or map. Field names map through the "config"
// struct tag. Conversion is weakly typed: strings parse into numbers,
// bools, durations, and slices where the shape allows. An empty basePath
// scans the whole tree.
func (r *Reader) Scan(basePath string, target any) error {
	return scanSnapshot(r.provider.Snapshot(), basePath, target)
}

// Scan decodes from the captured snapshot, so multi-field structs load
// from one reload generation.
func (s *SnapshotReader) Scan(basePath string, target any) error {
	return scanSnapshot(s.snap, basePath, target)
}

func scanSnapshot(snap Snapshot, basePath string, target any) error {
	nested := make(map[string]any)
	for path, v := range snap.Values() {
		setNestedValue(nested, path, v.Any())
	}

	source := any(nested)
	if basePath != "" {
		sub, err := navigateToPath(nested, basePath)
		if err != nil {
			return err
		}
		source = sub
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          ScanTagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := decoder.Decode(source); err != nil {
		return fmt.Errorf("scan %q: %w", basePath, err)
	}
	return nil
}

// navigateToPath descends a nested map along a dotted path.
func navigateToPath(nested map[string]any, path string) (any, error) {
	current := any(nested)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
		}
		next, exists := m[segment]
		if !exists {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
		}
		current = next
	}
	return current, nil
}
