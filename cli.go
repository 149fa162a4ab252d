// FILE: lixenwraith/layered/cli.go
package layered

import (
	"fmt"
	"strings"
)

// NewCLIProvider tokenizes a command-line argument vector into a static
// provider. Recognized shapes are "--key.path=value", "--key.path value",
// and bare "--flag" (implicitly true); non-flag arguments and a lone "--"
// separator are skipped. Values go through the same eager scalar parsing
// as environment variables.
func NewCLIProvider(name string, args []string) (Provider, error) {
	if name == "" {
		name = "cli"
	}
	parsed, err := parseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	// Native representation is the dash-joined flag form.
	values := make(map[string]Value, len(parsed))
	for path, raw := range parsed {
		values[EncodeFlag(ParseKey(path))] = parseScalar(raw)
	}
	return &staticProvider{
		name: name,
		snap: newMapSnapshot(name, EncodeFlag, values),
	}, nil
}

// parseArgs processes command-line arguments into flat path -> raw string
// pairs.
func parseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// Skip "--" used as a separator
			i++
			continue
		}

		var keyPath string
		var valueStr string

		if strings.Contains(argContent, "=") {
			parts := strings.SplitN(argContent, "=", 2)
			keyPath = parts[0]
			valueStr = parts[1]
			i++
		} else {
			keyPath = argContent
			// Boolean flag when the next arg is another flag or args end
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}

		segments := strings.Split(keyPath, ".")
		for _, segment := range segments {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}

		result[keyPath] = valueStr
	}

	return result, nil
}
