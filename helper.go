// File: lixenwraith/layered/helper.go
package layered

import (
	"strconv"
	"strings"
)

// flattenMap converts a nested map[string]any to a flat map with
// dot-notation paths. Leaves keep their decoded Go types.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path,
// creating intermediate maps as needed. A non-map segment in the way is
// overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		if next, exists := current[segment]; exists {
			if nextMap, isMap := next.(map[string]any); isMap {
				current = nextMap
				continue
			}
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// parseScalar turns a raw source string (env var, CLI argument) into the
// closest typed Value: bool, then int, then float, otherwise string with
// surrounding quotes stripped.
func parseScalar(s string) Value {
	if v, err := strconv.ParseBool(s); err == nil {
		return BoolValue(v)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(v)
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return StringValue(s[1 : len(s)-1])
	}
	return StringValue(s)
}

// isValidKeySegment checks a single path segment: ASCII letters, digits,
// underscores, and dashes, no dots.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
