package vars

import (
	"fmt"
	"regexp"
	"sort"
)

// varPattern matches ${varname} placeholders.
var varPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ReplaceVars performs single-pass substitution of ${var} references in a raw
// text blob, using only top-level scalar variables. It operates on raw
// strings BEFORE YAML parsing, so references can appear in positions a
// structured parser would reject, such as inside keys.
//
// References to undefined variables (and to non-scalar values) are left
// intact; the template engine resolves or rejects them later.
func (s *Set) ReplaceVars(text string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := varPattern.FindStringSubmatch(match)[1]

		value, ok := s.values[key]
		if !ok {
			return match
		}
		if !isScalar(value) {
			return match
		}
		return toString(value)
	})
}

// isScalar reports whether a value can be substituted into raw text.
func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toString converts a scalar value to its string representation.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// sortedKeys returns the keys of m in sorted order, so that Load produces a
// deterministic snapshot order for map sources.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
