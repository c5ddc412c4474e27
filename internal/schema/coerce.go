package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// coerce validates a supplied value against its declared type and converts
// it to the canonical native representation. Numeric and boolean fields are
// validated on read rather than silently accepted as any type.
func coerce(value any, spec FieldSpec, path string) (any, error) {
	switch typeName(spec.Type) {
	case TypeInt:
		return coerceInt(value, path)
	case TypeFloat:
		return coerceFloat(value, path)
	case TypeBool:
		return coerceBool(value, path)
	case TypeList:
		return coerceList(value, spec, path)
	case TypeDict:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, &TypeMismatchError{Path: path, Want: TypeDict, Got: value}
		}
		return m, nil
	default:
		return coerceStr(value, path)
	}
}

func coerceInt(value any, path string) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
		// Template strings are coerced after rendering, not here.
		if strings.Contains(v, "{{") {
			return v, nil
		}
	}
	return nil, &TypeMismatchError{Path: path, Want: TypeInt, Got: value}
}

func coerceFloat(value any, path string) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		if strings.Contains(v, "{{") {
			return v, nil
		}
	}
	return nil, &TypeMismatchError{Path: path, Want: TypeFloat, Got: value}
}

func coerceBool(value any, path string) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		if strings.Contains(v, "{{") {
			return v, nil
		}
	}
	return nil, &TypeMismatchError{Path: path, Want: TypeBool, Got: value}
}

func coerceStr(value any, path string) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		return nil, &TypeMismatchError{Path: path, Want: TypeStr, Got: value}
	}
}

func coerceList(value any, spec FieldSpec, path string) (any, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, &TypeMismatchError{Path: path, Want: TypeList, Got: value}
	}

	sub := typeName(spec.Subtype)
	if sub == TypeStr && spec.Subtype == "" {
		// No declared element type: pass elements through untouched.
		return list, nil
	}

	out := make([]any, len(list))
	for i, elem := range list {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		if sub == TypeDict {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, &TypeMismatchError{Path: elemPath, Want: TypeDict, Got: elem}
			}
			out[i] = m
			continue
		}
		coerced, err := coerce(elem, FieldSpec{Type: sub}, elemPath)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

// typeName normalizes a type name; empty means str.
func typeName(t string) string {
	switch t {
	case "", "string", TypeStr:
		return TypeStr
	default:
		return t
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
