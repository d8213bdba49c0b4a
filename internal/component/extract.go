package component

import (
	"fmt"
	"strconv"
)

// =============================================================================
// UNTRUSTED VALUE EXTRACTION UTILITIES
// =============================================================================
//
// Raw steps and style objects arrive as untyped JSON from an LLM. These
// functions provide safe, type-aware extraction that never panics on a type
// mismatch, replacing bare type assertions at every call site. All coercion of
// untrusted input happens through these helpers so the rest of the pipeline
// works with well-typed values.

// AsMap extracts a map from an untrusted value.
// Returns (nil, false) for anything that is not a JSON object.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsSlice extracts a slice from an untrusted value.
func AsSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// AsString extracts a string representation from an untrusted value.
// Numbers are formatted, booleans stringified, nil becomes "".
func AsString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatFloat(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsFloat extracts a float64 from an untrusted value.
// Numeric strings (including px-suffixed ones) are parsed.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		s := val
		if len(s) > 2 && s[len(s)-2:] == "px" {
			s = s[:len(s)-2]
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool extracts a boolean from an untrusted value.
func AsBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		if val == "true" {
			return true, true
		}
		if val == "false" {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// MapField extracts a nested object field from an untrusted map.
func MapField(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	return AsMap(m[key])
}

// StringField extracts a string field from an untrusted map, "" when absent.
func StringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// formatFloat renders a JSON number without a trailing ".0" for integers,
// matching how the upstream service writes them.
func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatNumber is the exported form of formatFloat for other packages.
func FormatNumber(f float64) string {
	return formatFloat(f)
}
