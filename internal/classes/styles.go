package classes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// styleProps is the allow-list of props that belong in a class. Semantic props
// (content, src, href) and bookkeeping props stay on the component.
var styleProps = map[string]bool{
	"backgroundColor":    true,
	"backgroundGradient": true,
	"backgroundImage":    true,
	"backgroundSize":     true,
	"backgroundPosition": true,
	"color":              true,
	"fontSize":           true,
	"fontWeight":         true,
	"fontFamily":         true,
	"fontStyle":          true,
	"lineHeight":         true,
	"letterSpacing":      true,
	"textAlign":          true,
	"textTransform":      true,
	"textDecoration":     true,
	"display":            true,
	"flexDirection":      true,
	"justifyContent":     true,
	"alignItems":         true,
	"flexWrap":           true,
	"gap":                true,
	"rowGap":             true,
	"columnGap":          true,
	"gridTemplateColumns": true,
	"padding":            true,
	"margin":             true,
	"width":              true,
	"maxWidth":           true,
	"minWidth":           true,
	"height":             true,
	"minHeight":          true,
	"maxHeight":          true,
	"border":             true,
	"borderRadius":       true,
	"boxShadow":          true,
	"opacity":            true,
	"filter":             true,
	"transform":          true,
	"transition":         true,
	"cursor":             true,
	"overflow":           true,
	"objectFit":          true,
}

// ExtractStyles returns the allow-listed style subset of a component's props.
// Nil values are skipped so two components differing only in explicit nils
// hash identically.
func ExtractStyles(props map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range props {
		if value == nil {
			continue
		}
		if styleProps[key] {
			out[key] = value
		}
	}
	return out
}

// HashStyles computes a stable fingerprint of a style map: keys sorted, values
// JSON-encoded, sha256 over the concatenation. Equal style maps always produce
// equal hashes regardless of map iteration order.
func HashStyles(styles map[string]any) string {
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		encoded, err := json.Marshal(canonicalValue(styles[k]))
		if err != nil {
			continue
		}
		h.Write(encoded)
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalValue rewrites nested maps as sorted key/value pair lists so that
// json.Marshal output is deterministic at every depth.
func canonicalValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			pairs = append(pairs, k, canonicalValue(val[k]))
		}
		return pairs
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalValue(item)
		}
		return out
	default:
		return val
	}
}
