package style

import (
	"fmt"
	"sort"
	"strings"

	"pagecraft/internal/component"
)

// GradientToCSS converts a gradient descriptor object {type, stops[], angle}
// into a single CSS gradient string. Stops are sorted by position before
// joining. Returns ("", false) when the value is not a gradient object.
func GradientToCSS(v any) (string, bool) {
	obj, ok := component.AsMap(v)
	if !ok {
		return "", false
	}
	stopsRaw, ok := component.AsSlice(obj["stops"])
	if !ok || len(stopsRaw) == 0 {
		return "", false
	}

	type stop struct {
		color    string
		position float64
	}
	stops := make([]stop, 0, len(stopsRaw))
	for _, raw := range stopsRaw {
		sm, ok := component.AsMap(raw)
		if !ok {
			continue
		}
		color := component.StringField(sm, "color")
		if color == "" {
			continue
		}
		pos, _ := component.AsFloat(sm["position"])
		stops = append(stops, stop{color: color, position: pos})
	}
	if len(stops) == 0 {
		return "", false
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].position < stops[j].position })

	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = fmt.Sprintf("%s %s%%", s.color, component.FormatNumber(s.position))
	}
	stopList := strings.Join(parts, ", ")

	kind := strings.ToLower(component.StringField(obj, "type"))
	angle, hasAngle := component.AsFloat(obj["angle"])
	if !hasAngle {
		angle = 180
	}

	switch kind {
	case "radial":
		return fmt.Sprintf("radial-gradient(circle, %s)", stopList), true
	case "conic":
		return fmt.Sprintf("conic-gradient(from %sdeg, %s)", component.FormatNumber(angle), stopList), true
	default: // linear or unspecified
		return fmt.Sprintf("linear-gradient(%sdeg, %s)", component.FormatNumber(angle), stopList), true
	}
}

// IsGradientString reports whether s already looks like a CSS gradient string,
// so an already-flattened value is passed through unchanged.
func IsGradientString(s string) bool {
	return strings.HasPrefix(s, "linear-gradient(") ||
		strings.HasPrefix(s, "radial-gradient(") ||
		strings.HasPrefix(s, "conic-gradient(")
}
