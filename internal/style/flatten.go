// Package style converts loosely-typed AI style descriptors into the flat set
// of renderer-consumable property keys used in component props. The flattener
// is dual-format tolerant: a field that already looks flat passes through
// unchanged, so flattening is idempotent.
package style

import (
	"strconv"
	"strings"

	"pagecraft/internal/component"
	"pagecraft/internal/logging"
)

// Flatten converts a nested, loosely-schematized style description into flat
// renderer props. Output is purely additive: absent input fields never appear
// in the output.
func Flatten(styleObj map[string]any) map[string]any {
	return flatten(styleObj, true)
}

func flatten(styleObj map[string]any, allowResponsive bool) map[string]any {
	out := map[string]any{}
	if styleObj == nil {
		return out
	}

	for key, value := range styleObj {
		if value == nil {
			continue
		}
		switch key {
		case "typography":
			if sub, ok := component.AsMap(value); ok {
				flattenTypography(sub, out)
			}
		case "layout":
			if sub, ok := component.AsMap(value); ok {
				flattenLayout(sub, out)
			}
		case "spacing":
			if sub, ok := component.AsMap(value); ok {
				flattenSpacing(sub, out)
			}
		case "background":
			if sub, ok := component.AsMap(value); ok {
				flattenBackground(sub, out)
			}
		case "border":
			// Either the nested descriptor or an already-normalized border map.
			if sub, ok := component.AsMap(value); ok {
				out["border"] = normalizeBorder(sub)
				if radius, exists := sub["radius"]; exists {
					out["borderRadius"] = normalizeRadius(radius)
				}
			}
		case "effects":
			if sub, ok := component.AsMap(value); ok {
				flattenEffects(sub, out)
			}
		case "position":
			if sub, ok := component.AsMap(value); ok {
				flattenPosition(sub, out)
			}
		case "responsiveOverrides":
			// Recursion must not re-trigger outer responsive processing.
			if !allowResponsive {
				continue
			}
			if sub, ok := component.AsMap(value); ok {
				if tablet, ok := component.AsMap(sub["tablet"]); ok {
					out[component.PropTabletStyles] = flatten(tablet, false)
				}
				if mobile, ok := component.AsMap(sub["mobile"]); ok {
					out[component.PropMobileStyles] = flatten(mobile, false)
				}
			}
		default:
			out[key] = normalizeFlatValue(key, value)
		}
	}

	return out
}

func flattenTypography(sub map[string]any, out map[string]any) {
	for key, value := range sub {
		if value == nil {
			continue
		}
		out[key] = normalizeFlatValue(key, value)
	}
}

func flattenLayout(sub map[string]any, out map[string]any) {
	for key, value := range sub {
		if value == nil {
			continue
		}
		out[key] = normalizeFlatValue(key, value)
	}
}

func flattenSpacing(sub map[string]any, out map[string]any) {
	if v, ok := sub["padding"]; ok && v != nil {
		out["padding"] = ExpandSpacing(v)
	}
	if v, ok := sub["margin"]; ok && v != nil {
		out["margin"] = ExpandSpacing(v)
	}
	if v, ok := sub["gap"]; ok && v != nil {
		out["gap"] = NormalizeGap(v)
	}
}

func flattenBackground(sub map[string]any, out map[string]any) {
	if v := component.StringField(sub, "color"); v != "" {
		out["backgroundColor"] = v // semantic tokens preserved verbatim
	}
	if v, ok := sub["gradient"]; ok && v != nil {
		if css, ok := GradientToCSS(v); ok {
			out["backgroundGradient"] = css
		} else if s, isStr := v.(string); isStr && IsGradientString(s) {
			out["backgroundGradient"] = s
		}
	}
	if v := component.StringField(sub, "image"); v != "" {
		out["backgroundImage"] = v
	}
	if v := component.StringField(sub, "size"); v != "" {
		out["backgroundSize"] = v
	}
	if v := component.StringField(sub, "position"); v != "" {
		out["backgroundPosition"] = v
	}
}

func flattenEffects(sub map[string]any, out map[string]any) {
	if v, ok := sub["shadow"]; ok && v != nil {
		out["boxShadow"] = NormalizeShadow(v)
	}
	if v := component.StringField(sub, "filter"); v != "" {
		out["filter"] = v
	}
	if v, ok := sub["opacity"]; ok && v != nil {
		out["opacity"] = v
	}
	if v := component.StringField(sub, "transform"); v != "" {
		out["transform"] = v
	}
}

func flattenPosition(sub map[string]any, out map[string]any) {
	if v := component.StringField(sub, "type"); v != "" {
		out["position"] = v
	}
	for _, key := range []string{"top", "right", "bottom", "left", "zIndex"} {
		if v, ok := sub[key]; ok && v != nil {
			out[key] = v
		}
	}
}

// normalizeFlatValue applies idempotent per-key normalization to values that
// may arrive either raw or already flattened.
func normalizeFlatValue(key string, value any) any {
	switch key {
	case "fontSize", "letterSpacing":
		return StripPxUnit(value)
	case "gap", "rowGap", "columnGap":
		return NormalizeGap(value)
	case "backgroundGradient":
		if css, ok := GradientToCSS(value); ok {
			logging.StyleDebug("converted gradient object to %q", css)
			return css
		}
		return value
	case "padding", "margin":
		return ExpandSpacing(value)
	case "borderRadius":
		return normalizeRadius(value)
	case "boxShadow":
		return NormalizeShadow(value)
	default:
		return value
	}
}

// StripPxUnit removes a trailing "px" from numeric strings; consumers of
// fontSize/letterSpacing expect bare numeric strings. Numbers are formatted.
// Non-px units (rem, em, %) pass through unchanged.
func StripPxUnit(value any) any {
	switch v := value.(type) {
	case float64:
		return component.FormatNumber(v)
	case int:
		return strconv.Itoa(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasSuffix(trimmed, "px") {
			num := strings.TrimSuffix(trimmed, "px")
			if _, err := strconv.ParseFloat(num, 64); err == nil {
				return num
			}
		}
		return v
	default:
		return value
	}
}

// NormalizeGap coerces gap values to px strings. Bare numbers and numeric
// strings gain a px suffix; values that already carry a unit pass through.
func NormalizeGap(value any) any {
	switch v := value.(type) {
	case float64:
		return component.FormatNumber(v) + "px"
	case int:
		return strconv.Itoa(v) + "px"
	case string:
		trimmed := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return trimmed + "px"
		}
		return v
	default:
		return value
	}
}

// ExpandSpacing expands a scalar padding/margin value into a 4-side object
// with an explicit unit. "auto" is recognized on all four sides. A value that
// is already a 4-side object passes through unchanged.
func ExpandSpacing(value any) any {
	switch v := value.(type) {
	case map[string]any:
		// Already expanded.
		if _, ok := v["top"]; ok {
			return v
		}
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "auto" {
			return map[string]any{"top": "auto", "right": "auto", "bottom": "auto", "left": "auto", "unit": "px"}
		}
		num := strings.TrimSuffix(trimmed, "px")
		if _, err := strconv.ParseFloat(num, 64); err == nil {
			return fourSides(num)
		}
		return v
	case float64:
		return fourSides(component.FormatNumber(v))
	case int:
		return fourSides(strconv.Itoa(v))
	default:
		return value
	}
}

func fourSides(n string) map[string]any {
	return map[string]any{"top": n, "right": n, "bottom": n, "left": n, "unit": "px"}
}

// normalizeBorder converts a border descriptor to the canonical
// {width, style, color, unit, sides} shape with all four sides defaulted true.
func normalizeBorder(sub map[string]any) map[string]any {
	out := map[string]any{
		"width": "1",
		"style": "solid",
		"color": "#000000",
		"unit":  "px",
	}
	if v, ok := sub["width"]; ok && v != nil {
		out["width"] = component.AsString(StripPxUnit(v))
	}
	if v := component.StringField(sub, "style"); v != "" {
		out["style"] = v
	}
	if v := component.StringField(sub, "color"); v != "" {
		out["color"] = v
	}
	if v := component.StringField(sub, "unit"); v != "" {
		out["unit"] = v
	}
	sides := map[string]any{"top": true, "right": true, "bottom": true, "left": true}
	if existing, ok := component.AsMap(sub["sides"]); ok {
		for side := range sides {
			if b, ok := component.AsBool(existing[side]); ok {
				sides[side] = b
			}
		}
	}
	out["sides"] = sides
	return out
}

// normalizeRadius expands a scalar radius into a 4-corner object.
func normalizeRadius(value any) any {
	switch v := value.(type) {
	case map[string]any:
		if _, ok := v["topLeft"]; ok {
			return v
		}
		return v
	case float64:
		return fourCorners(component.FormatNumber(v))
	case int:
		return fourCorners(strconv.Itoa(v))
	case string:
		num := strings.TrimSuffix(strings.TrimSpace(v), "px")
		if _, err := strconv.ParseFloat(num, 64); err == nil {
			return fourCorners(num)
		}
		return v
	default:
		return value
	}
}

func fourCorners(n string) map[string]any {
	return map[string]any{"topLeft": n, "topRight": n, "bottomRight": n, "bottomLeft": n, "unit": "px"}
}

// NormalizeShadow coerces a shadow descriptor (object or list) into a list of
// shadow objects with defaults for blur/spread/offset/color.
func NormalizeShadow(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if sm, ok := component.AsMap(item); ok {
				out = append(out, shadowWithDefaults(sm))
			}
		}
		return out
	case map[string]any:
		return []any{shadowWithDefaults(v)}
	case string:
		// Raw CSS shadow strings pass through for the renderer to apply directly.
		return v
	default:
		return value
	}
}

func shadowWithDefaults(sm map[string]any) map[string]any {
	out := map[string]any{
		"x":      "0",
		"y":      "4",
		"blur":   "12",
		"spread": "0",
		"color":  "rgba(0,0,0,0.1)",
		"inset":  false,
	}
	for _, key := range []string{"x", "y", "blur", "spread"} {
		if v, ok := sm[key]; ok && v != nil {
			out[key] = component.AsString(StripPxUnit(v))
		}
	}
	if c := component.StringField(sm, "color"); c != "" {
		out["color"] = c
	}
	if b, ok := component.AsBool(sm["inset"]); ok {
		out["inset"] = b
	}
	return out
}
