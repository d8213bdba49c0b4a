package style

import (
	"strconv"
	"strings"
)

// Color classification for the contrast rules. Recognizes hex, rgb/rgba,
// hsl/hsla, semantic theme tokens, and CSS keyword colors. Unrecognized
// values classify as neither dark nor light so no correction fires on them.

// IsSemanticToken reports whether a color value is a theme token that must be
// preserved verbatim (never flattened to a literal hex).
func IsSemanticToken(s string) bool {
	return strings.HasPrefix(s, "var(") ||
		strings.HasPrefix(s, "--") ||
		strings.HasPrefix(s, "{{")
}

// RGBA is a parsed color with channels in 0-255 and alpha in 0-1.
type RGBA struct {
	R, G, B float64
	A       float64
}

var keywordColors = map[string]RGBA{
	"white":       {255, 255, 255, 1},
	"black":       {0, 0, 0, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"red":         {255, 0, 0, 1},
	"blue":        {0, 0, 255, 1},
	"navy":        {0, 0, 128, 1},
	"green":       {0, 128, 0, 1},
	"yellow":      {255, 255, 0, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses a CSS color value. Returns (color, true) on success.
// Semantic tokens are not parseable; classify them with TokenIsDark instead.
func ParseColor(s string) (RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || IsSemanticToken(s) {
		return RGBA{}, false
	}
	if c, ok := keywordColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if strings.HasPrefix(s, "rgb") {
		return parseRGBFunc(s)
	}
	if strings.HasPrefix(s, "hsl") {
		return parseHSLFunc(s)
	}
	return RGBA{}, false
}

func parseHex(s string) (RGBA, bool) {
	h := strings.TrimPrefix(s, "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6, 8:
	default:
		return RGBA{}, false
	}
	r, err1 := strconv.ParseUint(h[0:2], 16, 8)
	g, err2 := strconv.ParseUint(h[2:4], 16, 8)
	b, err3 := strconv.ParseUint(h[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGBA{}, false
	}
	a := 1.0
	if len(h) == 8 {
		av, err := strconv.ParseUint(h[6:8], 16, 8)
		if err != nil {
			return RGBA{}, false
		}
		a = float64(av) / 255
	}
	return RGBA{float64(r), float64(g), float64(b), a}, true
}

func parseRGBFunc(s string) (RGBA, bool) {
	open := strings.Index(s, "(")
	close := strings.LastIndex(s, ")")
	if open < 0 || close <= open {
		return RGBA{}, false
	}
	parts := splitArgs(s[open+1 : close])
	if len(parts) < 3 {
		return RGBA{}, false
	}
	r, err1 := strconv.ParseFloat(parts[0], 64)
	g, err2 := strconv.ParseFloat(parts[1], 64)
	b, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGBA{}, false
	}
	a := 1.0
	if len(parts) >= 4 {
		if av, err := strconv.ParseFloat(parts[3], 64); err == nil {
			a = av
		}
	}
	return RGBA{r, g, b, a}, true
}

func parseHSLFunc(s string) (RGBA, bool) {
	open := strings.Index(s, "(")
	close := strings.LastIndex(s, ")")
	if open < 0 || close <= open {
		return RGBA{}, false
	}
	parts := splitArgs(s[open+1 : close])
	if len(parts) < 3 {
		return RGBA{}, false
	}
	h, err1 := strconv.ParseFloat(strings.TrimSuffix(parts[0], "deg"), 64)
	sat, err2 := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	l, err3 := strconv.ParseFloat(strings.TrimSuffix(parts[2], "%"), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return RGBA{}, false
	}
	a := 1.0
	if len(parts) >= 4 {
		if av, err := strconv.ParseFloat(parts[3], 64); err == nil {
			a = av
		}
	}
	r, g, b := hslToRGB(h, sat/100, l/100)
	return RGBA{r, g, b, a}, true
}

func splitArgs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func hslToRGB(h, s, l float64) (float64, float64, float64) {
	h = h / 360
	if s == 0 {
		v := l * 255
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r := hueToRGB(p, q, h+1.0/3)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3)
	return r * 255, g * 255, b * 255
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// Luminance returns the relative luminance of a color in 0-1.
func Luminance(c RGBA) float64 {
	return (0.2126*c.R + 0.7152*c.G + 0.0722*c.B) / 255
}

// IsDark reports whether a color value classifies as dark. Semantic tokens
// classify by token name ("dark" in the name, or a surface token).
func IsDark(value string) bool {
	if value == "" {
		return false
	}
	if IsSemanticToken(value) {
		return TokenIsDark(value)
	}
	c, ok := ParseColor(value)
	if !ok || c.A < 0.5 {
		return false
	}
	return Luminance(c) < 0.35
}

// IsLight reports whether a color value classifies as light.
func IsLight(value string) bool {
	if value == "" {
		return false
	}
	if IsSemanticToken(value) {
		return !TokenIsDark(value) && TokenIsLight(value)
	}
	c, ok := ParseColor(value)
	if !ok || c.A < 0.5 {
		return false
	}
	return Luminance(c) > 0.7
}

// IsWarmLight reports whether a color is a light warm tone (cream/beige-like),
// which gets the same muted-text correction as dark backgrounds.
func IsWarmLight(value string) bool {
	c, ok := ParseColor(value)
	if !ok || c.A < 0.5 {
		return false
	}
	if Luminance(c) <= 0.7 {
		return false
	}
	// Warm means red channel leads and blue trails.
	return c.R > c.B+10 && c.G >= c.B
}

// IsMuted reports whether a text color is a muted/gray tone that would wash
// out on a dark background.
func IsMuted(value string) bool {
	c, ok := ParseColor(value)
	if !ok {
		return false
	}
	if c.A < 1 && c.A >= 0.3 && Luminance(c) < 0.7 {
		return true
	}
	lum := Luminance(c)
	if lum < 0.25 || lum > 0.75 {
		return false
	}
	spread := max3(c.R, c.G, c.B) - min3(c.R, c.G, c.B)
	return spread < 30
}

// IsGrayish reports whether a color is in the neutral gray range used by the
// placeholder-div pruning rule.
func IsGrayish(value string) bool {
	c, ok := ParseColor(value)
	if !ok || c.A == 0 {
		return false
	}
	spread := max3(c.R, c.G, c.B) - min3(c.R, c.G, c.B)
	if spread > 18 {
		return false
	}
	lum := Luminance(c)
	return lum > 0.5 && lum < 0.96
}

// TokenIsDark classifies a semantic token by name.
func TokenIsDark(token string) bool {
	t := strings.ToLower(token)
	return strings.Contains(t, "dark") || strings.Contains(t, "black") ||
		strings.Contains(t, "ink") || strings.Contains(t, "night")
}

// TokenIsLight classifies a semantic token by name.
func TokenIsLight(token string) bool {
	t := strings.ToLower(token)
	return strings.Contains(t, "light") || strings.Contains(t, "white") ||
		strings.Contains(t, "paper") || strings.Contains(t, "surface")
}

func max3(a, b, c float64) float64 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c float64) float64 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
