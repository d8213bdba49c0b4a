// Package classes derives semantic CSS-class names for components, extracts
// their style subset, and deduplicates identical styles into shared classes.
// Deduplication is scoped to a semantic category so a button style can never
// silently alias onto a heading class.
package classes

import (
	"regexp"
	"strings"
)

// Category is the semantic bucket a class belongs to. Dedup never crosses
// category boundaries.
type Category string

const (
	CategoryText      Category = "text"
	CategoryHeading   Category = "heading"
	CategoryButton    Category = "button"
	CategoryLink      Category = "link"
	CategoryImage     Category = "image"
	CategoryContainer Category = "container"
	CategoryForm      Category = "form"
	CategoryElement   Category = "element"
)

// derivationTable maps (componentType, parentContext) to a semantic name.
// Parent context is matched by substring against the parent's resolved ID.
var derivationTable = []struct {
	componentType string
	parentHint    string
	name          string
}{
	{"text", "hero", "hero-text"},
	{"heading", "hero", "hero-title"},
	{"button", "hero", "hero-cta"},
	{"text", "cta", "cta-text"},
	{"heading", "cta", "cta-title"},
	{"button", "cta", "cta-button"},
	{"text", "card", "card-text"},
	{"heading", "card", "card-title"},
	{"image", "card", "card-image"},
	{"text", "footer", "footer-text"},
	{"heading", "footer", "footer-heading"},
	{"link", "footer", "footer-link"},
	{"link", "nav", "nav-link"},
	{"button", "nav", "nav-button"},
	{"text", "feature", "feature-text"},
	{"heading", "feature", "feature-title"},
	{"icon", "feature", "feature-icon"},
	{"text", "testimonial", "testimonial-text"},
	{"image", "testimonial", "testimonial-avatar"},
	{"heading", "pricing", "pricing-title"},
	{"button", "pricing", "pricing-button"},
	{"input", "form", "form-input"},
	{"input", "newsletter", "form-input"},
	{"button", "form", "form-button"},
}

// DeriveName produces a semantic class name from a component type and its
// parent context, falling back to the bare type name.
func DeriveName(componentType, parentContext string) string {
	parent := strings.ToLower(parentContext)
	for _, row := range derivationTable {
		if row.componentType == componentType && strings.Contains(parent, row.parentHint) {
			return row.name
		}
	}
	return componentType
}

// Names on this list are already good and pass normalization verbatim.
var preservedNames = map[string]bool{
	"hero-title": true, "hero-text": true, "hero-cta": true,
	"cta-title": true, "cta-text": true, "cta-button": true,
	"card-title": true, "card-text": true, "card-image": true,
	"footer-text": true, "footer-heading": true, "footer-link": true,
	"nav-link": true, "nav-button": true, "nav-logo": true,
	"feature-title": true, "feature-text": true, "feature-icon": true,
	"testimonial-text": true, "testimonial-avatar": true,
	"pricing-title": true, "pricing-button": true,
	"form-input": true, "form-button": true,
	"btn-primary": true, "btn-secondary": true, "btn-ghost": true,
	"section-title": true, "section-subtitle": true,
	"flex-row": true, "flex-column": true, "grid-3col": true,
	"body-text": true, "muted-text": true,
}

// legacyNames maps known near-miss names onto canonical ones.
var legacyNames = map[string]string{
	"main-button":      "btn-primary",
	"primary-button":   "btn-primary",
	"secondary-button": "btn-secondary",
	"outline-button":   "btn-ghost",
	"card-grid":        "flex-row",
	"cards-row":        "flex-row",
	"items-grid":       "flex-row",
	"column-stack":     "flex-column",
	"big-title":        "section-title",
	"main-heading":     "section-title",
	"sub-heading":      "section-subtitle",
	"paragraph":        "body-text",
	"description-text": "body-text",
	"gray-text":        "muted-text",
	"navlink":          "nav-link",
	"navbar-link":      "nav-link",
}

var (
	nameSuffixPattern = regexp.MustCompile(`-(?:\d{10,}|[a-f0-9]{8,})$`)
	titleUnderCard    = regexp.MustCompile(`^[a-z0-9-]*-(title|heading)$`)
)

// Generic fallback prefixes the pipeline itself writes; an explicit class name
// carrying one of these is not kept.
var fallbackPrefixes = []string{"sanitized-", "element-", "fallback-", "comp-"}

// IsFallbackName reports whether an explicit class name is a generated
// fallback pattern rather than an author-intended name.
func IsFallbackName(name, ownID string) bool {
	if name == "" || name == ownID {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range fallbackPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// NormalizeName runs a derived or explicit class name through the canonical
// naming pass: preserved names stay, legacy names map to canonical ones,
// opaque suffixes are stripped before recursing, and structural patterns are
// applied last.
func NormalizeName(name, parentContext string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return name
	}
	if preservedNames[name] {
		return name
	}
	if canonical, ok := legacyNames[name]; ok {
		return canonical
	}
	if stripped := nameSuffixPattern.ReplaceAllString(name, ""); stripped != name && stripped != "" {
		return NormalizeName(stripped, parentContext)
	}
	// Structural patterns: any *-title/*-heading under a content/card context
	// collapses to card-title.
	parent := strings.ToLower(parentContext)
	if titleUnderCard.MatchString(name) &&
		(strings.Contains(parent, "card") || strings.Contains(parent, "content")) {
		return "card-title"
	}
	return name
}

var categoryPatterns = []struct {
	pattern  *regexp.Regexp
	category Category
}{
	{regexp.MustCompile(`title|heading`), CategoryHeading},
	{regexp.MustCompile(`btn|button|cta$|-cta`), CategoryButton},
	{regexp.MustCompile(`link`), CategoryLink},
	{regexp.MustCompile(`image|img|avatar|photo|icon`), CategoryImage},
	{regexp.MustCompile(`input|form|field|select|textarea`), CategoryForm},
	{regexp.MustCompile(`text|paragraph|caption|description`), CategoryText},
	{regexp.MustCompile(`row|column|grid|container|wrapper|section|stack`), CategoryContainer},
}

// CategoryForType derives the semantic category from a component type.
func CategoryForType(componentType string) Category {
	switch componentType {
	case "text":
		return CategoryText
	case "heading":
		return CategoryHeading
	case "button":
		return CategoryButton
	case "link":
		return CategoryLink
	case "image", "icon", "video":
		return CategoryImage
	case "div", "section", "container", "nav-horizontal", "footer-column", "footer-row":
		return CategoryContainer
	case "input", "form", "label":
		return CategoryForm
	default:
		return CategoryElement
	}
}

// CategoryForName derives the semantic category from an already-named class
// by regex sniffing of the name.
func CategoryForName(name string) Category {
	lower := strings.ToLower(name)
	for _, row := range categoryPatterns {
		if row.pattern.MatchString(lower) {
			return row.category
		}
	}
	return CategoryElement
}
