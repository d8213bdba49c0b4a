// Package identity assigns and validates component IDs for a build session.
// IDs are preferred "semantic" (derived from the component's role, e.g.
// hero-title) over generic counter-based names, and are guaranteed unique
// within the session. The same collision-resolution algorithm also serves
// class names, checked against the union of used IDs and existing classes.
package identity

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pagecraft/internal/logging"
)

var (
	// type-digits (button-3) and long trailing hash/timestamp suffixes
	// (hero-1699999999999, card-a1b2c3d4e5) are generic, not semantic.
	genericPattern   = regexp.MustCompile(`^[a-z]+-\d+$`)
	timestampSuffix  = regexp.MustCompile(`-\d{10,}$`)
	hashSuffix       = regexp.MustCompile(`-[a-z0-9]{8,}$`)
	roleBasedPattern = regexp.MustCompile(`^(hero|nav|footer|cta|feature|pricing|testimonial|faq|contact|about|team|gallery|stats|newsletter|social)([-_][a-z0-9-]+)?$|-card-\d+$`)
)

// Structural/role words for the keyword-containment fallback.
var semanticKeywords = []string{
	"hero", "nav", "header", "footer", "section", "title", "subtitle",
	"heading", "logo", "menu", "cta", "button", "card", "grid", "list",
	"item", "feature", "pricing", "plan", "testimonial", "quote", "avatar",
	"badge", "icon", "image", "banner", "form", "input", "label", "link",
	"social", "contact", "about", "team", "stats", "newsletter", "content",
	"wrapper", "description", "caption",
}

// IsSemantic classifies a candidate ID as semantic (role-derived) vs generic.
func IsSemantic(id string) bool {
	if id == "" {
		return false
	}
	lower := strings.ToLower(id)
	if genericPattern.MatchString(lower) {
		return false
	}
	if timestampSuffix.MatchString(lower) {
		return false
	}
	if roleBasedPattern.MatchString(lower) {
		return true
	}
	// A long opaque suffix disqualifies unless a role pattern matched above.
	if hashSuffix.MatchString(lower) && !strings.Contains(lower, "-card-") {
		return false
	}
	for _, kw := range semanticKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Registry tracks used IDs for one build session. Never a module-level
// singleton: each build creates its own registry so concurrent builds
// (if ever needed) stay isolated.
type Registry struct {
	mu        sync.Mutex
	sessionID string
	used      map[string]bool
	renames   int
}

// NewRegistry creates an empty per-session ID registry.
func NewRegistry() *Registry {
	return &Registry{
		sessionID: uuid.NewString(),
		used:      make(map[string]bool),
	}
}

// SessionID returns the session correlation ID.
func (r *Registry) SessionID() string {
	return r.sessionID
}

// Renames returns how many collision renames occurred this session.
func (r *Registry) Renames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renames
}

// ResolveID validates or synthesizes a component ID and reserves it.
// A missing candidate becomes {type}-{n} with a small random counter.
func (r *Registry) ResolveID(candidate, componentType string) string {
	id := sanitize(candidate)
	if id == "" {
		id = fmt.Sprintf("%s-%d", componentType, 100+rand.Intn(900))
		logging.IdentityDebug("synthesized id %q for type %s", id, componentType)
	}
	return r.EnsureUniqueID(id)
}

// EnsureUniqueID reserves id, appending -2, -3, ... on collision until free.
// Every rename is logged.
func (r *Registry) EnsureUniqueID(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.used[id] {
		r.used[id] = true
		return id
	}
	for n := 2; ; n++ {
		probe := fmt.Sprintf("%s-%d", id, n)
		if !r.used[probe] {
			r.used[probe] = true
			r.renames++
			logging.Identity("id collision: %q renamed to %q", id, probe)
			return probe
		}
	}
}

// EnsureUniqueClassName reserves a class name using the same probing
// algorithm, but checked against both the session's used IDs and the
// persistent class store (a class and a component may share a name).
func (r *Registry) EnsureUniqueClassName(name string, classExists func(string) bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := func(candidate string) bool {
		if r.used[candidate] {
			return true
		}
		return classExists != nil && classExists(candidate)
	}

	if !taken(name) {
		r.used[name] = true
		return name
	}
	for n := 2; ; n++ {
		probe := fmt.Sprintf("%s-%d", name, n)
		if !taken(probe) {
			r.used[probe] = true
			r.renames++
			logging.Identity("class name collision: %q renamed to %q", name, probe)
			return probe
		}
	}
}

// Reserve marks an externally-assigned ID as used without renaming, for
// seeding the registry from an existing document before a section replace.
func (r *Registry) Reserve(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.used[id] = true
}

// IsUsed reports whether an ID has been reserved this session.
func (r *Registry) IsUsed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used[id]
}

// sanitize lowercases and strips characters that are not valid in an ID.
func sanitize(id string) string {
	id = strings.TrimSpace(strings.ToLower(id))
	var b strings.Builder
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
