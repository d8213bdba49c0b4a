package classes

import (
	"strconv"
	"time"

	"pagecraft/internal/component"
	"pagecraft/internal/identity"
	"pagecraft/internal/logging"
)

// Store is the persistence surface the synthesizer needs. Implemented by the
// sqlite class store; tests supply func-field fakes.
type Store interface {
	// GetClass returns the class with the given name, if present.
	GetClass(name string) (component.Class, bool)
	// SaveClass persists a new class.
	SaveClass(c component.Class) error
	// AutoClasses lists every pipeline-synthesized class.
	AutoClasses() []component.Class
}

// Synthesizer turns per-component inline styles into shared, named classes.
// One synthesizer lives for one build session; its dedup cache is scoped to
// the session so cross-session reuse always goes through the store.
type Synthesizer struct {
	store Store
	ids   *identity.Registry
	audit *logging.AuditLogger

	// "{category}::{hash}" -> class name created or reused this session.
	cache map[string]string

	created int
	reused  int
}

// NewSynthesizer creates a session-scoped class synthesizer.
func NewSynthesizer(store Store, ids *identity.Registry) *Synthesizer {
	return &Synthesizer{
		store: store,
		ids:   ids,
		audit: logging.AuditWithSession(ids.SessionID()),
		cache: map[string]string{},
	}
}

// Created and Reused report session counters for build telemetry.
func (s *Synthesizer) Created() int { return s.created }
func (s *Synthesizer) Reused() int  { return s.reused }

// Apply extracts the node's style props into a shared class, reusing an
// existing class when an identical style set already exists in the same
// semantic category. The extracted props are removed from the node and the
// class is recorded in classNames/appliedClasses/activeClass. Returns the
// class name, or "" when the node carries no styleable props.
func (s *Synthesizer) Apply(node *component.Node, parentContext string) string {
	styles := ExtractStyles(node.Props)
	if len(styles) == 0 {
		return ""
	}

	name := s.chooseName(node, parentContext)
	category := CategoryForType(string(node.Type))
	hash := HashStyles(styles)
	cacheKey := string(category) + "::" + hash

	if cached, ok := s.cache[cacheKey]; ok {
		s.attach(node, cached, styles)
		s.reused++
		s.audit.ClassEvent(logging.AuditClassReuse, cached, string(category))
		logging.ClassesDebug("reused session class %q for %s", cached, node.ID)
		return cached
	}

	// Cross-name dedup: an earlier build may have stored the same styles
	// under a different name in this category.
	for _, existing := range s.store.AutoClasses() {
		if CategoryForName(existing.Name) != category {
			continue
		}
		if HashStyles(existing.Styles) == hash {
			s.cache[cacheKey] = existing.Name
			s.attach(node, existing.Name, styles)
			s.reused++
			s.audit.ClassEvent(logging.AuditClassReuse, existing.Name, string(category))
			logging.Classes("deduplicated %s onto existing class %q", node.ID, existing.Name)
			return existing.Name
		}
	}

	final, found := s.resolveSlot(name, hash)
	if found {
		s.cache[cacheKey] = final
		s.attach(node, final, styles)
		s.reused++
		s.audit.ClassEvent(logging.AuditClassReuse, final, string(category))
		return final
	}

	cls := component.Class{
		Name:        final,
		Styles:      styles,
		IsAutoClass: true,
		CreatedAt:   time.Now(),
	}
	if err := s.store.SaveClass(cls); err != nil {
		// Persistence failure is not fatal to the build: keep the styles
		// inline on the node and move on.
		logging.ClassesDebug("class save failed for %q: %v", final, err)
		return ""
	}
	s.ids.Reserve(final)
	s.cache[cacheKey] = final
	s.attach(node, final, styles)
	s.created++
	s.audit.ClassEvent(logging.AuditClassCreate, final, string(category))
	logging.Classes("created class %q (%s) for %s", final, category, node.ID)
	return final
}

// chooseName keeps an author-intended explicit class name, otherwise derives
// one from the component type and its parent context. Either way the result
// goes through canonical normalization.
func (s *Synthesizer) chooseName(node *component.Node, parentContext string) string {
	var name string
	if len(node.ClassNames) > 0 && !IsFallbackName(node.ClassNames[0], node.ID) {
		name = node.ClassNames[0]
	} else {
		name = DeriveName(string(node.Type), parentContext)
	}
	return NormalizeName(name, parentContext)
}

// resolveSlot finds the name the class will live under. If the base name (or
// a numbered variant) already holds an identical style set, that name is
// reused; otherwise the first free variant slot is returned for creation.
func (s *Synthesizer) resolveSlot(name, hash string) (string, bool) {
	probe := name
	for n := 2; ; n++ {
		existing, exists := s.store.GetClass(probe)
		if !exists && !s.ids.IsUsed(probe) {
			return probe, false
		}
		if exists && HashStyles(existing.Styles) == hash {
			return probe, true
		}
		probe = name + "-" + strconv.Itoa(n)
	}
}

// attach records the class on the node and strips the now-classed style props.
// Locked props stay inline: the lock exists precisely so nothing downstream
// can override them.
func (s *Synthesizer) attach(node *component.Node, name string, styles map[string]any) {
	node.ClassNames = []string{name}
	node.Props[component.PropAppliedClasses] = []any{name}
	node.Props[component.PropActiveClass] = name
	locked, _ := component.AsMap(node.Props[component.PropLockedProps])
	for key := range styles {
		if _, isLocked := locked[key]; isLocked {
			continue
		}
		delete(node.Props, key)
	}
}
