// Package builder turns raw, untrusted AI steps into fully-formed component
// nodes: boundary coercion, ID resolution, style flattening, rule validation,
// class synthesis, and child recursion happen here in a fixed order.
package builder

import (
	"sync/atomic"

	"pagecraft/internal/classes"
	"pagecraft/internal/identity"
)

// Session is the per-build mutable state: the used-ID registry, the class
// synthesizer with its style-hash cache, and the build-in-progress flag.
// Always a fresh value per build, never a package-level singleton, so
// concurrent builds stay isolated.
type Session struct {
	IDs     *identity.Registry
	Classes *classes.Synthesizer

	building atomic.Bool
}

// NewSession creates build state backed by the given class store.
func NewSession(store classes.Store) *Session {
	ids := identity.NewRegistry()
	return &Session{
		IDs:     ids,
		Classes: classes.NewSynthesizer(store, ids),
	}
}

// Begin marks the build as in progress. Returns false if one already is.
func (s *Session) Begin() bool {
	return s.building.CompareAndSwap(false, true)
}

// End clears the in-progress flag.
func (s *Session) End() {
	s.building.Store(false)
}

// InProgress reports whether a build is running on this session. Class-store
// consumers check it to avoid conflicting class mutations mid-build.
func (s *Session) InProgress() bool {
	return s.building.Load()
}
