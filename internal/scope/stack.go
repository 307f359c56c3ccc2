// Package scope implements the lexical name stack used while lowering one
// function body.
package scope

import "bu/internal/diag"

// Stack maps names to storage locations of type L. Inner scopes shadow
// outer ones; a scope lives from Enter to the matching Leave.
type Stack[L any] struct {
	frames []map[string]L
}

// New returns an empty stack. Bind requires at least one Enter.
func New[L any]() *Stack[L] {
	return &Stack[L]{frames: make([]map[string]L, 0, 8)}
}

// Enter pushes a fresh innermost scope.
func (s *Stack[L]) Enter() {
	s.frames = append(s.frames, make(map[string]L))
}

// Leave pops the innermost scope.
func (s *Stack[L]) Leave() {
	diag.Assert(len(s.frames) > 0, diag.PhaseScope, "leave on empty scope stack")
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// Bind inserts name into the innermost scope. Rebinding in the same scope
// replaces the previous location.
func (s *Stack[L]) Bind(name string, loc L) {
	diag.Assert(len(s.frames) > 0, diag.PhaseScope, "bind %q outside any scope", name)
	s.frames[len(s.frames)-1][name] = loc
}

// Lookup searches innermost to outermost.
func (s *Stack[L]) Lookup(name string) (L, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if loc, ok := s.frames[i][name]; ok {
			return loc, true
		}
	}
	var zero L
	return zero, false
}

// Resolve is Lookup for names the checker guaranteed to exist.
func (s *Stack[L]) Resolve(name string) L {
	loc, ok := s.Lookup(name)
	if !ok {
		diag.Bail(diag.PhaseScope, "unresolved name %q", name)
	}
	return loc
}

// Depth reports the number of open scopes.
func (s *Stack[L]) Depth() int { return len(s.frames) }
