// Package scope implements the variable binding context: an immutable,
// parent-linked chain of integer bindings.
package scope

import (
	"sort"
	"strconv"
	"strings"
)

// Scope holds one binding and a back-reference to its parent. A nil *Scope
// is the empty root scope. Scopes are never mutated after construction,
// so children created from the same parent never alias one another.
type Scope struct {
	parent *Scope
	name   string
	value  int64
}

// Bind returns a child scope in which name is bound to value.
// The receiver is left unchanged.
func (s *Scope) Bind(name string, value int64) *Scope {
	return &Scope{parent: s, name: name, value: value}
}

// Lookup returns the innermost binding for name.
func (s *Scope) Lookup(name string) (int64, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.value, true
		}
	}
	return 0, false
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Depth is the number of bindings in the chain, shadowed ones included.
func (s *Scope) Depth() int {
	n := 0
	for cur := s; cur != nil; cur = cur.parent {
		n++
	}
	return n
}

// Vars flattens the chain into a map. Inner bindings win.
func (s *Scope) Vars() map[string]int64 {
	out := make(map[string]int64, s.Depth())
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := out[cur.name]; !ok {
			out[cur.name] = cur.value
		}
	}
	return out
}

// String renders the visible bindings as "a=1 i=3", sorted by name.
func (s *Scope) String() string {
	vars := s.Vars()
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+strconv.FormatInt(vars[k], 10))
	}
	return strings.Join(parts, " ")
}

// FromMap builds a chain from a map, binding names in sorted order so the
// result is deterministic.
func FromMap(vars map[string]int64) *Scope {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	var s *Scope
	for _, k := range names {
		s = s.Bind(k, vars[k])
	}
	return s
}
