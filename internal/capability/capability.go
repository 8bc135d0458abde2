// Package capability describes what a value provides and resolves values
// registered against capability tuples, most specific first.
package capability

import (
	"reflect"
	"slices"
	"strings"
)

// Capability is an opaque tag a value can provide.
type Capability string

// Any is provided by every value, including nil.
const Any Capability = "*"

// ForType returns the capability provided by values of type t. For
// interface types it is provided by every value whose type implements t,
// once the interface has been declared on a Registry.
func ForType(t reflect.Type) Capability {
	if t == nil {
		return Any
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return Capability("go:" + t.PkgPath() + "." + t.Name())
	}
	return Capability("go:" + t.String())
}

// Set is an ordered list of capabilities, most specific first.
type Set []Capability

// Of builds a Set, dropping duplicates while keeping the first occurrence.
func Of(caps ...Capability) Set {
	s := make(Set, 0, len(caps))
	for _, c := range caps {
		s = s.add(c)
	}
	return s
}

// Contains reports whether c is in the set.
func (s Set) Contains(c Capability) bool {
	return slices.Contains(s, c)
}

func (s Set) add(c Capability) Set {
	if c == "" || s.Contains(c) {
		return s
	}
	return append(s, c)
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Named pairs a registration name with its value.
type Named struct {
	Name  string
	Value any
}

// Provider is implemented by values that provide capabilities beyond those
// of their type. They take precedence over type-level capabilities.
type Provider interface {
	Capabilities() []Capability
}
