// Package builtin provides predicate factories over Subject records, the
// argument type used by manifests and the CLI.
package builtin

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/walkabout/internal/capability"
)

// ErrInvalidSubject is returned when a subject literal cannot be parsed.
var ErrInvalidSubject = errors.New("invalid subject")

// Subject is a kind plus string fields. A subject of kind "file" provides
// the capability KindCapability("file"), then those of the kinds it extends.
type Subject struct {
	Kind    string
	Extends []string
	Fields  map[string]string
}

// KindCapability is the capability provided by subjects of kind.
func KindCapability(kind string) capability.Capability {
	return capability.Capability("kind:" + kind)
}

// Capabilities implements capability.Provider.
func (s Subject) Capabilities() []capability.Capability {
	if s.Kind == "" {
		return nil
	}
	caps := make([]capability.Capability, 0, len(s.Extends)+1)
	caps = append(caps, KindCapability(s.Kind))
	for _, k := range s.Extends {
		caps = append(caps, KindCapability(k))
	}
	return caps
}

// Field returns the named field.
func (s Subject) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

func (s Subject) String() string {
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Fields[k]
	}
	return s.Kind + ":" + strings.Join(parts, ",")
}

// ParseSubject parses "kind:field=value,field=value". The field list may be
// empty ("kind:" or "kind").
func ParseSubject(s string) (Subject, error) {
	kind, rest, _ := strings.Cut(strings.TrimSpace(s), ":")
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return Subject{}, fmt.Errorf("%w: %q has no kind", ErrInvalidSubject, s)
	}

	subject := Subject{Kind: kind, Fields: map[string]string{}}
	if strings.TrimSpace(rest) == "" {
		return subject, nil
	}
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Subject{}, fmt.Errorf("%w: field %q in %q is not key=value", ErrInvalidSubject, pair, s)
		}
		subject.Fields[key] = strings.TrimSpace(value)
	}
	return subject, nil
}

func subjectAt(args []any, i int) (Subject, bool) {
	if i < 0 || i >= len(args) {
		return Subject{}, false
	}
	switch v := args[i].(type) {
	case Subject:
		return v, true
	case *Subject:
		if v == nil {
			return Subject{}, false
		}
		return *v, true
	default:
		return Subject{}, false
	}
}
