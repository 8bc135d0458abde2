package manifest

import (
	"fmt"
	"sort"

	"github.com/zjrosen/walkabout/internal/builtin"
	"github.com/zjrosen/walkabout/internal/capability"
	"github.com/zjrosen/walkabout/internal/domain"
	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/predicate"
	"github.com/zjrosen/walkabout/internal/topo"
)

// Catalog is a domain built from a manifest. Candidates are the manifest
// candidate ids.
type Catalog struct {
	Domain   *domain.Domain[string]
	Registry *capability.Registry
	kinds    map[string][]string
}

// Build registers the manifest's predicates and candidates on a fresh
// domain. opts configure predicate ordering defaults.
func Build(f *File, opts ...topo.Option[string]) (*Catalog, error) {
	reg := capability.NewRegistry()
	d := domain.New[string](capability.Capability(f.Target), reg, opts...)

	for _, p := range f.Predicates {
		factory, err := builtin.ByKind(p.Kind, builtin.Spec{Field: p.Field, Arg: p.Arg})
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", p.Name, err)
		}
		if err := d.AddPredicate(p.Name, factory, topo.ParseRefs(p.Before...), topo.ParseRefs(p.After...)); err != nil {
			return nil, fmt.Errorf("predicate %s: %w", p.Name, err)
		}
	}

	for _, c := range f.Candidates {
		values, err := Values(c.Predicates)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		forArgs := make([]any, len(c.For))
		for i, kind := range c.For {
			if kind == "*" {
				forArgs[i] = capability.Any
			} else {
				forArgs[i] = builtin.KindCapability(kind)
			}
		}
		if err := d.AddCandidate(c.ID, c.Name, values, forArgs...); err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
	}

	log.Info(log.CatManifest, "catalog built", "target", f.Target,
		"predicates", len(f.Predicates), "candidates", len(f.Candidates))

	return &Catalog{Domain: d, Registry: reg, kinds: f.Kinds}, nil
}

// Values converts decoded YAML predicate values. A list becomes Many; a
// {not: v} mapping negates v, or every element when v is a list. A null
// value leaves the predicate out.
func Values(raw map[string]any) (predicate.Values, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	values := make(predicate.Values, len(raw))
	for name, v := range raw {
		if v == nil {
			continue
		}
		value, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("value for %s: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

func convertValue(v any) (predicate.Value, error) {
	switch x := v.(type) {
	case []any:
		items := make([]any, len(x))
		for i, e := range x {
			item, err := convertItem(e)
			if err != nil {
				return predicate.Value{}, err
			}
			items[i] = item
		}
		return predicate.Many(items...), nil
	case map[string]any:
		inner, err := notOf(x)
		if err != nil {
			return predicate.Value{}, err
		}
		if list, ok := inner.([]any); ok {
			items := make([]any, len(list))
			for i, e := range list {
				if !isScalar(e) {
					return predicate.Value{}, fmt.Errorf("%w: nested value %v", ErrInvalidManifest, e)
				}
				items[i] = predicate.Not(e)
			}
			return predicate.Many(items...), nil
		}
		item, err := convertItem(x)
		if err != nil {
			return predicate.Value{}, err
		}
		return predicate.Single(item), nil
	default:
		return predicate.Single(v), nil
	}
}

func convertItem(v any) (any, error) {
	if m, ok := v.(map[string]any); ok {
		inner, err := notOf(m)
		if err != nil {
			return nil, err
		}
		if !isScalar(inner) {
			return nil, fmt.Errorf("%w: nested value %v", ErrInvalidManifest, inner)
		}
		return predicate.Not(inner), nil
	}
	if !isScalar(v) {
		return nil, fmt.Errorf("%w: nested value %v", ErrInvalidManifest, v)
	}
	return v, nil
}

func notOf(m map[string]any) (any, error) {
	inner, ok := m["not"]
	if !ok || len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: mapping values only support 'not', got %v", ErrInvalidManifest, keys)
	}
	return inner, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return false
	default:
		return true
	}
}

// Subject parses a subject literal and fills in the kinds it extends.
func (c *Catalog) Subject(literal string) (builtin.Subject, error) {
	s, err := builtin.ParseSubject(literal)
	if err != nil {
		return builtin.Subject{}, err
	}
	return c.Resolve(s), nil
}

// Resolve sets s.Extends to every kind s.Kind extends, breadth first,
// nearest kinds first.
func (c *Catalog) Resolve(s builtin.Subject) builtin.Subject {
	seen := map[string]bool{s.Kind: true}
	queue := append([]string(nil), c.kinds[s.Kind]...)
	var extends []string
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		extends = append(extends, k)
		queue = append(queue, c.kinds[k]...)
	}
	s.Extends = extends
	return s
}
