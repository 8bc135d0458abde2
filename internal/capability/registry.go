package capability

import (
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/walkabout/internal/log"
)

type regKey struct {
	target   Capability
	name     string
	required string
}

func joinRequired(required []Capability) string {
	var b strings.Builder
	for i, c := range required {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(string(c))
	}
	return b.String()
}

// Registry maps (required capabilities, target, name) to values and tracks
// the capabilities declared for Go types. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	declared   map[reflect.Type]Set
	interfaces []reflect.Type
	values     map[regKey]any
	names      map[Capability][]string
	arity      map[Capability]map[string]map[int]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		declared: make(map[reflect.Type]Set),
		values:   make(map[regKey]any),
		names:    make(map[Capability][]string),
		arity:    make(map[Capability]map[string]map[int]bool),
	}
}

// Declare adds capabilities to every value of type t. Declaring an interface
// type, even without capabilities, makes ForType(t) and caps provided by
// every value implementing it.
func (r *Registry) Declare(t reflect.Type, caps ...Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.declared[t]; !seen && t.Kind() == reflect.Interface {
		r.interfaces = append(r.interfaces, t)
	}
	set := r.declared[t]
	for _, c := range caps {
		set = set.add(c)
	}
	if set == nil {
		set = Set{}
	}
	r.declared[t] = set
	log.Debug(log.CatCapability, "capabilities declared", "type", t, "capabilities", set)
}

// CapabilitiesOf returns what v provides, most specific first: capabilities
// from a Provider, the type's own tag and declared capabilities, those of
// declared interfaces it implements in declaration order, then Any.
func (r *Registry) CapabilitiesOf(v any) Set {
	var s Set
	if p, ok := v.(Provider); ok {
		for _, c := range p.Capabilities() {
			s = s.add(c)
		}
	}

	t := reflect.TypeOf(v)
	if t != nil {
		r.mu.RLock()
		s = s.add(ForType(t))
		for _, c := range r.declared[t] {
			s = s.add(c)
		}
		for _, iface := range r.interfaces {
			if !t.Implements(iface) {
				continue
			}
			s = s.add(ForType(iface))
			for _, c := range r.declared[iface] {
				s = s.add(c)
			}
		}
		r.mu.RUnlock()
	}

	return s.add(Any)
}

// Register stores value for required, target and name, replacing any
// previous value for the same key.
func (r *Registry) Register(required []Capability, target Capability, name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := regKey{target: target, name: name, required: joinRequired(required)}
	if _, exists := r.values[key]; !exists {
		if !slices.Contains(r.names[target], name) {
			r.names[target] = append(r.names[target], name)
		}
		byName := r.arity[target]
		if byName == nil {
			byName = make(map[string]map[int]bool)
			r.arity[target] = byName
		}
		if byName[name] == nil {
			byName[name] = make(map[int]bool)
		}
		byName[name][len(required)] = true
	}
	r.values[key] = value
	log.Debug(log.CatCapability, "value registered", "target", target, "name", name, "required", Set(required))
}

// Lookup finds the value registered for target and name whose required
// capabilities are provided, one set per position. Combinations are tried
// in specificity order, earlier positions dominating later ones.
func (r *Registry) Lookup(provided []Set, target Capability, name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(provided, target, name)
}

func (r *Registry) lookup(provided []Set, target Capability, name string) (any, bool) {
	if !r.arity[target][name][len(provided)] {
		return nil, false
	}
	for _, set := range provided {
		if len(set) == 0 {
			return nil, false
		}
	}

	idx := make([]int, len(provided))
	combo := make([]Capability, len(provided))
	for {
		for i, j := range idx {
			combo[i] = provided[i][j]
		}
		if v, ok := r.values[regKey{target: target, name: name, required: joinRequired(combo)}]; ok {
			return v, true
		}

		// advance the rightmost position first
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(provided[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return nil, false
		}
	}
}

// LookupAll returns, for every name registered under target, the most
// specific value matching provided, sorted by name.
func (r *Registry) LookupAll(provided []Set, target Capability) []Named {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Named
	for _, name := range r.names[target] {
		if v, ok := r.lookup(provided, target, name); ok {
			out = append(out, Named{Name: name, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
