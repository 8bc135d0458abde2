package topo

import (
	"fmt"
	"slices"

	"github.com/zjrosen/walkabout/internal/log"
)

type anchor uint8

const (
	anchorNone anchor = iota
	anchorFirst
	anchorLast
)

// Ref is one end of an ordering constraint: either a registered name or one
// of the two anchors that bracket every sort.
type Ref[K comparable] struct {
	anchor anchor
	name   K
}

// Name refers to a registered node.
func Name[K comparable](name K) Ref[K] {
	return Ref[K]{name: name}
}

// Names converts names into refs, preserving order.
func Names[K comparable](names ...K) []Ref[K] {
	refs := make([]Ref[K], len(names))
	for i, n := range names {
		refs[i] = Name(n)
	}
	return refs
}

// First is the anchor that precedes everything not explicitly placed before it.
func First[K comparable]() Ref[K] {
	return Ref[K]{anchor: anchorFirst}
}

// Last is the anchor that follows everything not explicitly placed after it.
func Last[K comparable]() Ref[K] {
	return Ref[K]{anchor: anchorLast}
}

// ParseRefs converts textual refs, where FIRST and LAST spell the anchors.
// It returns nil for no names.
func ParseRefs(names ...string) []Ref[string] {
	if len(names) == 0 {
		return nil
	}
	refs := make([]Ref[string], len(names))
	for i, n := range names {
		switch n {
		case "FIRST":
			refs[i] = First[string]()
		case "LAST":
			refs[i] = Last[string]()
		default:
			refs[i] = Name(n)
		}
	}
	return refs
}

// IsAnchor reports whether the ref is First or Last.
func (r Ref[K]) IsAnchor() bool {
	return r.anchor != anchorNone
}

// Name returns the referenced name. ok is false for anchors.
func (r Ref[K]) Name() (name K, ok bool) {
	return r.name, r.anchor == anchorNone
}

func (r Ref[K]) String() string {
	switch r.anchor {
	case anchorFirst:
		return "FIRST"
	case anchorLast:
		return "LAST"
	default:
		return fmt.Sprint(r.name)
	}
}

// Item is one sorted name/value pair.
type Item[K comparable, V any] struct {
	Name  K
	Value V
}

type edge[K comparable] struct {
	from, to Ref[K]
	owner    K
}

type node[V any] struct {
	value     V
	reqAfter  bool
	reqBefore bool
}

// Option configures a Sorter.
type Option[K comparable] func(*sorterOptions[K])

type sorterOptions[K comparable] struct {
	defaultAfter  []Ref[K]
	defaultBefore []Ref[K]
}

// WithDefaults sets the constraints applied when Add is called with neither
// after nor before. The default is before=Last.
func WithDefaults[K comparable](after, before []Ref[K]) Option[K] {
	return func(o *sorterOptions[K]) {
		o.defaultAfter = slices.Clone(after)
		o.defaultBefore = slices.Clone(before)
	}
}

// Sorter orders named values under before/after constraints.
// It is not safe for concurrent mutation.
type Sorter[K comparable, V any] struct {
	names []K // registration slots, in first-registration order
	nodes map[K]*node[V]
	edges []edge[K]

	defaultAfter  []Ref[K]
	defaultBefore []Ref[K]
}

// NewSorter creates an empty sorter.
func NewSorter[K comparable, V any](opts ...Option[K]) *Sorter[K, V] {
	o := sorterOptions[K]{defaultBefore: []Ref[K]{Last[K]()}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Sorter[K, V]{
		names:         make([]K, 0),
		nodes:         make(map[K]*node[V]),
		defaultAfter:  o.defaultAfter,
		defaultBefore: o.defaultBefore,
	}
}

// Add inserts a node or fully replaces an existing one. Replacing drops the
// node's previous constraints but keeps its registration slot.
// When both after and before are empty the configured defaults apply.
func (s *Sorter[K, V]) Add(name K, value V, after, before []Ref[K]) {
	if _, exists := s.nodes[name]; exists {
		s.dropEdges(name)
	} else {
		s.names = append(s.names, name)
	}

	if len(after) == 0 && len(before) == 0 {
		after, before = s.defaultAfter, s.defaultBefore
	}

	n := &node[V]{value: value}
	for _, u := range after {
		s.edges = append(s.edges, edge[K]{from: u, to: Name(name), owner: name})
		n.reqAfter = true
	}
	for _, o := range before {
		s.edges = append(s.edges, edge[K]{from: Name(name), to: o, owner: name})
		n.reqBefore = true
	}
	s.nodes[name] = n
}

// Remove deletes a node and the constraints it declared.
func (s *Sorter[K, V]) Remove(name K) error {
	if _, exists := s.nodes[name]; !exists {
		return fmt.Errorf("%w: %v", ErrNotFound, name)
	}
	s.dropEdges(name)
	delete(s.nodes, name)
	s.names = slices.DeleteFunc(s.names, func(n K) bool { return n == name })
	return nil
}

// Has reports whether name is registered.
func (s *Sorter[K, V]) Has(name K) bool {
	_, ok := s.nodes[name]
	return ok
}

// Len returns the number of registered nodes.
func (s *Sorter[K, V]) Len() int {
	return len(s.names)
}

// Names returns registered names in registration order.
func (s *Sorter[K, V]) Names() []K {
	return slices.Clone(s.names)
}

func (s *Sorter[K, V]) dropEdges(owner K) {
	s.edges = slices.DeleteFunc(s.edges, func(e edge[K]) bool { return e.owner == owner })
}

type vertex[K comparable] struct {
	indegree int
	children []Ref[K]
}

// Sorted returns the registered values in topological order.
//
// Arcs whose endpoints are not both present are dropped, which lets a node
// name optional targets followed by a fallback (e.g. before "txn", Last).
// A node that declared before (or after) constraints must keep at least one
// surviving arc on that side, whichever node declared it; otherwise the
// sort fails with an ordering error.
// Nodes that become ready are pushed to the front of the queue, so the most
// recently unblocked node is visited next.
func (s *Sorter[K, V]) Sorted() ([]Item[K, V], error) {
	first, last := First[K](), Last[K]()

	graph := make(map[Ref[K]]*vertex[K], len(s.names)+2)
	roots := make([]Ref[K], 0, len(s.names)+2)
	addNode := func(r Ref[K]) {
		if _, ok := graph[r]; !ok {
			graph[r] = &vertex[K]{}
			roots = append(roots, r)
		}
	}
	addArc := func(from, to Ref[K]) {
		graph[from].children = append(graph[from].children, to)
		graph[to].indegree++
		if i := slices.Index(roots, to); i >= 0 {
			roots = slices.Delete(roots, i, i+1)
		}
	}

	addNode(first)
	addNode(last)
	for _, n := range s.names {
		addNode(Name(n))
	}

	addArc(first, last)
	arcs := 0
	hasAfter := make(map[K]bool)
	hasBefore := make(map[K]bool)
	for _, e := range s.edges {
		if _, ok := graph[e.from]; !ok {
			continue
		}
		if _, ok := graph[e.to]; !ok {
			continue
		}
		addArc(e.from, e.to)
		arcs++
		if n, ok := e.from.Name(); ok {
			hasBefore[n] = true
		}
		if n, ok := e.to.Name(); ok {
			hasAfter[n] = true
		}
	}

	var missingBefore, missingAfter []K
	for _, n := range s.names {
		nd := s.nodes[n]
		if nd.reqBefore && !hasBefore[n] {
			missingBefore = append(missingBefore, n)
		}
		if nd.reqAfter && !hasAfter[n] {
			missingAfter = append(missingAfter, n)
		}
	}
	if len(missingBefore) > 0 || len(missingAfter) > 0 {
		return nil, &OrderingError{
			Before: sortedStrings(missingBefore),
			After:  sortedStrings(missingAfter),
		}
	}

	visited := make([]Ref[K], 0, len(graph))
	for len(roots) > 0 {
		root := roots[0]
		roots = roots[1:]
		visited = append(visited, root)
		for _, child := range graph[root].children {
			v := graph[child]
			v.indegree--
			if v.indegree == 0 {
				roots = slices.Insert(roots, 0, child)
			}
		}
		delete(graph, root)
	}

	if len(graph) > 0 {
		residual := make(map[Ref[K]][]Ref[K], len(graph))
		for r, v := range graph {
			residual[r] = slices.Clone(v.children)
		}
		return nil, &CycleError[K]{Residual: residual}
	}

	log.Debug(log.CatSort, "nodes sorted", "nodes", len(s.names), "arcs", arcs)

	result := make([]Item[K, V], 0, len(s.names))
	for _, r := range visited {
		name, ok := r.Name()
		if !ok {
			continue
		}
		result = append(result, Item[K, V]{Name: name, Value: s.nodes[name].value})
	}
	return result, nil
}
