// Package topo implements a deterministic topological sorter over named
// values with before/after constraints.
//
// Two anchors, First and Last, are part of every sort and never appear in
// its output. Nodes added without constraints default to "before Last", so
// plain registration order is preserved.
//
// # Fallback constraints
//
// A constraint whose target is not registered is dropped silently. This lets
// a node express a preference followed by a fallback:
//
//	s.Add("retry", retry, topo.Names("excview"), []topo.Ref[string]{topo.Name("txnmgr"), topo.Last[string]()})
//
// After dropping, a node that declared before constraints must still have an
// arc leaving it, and one that declared after constraints an arc entering it;
// arcs declared by other nodes count. Otherwise Sorted returns an
// *OrderingError. Cycles are reported as *CycleError, which also matches
// ErrOrdering.
//
// # Determinism
//
// Output depends only on the sequence of Add/Remove calls. Nodes that become
// ready are pushed to the front of the work queue, so the most recently
// unblocked node is visited next.
package topo
