package topo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sorting errors
var (
	ErrOrdering = errors.New("unable to satisfy ordering constraints")
	ErrCycle    = errors.New("cyclic dependency in ordering constraints")
	ErrNotFound = errors.New("node not registered")
)

// OrderingError reports declared before/after constraints that lost every
// arc once absent targets were dropped. Names are sorted by their string form.
type OrderingError struct {
	Before []string
	After  []string
	// Unknown lists names that were supplied but never registered (used by
	// the predicate compiler for unrecognized predicate values).
	Unknown []string
}

func (e *OrderingError) Error() string {
	var parts []string
	if len(e.Before) > 0 {
		parts = append(parts, "unsatisfied before dependencies: "+strings.Join(e.Before, ", "))
	}
	if len(e.After) > 0 {
		parts = append(parts, "unsatisfied after dependencies: "+strings.Join(e.After, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown names: "+strings.Join(e.Unknown, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrOrdering, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrOrdering.
func (e *OrderingError) Unwrap() error {
	return ErrOrdering
}

// CycleError is an ordering failure caused by a cycle. Residual maps every
// node left unvisited to its outgoing arcs.
type CycleError[K comparable] struct {
	Residual map[Ref[K]][]Ref[K]
}

func (e *CycleError[K]) Error() string {
	keys := make([]string, 0, len(e.Residual))
	rendered := make(map[string]string, len(e.Residual))
	for from, tos := range e.Residual {
		names := make([]string, len(tos))
		for i, to := range tos {
			names[i] = to.String()
		}
		k := from.String()
		keys = append(keys, k)
		rendered[k] = fmt.Sprintf("%s -> [%s]", k, strings.Join(names, ", "))
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = rendered[k]
	}
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(lines, "; "))
}

// Unwrap reports both ErrCycle and ErrOrdering; a cycle is a specific
// ordering failure.
func (e *CycleError[K]) Unwrap() []error {
	return []error{ErrCycle, ErrOrdering}
}

// sortedStrings renders names and sorts them for deterministic messages.
func sortedStrings[K comparable](names []K) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprint(n)
	}
	sort.Strings(out)
	return out
}
