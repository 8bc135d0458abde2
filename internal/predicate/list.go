package predicate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/topo"
)

// MaxPredicates bounds the number of registered predicates; each one owns a
// bit of a 64-bit score.
const MaxPredicates = 62

// List errors
var (
	ErrEmptyName         = errors.New("predicate name cannot be empty")
	ErrNilFactory        = errors.New("predicate factory cannot be nil")
	ErrTooManyPredicates = errors.New("too many predicates registered")
)

// Compiled is the result of compiling predicate values for one candidate.
type Compiled struct {
	Rank        Rank
	Chain       Chain
	Fingerprint Fingerprint
}

// Weighted describes one registered predicate in evaluation order.
type Weighted struct {
	Name   string
	Index  int
	Weight uint64
}

// List holds the registered predicate factories in precedence order and
// compiles predicate values into chains.
type List struct {
	sorter *topo.Sorter[string, Factory]
}

// NewList creates an empty list. Options configure the underlying sorter.
func NewList(opts ...topo.Option[string]) *List {
	return &List{sorter: topo.NewSorter[string, Factory](opts...)}
}

// Add registers factory under name. Register cheaper predicates first.
//
// before and after are precedence terms: a predicate declared after another
// carries less weight than it and is evaluated ahead of it. Re-adding a name
// replaces its factory and constraints without moving it.
func (l *List) Add(name string, factory Factory, before, after []topo.Ref[string]) error {
	if name == "" {
		return ErrEmptyName
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, name)
	}
	l.sorter.Add(name, factory, before, after)
	log.Debug(log.CatPredicate, "predicate registered", "name", name, "count", l.sorter.Len())
	return nil
}

// Remove unregisters name.
func (l *List) Remove(name string) error {
	return l.sorter.Remove(name)
}

// Len returns the number of registered predicates.
func (l *List) Len() int {
	return l.sorter.Len()
}

// Order returns registered predicates in evaluation order with their weights.
func (l *List) Order() ([]Weighted, error) {
	ordered, err := l.sorter.Sorted()
	if err != nil {
		return nil, err
	}
	if len(ordered) > MaxPredicates {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyPredicates, len(ordered), MaxPredicates)
	}
	out := make([]Weighted, len(ordered))
	for i, item := range ordered {
		out[i] = Weighted{Name: item.Name, Index: i, Weight: weight(i)}
	}
	return out, nil
}

func weight(index int) uint64 {
	return 1 << (index + 1)
}

// Make compiles values into a predicate chain.
//
// Predicates are instantiated in evaluation order; names without a value are
// skipped. Each produced predicate contributes the weight of its factory's
// position, and the weights are ORed into a score. The rank is
// (MaxRank - score) / (len(chain) + 1), so more predicates, and predicates
// registered later, rank lower and are tried first. A chain without
// predicates ranks exactly MaxRank.
//
// Values naming unregistered predicates fail with a *topo.OrderingError.
func (l *List) Make(ctx any, values Values) (Compiled, error) {
	ordered, err := l.sorter.Sorted()
	if err != nil {
		return Compiled{}, fmt.Errorf("order predicates: %w", err)
	}
	if len(ordered) > MaxPredicates {
		return Compiled{}, fmt.Errorf("%w: %d (max %d)", ErrTooManyPredicates, len(ordered), MaxPredicates)
	}

	remaining := make(map[string]struct{}, len(values))
	for name := range values {
		remaining[name] = struct{}{}
	}

	d := newDigest()
	var score uint64
	var chain Chain
	for i, item := range ordered {
		v, ok := values[item.Name]
		if !ok {
			continue
		}
		delete(remaining, item.Name)

		for _, raw := range v.Items() {
			val, negated := raw, false
			if n, ok := raw.(Negation); ok {
				val, negated = n.Value, true
			}
			p, err := item.Value(val, ctx)
			if err != nil {
				return Compiled{}, fmt.Errorf("predicate %s: %w", item.Name, err)
			}
			if negated {
				p = Negate(p)
			}
			d.write(p.Hash())
			score |= weight(i)
			chain = append(chain, p)
		}
	}

	if len(remaining) > 0 {
		unknown := make([]string, 0, len(remaining))
		for name := range remaining {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return Compiled{}, &topo.OrderingError{Unknown: unknown}
	}

	return Compiled{
		Rank:        computeRank(score, len(chain)),
		Chain:       chain,
		Fingerprint: d.sum(),
	}, nil
}
