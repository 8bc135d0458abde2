// Package domain combines a predicate list, dispatch tables and a capability
// registry into a multi-dispatch facade: candidates are registered for a
// tuple of argument capabilities plus predicate values, and lookups elect the
// most specific candidate whose predicates hold for the actual arguments.
//
// Registration is single-writer. Once configured, Lookup and All may be
// called concurrently provided the Registry is safe for concurrent readers.
package domain

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/zjrosen/walkabout/internal/cachemanager"
	"github.com/zjrosen/walkabout/internal/capability"
	"github.com/zjrosen/walkabout/internal/dispatch"
	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/predicate"
	"github.com/zjrosen/walkabout/internal/topo"
)

// Domain errors
var (
	ErrInvalidArgument = errors.New("invalid dispatch argument")
	ErrRegistryValue   = errors.New("registry holds a foreign value")
)

// Registry stores dispatch tables keyed by required capabilities, target
// and name, and describes the capabilities of lookup arguments.
type Registry interface {
	Register(required []capability.Capability, target capability.Capability, name string, value any)
	Lookup(provided []capability.Set, target capability.Capability, name string) (any, bool)
	LookupAll(provided []capability.Set, target capability.Capability) []capability.Named
	CapabilitiesOf(v any) capability.Set
}

var _ Registry = (*capability.Registry)(nil)

// Named is a candidate elected for a registration name.
type Named[C any] struct {
	Name      string
	Candidate C
}

// Domain dispatches lookups for one target capability.
type Domain[C any] struct {
	target     capability.Capability
	registry   Registry
	predicates *predicate.List
	chains     *cachemanager.ChainStore
}

// New creates a domain for target backed by registry. Options configure the
// predicate ordering.
func New[C any](target capability.Capability, registry Registry, opts ...topo.Option[string]) *Domain[C] {
	return &Domain[C]{
		target:     target,
		registry:   registry,
		predicates: predicate.NewList(opts...),
		chains:     cachemanager.NewChainStore(),
	}
}

// Target returns the capability this domain dispatches for.
func (d *Domain[C]) Target() capability.Capability {
	return d.target
}

// AddPredicate registers a predicate factory. See predicate.List.Add for the
// meaning of before and after.
func (d *Domain[C]) AddPredicate(name string, factory predicate.Factory, before, after []topo.Ref[string]) error {
	return d.predicates.Add(name, factory, before, after)
}

// Order returns the registered predicates in evaluation order.
func (d *Domain[C]) Order() ([]predicate.Weighted, error) {
	return d.predicates.Order()
}

// AddCandidate registers candidate under name for the argument capabilities
// in forArgs, guarded by the predicates named in values.
//
// Each element of forArgs is a capability.Capability or a reflect.Type. At
// least one is required. Predicate factories receive the domain's Registry
// as their context.
func (d *Domain[C]) AddCandidate(candidate C, name string, values predicate.Values, forArgs ...any) error {
	required, err := normalize(forArgs)
	if err != nil {
		return err
	}

	compiled, err := d.predicates.Make(d.registry, values)
	if err != nil {
		return fmt.Errorf("compile predicates for %q: %w", name, err)
	}

	table, err := d.tableFor(required, name)
	if err != nil {
		return err
	}

	table.Add(candidate, compiled.Rank, compiled.Fingerprint)
	d.chains.Put(compiled.Fingerprint, compiled.Chain)

	log.Debug(log.CatDomain, "candidate registered",
		"target", d.target,
		"name", name,
		"for", capability.Set(required),
		"rank", compiled.Rank,
		"fingerprint", compiled.Fingerprint.Short())
	return nil
}

func normalize(forArgs []any) ([]capability.Capability, error) {
	if len(forArgs) == 0 {
		return nil, fmt.Errorf("%w: at least one dispatch argument is required", ErrInvalidArgument)
	}
	required := make([]capability.Capability, len(forArgs))
	for i, a := range forArgs {
		switch v := a.(type) {
		case capability.Capability:
			if v == "" {
				return nil, fmt.Errorf("%w: argument %d is an empty capability", ErrInvalidArgument, i)
			}
			required[i] = v
		case reflect.Type:
			if v == nil {
				return nil, fmt.Errorf("%w: argument %d is a nil type", ErrInvalidArgument, i)
			}
			required[i] = capability.ForType(v)
		default:
			return nil, fmt.Errorf("%w: argument %d is %T, want capability.Capability or reflect.Type", ErrInvalidArgument, i, a)
		}
	}
	return required, nil
}

// tableFor fetches the table registered for exactly required, creating and
// registering it when absent.
func (d *Domain[C]) tableFor(required []capability.Capability, name string) (*dispatch.Table[C], error) {
	exact := make([]capability.Set, len(required))
	for i, c := range required {
		exact[i] = capability.Set{c}
	}

	if v, ok := d.registry.Lookup(exact, d.target, name); ok {
		table, ok := v.(*dispatch.Table[C])
		if !ok {
			return nil, fmt.Errorf("%w: %T registered for %q", ErrRegistryValue, v, name)
		}
		return table, nil
	}

	table := dispatch.NewTable[C](name)
	d.registry.Register(required, d.target, name, table)
	return table, nil
}

func (d *Domain[C]) provided(args []any) []capability.Set {
	provided := make([]capability.Set, len(args))
	for i, a := range args {
		provided[i] = d.registry.CapabilitiesOf(a)
	}
	return provided
}

// Table returns the dispatch table a lookup of name with args would consult.
func (d *Domain[C]) Table(name string, args ...any) (*dispatch.Table[C], bool) {
	v, ok := d.registry.Lookup(d.provided(args), d.target, name)
	if !ok {
		return nil, false
	}
	table, ok := v.(*dispatch.Table[C])
	return table, ok
}

// Chain returns the compiled predicate chain for a fingerprint.
func (d *Domain[C]) Chain(fp predicate.Fingerprint) (predicate.Chain, bool) {
	return d.chains.Chain(fp)
}

// Lookup elects the candidate registered under name for args. It fails with
// a *dispatch.MismatchError when no table applies or no entry matches.
func (d *Domain[C]) Lookup(name string, args ...any) (C, error) {
	var zero C
	if len(args) == 0 {
		return zero, fmt.Errorf("%w: at least one dispatch argument is required", ErrInvalidArgument)
	}

	table, ok := d.Table(name, args...)
	if !ok {
		return zero, &dispatch.MismatchError{Table: name}
	}
	return table.Match(d.chains, args...)
}

// All elects one candidate per registration name applicable to args,
// ordered by name. Names whose table has no matching entry are omitted.
// Any other election failure is logged and the name omitted.
func (d *Domain[C]) All(args ...any) []Named[C] {
	var out []Named[C]
	for _, n := range d.registry.LookupAll(d.provided(args), d.target) {
		table, ok := n.Value.(*dispatch.Table[C])
		if !ok {
			continue
		}
		candidate, err := table.Match(d.chains, args...)
		if err != nil {
			if !errors.Is(err, dispatch.ErrMismatch) {
				log.ErrorErr(log.CatDomain, "election failed", err, "target", d.target, "name", n.Name)
			}
			continue
		}
		out = append(out, Named[C]{Name: n.Name, Candidate: candidate})
	}
	return out
}
