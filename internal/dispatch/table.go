// Package dispatch holds ranked candidates competing for one capability/name
// pair and elects the first one whose predicate chain holds.
package dispatch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/predicate"
)

// Dispatch errors
var (
	ErrMismatch           = errors.New("no candidate matched")
	ErrUnknownFingerprint = errors.New("no predicate chain for fingerprint")
	ErrNotDiscriminating  = errors.New("candidate does not provide a discriminator")
)

// MismatchError reports an election in which no candidate matched.
type MismatchError struct {
	Table string
}

func (e *MismatchError) Error() string {
	if e.Table == "" {
		return ErrMismatch.Error()
	}
	return fmt.Sprintf("%s: %q", ErrMismatch, e.Table)
}

// Unwrap lets errors.Is match ErrMismatch.
func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

// ChainSource resolves fingerprints to compiled predicate chains.
type ChainSource interface {
	Chain(fp predicate.Fingerprint) (predicate.Chain, bool)
}

// Chains is a map based ChainSource.
type Chains map[predicate.Fingerprint]predicate.Chain

// Chain implements ChainSource.
func (c Chains) Chain(fp predicate.Fingerprint) (predicate.Chain, bool) {
	chain, ok := c[fp]
	return chain, ok
}

// Discriminating candidates can describe the registration that was elected,
// for introspection tools.
type Discriminating interface {
	Discriminator(args ...any) any
}

// Entry is one ranked candidate. An empty Fingerprint makes the entry
// unconditional.
type Entry[C any] struct {
	Rank        predicate.Rank
	Candidate   C
	Fingerprint predicate.Fingerprint
}

// Table is an ordered set of candidates, ascending by rank. Entries with
// equal rank keep their insertion order. It is not safe for concurrent
// mutation.
type Table[C any] struct {
	name    string
	entries []Entry[C]
}

// NewTable creates an empty table.
func NewTable[C any](name string) *Table[C] {
	return &Table[C]{
		name:    name,
		entries: make([]Entry[C], 0),
	}
}

// Name returns the table name.
func (t *Table[C]) Name() string {
	return t.name
}

// Len returns the number of entries.
func (t *Table[C]) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in election order.
func (t *Table[C]) Entries() []Entry[C] {
	out := make([]Entry[C], len(t.entries))
	copy(out, t.entries)
	return out
}

// Add inserts a candidate. When fp is already present its candidate and
// rank are replaced in place, without re-sorting. Otherwise the entry is
// appended and the table re-sorted (stable).
func (t *Table[C]) Add(candidate C, rank predicate.Rank, fp predicate.Fingerprint) {
	if fp != "" {
		for i := range t.entries {
			if t.entries[i].Fingerprint == fp {
				t.entries[i].Candidate = candidate
				t.entries[i].Rank = rank
				log.Debug(log.CatDispatch, "candidate replaced", "table", t.name, "fingerprint", fp.Short(), "rank", rank)
				return
			}
		}
	}

	t.entries = append(t.entries, Entry[C]{Rank: rank, Candidate: candidate, Fingerprint: fp})
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].Rank.Less(t.entries[j].Rank)
	})
	log.Debug(log.CatDispatch, "candidate added", "table", t.name, "fingerprint", fp.Short(), "rank", rank, "entries", len(t.entries))
}

// Remove deletes the entry with fingerprint fp, reporting whether it existed.
func (t *Table[C]) Remove(fp predicate.Fingerprint) bool {
	for i := range t.entries {
		if t.entries[i].Fingerprint == fp {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Match elects the first entry whose chain holds for args. Unconditional
// entries always match. Fails with a *MismatchError when nothing matches.
func (t *Table[C]) Match(chains ChainSource, args ...any) (C, error) {
	var zero C
	for _, e := range t.entries {
		if e.Fingerprint == "" {
			return e.Candidate, nil
		}
		chain, ok := chains.Chain(e.Fingerprint)
		if !ok {
			return zero, fmt.Errorf("%w: %s in table %q", ErrUnknownFingerprint, e.Fingerprint, t.name)
		}
		if chain.Evaluate(args...) {
			return e.Candidate, nil
		}
	}
	return zero, &MismatchError{Table: t.name}
}

// Discriminator elects a candidate and asks it for its discriminator.
func (t *Table[C]) Discriminator(chains ChainSource, args ...any) (any, error) {
	candidate, err := t.Match(chains, args...)
	if err != nil {
		return nil, err
	}
	d, ok := any(candidate).(Discriminating)
	if !ok {
		return nil, fmt.Errorf("%w: table %q", ErrNotDiscriminating, t.name)
	}
	return d.Discriminator(args...), nil
}
