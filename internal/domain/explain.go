package domain

import (
	"fmt"

	"github.com/zjrosen/walkabout/internal/dispatch"
	"github.com/zjrosen/walkabout/internal/predicate"
)

// Explanation describes one entry of a consulted table.
type Explanation[C any] struct {
	Entry    dispatch.Entry[C]
	Texts    []string
	Matched  bool
	Selected bool
}

// Explain evaluates every entry of the table a lookup of name with args
// would consult, in election order. The first matching entry is Selected.
// Like Lookup, it fails when an entry's fingerprint has no chain.
func (d *Domain[C]) Explain(name string, args ...any) ([]Explanation[C], error) {
	table, ok := d.Table(name, args...)
	if !ok {
		return nil, &dispatch.MismatchError{Table: name}
	}

	entries := table.Entries()
	fps := make([]predicate.Fingerprint, 0, len(entries))
	for _, e := range entries {
		if e.Fingerprint != "" {
			fps = append(fps, e.Fingerprint)
		}
	}
	chains := d.chains.Chains(fps...)

	out := make([]Explanation[C], len(entries))
	selected := false
	for i, e := range entries {
		x := Explanation[C]{Entry: e, Matched: true}
		if e.Fingerprint != "" {
			chain, ok := chains[e.Fingerprint]
			if !ok {
				return nil, fmt.Errorf("%w: %s in table %q", dispatch.ErrUnknownFingerprint, e.Fingerprint, table.Name())
			}
			x.Texts = chain.Texts()
			x.Matched = chain.Evaluate(args...)
		}
		if x.Matched && !selected {
			x.Selected = true
			selected = true
		}
		out[i] = x
	}
	return out, nil
}
