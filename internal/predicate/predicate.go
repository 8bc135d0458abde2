package predicate

// Predicate is a named boolean test over dispatch call arguments.
type Predicate interface {
	// Evaluate reports whether the predicate holds for args.
	Evaluate(args ...any) bool

	// Text is a human readable rendering, e.g. "method = GET".
	Text() string

	// Hash returns the parts this predicate contributes to a fingerprint.
	// A predicate with no non-empty parts is empty: it is still evaluated
	// but leaves the fingerprint untouched.
	Hash() []string
}

// Factory builds a Predicate from a registration value and a caller supplied
// context (the Domain passes its capability registry).
type Factory func(value any, ctx any) (Predicate, error)

// IsEmpty reports whether p contributes nothing to a fingerprint.
func IsEmpty(p Predicate) bool {
	return emptyHash(p.Hash())
}

func emptyHash(parts []string) bool {
	for _, h := range parts {
		if h != "" {
			return false
		}
	}
	return true
}

// Basic is a Predicate built from a label and a test function. Its label
// serves as both text and hash; an empty label makes it an empty predicate.
type Basic struct {
	Label string
	Test  func(args ...any) bool
}

// Evaluate runs the test function. A nil test always holds.
func (b Basic) Evaluate(args ...any) bool {
	if b.Test == nil {
		return true
	}
	return b.Test(args...)
}

func (b Basic) Text() string {
	return b.Label
}

func (b Basic) Hash() []string {
	if b.Label == "" {
		return nil
	}
	return []string{b.Label}
}

// Negated inverts a wrapped predicate. Empty predicates are not really
// predicates, so they are passed through unchanged.
type Negated struct {
	Predicate Predicate
}

// Negate wraps p in a Negated.
func Negate(p Predicate) *Negated {
	return &Negated{Predicate: p}
}

func (n *Negated) Evaluate(args ...any) bool {
	result := n.Predicate.Evaluate(args...)
	if !IsEmpty(n.Predicate) {
		result = !result
	}
	return result
}

func (n *Negated) Text() string {
	text := n.Predicate.Text()
	if text == "" {
		return ""
	}
	return "!" + text
}

// Hash prefixes every non-empty part of the wrapped hash with "!".
func (n *Negated) Hash() []string {
	parts := n.Predicate.Hash()
	if emptyHash(parts) {
		return parts
	}
	out := make([]string, len(parts))
	for i, h := range parts {
		if h != "" {
			h = "!" + h
		}
		out[i] = h
	}
	return out
}

// Chain is the ordered list of predicates compiled for one candidate.
type Chain []Predicate

// Evaluate reports whether every predicate holds, in chain order, stopping
// at the first failure. An empty chain always holds.
func (c Chain) Evaluate(args ...any) bool {
	for _, p := range c {
		if !p.Evaluate(args...) {
			return false
		}
	}
	return true
}

// Texts renders every predicate in chain order.
func (c Chain) Texts() []string {
	texts := make([]string, len(c))
	for i, p := range c {
		texts[i] = p.Text()
	}
	return texts
}
