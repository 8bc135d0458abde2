package predicate

// Negation marks a predicate value whose predicate must be inverted.
type Negation struct {
	Value any
}

// Not wraps v so the predicate built from it is negated.
func Not(v any) Negation {
	return Negation{Value: v}
}

// Value is the value supplied for one predicate name: either a single value
// or an ordered group of values, each yielding its own predicate instance.
// Elements may be wrapped with Not.
type Value struct {
	items []any
	many  bool
}

// Single is a value that produces exactly one predicate.
func Single(v any) Value {
	return Value{items: []any{v}}
}

// Many is an ordered group of values; each element produces a predicate.
func Many(vs ...any) Value {
	items := make([]any, len(vs))
	copy(items, vs)
	return Value{items: items, many: true}
}

// Items returns the elements in order.
func (v Value) Items() []any {
	return v.items
}

// IsMany reports whether v was built with Many.
func (v Value) IsMany() bool {
	return v.many
}

// Values maps predicate names to the values supplied at registration.
type Values map[string]Value
