package predicate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/walkabout/internal/topo"
)

// labelled builds predicates rendered "<label>: <value>" that always
// evaluate to result.
func labelled(label string, result bool) Factory {
	return func(value, _ any) (Predicate, error) {
		return Basic{
			Label: fmt.Sprintf("%s: %v", label, value),
			Test:  func(...any) bool { return result },
		}, nil
	}
}

// empty builds predicates that contribute nothing to the fingerprint.
func empty(value, _ any) (Predicate, error) {
	return Basic{}, nil
}

func newTestList(t *testing.T) *List {
	t.Helper()
	l := NewList()
	require.NoError(t, l.Add("one", labelled("one", false), nil, nil))
	require.NoError(t, l.Add("two", labelled("two", false), nil, nil))
	require.NoError(t, l.Add("three", labelled("three", false), nil, nil))
	return l
}

func mustMake(t *testing.T, l *List, values Values) Compiled {
	t.Helper()
	c, err := l.Make(nil, values)
	require.NoError(t, err)
	return c
}

func TestList_Make_SameRankForSameNames(t *testing.T) {
	l := newTestList(t)
	c1 := mustMake(t, l, Values{"one": Single(true), "three": Single(false)})
	c2 := mustMake(t, l, Values{"one": Single(true), "three": Single(true)})
	require.Equal(t, 0, c1.Rank.Compare(c2.Rank))
	require.NotEqual(t, c1.Fingerprint, c2.Fingerprint)
}

func TestList_Make_LaterPredicateOutranksEarlier(t *testing.T) {
	l := newTestList(t)
	c1 := mustMake(t, l, Values{"one": Single(true), "two": Single(false)})
	c2 := mustMake(t, l, Values{"one": Single(true), "three": Single(true)})
	require.True(t, c2.Rank.Less(c1.Rank), "three was added after two, so it weighs more")
}

func TestList_Make_HigherCountWins(t *testing.T) {
	l := newTestList(t)
	c1 := mustMake(t, l, Values{"one": Single(true), "three": Single(false)})
	c2 := mustMake(t, l, Values{"two": Single(true)})
	require.True(t, c1.Rank.Less(c2.Rank))
}

func TestList_Make_SingleNameImportance(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add("a", labelled("a", true), nil, nil))
	require.NoError(t, l.Add("b", labelled("b", true), nil, nil))

	onlyA := mustMake(t, l, Values{"a": Single(1)})
	onlyB := mustMake(t, l, Values{"b": Single(1)})
	require.True(t, onlyB.Rank.Less(onlyA.Rank))
}

func TestList_Make_ExplicitPrecedence(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add("one", labelled("one", false), nil, nil))
	require.NoError(t, l.Add("two", labelled("two", false), nil, topo.Names("one")))
	require.NoError(t, l.Add("three", labelled("three", false), nil, topo.Names("two")))

	order, err := l.Order()
	require.NoError(t, err)
	require.Equal(t, []Weighted{
		{Name: "three", Index: 0, Weight: 2},
		{Name: "two", Index: 1, Weight: 4},
		{Name: "one", Index: 2, Weight: 8},
	}, order)

	c1 := mustMake(t, l, Values{"one": Single(true), "two": Single(false)})
	c2 := mustMake(t, l, Values{"one": Single(true), "three": Single(true)})
	require.True(t, c1.Rank.Less(c2.Rank))
}

func TestList_Make_Negated(t *testing.T) {
	l := newTestList(t)
	c := mustMake(t, l, Values{
		"one":   Single("ONE"),
		"two":   Single(Not("TWO")),
		"three": Single(Not("THREE")),
	})

	require.Equal(t, []string{"one: ONE", "!two: TWO", "!three: THREE"}, c.Chain.Texts())
	require.False(t, c.Chain[0].Evaluate())
	require.True(t, c.Chain[1].Evaluate())
	require.True(t, c.Chain[2].Evaluate())
	require.False(t, c.Chain.Evaluate())
}

func TestList_Make_UnknownPredicate(t *testing.T) {
	l := newTestList(t)
	_, err := l.Make(nil, Values{"one": Single("ONE"), "nonesuch": Single("NONESUCH"), "bogus": Single(1)})
	require.ErrorIs(t, err, topo.ErrOrdering)

	var oerr *topo.OrderingError
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, []string{"bogus", "nonesuch"}, oerr.Unknown)
}

func TestList_Make_NoPredicates(t *testing.T) {
	l := newTestList(t)
	c := mustMake(t, l, nil)
	require.Equal(t, 0, c.Rank.Compare(MaxRank))
	require.Empty(t, c.Chain)
	require.Equal(t, EmptyFingerprint, c.Fingerprint)
	require.True(t, c.Chain.Evaluate("anything"))
}

func TestList_Make_AnyPredicateRanksBelowMax(t *testing.T) {
	l := newTestList(t)
	for _, name := range []string{"one", "two", "three"} {
		c := mustMake(t, l, Values{name: Single(1)})
		require.True(t, c.Rank.Less(MaxRank), name)
	}
}

func TestList_Make_Many(t *testing.T) {
	l := newTestList(t)
	c := mustMake(t, l, Values{
		"one": Many("a", Not("b"), "c"),
		"two": Single("x"),
	})
	require.Equal(t, []string{"one: a", "!one: b", "one: c", "two: x"}, c.Chain.Texts())

	// four predicates, bits for "one" (2) and "two" (4)
	require.Equal(t, 0, c.Rank.Compare(Rank{num: maxRank - 6, den: 5}))
	require.True(t, Many().IsMany())
	require.False(t, Single(1).IsMany())
}

func TestList_Make_EmptyPredicateLeavesFingerprint(t *testing.T) {
	l := newTestList(t)
	require.NoError(t, l.Add("noop", empty, nil, nil))

	plain := mustMake(t, l, Values{"one": Single("ONE")})
	withNoop := mustMake(t, l, Values{"one": Single("ONE"), "noop": Single("ignored")})
	withNegatedNoop := mustMake(t, l, Values{"one": Single("ONE"), "noop": Single(Not("ignored"))})

	require.Equal(t, plain.Fingerprint, withNoop.Fingerprint)
	require.Equal(t, plain.Fingerprint, withNegatedNoop.Fingerprint)
	require.True(t, withNoop.Rank.Less(plain.Rank))
	require.True(t, withNegatedNoop.Chain[1].Evaluate())
}

func TestList_Make_FactoryError(t *testing.T) {
	l := NewList()
	boom := errors.New("boom")
	require.NoError(t, l.Add("bad", func(any, any) (Predicate, error) { return nil, boom }, nil, nil))

	_, err := l.Make(nil, Values{"bad": Single(1)})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "predicate bad")
}

func TestList_Make_PassesContext(t *testing.T) {
	l := NewList()
	var got any
	require.NoError(t, l.Add("ctx", func(value, ctx any) (Predicate, error) {
		got = ctx
		return Basic{Label: "ctx"}, nil
	}, nil, nil))

	c, err := l.Make("registry", Values{"ctx": Single(1)})
	require.NoError(t, err)
	require.Len(t, c.Chain, 1)
	require.Equal(t, "registry", got)
}

func TestList_Make_OrderingErrorPropagates(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add("one", labelled("one", true), nil, topo.Names("missing")))

	_, err := l.Make(nil, Values{"one": Single(1)})
	require.ErrorIs(t, err, topo.ErrOrdering)
}

func TestList_Add_Validation(t *testing.T) {
	l := NewList()
	require.ErrorIs(t, l.Add("", labelled("x", true), nil, nil), ErrEmptyName)
	require.ErrorIs(t, l.Add("x", nil, nil, nil), ErrNilFactory)
	require.Equal(t, 0, l.Len())
}

func TestList_Add_ReplaceKeepsPosition(t *testing.T) {
	l := newTestList(t)
	require.NoError(t, l.Add("one", labelled("uno", true), nil, nil))

	order, err := l.Order()
	require.NoError(t, err)
	require.Equal(t, "one", order[0].Name)

	c := mustMake(t, l, Values{"one": Single(1)})
	require.Equal(t, []string{"uno: 1"}, c.Chain.Texts())
}

func TestList_Remove(t *testing.T) {
	l := newTestList(t)
	require.NoError(t, l.Remove("two"))
	require.Equal(t, 2, l.Len())
	require.ErrorIs(t, l.Remove("two"), topo.ErrNotFound)

	_, err := l.Make(nil, Values{"two": Single(1)})
	require.ErrorIs(t, err, topo.ErrOrdering)
}

func TestList_TooManyPredicates(t *testing.T) {
	l := NewList()
	for i := 0; i <= MaxPredicates; i++ {
		require.NoError(t, l.Add(fmt.Sprintf("p%d", i), labelled("p", true), nil, nil))
	}
	_, err := l.Make(nil, nil)
	require.ErrorIs(t, err, ErrTooManyPredicates)
	_, err = l.Order()
	require.ErrorIs(t, err, ErrTooManyPredicates)
}

// === Property-Based Tests ===

func TestList_Make_FingerprintStability(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := NewList()
		for _, n := range []string{"one", "two", "three"} {
			if err := l.Add(n, labelled(n, true), nil, nil); err != nil {
				t.Fatal(err)
			}
		}

		values := Values{}
		for _, n := range []string{"one", "two", "three"} {
			if !rapid.Bool().Draw(t, n+"_present") {
				continue
			}
			v := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, n+"_value")
			if rapid.Bool().Draw(t, n+"_negated") {
				values[n] = Single(Not(v))
			} else {
				values[n] = Single(v)
			}
		}

		c1, err := l.Make(nil, values)
		if err != nil {
			t.Fatal(err)
		}
		c2, err := l.Make(nil, values)
		if err != nil {
			t.Fatal(err)
		}
		if c1.Fingerprint != c2.Fingerprint || c1.Rank.Compare(c2.Rank) != 0 {
			t.Fatalf("unstable compile: %v vs %v", c1, c2)
		}

		if len(values) == 0 {
			return
		}
		changed := Values{}
		for k, v := range values {
			changed[k] = v
		}
		for _, n := range []string{"one", "two", "three"} {
			if v, ok := values[n]; ok {
				item := v.Items()[0]
				if neg, ok := item.(Negation); ok {
					changed[n] = Single(Not(neg.Value.(string) + "~"))
				} else {
					changed[n] = Single(item.(string) + "~")
				}
				break
			}
		}
		c3, err := l.Make(nil, changed)
		if err != nil {
			t.Fatal(err)
		}
		if c3.Fingerprint == c1.Fingerprint {
			t.Fatalf("changing a value kept fingerprint %s", c1.Fingerprint)
		}
	})
}
