package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/walkabout/internal/capability"
	"github.com/zjrosen/walkabout/internal/dispatch"
	"github.com/zjrosen/walkabout/internal/predicate"
)

func TestDomain_Explain(t *testing.T) {
	d, _ := newTestDomain(t)
	require.NoError(t, d.AddCandidate("guarded", "", predicate.Values{"one": predicate.Single("ONE")}, capability.Capability("bar")))
	require.NoError(t, d.AddCandidate("zeroed", "", predicate.Values{"zero": predicate.Single("Z")}, capability.Capability("bar")))
	require.NoError(t, d.AddCandidate("fallback", "", nil, capability.Capability("bar")))

	got, err := d.Explain("", bar{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, "guarded", got[0].Entry.Candidate, "one was registered after zero, so it weighs more")
	require.Equal(t, []string{"one: ONE"}, got[0].Texts)
	require.False(t, got[0].Matched)
	require.False(t, got[0].Selected)

	require.Equal(t, "zeroed", got[1].Entry.Candidate)
	require.Equal(t, []string{"Z"}, got[1].Texts)
	require.True(t, got[1].Matched)
	require.True(t, got[1].Selected)

	require.Equal(t, "fallback", got[2].Entry.Candidate)
	require.Empty(t, got[2].Texts)
	require.True(t, got[2].Matched)
	require.False(t, got[2].Selected)

	elected, err := d.Lookup("", bar{})
	require.NoError(t, err)
	require.Equal(t, "zeroed", elected)
}

func TestDomain_Explain_NoTable(t *testing.T) {
	d, _ := newTestDomain(t)
	_, err := d.Explain("missing", bar{})
	require.ErrorIs(t, err, dispatch.ErrMismatch)
}

func TestDomain_Explain_UnknownFingerprint(t *testing.T) {
	reg := new(mockRegistry)
	d := New[string](target, reg)

	table := dispatch.NewTable[string]("")
	table.Add("orphan", predicate.FixedRank(1), "deadbeef")
	table.Add("fallback", predicate.FixedRank(2), "")

	reg.On("CapabilitiesOf", 1).Return(capability.Set{capability.Any})
	reg.On("Lookup", []capability.Set{{capability.Any}}, target, "").Return(table, true)

	_, err := d.Explain("", 1)
	require.ErrorIs(t, err, dispatch.ErrUnknownFingerprint)

	_, err = d.Lookup("", 1)
	require.ErrorIs(t, err, dispatch.ErrUnknownFingerprint)
}
