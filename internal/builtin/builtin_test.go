package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/walkabout/internal/capability"
	"github.com/zjrosen/walkabout/internal/predicate"
)

func build(t *testing.T, f predicate.Factory, value any) predicate.Predicate {
	t.Helper()
	p, err := f(value, nil)
	require.NoError(t, err)
	return p
}

func TestParseSubject(t *testing.T) {
	s, err := ParseSubject("file: path=src/main.go , lang=go")
	require.NoError(t, err)
	require.Equal(t, Subject{Kind: "file", Fields: map[string]string{"path": "src/main.go", "lang": "go"}}, s)
	require.Equal(t, "file:lang=go,path=src/main.go", s.String())

	s, err = ParseSubject("request")
	require.NoError(t, err)
	require.Equal(t, "request", s.Kind)
	require.Empty(t, s.Fields)

	for _, bad := range []string{"", ":a=b", "file:novalue", "file:=x"} {
		_, err := ParseSubject(bad)
		require.ErrorIs(t, err, ErrInvalidSubject, bad)
	}
}

func TestSubject_Capabilities(t *testing.T) {
	reg := capability.NewRegistry()
	caps := reg.CapabilitiesOf(Subject{Kind: "file"})
	require.Equal(t, KindCapability("file"), caps[0])
	require.True(t, caps.Contains(capability.Any))
	require.Nil(t, Subject{}.Capabilities())

	caps = reg.CapabilitiesOf(Subject{Kind: "go", Extends: []string{"file"}})
	require.Equal(t, KindCapability("go"), caps[0])
	require.Equal(t, KindCapability("file"), caps[1])
}

func TestEquals(t *testing.T) {
	p := build(t, Equals(Spec{Field: "method"}), "GET")
	assert.Equal(t, "method = GET", p.Text())
	assert.Equal(t, []string{"method = GET"}, p.Hash())

	assert.True(t, p.Evaluate(Subject{Fields: map[string]string{"method": "GET"}}))
	assert.True(t, p.Evaluate(&Subject{Fields: map[string]string{"method": "GET"}}))
	assert.False(t, p.Evaluate(Subject{Fields: map[string]string{"method": "POST"}}))
	assert.False(t, p.Evaluate(Subject{}))
	assert.False(t, p.Evaluate("GET"))
	assert.False(t, p.Evaluate())
	assert.False(t, p.Evaluate((*Subject)(nil)))

	_, err := Equals(Spec{Field: "method"})(nil, nil)
	require.ErrorIs(t, err, ErrBadValue)

	n := build(t, Equals(Spec{Field: "n"}), 3)
	assert.True(t, n.Evaluate(Subject{Fields: map[string]string{"n": "3"}}))
}

func TestEquals_ArgIndex(t *testing.T) {
	p := build(t, Equals(Spec{Field: "role", Arg: 1}), "admin")
	assert.Equal(t, "arg1.role = admin", p.Text())

	user := Subject{Kind: "user", Fields: map[string]string{"role": "admin"}}
	assert.True(t, p.Evaluate(Subject{Kind: "doc"}, user))
	assert.False(t, p.Evaluate(user))
}

func TestPrefix(t *testing.T) {
	p := build(t, Prefix(Spec{Field: "path"}), "/api/")
	assert.Equal(t, "path startswith /api/", p.Text())
	assert.True(t, p.Evaluate(Subject{Fields: map[string]string{"path": "/api/users"}}))
	assert.False(t, p.Evaluate(Subject{Fields: map[string]string{"path": "/web"}}))
}

func TestGlob(t *testing.T) {
	p := build(t, Glob(Spec{Field: "path"}), "src/**/*.go")
	assert.Equal(t, "path glob src/**/*.go", p.Text())
	assert.True(t, p.Evaluate(Subject{Fields: map[string]string{"path": "src/a/b/main.go"}}))
	assert.True(t, p.Evaluate(Subject{Fields: map[string]string{"path": "src/main.go"}}))
	assert.False(t, p.Evaluate(Subject{Fields: map[string]string{"path": "docs/main.go"}}))
	assert.False(t, p.Evaluate(Subject{}))

	_, err := Glob(Spec{Field: "path"})("src/[", nil)
	require.ErrorIs(t, err, ErrBadValue)
}

func TestPresent(t *testing.T) {
	present := build(t, Present(Spec{Field: "auth"}), true)
	absent := build(t, Present(Spec{Field: "auth"}), false)
	with := Subject{Fields: map[string]string{"auth": ""}}
	without := Subject{}

	assert.Equal(t, "auth present", present.Text())
	assert.Equal(t, "auth absent", absent.Text())
	assert.True(t, present.Evaluate(with))
	assert.False(t, present.Evaluate(without))
	assert.False(t, absent.Evaluate(with))
	assert.True(t, absent.Evaluate(without))

	_, err := Present(Spec{Field: "auth"})("yes", nil)
	require.ErrorIs(t, err, ErrBadValue)
}

func TestAlways(t *testing.T) {
	p := build(t, Always(Spec{}), "ignored")
	assert.True(t, predicate.IsEmpty(p))
	assert.True(t, p.Evaluate())
	assert.True(t, predicate.Negate(p).Evaluate(), "negating an empty predicate is a no-op")
}

func TestByKind(t *testing.T) {
	for _, kind := range Kinds() {
		spec := Spec{Field: "f"}
		f, err := ByKind(kind, spec)
		require.NoError(t, err, kind)
		require.NotNil(t, f, kind)
	}

	_, err := ByKind("regex", Spec{Field: "f"})
	require.ErrorIs(t, err, ErrUnknownKind)
	require.Contains(t, err.Error(), "any, equals, glob, prefix, present")

	_, err = ByKind("equals", Spec{})
	require.ErrorIs(t, err, ErrMissingField)

	_, err = ByKind("any", Spec{})
	require.NoError(t, err)

	_, err = ByKind("equals", Spec{Field: "f", Arg: -1})
	require.ErrorIs(t, err, ErrBadValue)
}
