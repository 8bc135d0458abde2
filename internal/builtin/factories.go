package builtin

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zjrosen/walkabout/internal/predicate"
)

// Factory errors
var (
	ErrUnknownKind  = errors.New("unknown predicate kind")
	ErrMissingField = errors.New("predicate field is required")
	ErrBadValue     = errors.New("invalid predicate value")
)

// Spec selects the subject field a predicate inspects. Arg is the index of
// the dispatch argument holding the subject.
type Spec struct {
	Field string
	Arg   int
}

func (s Spec) subject() string {
	if s.Arg == 0 {
		return s.Field
	}
	return fmt.Sprintf("arg%d.%s", s.Arg, s.Field)
}

func (s Spec) field(args []any) (string, bool) {
	subj, ok := subjectAt(args, s.Arg)
	if !ok {
		return "", false
	}
	return subj.Field(s.Field)
}

func stringValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case nil:
		return "", fmt.Errorf("%w: nil", ErrBadValue)
	default:
		return fmt.Sprint(x), nil
	}
}

// Equals holds when the field equals the registration value.
func Equals(s Spec) predicate.Factory {
	return func(value, _ any) (predicate.Predicate, error) {
		want, err := stringValue(value)
		if err != nil {
			return nil, err
		}
		return predicate.Basic{
			Label: fmt.Sprintf("%s = %s", s.subject(), want),
			Test: func(args ...any) bool {
				got, ok := s.field(args)
				return ok && got == want
			},
		}, nil
	}
}

// Prefix holds when the field starts with the registration value.
func Prefix(s Spec) predicate.Factory {
	return func(value, _ any) (predicate.Predicate, error) {
		prefix, err := stringValue(value)
		if err != nil {
			return nil, err
		}
		return predicate.Basic{
			Label: fmt.Sprintf("%s startswith %s", s.subject(), prefix),
			Test: func(args ...any) bool {
				got, ok := s.field(args)
				return ok && strings.HasPrefix(got, prefix)
			},
		}, nil
	}
}

// Glob holds when the field matches the registration value as a doublestar
// pattern ("**" crosses path separators).
func Glob(s Spec) predicate.Factory {
	return func(value, _ any) (predicate.Predicate, error) {
		pattern, err := stringValue(value)
		if err != nil {
			return nil, err
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: bad glob %q", ErrBadValue, pattern)
		}
		return predicate.Basic{
			Label: fmt.Sprintf("%s glob %s", s.subject(), pattern),
			Test: func(args ...any) bool {
				got, ok := s.field(args)
				if !ok {
					return false
				}
				matched, err := doublestar.Match(pattern, got)
				return err == nil && matched
			},
		}, nil
	}
}

// Present holds when the field's presence equals the registration value,
// which must be a bool.
func Present(s Spec) predicate.Factory {
	return func(value, _ any) (predicate.Predicate, error) {
		want, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: present wants a bool, got %T", ErrBadValue, value)
		}
		label := s.subject() + " present"
		if !want {
			label = s.subject() + " absent"
		}
		return predicate.Basic{
			Label: label,
			Test: func(args ...any) bool {
				_, ok := s.field(args)
				return ok == want
			},
		}, nil
	}
}

// Always builds empty predicates: they hold for every argument and leave
// fingerprints untouched, but still lower a candidate's rank.
func Always(Spec) predicate.Factory {
	return func(_, _ any) (predicate.Predicate, error) {
		return predicate.Basic{}, nil
	}
}

var kinds = map[string]func(Spec) predicate.Factory{
	"equals":  Equals,
	"prefix":  Prefix,
	"glob":    Glob,
	"present": Present,
	"any":     Always,
}

// Kinds lists the available predicate kinds.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ByKind builds the factory for a predicate kind. Every kind except "any"
// needs a field.
func ByKind(kind string, s Spec) (predicate.Factory, error) {
	build, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownKind, kind, strings.Join(Kinds(), ", "))
	}
	if kind != "any" && s.Field == "" {
		return nil, fmt.Errorf("%w: kind %q", ErrMissingField, kind)
	}
	if s.Arg < 0 {
		return nil, fmt.Errorf("%w: negative arg index %d", ErrBadValue, s.Arg)
	}
	return build(s), nil
}
