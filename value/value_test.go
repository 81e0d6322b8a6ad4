package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liljencrantz/crush/value"
)

func TestConvertFloatToIntegerTruncatesTowardZero(t *testing.T) {
	v := value.NewFloat(3.9)
	out, err := v.Convert(value.Integer)
	require.NoError(t, err)
	assert.Equal(t, "3", out.String())

	neg := value.NewFloat(-3.9)
	out, err = neg.Convert(value.Integer)
	require.NoError(t, err)
	assert.Equal(t, "-3", out.String())
}

func TestConvertIntegerToBoolIsNonZero(t *testing.T) {
	zero, err := value.NewInteger(0).Convert(value.Bool)
	require.NoError(t, err)
	assert.Equal(t, "false", zero.String())

	five, err := value.NewInteger(5).Convert(value.Bool)
	require.NoError(t, err)
	assert.Equal(t, "true", five.String())
}

func TestConvertSameTypeIsNoop(t *testing.T) {
	s := value.NewString("hello")
	out, err := s.Convert(value.String)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}

func TestConvertStringlyFallback(t *testing.T) {
	out, err := value.NewString("42").Convert(value.Integer)
	require.NoError(t, err)
	assert.Equal(t, "42", out.String())

	_, err = value.NewString("not-a-number").Convert(value.Integer)
	assert.Error(t, err)
}

func TestHashabilityMatchesSpecExclusionList(t *testing.T) {
	nonHashable := []value.Type{
		value.Scope, value.ListType{}, value.DictType{}, value.Command,
		value.BinaryInputStream, value.Struct, value.Table,
	}
	for _, typ := range nonHashable {
		assert.False(t, typ.Hashable(), "%s should not be hashable", typ)
	}

	hashable := []value.Type{value.Integer, value.String, value.Bool, value.Float, value.Time, value.Duration, value.File, value.Glob, value.Regex, value.TypeType}
	for _, typ := range hashable {
		assert.True(t, typ.Hashable(), "%s should be hashable", typ)
	}
}

func TestHashOfEqualScalarsMatches(t *testing.T) {
	a, err := value.Hash(value.NewString("x"))
	require.NoError(t, err)
	b, err := value.Hash(value.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnySatisfiesEveryValue(t *testing.T) {
	assert.True(t, value.Any.Is(value.NewInteger(1)))
	assert.True(t, value.Any.Is(value.NewString("s")))
	assert.True(t, value.Any.Is(value.EmptyValue))
}

func TestListOfAnyAcceptsConcretelyTypedList(t *testing.T) {
	// Open question resolution: List(Any) is covariant on element type
	// only via Any (§9).
	listOfAny := value.ListType{Element: value.Any}
	intVal := value.NewInteger(3)
	listOfInt := value.ListType{Element: value.Integer}
	_ = intVal
	assert.True(t, listOfAny.Is(fakeListValue{listOfInt}))
}

// fakeListValue is a minimal Value stand-in used only to probe
// ListType.Is without depending on the container package (which
// depends on this package), avoiding an import cycle in the test.
type fakeListValue struct{ t value.Type }

func (f fakeListValue) Type() value.Type                      { return f.t }
func (f fakeListValue) Materialize() (value.Value, error)     { return f, nil }
func (f fakeListValue) Field(name string) (value.Value, bool) { return nil, false }
func (f fakeListValue) Convert(t value.Type) (value.Value, error) { return f, nil }
func (f fakeListValue) String() string                         { return "list" }
