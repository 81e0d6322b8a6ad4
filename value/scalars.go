package value

import (
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/liljencrantz/crush/errs"
)

// -- Empty --------------------------------------------------------------

type emptyValue struct{}

// EmptyValue is the sole Empty instance.
var EmptyValue Value = emptyValue{}

func (emptyValue) Type() Type                      { return Empty }
func (e emptyValue) Materialize() (Value, error)   { return e, nil }
func (emptyValue) Field(name string) (Value, bool) { return nil, false }
func (e emptyValue) String() string                { return "<empty>" }
func (e emptyValue) Convert(target Type) (Value, error) {
	return convertDefault(e, target, "")
}
func (emptyValue) Hash() (uint64, error) { return hashBytes([]byte("empty")), nil }
func (emptyValue) Equal(other Value) bool {
	return other != nil && other.Type().Kind() == KindEmpty
}

// -- Bool -----------------------------------------------------------------

type BoolValue bool

func NewBool(b bool) Value { return BoolValue(b) }

func (BoolValue) Type() Type                    { return Bool }
func (b BoolValue) Materialize() (Value, error) { return b, nil }
func (BoolValue) Field(name string) (Value, bool) { return nil, false }
func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Convert(target Type) (Value, error) { return convertDefault(b, target, b.String()) }
func (b BoolValue) Hash() (uint64, error) {
	if b {
		return hashBytes([]byte{1}), nil
	}
	return hashBytes([]byte{0}), nil
}
func (b BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && o == b
}
func (b BoolValue) Compare(other Value) (int, error) {
	o, ok := other.(BoolValue)
	if !ok {
		return 0, errNotComparable(Bool)
	}
	if b == o {
		return 0, nil
	}
	if !bool(b) && bool(o) {
		return -1, nil
	}
	return 1, nil
}

// -- Integer ---------------------------------------------------------------

// IntegerValue is an arbitrary-width signed integer, clamped to 128 bits
// on construction (§3.1). big.Int gives correct arithmetic semantics; the
// 128-bit ceiling is enforced at the edges (conversion, literals) rather
// than on every internal operation.
type IntegerValue struct{ v *big.Int }

var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func NewInteger(i int64) Value { return IntegerValue{big.NewInt(i)} }

// NewIntegerBig clamps v into the 128-bit signed range.
func NewIntegerBig(v *big.Int) Value {
	c := new(big.Int).Set(v)
	if c.Cmp(maxInt128) > 0 {
		c.Set(maxInt128)
	}
	if c.Cmp(minInt128) < 0 {
		c.Set(minInt128)
	}
	return IntegerValue{c}
}

func (IntegerValue) Type() Type                      { return Integer }
func (i IntegerValue) Materialize() (Value, error)   { return i, nil }
func (IntegerValue) Field(name string) (Value, bool) { return nil, false }
func (i IntegerValue) String() string                { return i.v.String() }
func (i IntegerValue) Big() *big.Int                 { return i.v }
func (i IntegerValue) Int64() int64                  { return i.v.Int64() }

func (i IntegerValue) Convert(target Type) (Value, error) {
	if target.Kind() == KindFloat {
		f := new(big.Float).SetInt(i.v)
		r, _ := f.Float64()
		return FloatValue(r), nil
	}
	if target.Kind() == KindBool {
		return BoolValue(i.v.Sign() != 0), nil
	}
	return convertDefault(i, target, i.String())
}
func (i IntegerValue) Hash() (uint64, error) { return hashBytes([]byte(i.v.String())), nil }
func (i IntegerValue) Equal(other Value) bool {
	o, ok := other.(IntegerValue)
	return ok && i.v.Cmp(o.v) == 0
}
func (i IntegerValue) Compare(other Value) (int, error) {
	o, ok := other.(IntegerValue)
	if !ok {
		return 0, errNotComparable(Integer)
	}
	return i.v.Cmp(o.v), nil
}

// -- Float ------------------------------------------------------------------

type FloatValue float64

func NewFloat(f float64) Value { return FloatValue(f) }

func (FloatValue) Type() Type                      { return Float }
func (f FloatValue) Materialize() (Value, error)   { return f, nil }
func (FloatValue) Field(name string) (Value, bool) { return nil, false }
func (f FloatValue) String() string                { return fmt.Sprintf("%g", float64(f)) }
func (f FloatValue) Convert(target Type) (Value, error) {
	if target.Kind() == KindInteger {
		// Truncate toward zero (§4.A rule 2).
		return NewIntegerBig(big.NewInt(int64(f))), nil
	}
	return convertDefault(f, target, f.String())
}
func (f FloatValue) Hash() (uint64, error) { return hashBytes([]byte(f.String())), nil }
func (f FloatValue) Equal(other Value) bool {
	o, ok := other.(FloatValue)
	return ok && o == f
}
func (f FloatValue) Compare(other Value) (int, error) {
	o, ok := other.(FloatValue)
	if !ok {
		return 0, errNotComparable(Float)
	}
	switch {
	case f < o:
		return -1, nil
	case f > o:
		return 1, nil
	default:
		return 0, nil
	}
}

// -- String -------------------------------------------------------------

type StringValue string

func NewString(s string) Value { return StringValue(s) }

func (StringValue) Type() Type                      { return String }
func (s StringValue) Materialize() (Value, error)   { return s, nil }
func (StringValue) Field(name string) (Value, bool) { return nil, false }
func (s StringValue) String() string                { return string(s) }
func (s StringValue) Convert(target Type) (Value, error) {
	return parseFromString(string(s), target)
}
func (s StringValue) Hash() (uint64, error) { return hashBytes([]byte(s)), nil }
func (s StringValue) Equal(other Value) bool {
	o, ok := other.(StringValue)
	return ok && o == s
}
func (s StringValue) Compare(other Value) (int, error) {
	o, ok := other.(StringValue)
	if !ok {
		return 0, errNotComparable(String)
	}
	switch {
	case s < o:
		return -1, nil
	case s > o:
		return 1, nil
	default:
		return 0, nil
	}
}

// -- Binary -------------------------------------------------------------

// BinaryValue is an immutable byte vector; the backing array is copied
// on construction so later mutation of the caller's slice is invisible.
type BinaryValue struct{ b []byte }

func NewBinary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return BinaryValue{cp}
}

func (BinaryValue) Type() Type                      { return Binary }
func (b BinaryValue) Materialize() (Value, error)   { return b, nil }
func (BinaryValue) Field(name string) (Value, bool) { return nil, false }
func (b BinaryValue) Bytes() []byte {
	cp := make([]byte, len(b.b))
	copy(cp, b.b)
	return cp
}
func (b BinaryValue) String() string { return fmt.Sprintf("<binary %d bytes>", len(b.b)) }
func (b BinaryValue) Convert(target Type) (Value, error) {
	if target.Kind() == KindString {
		return StringValue(string(b.b)), nil
	}
	return convertDefault(b, target, string(b.b))
}
func (b BinaryValue) Hash() (uint64, error) { return hashBytes(b.b), nil }
func (b BinaryValue) Equal(other Value) bool {
	o, ok := other.(BinaryValue)
	if !ok || len(o.b) != len(b.b) {
		return false
	}
	for i := range b.b {
		if b.b[i] != o.b[i] {
			return false
		}
	}
	return true
}

// -- Glob -----------------------------------------------------------------

type GlobValue string

func NewGlob(pattern string) Value { return GlobValue(pattern) }

func (GlobValue) Type() Type                      { return Glob }
func (g GlobValue) Materialize() (Value, error)   { return g, nil }
func (GlobValue) Field(name string) (Value, bool) { return nil, false }
func (g GlobValue) String() string                { return string(g) }
func (g GlobValue) Pattern() string                { return string(g) }
func (g GlobValue) Convert(target Type) (Value, error) {
	return convertDefault(g, target, string(g))
}
func (g GlobValue) Hash() (uint64, error) { return hashBytes([]byte(g)), nil }
func (g GlobValue) Equal(other Value) bool {
	o, ok := other.(GlobValue)
	return ok && o == g
}

// -- Regex -------------------------------------------------------------

// RegexValue pairs the source pattern with its compiled form (§3.1).
type RegexValue struct {
	pattern  string
	compiled *regexp.Regexp
}

func NewRegex(pattern string) (Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.Wrap(errs.Argument, err, "invalid regex %q", pattern)
	}
	return RegexValue{pattern: pattern, compiled: re}, nil
}

func (RegexValue) Type() Type                      { return Regex }
func (r RegexValue) Materialize() (Value, error)   { return r, nil }
func (RegexValue) Field(name string) (Value, bool) { return nil, false }
func (r RegexValue) String() string                { return r.pattern }
func (r RegexValue) Compiled() *regexp.Regexp       { return r.compiled }
func (r RegexValue) Convert(target Type) (Value, error) {
	return convertDefault(r, target, r.pattern)
}
func (r RegexValue) Hash() (uint64, error) { return hashBytes([]byte(r.pattern)), nil }
func (r RegexValue) Equal(other Value) bool {
	o, ok := other.(RegexValue)
	return ok && o.pattern == r.pattern
}

// -- Time -------------------------------------------------------------

type TimeValue struct{ t time.Time }

func NewTime(t time.Time) Value { return TimeValue{t} }

func (TimeValue) Type() Type                      { return Time }
func (t TimeValue) Materialize() (Value, error)   { return t, nil }
func (TimeValue) Field(name string) (Value, bool) { return nil, false }
func (t TimeValue) String() string                { return t.t.Format(time.RFC3339) }
func (t TimeValue) Time() time.Time                { return t.t }
func (t TimeValue) Convert(target Type) (Value, error) {
	return convertDefault(t, target, t.String())
}
func (t TimeValue) Hash() (uint64, error) { return hashBytes([]byte(t.t.UTC().String())), nil }
func (t TimeValue) Equal(other Value) bool {
	o, ok := other.(TimeValue)
	return ok && o.t.Equal(t.t)
}
func (t TimeValue) Compare(other Value) (int, error) {
	o, ok := other.(TimeValue)
	if !ok {
		return 0, errNotComparable(Time)
	}
	switch {
	case t.t.Before(o.t):
		return -1, nil
	case t.t.After(o.t):
		return 1, nil
	default:
		return 0, nil
	}
}

// -- Duration -------------------------------------------------------------

// DurationValue is a signed seconds+nanos duration. time.Duration is a
// signed int64 count of nanoseconds, which already matches the spec's
// "signed seconds+nanos" shape for any duration under ~292 years.
type DurationValue time.Duration

func NewDuration(d time.Duration) Value { return DurationValue(d) }

func (DurationValue) Type() Type                      { return Duration }
func (d DurationValue) Materialize() (Value, error)   { return d, nil }
func (DurationValue) Field(name string) (Value, bool) { return nil, false }
func (d DurationValue) String() string                { return time.Duration(d).String() }
func (d DurationValue) Duration() time.Duration         { return time.Duration(d) }
func (d DurationValue) Convert(target Type) (Value, error) {
	return convertDefault(d, target, d.String())
}
func (d DurationValue) Hash() (uint64, error) { return hashBytes([]byte(d.String())), nil }
func (d DurationValue) Equal(other Value) bool {
	o, ok := other.(DurationValue)
	return ok && o == d
}
func (d DurationValue) Compare(other Value) (int, error) {
	o, ok := other.(DurationValue)
	if !ok {
		return 0, errNotComparable(Duration)
	}
	switch {
	case d < o:
		return -1, nil
	case d > o:
		return 1, nil
	default:
		return 0, nil
	}
}

// -- File -------------------------------------------------------------

type FileValue string

func NewFile(path string) Value { return FileValue(path) }

func (FileValue) Type() Type                      { return File }
func (f FileValue) Materialize() (Value, error)   { return f, nil }
func (FileValue) Field(name string) (Value, bool) { return nil, false }
func (f FileValue) String() string                { return string(f) }
func (f FileValue) Path() string                   { return string(f) }
func (f FileValue) Convert(target Type) (Value, error) {
	return convertDefault(f, target, string(f))
}
func (f FileValue) Hash() (uint64, error) { return hashBytes([]byte(f)), nil }
func (f FileValue) Equal(other Value) bool {
	o, ok := other.(FileValue)
	return ok && o == f
}

// -- Type (reflective) -------------------------------------------------

// TypeValue lets a ValueType itself flow through the pipeline as data
// (§3.1 "Reflective: Type"), and is the receiver for the type-as-
// constructor mechanism of §4.A (List(Integer), Dict(String, Any), ...).
type TypeValue struct{ T Type }

func NewTypeValue(t Type) Value { return TypeValue{t} }

func (TypeValue) Type() Type                    { return TypeType }
func (t TypeValue) Materialize() (Value, error) { return t, nil }
func (t TypeValue) String() string              { return t.T.String() }
func (t TypeValue) Hash() (uint64, error)        { return hashBytes([]byte(t.T.String())), nil }
func (t TypeValue) Equal(other Value) bool {
	o, ok := other.(TypeValue)
	return ok && typeEqual(t.T, o.T)
}
func (t TypeValue) Convert(target Type) (Value, error) {
	return convertDefault(t, target, t.T.String())
}
func (t TypeValue) Field(name string) (Value, bool) { return nil, false }

// Call implements the type-constructor-as-callable mechanism: calling
// List with one type argument, or Dict with two, parameterizes it.
func (t TypeValue) Call(args []Value) (Value, error) {
	switch lt := t.T.(type) {
	case ListType:
		if len(args) != 1 {
			return nil, errs.New(errs.Argument, "list type constructor takes exactly one type argument")
		}
		elemTV, ok := args[0].(TypeValue)
		if !ok {
			return nil, errs.New(errs.Argument, "list type constructor argument must be a type")
		}
		p, err := lt.Parameterize(elemTV.T)
		if err != nil {
			return nil, errs.New(errs.Argument, "%s", err)
		}
		return TypeValue{p}, nil
	case DictType:
		if len(args) != 2 {
			return nil, errs.New(errs.Argument, "dict type constructor takes exactly two type arguments")
		}
		keyTV, ok1 := args[0].(TypeValue)
		valTV, ok2 := args[1].(TypeValue)
		if !ok1 || !ok2 {
			return nil, errs.New(errs.Argument, "dict type constructor arguments must be types")
		}
		p, err := lt.Parameterize(keyTV.T, valTV.T)
		if err != nil {
			return nil, errs.New(errs.Argument, "%s", err)
		}
		return TypeValue{p}, nil
	default:
		return nil, errs.New(errs.Argument, "type %s is not callable", t.T)
	}
}
