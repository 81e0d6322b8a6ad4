package value

import "github.com/liljencrantz/crush/errs"

// Value is the runtime's tagged sum (§3.1). Structured containers
// (List, Dict, Struct, Table, the stream handles) are implemented in
// package container and the pipe package; everything else lives here.
type Value interface {
	// Type returns this value's ValueType. Total: never errors.
	Type() Type
	// Materialize eagerly drains any streams into concrete form,
	// recursively within containers. Idempotent (§3.5).
	Materialize() (Value, error)
	// Field resolves `.`/`:` member access: a direct lookup for
	// Struct, or a bound method for every other type (§4.A, §4.E).
	Field(name string) (Value, bool)
	// Convert applies the stringly conversion of §4.A.
	Convert(target Type) (Value, error)
	// String renders the value for display.
	String() string
}

// Hashable is implemented by every Value whose Type().Hashable() is
// true; Dict uses it for keys and general equality-by-hash checks.
type Hashable interface {
	Value
	Hash() (uint64, error)
}

// Comparable is implemented by Values whose Type supports ordering.
type Comparable interface {
	Value
	// Compare returns -1, 0, 1. Returns an error if other is not the
	// same comparable type.
	Compare(other Value) (int, error)
}

// Equaler is implemented by every Value for equality testing that
// doesn't require a total order.
type Equaler interface {
	Value
	Equal(other Value) bool
}

// Callable is implemented by a Value that can be invoked directly with
// an argument vector: the type-constructor mechanism of §4.A (TypeValue)
// and the bound, built-in methods Field() returns for containers (§4.B,
// §4.E "a registered method ... bound to the receiver").
type Callable interface {
	Value
	Call(args []Value) (Value, error)
}

// errNotHashable is the error Hash() returns for non-hashable kinds.
func errNotHashable(t Type) error {
	return errs.New(errs.Data, "values of type %s are not hashable", t)
}

// errNotComparable is returned by Compare for non-comparable types.
func errNotComparable(t Type) error {
	return errs.New(errs.Data, "values of type %s are not comparable", t)
}
