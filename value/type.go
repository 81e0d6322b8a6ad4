// Package value implements the tagged value universe and its parallel
// ValueType lattice (§3, §4.A). Scalars live here directly; the shared,
// mutable containers (List, Dict, Struct, Table) live in package
// container, which imports this package for the Value/Type interfaces
// and the ColumnType/Kind vocabulary they're built from.
package value

import (
	"fmt"
	"strings"
)

// Kind tags which variant of the value universe a Type/Value belongs
// to. It is the total, closed set the runtime recognizes (§3.1).
type Kind int

const (
	KindEmpty Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindBinary
	KindGlob
	KindRegex
	KindTime
	KindDuration
	KindFile
	KindList
	KindDict
	KindStruct
	KindTable
	KindTableInputStream
	KindTableOutputStream
	KindBinaryInputStream
	KindType
	KindCommand
	KindScope
	KindOneOf
	KindAny
)

var kindNames = [...]string{
	KindEmpty: "empty", KindBool: "bool", KindInteger: "integer", KindFloat: "float",
	KindString: "string", KindBinary: "binary", KindGlob: "glob", KindRegex: "regex",
	KindTime: "time", KindDuration: "duration", KindFile: "file", KindList: "list",
	KindDict: "dict", KindStruct: "struct", KindTable: "table",
	KindTableInputStream: "table_input_stream", KindTableOutputStream: "table_output_stream",
	KindBinaryInputStream: "binary_input_stream", KindType: "type", KindCommand: "command",
	KindScope: "scope", KindOneOf: "one_of", KindAny: "any",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// nonHashable is the closed set from §3.4: a ValueType is hashable iff
// its Kind is not one of these.
var nonHashable = map[Kind]bool{
	KindScope: true, KindList: true, KindDict: true, KindCommand: true,
	KindBinaryInputStream: true, KindTableInputStream: true, KindTableOutputStream: true,
	KindStruct: true, KindTable: true,
}

// Type is the runtime's ValueType lattice node: every Value carries
// exactly one, and Is is the sole membership predicate (invariant 1 and
// 5 of §3.2).
type Type interface {
	Kind() Kind
	// Is reports whether v conforms to this type. Any satisfies every v.
	Is(v Value) bool
	String() string
	// Hashable reports whether values of this type may be used as Dict
	// keys (§3.4). Hashability and comparability coincide.
	Hashable() bool
}

// basicType implements Type for every scalar/reflective Kind that
// carries no nested element type.
type basicType struct{ kind Kind }

func (b basicType) Kind() Kind { return b.kind }
func (b basicType) String() string {
	return b.kind.String()
}
func (b basicType) Hashable() bool { return !nonHashable[b.kind] }
func (b basicType) Is(v Value) bool {
	if v == nil {
		return false
	}
	return v.Type().Kind() == b.kind
}

var (
	Empty              Type = basicType{KindEmpty}
	Bool               Type = basicType{KindBool}
	Integer            Type = basicType{KindInteger}
	Float              Type = basicType{KindFloat}
	String             Type = basicType{KindString}
	Binary             Type = basicType{KindBinary}
	Glob               Type = basicType{KindGlob}
	Regex              Type = basicType{KindRegex}
	Time               Type = basicType{KindTime}
	Duration           Type = basicType{KindDuration}
	File               Type = basicType{KindFile}
	Struct             Type = basicType{KindStruct}
	Table              Type = basicType{KindTable}
	TypeType           Type = basicType{KindType}
	Command            Type = basicType{KindCommand}
	Scope              Type = basicType{KindScope}
	BinaryInputStream  Type = basicType{KindBinaryInputStream}
)

// anyType is the universal unifier: Is accepts every value (invariant 5).
type anyType struct{}

func (anyType) Kind() Kind        { return KindAny }
func (anyType) String() string    { return "any" }
func (anyType) Hashable() bool    { return true }
func (anyType) Is(v Value) bool   { return v != nil }

// Any satisfies Is(v) for all v.
var Any Type = anyType{}

// ListType is List(ElementType). Calling a bare, un-parameterized
// ListType (ElementType == nil) with a Type argument parameterizes it;
// calling an already-parameterized one is an error (§4.A), surfaced
// through Parameterize rather than panic since it is a user-visible
// mistake made from script code.
type ListType struct{ Element Type }

func (l ListType) Kind() Kind { return KindList }
func (l ListType) String() string {
	if l.Element == nil {
		return "list"
	}
	return fmt.Sprintf("list(%s)", l.Element.String())
}
func (ListType) Hashable() bool { return false }
func (l ListType) Is(v Value) bool {
	if v == nil || v.Type().Kind() != KindList {
		return false
	}
	other, ok := v.Type().(ListType)
	if !ok || l.Element == nil {
		return ok
	}
	if _, isAny := l.Element.(anyType); isAny {
		// Open question (§9) resolved yes: List(Any) accepts any
		// List(T), covariant on the element type only via Any.
		return true
	}
	return other.Element != nil && typeEqual(l.Element, other.Element)
}

// Parameterize implements the "type constructor as callable" mechanism
// of §4.A: the bare List (Element nil) called with an element type
// yields List(element). An already parameterized list is an error.
func (l ListType) Parameterize(element Type) (ListType, error) {
	if l.Element != nil {
		return ListType{}, fmt.Errorf("list type is already parameterized with %s", l.Element)
	}
	return ListType{Element: element}, nil
}

// DictType is Dict(KeyType, ValueType); KeyType must be hashable.
type DictType struct {
	Key   Type
	Value Type
}

func (d DictType) Kind() Kind { return KindDict }
func (d DictType) String() string {
	if d.Key == nil || d.Value == nil {
		return "dict"
	}
	return fmt.Sprintf("dict(%s, %s)", d.Key.String(), d.Value.String())
}
func (DictType) Hashable() bool { return false }
func (d DictType) Is(v Value) bool {
	if v == nil || v.Type().Kind() != KindDict {
		return false
	}
	other, ok := v.Type().(DictType)
	if !ok || d.Key == nil {
		return ok
	}
	_, keyAny := d.Key.(anyType)
	_, valAny := d.Value.(anyType)
	if keyAny && valAny {
		return true
	}
	keyOK := keyAny || (other.Key != nil && typeEqual(d.Key, other.Key))
	valOK := valAny || (other.Value != nil && typeEqual(d.Value, other.Value))
	return keyOK && valOK
}

// Parameterize mirrors ListType.Parameterize for two type arguments.
func (d DictType) Parameterize(key, val Type) (DictType, error) {
	if d.Key != nil || d.Value != nil {
		return DictType{}, fmt.Errorf("dict type is already parameterized")
	}
	if !key.Hashable() {
		return DictType{}, fmt.Errorf("dict key type %s is not hashable", key)
	}
	return DictType{Key: key, Value: val}, nil
}

// ColumnType names one column of a Table/stream schema (§3.1).
type ColumnType struct {
	Name        string
	Element     Type
	FormatHint  string // optional display hint, e.g. "%", "bytes"
}

func (c ColumnType) String() string {
	if c.FormatHint != "" {
		return fmt.Sprintf("%s: %s (%s)", c.Name, c.Element.String(), c.FormatHint)
	}
	return fmt.Sprintf("%s: %s", c.Name, c.Element.String())
}

// Columns is a schema: an ordered list of ColumnType.
type Columns []ColumnType

func (c Columns) String() string {
	parts := make([]string, len(c))
	for i, col := range c {
		parts[i] = col.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Equal reports schema equality by column name and element type.
func (c Columns) Equal(other Columns) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i].Name != other[i].Name || !typeEqual(c[i].Element, other[i].Element) {
			return false
		}
	}
	return true
}

func (c Columns) IndexOf(name string) int {
	for i, col := range c {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// streamKind distinguishes the three schema-carrying stream/table
// families that otherwise share the same structure.
type streamKind int

const (
	streamTable streamKind = iota
	streamTableInput
	streamTableOutput
)

// TableType is Table([]ColumnType), and its stream variants.
type TableType struct {
	Columns Columns
	kind    streamKind
}

func NewTableType(cols Columns) TableType            { return TableType{Columns: cols, kind: streamTable} }
func NewTableInputStreamType(cols Columns) TableType { return TableType{Columns: cols, kind: streamTableInput} }
func NewTableOutputStreamType(cols Columns) TableType {
	return TableType{Columns: cols, kind: streamTableOutput}
}

func (t TableType) Kind() Kind {
	switch t.kind {
	case streamTableInput:
		return KindTableInputStream
	case streamTableOutput:
		return KindTableOutputStream
	default:
		return KindTable
	}
}

func (t TableType) String() string {
	prefix := "table"
	switch t.kind {
	case streamTableInput:
		prefix = "table_input_stream"
	case streamTableOutput:
		prefix = "table_output_stream"
	}
	return prefix + t.Columns.String()
}

func (TableType) Hashable() bool { return false }

func (t TableType) Is(v Value) bool {
	if v == nil || v.Type().Kind() != t.Kind() {
		return false
	}
	other, ok := v.Type().(TableType)
	return ok && t.Columns.Equal(other.Columns)
}

// OneOfType is a sum type used in parameter signatures: Is succeeds if
// any alternative accepts the value.
type OneOfType struct{ Alternatives []Type }

func (OneOfType) Kind() Kind { return KindOneOf }
func (o OneOfType) String() string {
	parts := make([]string, len(o.Alternatives))
	for i, a := range o.Alternatives {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}
func (o OneOfType) Hashable() bool {
	for _, a := range o.Alternatives {
		if !a.Hashable() {
			return false
		}
	}
	return true
}
func (o OneOfType) Is(v Value) bool {
	for _, a := range o.Alternatives {
		if a.Is(v) {
			return true
		}
	}
	return false
}

// typeEqual compares two types structurally. Any is only equal to Any;
// it is a unifier for Is(), not for type identity.
func typeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String() && a.Kind() == b.Kind()
}
