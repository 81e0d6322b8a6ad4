package container

import (
	"strings"
	"sync"

	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/value"
)

type structField struct {
	name string
	val  value.Value
}

// Struct is an ordered name->value mapping with an optional parent used
// for method-lookup inheritance (§4.B). Set appends a new field or
// replaces an existing one in place; field order is otherwise
// insertion order.
type Struct struct {
	mu     sync.Mutex
	id     Identity
	parent *Struct
	fields []*structField
}

// NewStruct creates an empty struct, optionally inheriting fields and
// methods from parent when a lookup misses locally.
func NewStruct(parent *Struct) *Struct {
	return &Struct{id: newIdentity(), parent: parent}
}

func (s *Struct) Identity() Identity { return s.id }
func (s *Struct) Type() value.Type   { return value.Struct }

func (s *Struct) Materialize() (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var parent *Struct
	if s.parent != nil {
		mp, err := s.parent.Materialize()
		if err != nil {
			return nil, err
		}
		parent = mp.(*Struct)
	}
	out := NewStruct(parent)
	for _, f := range s.fields {
		mv, err := f.val.Materialize()
		if err != nil {
			return nil, err
		}
		out.fields = append(out.fields, &structField{name: f.name, val: mv})
	}
	return out, nil
}

// Field resolves direct struct members first, then falls through to
// the parent chain (§4.B inheritance for method-like lookups).
func (s *Struct) Field(name string) (value.Value, bool) {
	s.mu.Lock()
	for _, f := range s.fields {
		if f.name == name {
			v := f.val
			s.mu.Unlock()
			return v, true
		}
	}
	parent := s.parent
	s.mu.Unlock()
	if parent != nil {
		return parent.Field(name)
	}
	return lookupMethod(structMethods, s, name)
}

func (s *Struct) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindStruct {
		return s, nil
	}
	return nil, errNotConvertible(s, target)
}

// Set appends name if absent, else replaces its current value,
// preserving field order either way.
func (s *Struct) Set(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fields {
		if f.name == name {
			f.val = v
			return
		}
	}
	s.fields = append(s.fields, &structField{name: name, val: v})
}

// Get returns the directly-set field (not the parent chain).
func (s *Struct) Get(name string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fields {
		if f.name == name {
			return f.val, true
		}
	}
	return nil, false
}

// Names returns field names in insertion order.
func (s *Struct) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.name
	}
	return out
}

// Len returns the number of directly-set fields.
func (s *Struct) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fields)
}

func (s *Struct) String() string { return s.display(nil) }

func (s *Struct) display(visited visitedSet) string {
	visited, first := visited.enter(s.id)
	if !first {
		return displayIdentity("struct", s.id)
	}
	s.mu.Lock()
	fields := make([]*structField, len(s.fields))
	copy(fields, s.fields)
	s.mu.Unlock()

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.name + "=" + displayNested(f.val, visited)
	}
	return "<struct " + strings.Join(parts, " ") + ">"
}

var structMethods = methodMap{
	"len": func(recv value.Value) value.Value {
		return method("len", func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(recv.(*Struct).Len())), nil
		})
	},
	"get": func(recv value.Value) value.Value {
		return method("get", func(args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, errs.New(errs.Argument, "get expects exactly one argument")
			}
			name, isStr := asStructFieldName(args[0])
			if !isStr {
				return nil, errs.New(errs.Argument, "get expects a string field name")
			}
			v, found := recv.(*Struct).Get(name)
			if !found {
				return nil, errs.New(errs.Data, "no such field %q", name)
			}
			return v, nil
		})
	},
}

func asStructFieldName(v value.Value) (string, bool) {
	if v.Type().Kind() != value.KindString {
		return "", false
	}
	return v.String(), true
}
