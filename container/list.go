package container

import (
	"strings"
	"sync"

	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/invariant"
	"github.com/liljencrantz/crush/value"
)

// List is an ordered, mutable, shared-ownership sequence (§3.2). All
// Values referencing the same List see every mutation.
type List struct {
	mu       sync.Mutex
	id       Identity
	elemType value.Type
	items    []value.Value
}

// NewList creates an empty list constrained to elemType.
func NewList(elemType value.Type) *List {
	return &List{id: newIdentity(), elemType: elemType}
}

func (l *List) Identity() Identity { return l.id }

func (l *List) Type() value.Type {
	return value.ListType{Element: l.elemType}
}

func (l *List) Materialize() (value.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := NewList(l.elemType)
	for _, it := range l.items {
		m, err := it.Materialize()
		if err != nil {
			return nil, err
		}
		out.items = append(out.items, m)
	}
	return out, nil
}

func (l *List) Field(name string) (value.Value, bool) {
	return lookupMethod(listMethods, l, name)
}

func (l *List) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindList {
		return l, nil
	}
	return nil, errs.New(errs.Data, "cannot convert list to %s", target)
}

// Len returns the current element count.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Get returns the element at index, or an error if out of range.
func (l *List) Get(index int) (value.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.items) {
		return nil, errs.New(errs.Data, "list index %d out of range [0, %d)", index, len(l.items))
	}
	return l.items[index], nil
}

// Append appends vs to the list. If any element violates the
// element-type constraint, the whole call fails and the list is left
// unchanged (§4.B).
func (l *List) Append(vs ...value.Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.items)
	for _, v := range vs {
		if !l.elemType.Is(v) {
			return errs.New(errs.Data, "cannot append %s: list element type is %s", v.Type(), l.elemType)
		}
	}
	l.items = append(l.items, vs...)
	for _, v := range vs {
		invariant.Invariant(l.elemType.Is(v), "appended element type %s violates list element type %s", v.Type(), l.elemType)
	}
	invariant.Postcondition(len(l.items) == before+len(vs), "list length must grow by exactly len(vs)")
	return nil
}

// Set replaces the element at index, subject to the element-type
// constraint.
func (l *List) Set(index int, v value.Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.items) {
		return errs.New(errs.Data, "list index %d out of range [0, %d)", index, len(l.items))
	}
	if !l.elemType.Is(v) {
		return errs.New(errs.Data, "cannot set element: expected %s, got %s", l.elemType, v.Type())
	}
	l.items[index] = v
	return nil
}

// Items returns a snapshot slice of the list's current contents.
func (l *List) Items() []value.Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]value.Value, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) String() string {
	return l.display(nil)
}

func (l *List) display(visited visitedSet) string {
	visited, first := visited.enter(l.id)
	if !first {
		return displayIdentity("list", l.id)
	}
	l.mu.Lock()
	items := make([]value.Value, len(l.items))
	copy(items, l.items)
	l.mu.Unlock()

	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = displayNested(it, visited)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// displayNested renders a contained value, threading the visited set
// into any nested container so cross-container cycles are also caught.
func displayNested(v value.Value, visited visitedSet) string {
	switch c := v.(type) {
	case *List:
		return c.display(visited)
	case *Dict:
		return c.display(visited)
	case *Struct:
		return c.display(visited)
	case *Table:
		return c.display(visited)
	default:
		return v.String()
	}
}

var listMethods = methodMap{
	"len": func(recv value.Value) value.Value {
		return method("len", func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(recv.(*List).Len())), nil
		})
	},
	"append": func(recv value.Value) value.Value {
		return method("append", func(args []value.Value) (value.Value, error) {
			l := recv.(*List)
			if err := l.Append(args...); err != nil {
				return nil, err
			}
			return l, nil
		})
	},
}
