package container

import (
	"strings"
	"sync"

	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/value"
)

type dictEntry struct {
	key value.Value
	val value.Value
}

// Dict is an insertion-ordered, shared-ownership mapping (§3.2).
// Re-inserting an existing key updates its value but keeps its
// original position (§4.B, §8 property 3).
type Dict struct {
	mu      sync.Mutex
	id      Identity
	keyType value.Type
	valType value.Type

	order  []*dictEntry
	byHash map[uint64][]*dictEntry
}

// NewDict creates an empty dict. keyType must be hashable (§3.1).
func NewDict(keyType, valType value.Type) (*Dict, error) {
	if !keyType.Hashable() {
		return nil, errs.New(errs.Data, "dict key type %s is not hashable", keyType)
	}
	return &Dict{id: newIdentity(), keyType: keyType, valType: valType, byHash: map[uint64][]*dictEntry{}}, nil
}

func (d *Dict) Identity() Identity { return d.id }
func (d *Dict) Type() value.Type   { return value.DictType{Key: d.keyType, Value: d.valType} }

func (d *Dict) Materialize() (value.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, _ := NewDict(d.keyType, d.valType)
	for _, e := range d.order {
		mv, err := e.val.Materialize()
		if err != nil {
			return nil, err
		}
		if err := out.insertLocked(e.key, mv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Dict) Field(name string) (value.Value, bool) {
	return lookupMethod(dictMethods, d, name)
}

func (d *Dict) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindDict {
		return d, nil
	}
	return nil, errNotConvertible(d, target)
}

func (d *Dict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Insert overwrites prior bindings and preserves first-insertion order.
func (d *Dict) Insert(key, val value.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insertLocked(key, val)
}

func (d *Dict) insertLocked(key, val value.Value) error {
	if !d.keyType.Is(key) {
		return errs.New(errs.Data, "dict key type is %s, got %s", d.keyType, key.Type())
	}
	if !d.valType.Is(val) {
		return errs.New(errs.Data, "dict value type is %s, got %s", d.valType, val.Type())
	}
	h, err := value.Hash(key)
	if err != nil {
		return err
	}
	for _, e := range d.byHash[h] {
		if valueEqual(e.key, key) {
			e.val = val
			return nil
		}
	}
	e := &dictEntry{key: key, val: val}
	d.order = append(d.order, e)
	d.byHash[h] = append(d.byHash[h], e)
	return nil
}

// Get looks up key, reporting whether it was present.
func (d *Dict) Get(key value.Value) (value.Value, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, err := value.Hash(key)
	if err != nil {
		return nil, false, err
	}
	for _, e := range d.byHash[h] {
		if valueEqual(e.key, key) {
			return e.val, true, nil
		}
	}
	return nil, false, nil
}

// Contains reports whether key is present.
func (d *Dict) Contains(key value.Value) (bool, error) {
	_, ok, err := d.Get(key)
	return ok, err
}

// Remove deletes key if present.
func (d *Dict) Remove(key value.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, err := value.Hash(key)
	if err != nil {
		return err
	}
	bucket := d.byHash[h]
	for i, e := range bucket {
		if valueEqual(e.key, key) {
			d.byHash[h] = append(bucket[:i], bucket[i+1:]...)
			for j, oe := range d.order {
				if oe == e {
					d.order = append(d.order[:j], d.order[j+1:]...)
					break
				}
			}
			return nil
		}
	}
	return nil
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []value.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]value.Value, len(d.order))
	for i, e := range d.order {
		out[i] = e.key
	}
	return out
}

// Entries returns (key, value) pairs in insertion order.
func (d *Dict) Entries() [][2]value.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][2]value.Value, len(d.order))
	for i, e := range d.order {
		out[i] = [2]value.Value{e.key, e.val}
	}
	return out
}

func valueEqual(a, b value.Value) bool {
	ea, aok := a.(value.Equaler)
	if aok {
		return ea.Equal(b)
	}
	return a.String() == b.String() && a.Type().Kind() == b.Type().Kind()
}

func (d *Dict) String() string { return d.display(nil) }

func (d *Dict) display(visited visitedSet) string {
	visited, first := visited.enter(d.id)
	if !first {
		return displayIdentity("dict", d.id)
	}
	entries := d.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = displayNested(e[0], visited) + ": " + displayNested(e[1], visited)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var dictMethods = methodMap{
	"len": func(recv value.Value) value.Value {
		return method("len", func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(recv.(*Dict).Len())), nil
		})
	},
}
