// Package scope implements the lexical + calling + use-import
// environment of the execution runtime (§4.D).
package scope

import (
	"strings"
	"sync"

	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/invariant"
	"github.com/liljencrantz/crush/value"
)

// Scope is a node in the environment graph. Unlike a plain parent
// chain, it tracks two distinct links: parent for name resolution and
// calling for control-flow propagation, since a closure invoked from
// anywhere still lexically belongs to where it was defined.
type Scope struct {
	mu sync.Mutex

	parent  *Scope
	calling *Scope
	uses    []*Scope

	mapping     map[string]value.Value
	order       []string

	isLoop     bool
	isStopped  bool
	isReadonly bool

	returnValue value.Value
	hasReturn   bool

	name        string
	description string
}

// New creates a root scope with no parent or calling link.
func New() *Scope {
	return &Scope{mapping: map[string]value.Value{}}
}

// CreateChild creates a new scope whose parent is s and whose calling
// scope is caller (§4.D create_child).
func (s *Scope) CreateChild(caller *Scope, isLoop bool) *Scope {
	return &Scope{
		parent:  s,
		calling: caller,
		mapping: map[string]value.Value{},
		isLoop:  isLoop,
	}
}

// CreateNamespace creates a named child scope, declares it in s under
// name, and runs init against it to populate members (§4.D).
func (s *Scope) CreateNamespace(name, description string, init func(*Scope) error) (*Scope, error) {
	child := s.CreateChild(s, false)
	child.name = name
	child.description = description
	if err := init(child); err != nil {
		return nil, err
	}
	if err := s.Declare(name, namespaceValue{child}); err != nil {
		return nil, err
	}
	return child, nil
}

// namespaceValue lets a Scope be stored as a value.Value (§3.1 "Scope"
// is a first-class value kind).
type namespaceValue struct{ s *Scope }

func (n namespaceValue) Type() value.Type { return value.Scope }
func (n namespaceValue) Materialize() (value.Value, error) { return n, nil }
func (n namespaceValue) Field(name string) (value.Value, bool) {
	v, err := n.s.Get(name)
	if err != nil {
		return nil, false
	}
	return v, true
}
func (n namespaceValue) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindScope {
		return n, nil
	}
	return nil, errs.New(errs.Data, "cannot convert scope to %s", target)
}
func (n namespaceValue) String() string { return "<scope " + n.s.name + ">" }

// Declare inserts name into the local table; it is an error if name
// already exists locally or the scope is read-only.
func (s *Scope) Declare(name string, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isReadonly {
		return errs.New(errs.Generic, "scope is read-only")
	}
	if _, ok := s.mapping[name]; ok {
		return errs.New(errs.Generic, "variable %q already declared in this scope", name)
	}
	s.mapping[name] = v
	s.order = append(s.order, name)
	return nil
}

// Redeclare unconditionally (re-)inserts name into the local table.
func (s *Scope) Redeclare(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mapping[name]; !ok {
		s.order = append(s.order, name)
	}
	s.mapping[name] = v
}

// Set walks the parent chain until name is found and reassigns it
// there. The new value's type must equal the existing binding's type.
func (s *Scope) Set(name string, v value.Value) error {
	invariant.Precondition(name != "", "variable name must not be empty")
	invariant.NotNil(v, "v")
	cur := s
	for cur != nil {
		cur.mu.Lock()
		existing, ok := cur.mapping[name]
		if ok {
			if cur.isReadonly {
				cur.mu.Unlock()
				return errs.New(errs.Generic, "scope is read-only")
			}
			if !typeEqual(existing.Type(), v.Type()) {
				cur.mu.Unlock()
				return errs.New(errs.Generic, "cannot set %q: existing type %s, got %s (use unset to remove first)", name, existing.Type(), v.Type())
			}
			cur.mapping[name] = v
			cur.mu.Unlock()
			return nil
		}
		parent := cur.parent
		cur.mu.Unlock()
		cur = parent
	}
	return errs.New(errs.Generic, "variable %q not found", name)
}

// Get resolves name: local table, then each uses (in order, with
// recursion), then parent (§4.D, §8 property 4).
func (s *Scope) Get(name string) (value.Value, error) {
	s.mu.Lock()
	if v, ok := s.mapping[name]; ok {
		s.mu.Unlock()
		return v, nil
	}
	uses := make([]*Scope, len(s.uses))
	copy(uses, s.uses)
	parent := s.parent
	s.mu.Unlock()

	for _, u := range uses {
		if v, err := u.Get(name); err == nil {
			return v, nil
		}
	}
	if parent != nil {
		return parent.Get(name)
	}
	return nil, errs.New(errs.Generic, "variable %q not found", name)
}

// Remove walks the parent chain to the defining scope and deletes
// name there.
func (s *Scope) Remove(name string) error {
	cur := s
	for cur != nil {
		cur.mu.Lock()
		if _, ok := cur.mapping[name]; ok {
			delete(cur.mapping, name)
			for i, n := range cur.order {
				if n == name {
					cur.order = append(cur.order[:i], cur.order[i+1:]...)
					break
				}
			}
			cur.mu.Unlock()
			return nil
		}
		parent := cur.parent
		cur.mu.Unlock()
		cur = parent
	}
	return errs.New(errs.Generic, "variable %q not found", name)
}

// Use appends other to the local uses list.
func (s *Scope) Use(other *Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uses = append(s.uses, other)
}

// DoBreak implements §4.D do_break: if s is a loop, mark it stopped
// and report handled; else ask calling, propagating the stop flag.
func (s *Scope) DoBreak() bool {
	s.mu.Lock()
	isLoop := s.isLoop
	calling := s.calling
	s.mu.Unlock()

	if isLoop {
		s.setStopped()
		return true
	}
	if calling != nil && calling.DoBreak() {
		s.setStopped()
		return true
	}
	return false
}

// DoContinue implements §4.D do_continue, analogous to DoBreak.
func (s *Scope) DoContinue() bool {
	s.mu.Lock()
	isLoop := s.isLoop
	calling := s.calling
	s.mu.Unlock()

	if isLoop {
		s.setStopped()
		return true
	}
	if calling != nil && calling.DoContinue() {
		s.setStopped()
		return true
	}
	return false
}

// DoReturn propagates a return value up the calling chain, stashing it
// on every scope walked so a multi-job closure body can still surface
// the value after later jobs are skipped (§12 supplemented behavior).
func (s *Scope) DoReturn(v value.Value) bool {
	s.mu.Lock()
	s.returnValue = v
	s.hasReturn = true
	calling := s.calling
	s.mu.Unlock()

	s.setStopped()
	if calling != nil {
		calling.DoReturn(v)
	}
	return true
}

// ReturnValue reports the value captured by the most recent DoReturn,
// if any.
func (s *Scope) ReturnValue() (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returnValue, s.hasReturn
}

func (s *Scope) setStopped() {
	s.mu.Lock()
	s.isStopped = true
	s.mu.Unlock()
}

// IsStopped reports whether a break/continue/return has unwound
// through this scope.
func (s *Scope) IsStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isStopped
}

// SetReadonly marks this scope's local table immutable to further
// declare/set calls.
func (s *Scope) SetReadonly(ro bool) {
	s.mu.Lock()
	s.isReadonly = ro
	s.mu.Unlock()
}

// Names returns locally declared names in insertion order.
func (s *Scope) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// FullPath walks the calling chain collecting names, for
// serialization/help. Errors if any ancestor beyond the root is
// anonymous.
func (s *Scope) FullPath() ([]string, error) {
	var parts []string
	cur := s
	for cur != nil {
		cur.mu.Lock()
		name := cur.name
		calling := cur.calling
		cur.mu.Unlock()
		if name == "" && calling != nil {
			return nil, errs.New(errs.Generic, "scope in path has no name")
		}
		if name != "" {
			parts = append([]string{name}, parts...)
		}
		cur = calling
	}
	return parts, nil
}

func (s *Scope) String() string {
	return "<scope " + strings.Join(s.Names(), ", ") + ">"
}

func typeEqual(a, b value.Type) bool {
	return a.String() == b.String() && a.Kind() == b.Kind()
}
