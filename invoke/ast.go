// Package invoke implements command invocation (§4.F): resolving a
// call target from the AST contract of §6.1, binding arguments,
// dispatching to a built-in/closure/external command, and deciding
// whether a stage runs synchronously or on its own goroutine.
package invoke

import (
	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/source"
	"github.com/liljencrantz/crush/value"
)

// SwitchStyle records how an external-command argument's switch was
// written, so external-command glue (§4.J) can reconstruct argv.
type SwitchStyle int

const (
	SwitchNone SwitchStyle = iota
	SwitchSingle
	SwitchDouble
)

// ValueDefinition is the AST node producing a Value (§4.F, §6.1).
type ValueDefinition interface {
	// CanBlock reports whether evaluating this node requires a
	// goroutine (a nested job substitution), vs. being a cheap
	// attribute walk on literals/already-bound values.
	CanBlock(sc *scope.Scope) bool
	// Eval produces the Value. EvalContext.Eval runs it on a goroutine
	// via ec.Spawner when CanBlock is true.
	Eval(ec *EvalContext) (value.Value, error)
	Span() *source.Span
}

// ArgumentDefinition is (optional_name, ValueDefinition, switch_style)
// (§4.F, §6.1).
type ArgumentDefinition struct {
	Name   *string
	Value  ValueDefinition
	Switch SwitchStyle
}

// CommandInvocation is (command_expr, [ArgumentDefinition]) (§4.F).
type CommandInvocation struct {
	CommandExpr ValueDefinition
	Arguments   []ArgumentDefinition
	SourceSpan  *source.Span
}

// Job is a non-empty sequence of stages connected by pipes (§4.F, §6.1).
type Job []*CommandInvocation

// Literal wraps an already-constructed Value.
type Literal struct {
	V value.Value
	S *source.Span
}

func (l Literal) CanBlock(sc *scope.Scope) bool { return false }
func (l Literal) Eval(ec *EvalContext) (value.Value, error) { return l.V, nil }
func (l Literal) Span() *source.Span { return l.S }

// Identifier looks up a name in the current scope.
type Identifier struct {
	Name string
	S    *source.Span
}

func (i Identifier) CanBlock(sc *scope.Scope) bool { return false }

func (i Identifier) Eval(ec *EvalContext) (value.Value, error) {
	return ec.Scope.Get(i.Name)
}

func (i Identifier) Span() *source.Span { return i.S }

// GetAttr resolves `.`/`:` selection against a base expression.
type GetAttr struct {
	Base  ValueDefinition
	Field string
	S     *source.Span
}

func (g GetAttr) CanBlock(sc *scope.Scope) bool { return g.Base.CanBlock(sc) }

func (g GetAttr) Eval(ec *EvalContext) (value.Value, error) {
	base, err := ec.Eval(g.Base)
	if err != nil {
		return nil, err
	}
	v, ok := base.Field(g.Field)
	if !ok {
		return nil, unresolvedFieldError(base, g.Field)
	}
	return v, nil
}

func (g GetAttr) Span() *source.Span { return g.S }

// GetItem resolves `[]` indexing against a base expression.
type GetItem struct {
	Base  ValueDefinition
	Index ValueDefinition
	S     *source.Span
}

func (g GetItem) CanBlock(sc *scope.Scope) bool {
	return g.Base.CanBlock(sc) || g.Index.CanBlock(sc)
}

func (g GetItem) Eval(ec *EvalContext) (value.Value, error) {
	base, err := ec.Eval(g.Base)
	if err != nil {
		return nil, err
	}
	idx, err := ec.Eval(g.Index)
	if err != nil {
		return nil, err
	}
	return evalGetItem(base, idx)
}

func (g GetItem) Span() *source.Span { return g.S }

// Substitution is a nested job whose single output becomes this
// value; always treated as potentially blocking (§4.F).
type Substitution struct {
	Nested Job
	S      *source.Span
}

func (s Substitution) CanBlock(sc *scope.Scope) bool { return true }

func (s Substitution) Eval(ec *EvalContext) (value.Value, error) {
	return ec.RunSubstitution(s.Nested)
}

func (s Substitution) Span() *source.Span { return s.S }

// ClosureDef captures the current scope at definition time.
type ClosureDef struct {
	Params []command.Parameter
	Jobs   []Job
	Help   command.HelpMetadata
	Name   string
	S      *source.Span
}

func (c ClosureDef) CanBlock(sc *scope.Scope) bool { return false }

func (c ClosureDef) Eval(ec *EvalContext) (value.Value, error) {
	captured := ec.Scope
	jobs := c.Jobs
	name := c.Name
	help := c.Help
	cl := command.NewClosure(name, c.Params, captured, help,
		func(ctx *command.Context, captured *scope.Scope, bound map[string]value.Value) (value.Value, error) {
			return ec.runClosureBody(ctx, captured, bound, jobs)
		})
	return command.AsValue(cl), nil
}

func (c ClosureDef) Span() *source.Span { return c.S }
