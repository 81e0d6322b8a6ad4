package command

import (
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// Closure is a list of jobs plus a capturing environment plus a
// parameter list (§4.E item 3). Always treated as potentially
// blocking. The job-execution body itself is supplied by the invoke
// package (which knows how to run a []Job against a scope) as Run, so
// command does not need to import invoke — avoiding command <-> invoke
// import cycles while keeping Closure a first-class Command.
type Closure struct {
	name        string
	params      []Parameter
	captured    *scope.Scope
	help        HelpMetadata
	run         func(ctx *Context, captured *scope.Scope, bound map[string]value.Value) (value.Value, error)
}

// NewClosure builds a closure value. run executes the closure's job
// sequence (§4.F "Job execution (closure body)") against a fresh child
// scope of captured; it is supplied by invoke, which compiles Jobs.
func NewClosure(name string, params []Parameter, captured *scope.Scope, help HelpMetadata, run func(ctx *Context, captured *scope.Scope, bound map[string]value.Value) (value.Value, error)) *Closure {
	return &Closure{name: name, params: params, captured: captured, help: help, run: run}
}

func (c *Closure) Name() string { return c.name }

// CanBlock is always true for closures (§4.E item 3).
func (c *Closure) CanBlock(args []value.Value, sc *scope.Scope) bool { return true }

func (c *Closure) Invoke(ctx *Context) error {
	bound, err := BindArguments(c.params, ctx.Arguments, ctx.Unnamed, ctx.Scope)
	if err != nil {
		return err
	}
	result, err := c.run(ctx, c.captured, bound)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return ctx.Output.Send(result)
}

func (c *Closure) Bind(receiver value.Value) Command {
	return BoundCommand{Inner: c, This: receiver}
}

func (c *Closure) Help() HelpMetadata { return c.help }

func (c *Closure) CompletionData() []Parameter { return c.params }

// Captured exposes the scope active at the closure's definition
// (§8 property 5: calls create a fresh child whose parent is this).
func (c *Closure) Captured() *scope.Scope { return c.captured }

// Params exposes the declared parameter list.
func (c *Closure) Params() []Parameter { return c.params }
