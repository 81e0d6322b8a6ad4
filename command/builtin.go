package command

import (
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// Builtin is the "built-in simple command" of §4.E: a function plus a
// static can_block flag and help metadata. Parameter parsing is
// delegated to BindArguments before Fn runs.
type Builtin struct {
	name     string
	canBlock bool
	params   []Parameter
	help     HelpMetadata
	fn       func(ctx *Context) error
}

// NewBuiltin constructs a built-in command.
func NewBuiltin(name string, canBlock bool, params []Parameter, help HelpMetadata, fn func(ctx *Context) error) *Builtin {
	return &Builtin{name: name, canBlock: canBlock, params: params, help: help, fn: fn}
}

func (b *Builtin) Name() string { return b.name }

func (b *Builtin) CanBlock(args []value.Value, sc *scope.Scope) bool { return b.canBlock }

func (b *Builtin) Invoke(ctx *Context) error {
	bound, err := BindArguments(b.params, ctx.Arguments, ctx.Unnamed, ctx.Scope)
	if err != nil {
		return err
	}
	ctx.Arguments = bound
	return b.fn(ctx)
}

func (b *Builtin) Bind(receiver value.Value) Command {
	return BoundCommand{Inner: b, This: receiver}
}

func (b *Builtin) Help() HelpMetadata { return b.help }

func (b *Builtin) CompletionData() []Parameter { return b.params }

// Params exposes the declared parameter list for argument binding at
// the call site (§4.F).
func (b *Builtin) Params() []Parameter { return b.params }
