// Package command implements the uniform invocable-object contract of
// §4.E: built-in simple commands, condition commands, and closures all
// satisfy the same Command interface, with no inheritance — only
// composition through BoundCommand (§9 "Dispatch").
package command

import (
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/source"
	"github.com/liljencrantz/crush/value"
)

// Spawner registers a worker goroutine with the job scheduler without
// command needing to import package job (which would create command
// -> job -> ... -> command style cycles down the line).
type Spawner interface {
	Spawn(label string, fn func()) uint64
}

// Context is the CommandContext of §4.F: everything an invoke carries
// into a Command's Invoke method.
type Context struct {
	Input     pipe.ValueReceiver
	RowInput  *pipe.TableInputStream
	Output    pipe.ValueSender
	RowOutput *pipe.TableOutputStream

	// Arguments holds the raw incoming named arguments before
	// declared-parameter binding; Unnamed holds the positional ones.
	// Builtin/Closure run BindArguments internally and overwrite
	// Arguments with the bound-by-parameter-name result before a
	// built-in's fn or a closure's run sees it.
	Arguments map[string]value.Value
	Unnamed   []value.Value
	Scope     *scope.Scope
	This      value.Value
	Span      *source.Span
	Spawner   Spawner
}

// Spawn registers label as a worker goroutine tied to this invocation
// (§4.F CommandContext.spawn).
func (c *Context) Spawn(label string, fn func()) uint64 {
	if c.Spawner == nil {
		fn()
		return 0
	}
	return c.Spawner.Spawn(label, fn)
}

// Parameter is a single declared argument descriptor (§4.E).
type Parameter struct {
	Name        string
	Type        value.Type
	Default     value.Value // nil if required
	NamedSink   bool        // collects leftover named args as Dict(String, Any)
	UnnamedSink bool        // collects leftover unnamed args as List(Any)
	Description string
}

// HelpMetadata is the signature/documentation bundle every Command
// exposes (§4.E Help()).
type HelpMetadata struct {
	Signature string
	Short     string
	Long      string
	Examples  []string
	Version   string // semver, compared via golang.org/x/mod/semver
}

// Command is any invocable object: built-in, condition command, or
// closure (§4.E).
type Command interface {
	Name() string
	CanBlock(args []value.Value, sc *scope.Scope) bool
	Invoke(ctx *Context) error
	Bind(receiver value.Value) Command
	Help() HelpMetadata
	CompletionData() []Parameter
}

// BoundCommand pairs a Command with a `this` receiver Value; Invoke
// injects it into ctx.This before delegating (§4.E).
type BoundCommand struct {
	Inner Command
	This  value.Value
}

func (b BoundCommand) Name() string { return b.Inner.Name() }

func (b BoundCommand) CanBlock(args []value.Value, sc *scope.Scope) bool {
	return b.Inner.CanBlock(args, sc)
}

func (b BoundCommand) Invoke(ctx *Context) error {
	ctx.This = b.This
	return b.Inner.Invoke(ctx)
}

func (b BoundCommand) Bind(receiver value.Value) Command {
	return BoundCommand{Inner: b.Inner, This: receiver}
}

func (b BoundCommand) Help() HelpMetadata { return b.Inner.Help() }

func (b BoundCommand) CompletionData() []Parameter { return b.Inner.CompletionData() }

// CommandValue adapts any Command into a value.Value so it can flow
// through scopes, pipes, and containers like any other value (§3.1
// "Reflective: ... Command").
type CommandValue struct{ Cmd Command }

// AsValue wraps cmd as a first-class Value.
func AsValue(cmd Command) value.Value { return CommandValue{Cmd: cmd} }

func (c CommandValue) Type() value.Type { return value.Command }

func (c CommandValue) Materialize() (value.Value, error) { return c, nil }

func (c CommandValue) Field(name string) (value.Value, bool) { return nil, false }

func (c CommandValue) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindCommand {
		return c, nil
	}
	return nil, errs.New(errs.Data, "cannot convert command to %s", target)
}

func (c CommandValue) String() string { return "<command " + c.Cmd.Name() + ">" }

// Call implements value.Callable. A command cannot be called directly:
// Call always returns an error, and the command is run through the
// pipeline via its Cmd instead.
func (c CommandValue) Call(args []value.Value) (value.Value, error) {
	return nil, errs.New(errs.Generic, "command %q must be invoked through the pipeline, not called directly", c.Cmd.Name())
}

// BindArguments implements the §4.E argument-binding algorithm shared
// by built-ins and closures: partition named/unnamed, fill declared
// parameters (named match, then positional, then default), route
// leftovers into sinks, and type-check each bound value.
func BindArguments(params []Parameter, named map[string]value.Value, unnamed []value.Value, sc *scope.Scope) (map[string]value.Value, error) {
	bound := make(map[string]value.Value, len(params))
	remainingNamed := make(map[string]value.Value, len(named))
	for k, v := range named {
		remainingNamed[k] = v
	}
	unnamedIdx := 0

	var namedSink, unnamedSink *Parameter
	for i := range params {
		p := &params[i]
		if p.NamedSink {
			if namedSink != nil {
				return nil, errs.New(errs.Argument, "multiple named-sink parameters declared")
			}
			namedSink = p
			continue
		}
		if p.UnnamedSink {
			if unnamedSink != nil {
				return nil, errs.New(errs.Argument, "multiple unnamed-sink parameters declared")
			}
			unnamedSink = p
			continue
		}

		var v value.Value
		if nv, ok := remainingNamed[p.Name]; ok {
			v = nv
			delete(remainingNamed, p.Name)
		} else if unnamedIdx < len(unnamed) {
			v = unnamed[unnamedIdx]
			unnamedIdx++
		} else if p.Default != nil {
			v = p.Default
		} else {
			return nil, errs.New(errs.Argument, "missing argument %q", p.Name)
		}

		if !p.Type.Is(v) {
			return nil, errs.New(errs.Argument, "argument %q: expected %s, got %s", p.Name, p.Type, v.Type())
		}
		bound[p.Name] = v
	}

	leftoverUnnamed := unnamed[unnamedIdx:]
	if len(leftoverUnnamed) > 0 {
		if unnamedSink == nil {
			return nil, errs.New(errs.Argument, "too many positional arguments")
		}
	}
	if unnamedSink != nil {
		lst, err := valueListFrom(leftoverUnnamed)
		if err != nil {
			return nil, err
		}
		bound[unnamedSink.Name] = lst
	}

	if len(remainingNamed) > 0 {
		if namedSink == nil {
			for k := range remainingNamed {
				return nil, errs.New(errs.Argument, "unexpected named argument %q", k)
			}
		}
	}
	if namedSink != nil {
		dict, err := valueDictFrom(remainingNamed)
		if err != nil {
			return nil, err
		}
		bound[namedSink.Name] = dict
	}

	return bound, nil
}
