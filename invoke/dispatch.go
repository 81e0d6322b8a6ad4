package invoke

import (
	"os"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/external"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// StageIO bundles one pipeline stage's Value channel ends (§4.F).
type StageIO struct {
	Input  pipe.ValueReceiver
	Output pipe.ValueSender
}

// DispatchStage implements §4.F steps 1-3 for one CommandInvocation:
// compile the command expression, route the compiled value, evaluate
// arguments, and invoke. RunJob calls this once per stage, already on
// that stage's own goroutine, so no further spawn decision is made
// here. No call site consults ShouldSpawn: every stage runs on its own
// goroutine, including one that cannot block.
func DispatchStage(ec *EvalContext, inv *CommandInvocation, io StageIO) error {
	resolved, cmdVal, err := resolveCommandExpr(ec, inv)
	if err != nil {
		return err
	}

	// An external program keeps its arguments in declaration order with
	// their switch style intact (§4.J "switch style on an external
	// argument is preserved"), rather than going through the generic
	// named/unnamed partition every built-in/closure consumes.
	if extCmd, ok := resolved.(*external.Command); ok {
		return dispatchExternal(ec, extCmd, inv, io)
	}

	named, unnamed, err := evalArguments(ec, inv.Arguments)
	if err != nil {
		return err
	}

	if resolved == nil {
		resolved = routeNonCommandValue(cmdVal, len(named)+len(unnamed) == 0)
		if resolved == nil {
			return io.Output.Send(cmdVal)
		}
	}

	ctx := &command.Context{
		Input:     io.Input,
		Output:    io.Output,
		Arguments: named,
		Unnamed:   unnamed,
		Scope:     ec.Scope,
		Span:      inv.SourceSpan,
		Spawner:   ec.Spawner,
	}
	return resolved.Invoke(ctx)
}

// dispatchExternal builds argv in declaration order (§4.J) and runs the
// resolved external program directly, forwarding its stderr lines to
// ec.Printer the same way a non-last job result is printed.
func dispatchExternal(ec *EvalContext, extCmd *external.Command, inv *CommandInvocation, io StageIO) error {
	argv := make([]external.ArgSpec, 0, len(inv.Arguments))
	for _, a := range inv.Arguments {
		v, err := ec.Eval(a.Value)
		if err != nil {
			return err
		}
		spec := external.ArgSpec{Value: v, Switch: external.SwitchStyle(a.Switch)}
		if a.Name != nil {
			spec.Name = *a.Name
		}
		argv = append(argv, spec)
	}
	extCmd.Argv = argv

	ctx := &command.Context{
		Input:   io.Input,
		Output:  io.Output,
		Scope:   ec.Scope,
		Span:    inv.SourceSpan,
		Spawner: ec.Spawner,
	}
	printer := func(line string) {
		if ec.Printer != nil {
			ec.Printer(value.NewString(line))
		}
	}
	return extCmd.Run(ctx, printer)
}

// ShouldSpawn implements §4.F step 4's scheduling decision for the
// command alone: it reports true iff cmd.CanBlock does for args.
// Whether the arguments' own definitions can block is not considered.
func ShouldSpawn(cmd command.Command, args []value.Value, sc *scope.Scope) bool {
	if cmd != nil && cmd.CanBlock(args, sc) {
		return true
	}
	return false
}

// resolveCommandExpr implements §4.F steps 1-2, including the
// "Identifier unresolved -> external command" fallback.
func resolveCommandExpr(ec *EvalContext, inv *CommandInvocation) (command.Command, value.Value, error) {
	if id, ok := inv.CommandExpr.(Identifier); ok {
		v, gerr := ec.Scope.Get(id.Name)
		if gerr == nil {
			if cv, ok := v.(command.CommandValue); ok {
				return cv.Cmd, v, nil
			}
			return nil, v, nil
		}
		if ec.External != nil {
			if c, found := ec.External.Resolve(id.Name); found {
				return c, nil, nil
			}
			if suggestion, ok := ec.External.Suggest(id.Name); ok {
				return nil, nil, errs.New(errs.Generic, "unknown command %q, did you mean %q?", id.Name, suggestion)
			}
		}
		return nil, nil, gerr
	}

	v, err := ec.Eval(inv.CommandExpr)
	if err != nil {
		return nil, nil, err
	}
	if cv, ok := v.(command.CommandValue); ok {
		return cv.Cmd, v, nil
	}
	return nil, v, nil
}

// routeNonCommandValue implements the remaining branches of §4.F step 2
// when the compiled value is not itself a Command: a no-argument File
// becomes cd (directories) or val (everything else), a Type exposing
// __call__ is invoked as a constructor, a container's bound method is
// called, and any other no-argument value is equivalent to val <value>.
func routeNonCommandValue(v value.Value, noArgs bool) command.Command {
	if v == nil {
		return nil
	}
	if v.Type().Kind() == value.KindFile && noArgs {
		path := v.String()
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return cdCommand{path: path}
		}
		return valCommand{v: v}
	}
	if v.Type().Kind() == value.KindType {
		if callMethod, ok := v.Field("__call__"); ok {
			if callable, ok := callMethod.(value.Callable); ok {
				return callableCommand{c: callable}
			}
		}
	}
	if callable, ok := v.(value.Callable); ok && v.Type().Kind() == value.KindCommand {
		return callableCommand{c: callable}
	}
	if noArgs {
		return valCommand{v: v}
	}
	return nil
}

// evalArguments evaluates each argument's ValueDefinition, partitioning
// named from unnamed (§4.F step 3).
func evalArguments(ec *EvalContext, args []ArgumentDefinition) (map[string]value.Value, []value.Value, error) {
	named := map[string]value.Value{}
	var unnamed []value.Value
	for _, a := range args {
		v, err := ec.Eval(a.Value)
		if err != nil {
			return nil, nil, err
		}
		if a.Name != nil {
			if _, dup := named[*a.Name]; dup {
				return nil, nil, errs.New(errs.Argument, "duplicate named argument %q", *a.Name)
			}
			named[*a.Name] = v
		} else {
			unnamed = append(unnamed, v)
		}
	}
	return named, unnamed, nil
}

// valCommand is the implicit "val" routing target: emits v unchanged.
type valCommand struct{ v value.Value }

func (valCommand) Name() string { return "val" }
func (valCommand) CanBlock(args []value.Value, sc *scope.Scope) bool { return false }
func (v valCommand) Invoke(ctx *command.Context) error { return ctx.Output.Send(v.v) }
func (v valCommand) Bind(receiver value.Value) command.Command {
	return command.BoundCommand{Inner: v, This: receiver}
}
func (valCommand) Help() command.HelpMetadata {
	return command.HelpMetadata{Short: "emit a value unchanged"}
}
func (valCommand) CompletionData() []command.Parameter { return nil }

// cdCommand is the implicit directory-routing target.
type cdCommand struct{ path string }

func (cdCommand) Name() string { return "cd" }
func (cdCommand) CanBlock(args []value.Value, sc *scope.Scope) bool { return false }
func (c cdCommand) Invoke(ctx *command.Context) error {
	if err := os.Chdir(c.path); err != nil {
		return errs.Wrap(errs.IO, err, "changing directory to %q", c.path)
	}
	return ctx.Output.Send(value.EmptyValue)
}
func (c cdCommand) Bind(receiver value.Value) command.Command {
	return command.BoundCommand{Inner: c, This: receiver}
}
func (cdCommand) Help() command.HelpMetadata {
	return command.HelpMetadata{Short: "change the working directory"}
}
func (cdCommand) CompletionData() []command.Parameter { return nil }

// callableCommand adapts a value.Callable field (a Type's __call__, or
// a container's bound method) into a Command for uniform dispatch.
type callableCommand struct{ c value.Callable }

func (callableCommand) Name() string { return "__call__" }
func (callableCommand) CanBlock(args []value.Value, sc *scope.Scope) bool { return false }
func (c callableCommand) Invoke(ctx *command.Context) error {
	result, err := c.c.Call(ctx.Unnamed)
	if err != nil {
		return err
	}
	return ctx.Output.Send(result)
}
func (c callableCommand) Bind(receiver value.Value) command.Command {
	return command.BoundCommand{Inner: c, This: receiver}
}
func (callableCommand) Help() command.HelpMetadata { return command.HelpMetadata{} }
func (callableCommand) CompletionData() []command.Parameter { return nil }
