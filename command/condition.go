package command

import (
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// Operand is one side of a short-circuiting condition command
// (§4.E item 2, §12 supplement from original_source/): it evaluates
// to a Bool and reports whether evaluating it at all can block.
type Operand struct {
	CanBlock func(sc *scope.Scope) bool
	Eval     func(ctx *Context) (value.Value, error)
}

// ConditionKind selects && (And) vs || (Or) short-circuit behavior.
type ConditionKind int

const (
	And ConditionKind = iota
	Or
)

// ConditionCommand implements the short-circuit operators. Unlike a
// Builtin, its CanBlock is derived from its operands rather than fixed.
// At invocation the left operand always evaluates; the right only
// evaluates if the left doesn't already decide the outcome (§12).
type ConditionCommand struct {
	kind  ConditionKind
	left  Operand
	right Operand
}

// NewConditionCommand builds a && or || command from two operands.
func NewConditionCommand(kind ConditionKind, left, right Operand) *ConditionCommand {
	return &ConditionCommand{kind: kind, left: left, right: right}
}

func (c *ConditionCommand) Name() string {
	if c.kind == And {
		return "&&"
	}
	return "||"
}

// CanBlock is true iff the left operand can block (it always runs),
// or the right operand can block and might run (it's only skipped
// when short-circuiting, which cannot be known until the left value
// is available — so conservatively both are considered).
func (c *ConditionCommand) CanBlock(args []value.Value, sc *scope.Scope) bool {
	if c.left.CanBlock(sc) {
		return true
	}
	return c.right.CanBlock(sc)
}

func (c *ConditionCommand) Invoke(ctx *Context) error {
	lv, err := c.left.Eval(ctx)
	if err != nil {
		return err
	}
	lb, err := asBool(lv)
	if err != nil {
		return err
	}

	decided := (c.kind == And && !lb) || (c.kind == Or && lb)
	if decided {
		return ctx.Output.Send(lv)
	}

	rv, err := c.right.Eval(ctx)
	if err != nil {
		return err
	}
	return ctx.Output.Send(rv)
}

func (c *ConditionCommand) Bind(receiver value.Value) Command {
	return BoundCommand{Inner: c, This: receiver}
}

func (c *ConditionCommand) Help() HelpMetadata {
	return HelpMetadata{Short: "short-circuit " + c.Name()}
}

func (c *ConditionCommand) CompletionData() []Parameter { return nil }

func asBool(v value.Value) (bool, error) {
	bv, err := v.Convert(value.Bool)
	if err != nil {
		return false, err
	}
	return bool(bv.(value.BoolValue)), nil
}
