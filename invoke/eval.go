package invoke

import (
	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// EvalContext threads everything a ValueDefinition or CommandInvocation
// needs to evaluate: the active scope, the spawner for blocking work,
// and external-command resolution (§4.J is a separate package; invoke
// only needs to ask it a yes/no plus get a Command back, expressed as
// this narrow interface to avoid invoke depending on external's stdio
// wiring details).
type EvalContext struct {
	Scope    *scope.Scope
	Spawner  command.Spawner
	External ExternalResolver
	Printer  func(value.Value)
}

// ExternalResolver looks up a name as an external program (§4.J).
type ExternalResolver interface {
	Resolve(name string) (command.Command, bool)
	Suggest(name string) (string, bool)
}

// Eval evaluates vd, spawning a goroutine when vd.CanBlock reports true.
func (ec *EvalContext) Eval(vd ValueDefinition) (value.Value, error) {
	if !vd.CanBlock(ec.Scope) {
		return vd.Eval(ec)
	}

	type result struct {
		v   value.Value
		err error
	}
	resCh := make(chan result, 1)
	ec.spawn("eval", func() {
		v, err := vd.Eval(ec)
		resCh <- result{v, err}
	})
	r := <-resCh
	return r.v, r.err
}

func (ec *EvalContext) spawn(label string, fn func()) {
	if ec.Spawner == nil {
		fn()
		return
	}
	ec.Spawner.Spawn(label, fn)
}

// RunSubstitution runs a nested job to completion on its own goroutine
// and returns its single output Value (§4.F Substitution).
func (ec *EvalContext) RunSubstitution(job Job) (value.Value, error) {
	childScope := ec.Scope.CreateChild(ec.Scope, false)
	out, err := RunJob(ec, job, childScope, pipe.EmptyChannel())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// runClosureBody implements §4.F "Job execution (closure body)": jobs
// run sequentially sharing the closure's call scope; the first gets
// the closure's input, later ones get empty_channel(); non-last
// results are printed; a pending return short-circuits the sequence.
func (ec *EvalContext) runClosureBody(ctx *command.Context, captured *scope.Scope, bound map[string]value.Value, jobs []Job) (value.Value, error) {
	callScope := captured.CreateChild(ctx.Scope, false)
	for name, v := range bound {
		_ = callScope.Declare(name, v)
	}

	childEC := &EvalContext{Scope: callScope, Spawner: ctx.Spawner, External: ec.External, Printer: ec.Printer}

	var last value.Value
	for i, job := range jobs {
		if callScope.IsStopped() {
			break
		}
		isLast := i == len(jobs)-1

		var jobInput pipe.ValueReceiver
		if i == 0 {
			jobInput = ctx.Input
		} else {
			jobInput = pipe.EmptyChannel()
		}

		result, err := RunJob(childEC, job, callScope, jobInput)
		if err != nil {
			return nil, err
		}
		if isLast {
			last = result
		} else if result != nil && childEC.Printer != nil {
			childEC.Printer(result)
		}
	}

	if rv, ok := callScope.ReturnValue(); ok {
		return rv, nil
	}
	return last, nil
}

func evalGetItem(base, idx value.Value) (value.Value, error) {
	switch b := base.(type) {
	case *container.List:
		iv, ok := idx.(value.IntegerValue)
		if !ok {
			return nil, errs.New(errs.Argument, "list index must be an integer, got %s", idx.Type())
		}
		return b.Get(int(iv.Int64()))
	case *container.Dict:
		v, ok, err := b.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.New(errs.Data, "no such key %s", idx)
		}
		return v, nil
	default:
		return nil, errs.New(errs.Data, "%s is not indexable", base.Type())
	}
}

func unresolvedFieldError(base value.Value, field string) error {
	return errs.New(errs.Generic, "%s has no field %q", base.Type(), field)
}
