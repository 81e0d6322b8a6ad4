package invoke

import (
	"sync"

	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
)

// RunJob implements §4.F "general case" stage chaining: the first
// stage's input is the job's input, interior stages are connected by
// fresh Value channels, and the job's result is whatever the last
// stage sends to its output. Every stage runs on its own goroutine
// (grounded on the teacher's runtime/executor/pipeline_runner.go
// goroutine-per-stage, sync.WaitGroup pattern), which also matches
// §4.F step 4 for any stage but the last: a stage feeding another
// stage through a pipe cannot usefully run on the caller's goroutine.
func RunJob(ec *EvalContext, job Job, sc *scope.Scope, input pipe.ValueReceiver) (value.Value, error) {
	if len(job) == 0 {
		return value.EmptyValue, nil
	}

	n := len(job)
	stageInputs := make([]pipe.ValueReceiver, n)
	stageOutputs := make([]pipe.ValueSender, n)

	stageInputs[0] = input
	for i := 0; i < n-1; i++ {
		sender, receiver := pipe.NewValueChannel()
		stageOutputs[i] = sender
		stageInputs[i+1] = receiver
	}
	finalSender, finalReceiver := pipe.NewValueChannel()
	stageOutputs[n-1] = finalSender

	var wg sync.WaitGroup
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		stageEC := &EvalContext{Scope: sc, Spawner: ec.Spawner, External: ec.External, Printer: ec.Printer}
		run := func() {
			defer wg.Done()
			defer stageOutputs[i].Close()
			if err := DispatchStage(stageEC, job[i], StageIO{Input: stageInputs[i], Output: stageOutputs[i]}); err != nil {
				errCh <- err
			}
		}
		if ec.Spawner != nil {
			ec.Spawner.Spawn(job[i].commandLabel(), run)
		} else {
			go run()
		}
	}

	go func() {
		wg.Wait()
		close(errCh)
	}()

	var result value.Value
	var materializeErr error
	for {
		v, ok := finalReceiver.Recv()
		if !ok {
			break
		}
		// A last stage that handed back a stream (external.Command's
		// BinaryInputStream, a TableInputStream) must be drained here:
		// nothing downstream of RunJob reads it, and the stage's own
		// goroutine is blocked feeding that stream until something
		// does, so skipping this would deadlock the whole job the
		// moment any stage produces streamed output (§3.5 Materialize
		// is defined as idempotent precisely so this is always safe).
		m, err := v.Materialize()
		if err != nil && materializeErr == nil {
			materializeErr = err
		}
		result = m
	}

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = materializeErr
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if result == nil {
		result = value.EmptyValue
	}
	return result, nil
}

// commandLabel names a stage for the job scheduler's registry (§4.G).
func (inv *CommandInvocation) commandLabel() string {
	if id, ok := inv.CommandExpr.(Identifier); ok {
		return id.Name
	}
	return "anonymous"
}
