package command_test

import (
	"testing"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosureCapturesDefinitionScope(t *testing.T) {
	defScope := scope.New()
	require.NoError(t, defScope.Declare("greeting", value.NewString("hi")))

	var sawParentGreeting value.Value
	cl := command.NewClosure("greet", nil, defScope, command.HelpMetadata{},
		func(ctx *command.Context, captured *scope.Scope, bound map[string]value.Value) (value.Value, error) {
			callScope := captured.CreateChild(ctx.Scope, false)
			v, err := callScope.Get("greeting")
			if err != nil {
				return nil, err
			}
			sawParentGreeting = v
			return v, nil
		})

	callerScope := scope.New()
	sender, receiver := pipe.NewValueChannel()
	go func() {
		_ = cl.Invoke(&command.Context{Scope: callerScope, Output: sender})
		sender.Close()
	}()
	result, _ := receiver.Recv()

	assert.Equal(t, "hi", sawParentGreeting.String())
	assert.Equal(t, "hi", result.String())
}

func TestClosureBindsDefaultParameter(t *testing.T) {
	params := []command.Parameter{
		{Name: "a", Type: value.Integer},
		{Name: "b", Type: value.Integer, Default: value.NewInteger(10)},
	}
	var boundA, boundB value.Value
	cl := command.NewClosure("f", params, scope.New(), command.HelpMetadata{},
		func(ctx *command.Context, captured *scope.Scope, bound map[string]value.Value) (value.Value, error) {
			boundA = bound["a"]
			boundB = bound["b"]
			return value.NewInteger(1), nil
		})

	sender, receiver := pipe.NewValueChannel()
	go func() {
		_ = cl.Invoke(&command.Context{
			Scope:     scope.New(),
			Output:    sender,
			Arguments: map[string]value.Value{"a": value.NewInteger(5)},
		})
		sender.Close()
	}()
	_, _ = receiver.Recv()

	assert.Equal(t, "5", boundA.String())
	assert.Equal(t, "10", boundB.String())
}
