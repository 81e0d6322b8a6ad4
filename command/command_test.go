package command_test

import (
	"testing"

	"github.com/liljencrantz/crush/command"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindArgumentsNamedThenPositionalThenDefault(t *testing.T) {
	params := []command.Parameter{
		{Name: "a", Type: value.Integer},
		{Name: "b", Type: value.Integer, Default: value.NewInteger(10)},
	}

	bound, err := command.BindArguments(params, map[string]value.Value{"a": value.NewInteger(5)}, nil, scope.New())
	require.NoError(t, err)
	assert.Equal(t, "5", bound["a"].String())
	assert.Equal(t, "10", bound["b"].String())
}

func TestBindArgumentsS3TypeMismatchIsArgumentError(t *testing.T) {
	params := []command.Parameter{
		{Name: "a", Type: value.Integer},
		{Name: "b", Type: value.Integer, Default: value.NewInteger(10)},
	}

	_, err := command.BindArguments(params, map[string]value.Value{
		"a": value.NewInteger(5),
		"b": value.NewString("no"),
	}, nil, scope.New())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Argument))
}

func TestBindArgumentsMissingRequired(t *testing.T) {
	params := []command.Parameter{{Name: "a", Type: value.Integer}}
	_, err := command.BindArguments(params, nil, nil, scope.New())
	assert.Error(t, err)
}

func TestBindArgumentsSinks(t *testing.T) {
	params := []command.Parameter{
		{Name: "rest", UnnamedSink: true},
		{Name: "extra", NamedSink: true},
	}
	bound, err := command.BindArguments(params,
		map[string]value.Value{"x": value.NewInteger(1)},
		[]value.Value{value.NewString("a"), value.NewString("b")},
		scope.New())
	require.NoError(t, err)

	restList := bound["rest"]
	assert.Equal(t, value.ListType{Element: value.Any}, restList.Type())

	extraDict := bound["extra"]
	assert.Equal(t, value.DictType{Key: value.String, Value: value.Any}, extraDict.Type())
}

func TestBoundCommandInjectsThis(t *testing.T) {
	var sawThis value.Value
	b := command.NewBuiltin("len", false, nil, command.HelpMetadata{}, func(ctx *command.Context) error {
		sawThis = ctx.This
		return nil
	})

	bound := b.Bind(value.NewInteger(99))
	sender, receiver := pipe.NewValueChannel()
	go func() {
		_ = bound.Invoke(&command.Context{Scope: scope.New(), Output: sender})
		sender.Close()
	}()
	_, _ = receiver.Recv()

	require.NotNil(t, sawThis)
	assert.Equal(t, "99", sawThis.String())
}

func TestConditionCommandAndShortCircuits(t *testing.T) {
	rightCalled := false
	cmd := command.NewConditionCommand(command.And,
		command.Operand{
			CanBlock: func(*scope.Scope) bool { return false },
			Eval:     func(*command.Context) (value.Value, error) { return value.NewBool(false), nil },
		},
		command.Operand{
			CanBlock: func(*scope.Scope) bool { return false },
			Eval: func(*command.Context) (value.Value, error) {
				rightCalled = true
				return value.NewBool(true), nil
			},
		},
	)

	sender, receiver := pipe.NewValueChannel()
	go func() {
		_ = cmd.Invoke(&command.Context{Scope: scope.New(), Output: sender})
		sender.Close()
	}()
	v, _ := receiver.Recv()

	assert.False(t, rightCalled)
	assert.Equal(t, "false", v.String())
}
