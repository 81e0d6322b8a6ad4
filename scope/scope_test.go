package scope_test

import (
	"testing"

	"github.com/liljencrantz/crush/scope"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareRejectsDuplicateLocalName(t *testing.T) {
	s := scope.New()
	require.NoError(t, s.Declare("x", value.NewInteger(1)))
	err := s.Declare("x", value.NewInteger(2))
	assert.Error(t, err)
}

func TestGetChecksLocalThenUsesThenParent(t *testing.T) {
	// S5: scope A with x=1, scope B with x=2, scope C with uses=[A,B].
	a := scope.New()
	require.NoError(t, a.Declare("x", value.NewInteger(1)))
	b := scope.New()
	require.NoError(t, b.Declare("x", value.NewInteger(2)))

	c := scope.New()
	c.Use(a)
	c.Use(b)

	v, err := c.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())
}

func TestGetFallsThroughToParent(t *testing.T) {
	parent := scope.New()
	require.NoError(t, parent.Declare("y", value.NewString("hi")))
	child := parent.CreateChild(parent, false)

	v, err := child.Get("y")
	require.NoError(t, err)
	assert.Equal(t, "hi", v.String())
}

func TestSetRequiresMatchingTypeAndExistingBinding(t *testing.T) {
	s := scope.New()
	require.NoError(t, s.Declare("x", value.NewInteger(1)))

	assert.Error(t, s.Set("x", value.NewString("oops")))
	assert.NoError(t, s.Set("x", value.NewInteger(2)))

	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())

	assert.Error(t, s.Set("never-declared", value.NewInteger(1)))
}

func TestBreakTerminatesNearestEnclosingLoopThroughCallingChain(t *testing.T) {
	// S4: a loop scope; a closure body scope (calling=loop) invokes a
	// nested closure (calling=body) which issues break. It must unwind
	// through both calling links and stop the loop.
	loop := scope.New()
	loop.SetReadonly(false)
	loopScope := loop.CreateChild(loop, true)

	body := loopScope.CreateChild(loopScope, false)
	nested := body.CreateChild(body, false)

	handled := nested.DoBreak()
	assert.True(t, handled)
	assert.True(t, loopScope.IsStopped())
	assert.True(t, body.IsStopped())
	assert.True(t, nested.IsStopped())
}

func TestDoReturnCapturesValueAcrossCallingChain(t *testing.T) {
	closureScope := scope.New()
	body := closureScope.CreateChild(closureScope, false)

	body.DoReturn(value.NewInteger(42))

	v, ok := closureScope.ReturnValue()
	require.True(t, ok)
	assert.Equal(t, "42", v.String())
	assert.True(t, closureScope.IsStopped())
}

func TestRemoveWalksParentChainToDefiningScope(t *testing.T) {
	parent := scope.New()
	require.NoError(t, parent.Declare("z", value.NewInteger(1)))
	child := parent.CreateChild(parent, false)

	require.NoError(t, child.Remove("z"))
	_, err := parent.Get("z")
	assert.Error(t, err)
}
