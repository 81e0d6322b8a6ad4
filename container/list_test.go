package container_test

import (
	"testing"

	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAppendRejectsWrongTypeLeavesListUnchanged(t *testing.T) {
	l := container.NewList(value.Integer)
	require.NoError(t, l.Append(value.NewInteger(1), value.NewInteger(2)))

	err := l.Append(value.NewInteger(3), value.NewString("oops"))
	assert.Error(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestListSharedIdentitySeesMutation(t *testing.T) {
	l := container.NewList(value.Integer)
	require.NoError(t, l.Append(value.NewInteger(1)))

	var alias value.Value = l
	require.NoError(t, l.Append(value.NewInteger(2)))

	assert.Equal(t, 2, alias.(*container.List).Len())
}

func TestListDisplayDetectsCycle(t *testing.T) {
	l := container.NewList(value.Any)
	require.NoError(t, l.Append(l))

	s := l.String()
	assert.Contains(t, s, "list")
}

func TestListMaterializeCopiesElements(t *testing.T) {
	l := container.NewList(value.Integer)
	require.NoError(t, l.Append(value.NewInteger(1)))

	m, err := l.Materialize()
	require.NoError(t, err)
	ml := m.(*container.List)
	require.NoError(t, ml.Append(value.NewInteger(2)))

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, ml.Len())
}

func TestListFieldLenMethod(t *testing.T) {
	l := container.NewList(value.Integer)
	require.NoError(t, l.Append(value.NewInteger(1), value.NewInteger(2)))

	fn, ok := l.Field("len")
	require.True(t, ok)
	callable := fn.(value.Callable)
	res, err := callable.Call(nil)
	require.NoError(t, err)
	assert.Equal(t, "2", res.String())
}
