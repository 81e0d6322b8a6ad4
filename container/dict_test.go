package container_test

import (
	"testing"

	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictRejectsNonHashableKeyType(t *testing.T) {
	_, err := container.NewDict(value.ListType{Element: value.Any}, value.Integer)
	assert.Error(t, err)
}

func TestDictReinsertKeepsOriginalPositionUpdatesValue(t *testing.T) {
	d, err := container.NewDict(value.String, value.Integer)
	require.NoError(t, err)

	require.NoError(t, d.Insert(value.NewString("a"), value.NewInteger(1)))
	require.NoError(t, d.Insert(value.NewString("b"), value.NewInteger(2)))
	require.NoError(t, d.Insert(value.NewString("a"), value.NewInteger(99)))

	keys := d.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].String())
	assert.Equal(t, "b", keys[1].String())

	v, ok, err := d.Get(value.NewString("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "99", v.String())
}

func TestDictGetMissingKey(t *testing.T) {
	d, err := container.NewDict(value.String, value.Integer)
	require.NoError(t, err)

	_, ok, err := d.Get(value.NewString("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDictRemove(t *testing.T) {
	d, err := container.NewDict(value.String, value.Integer)
	require.NoError(t, err)
	require.NoError(t, d.Insert(value.NewString("a"), value.NewInteger(1)))

	require.NoError(t, d.Remove(value.NewString("a")))
	ok, err := d.Contains(value.NewString("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDictInsertTypeMismatch(t *testing.T) {
	d, err := container.NewDict(value.String, value.Integer)
	require.NoError(t, err)

	err = d.Insert(value.NewInteger(1), value.NewInteger(2))
	assert.Error(t, err)
}
