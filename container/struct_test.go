package container_test

import (
	"testing"

	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructSetAppendsThenReplaces(t *testing.T) {
	s := container.NewStruct(nil)
	s.Set("a", value.NewInteger(1))
	s.Set("b", value.NewInteger(2))
	s.Set("a", value.NewInteger(99))

	assert.Equal(t, []string{"a", "b"}, s.Names())
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "99", v.String())
}

func TestStructFieldFallsThroughToParent(t *testing.T) {
	parent := container.NewStruct(nil)
	parent.Set("greeting", value.NewString("hi"))

	child := container.NewStruct(parent)
	child.Set("name", value.NewString("crush"))

	v, ok := child.Field("greeting")
	require.True(t, ok)
	assert.Equal(t, "hi", v.String())

	v, ok = child.Field("name")
	require.True(t, ok)
	assert.Equal(t, "crush", v.String())
}

func TestStructFieldMissingEntirely(t *testing.T) {
	s := container.NewStruct(nil)
	_, ok := s.Field("nope")
	assert.False(t, ok)
}

func TestStructLenMethod(t *testing.T) {
	s := container.NewStruct(nil)
	s.Set("a", value.NewInteger(1))

	fn, ok := s.Field("len")
	require.True(t, ok)
	res, err := fn.(value.Callable).Call(nil)
	require.NoError(t, err)
	assert.Equal(t, "1", res.String())
}
