package container_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// typeByString compares value.Type implementations by their String()
// rendering, since concrete Type structs carry unexported fields that
// go-cmp cannot otherwise descend into.
var typeByString = cmp.Comparer(func(a, b value.Type) bool {
	return a.String() == b.String()
})

func testColumns() value.Columns {
	return value.Columns{
		{Name: "name", Element: value.String},
		{Name: "age", Element: value.Integer},
	}
}

func TestNewTableValidatesRowShape(t *testing.T) {
	_, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("alice")},
	})
	assert.Error(t, err)
}

func TestNewTableValidatesColumnTypes(t *testing.T) {
	_, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("alice"), value.NewString("not an int")},
	})
	assert.Error(t, err)
}

func TestRowIntoStruct(t *testing.T) {
	tbl, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("alice"), value.NewInteger(30)},
	})
	require.NoError(t, err)

	row, err := tbl.Row(0)
	require.NoError(t, err)

	s, err := row.IntoStruct()
	require.NoError(t, err)

	name, ok := s.Get("name")
	require.True(t, ok)
	assert.Equal(t, "alice", name.String())

	age, ok := s.Get("age")
	require.True(t, ok)
	assert.Equal(t, "30", age.String())
}

func TestRowFieldByColumnName(t *testing.T) {
	tbl, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("bob"), value.NewInteger(25)},
	})
	require.NoError(t, err)
	row, err := tbl.Row(0)
	require.NoError(t, err)

	v, ok := row.Field("age")
	require.True(t, ok)
	assert.Equal(t, "25", v.String())

	_, ok = row.Field("nonexistent")
	assert.False(t, ok)
}

func TestTableLenMethod(t *testing.T) {
	tbl, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("a"), value.NewInteger(1)},
		{value.NewString("b"), value.NewInteger(2)},
	})
	require.NoError(t, err)

	fn, ok := tbl.Field("len")
	require.True(t, ok)
	res, err := fn.(value.Callable).Call(nil)
	require.NoError(t, err)
	assert.Equal(t, "2", res.String())
}

func TestTableTypesMatchesConstructionSchema(t *testing.T) {
	tbl, err := container.NewTable(testColumns(), [][]value.Value{
		{value.NewString("a"), value.NewInteger(1)},
	})
	require.NoError(t, err)

	if diff := cmp.Diff(testColumns(), tbl.Columns(), typeByString); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}
