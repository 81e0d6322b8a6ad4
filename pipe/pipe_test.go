package pipe_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/pipe"
	"github.com/liljencrantz/crush/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intColumns() value.Columns {
	return value.Columns{{Name: "n", Element: value.Integer}}
}

func TestValueChannelRoundTrip(t *testing.T) {
	s, r := pipe.NewValueChannel()
	go func() {
		require.NoError(t, s.Send(value.NewInteger(7)))
		s.Close()
	}()

	v, ok := r.Recv()
	require.True(t, ok)
	assert.Equal(t, "7", v.String())

	_, ok = r.Recv()
	assert.False(t, ok)
}

func TestBlackHoleAcceptsAnyNumberOfSends(t *testing.T) {
	bh := pipe.BlackHole()
	assert.True(t, bh.IsSentinel())
	assert.NoError(t, bh.Send(value.NewInteger(1)))
	assert.NoError(t, bh.Send(value.NewString("x")))
}

func TestSentinelsAreDistinguishableFromRealChannels(t *testing.T) {
	assert.True(t, pipe.EmptyChannel().IsSentinel())
	_, r := pipe.NewValueChannel()
	assert.False(t, r.IsSentinel())
	s, _ := pipe.NewValueChannel()
	assert.False(t, s.IsSentinel())
}

func TestEmptyChannelYieldsOneEmptyThenEOF(t *testing.T) {
	r := pipe.EmptyChannel()
	v, ok := r.Recv()
	require.True(t, ok)
	assert.Equal(t, value.Empty, v.Type())

	_, ok = r.Recv()
	assert.False(t, ok)
}

func TestRowChannelS1TypedRowPipelineSum(t *testing.T) {
	// S1: three rows [n:1],[n:2],[n:3] summed by a consumer -> Integer(6).
	cols := intColumns()
	s, r := pipe.NewRowChannel(cols, false)

	go func() {
		for _, n := range []int64{1, 2, 3} {
			tbl, err := container.NewTable(cols, [][]value.Value{{value.NewInteger(n)}})
			require.NoError(t, err)
			row, err := tbl.Row(0)
			require.NoError(t, err)
			require.NoError(t, s.Send(row))
		}
		s.Close()
	}()

	sum := int64(0)
	for {
		row, ok, err := r.Recv()
		require.NoError(t, err)
		if !ok {
			break
		}
		sum += row.Cells()[0].(value.IntegerValue).Int64()
	}
	assert.Equal(t, int64(6), sum)
}

func TestRowChannelS2SchemaMismatchRejected(t *testing.T) {
	// S2: sending a row shaped for a different schema must surface a
	// DataError naming the offending column.
	cols := intColumns()
	s, _ := pipe.NewRowChannel(cols, false)

	otherTbl, err := container.NewTable(value.Columns{{Name: "s", Element: value.String}}, [][]value.Value{{value.NewString("x")}})
	require.NoError(t, err)
	row, err := otherTbl.Row(0)
	require.NoError(t, err)

	err = s.Send(row)
	assert.Error(t, err)
	assert.True(t, errs.Is(err, errs.Data))
	assert.Contains(t, err.Error(), `"n"`)
}

func TestBinaryInputStreamMaterializeAndRelease(t *testing.T) {
	src := io.NopCloser(bytes.NewBufferString("abc"))
	b := pipe.NewBinaryInputStream(src)
	clone := b.Clone()

	mv, err := b.Materialize()
	require.NoError(t, err)
	bv, ok := mv.(value.BinaryValue)
	require.True(t, ok)
	assert.Equal(t, "abc", string(bv.Bytes()))

	require.NoError(t, b.Release())
	require.NoError(t, clone.Release())
}
