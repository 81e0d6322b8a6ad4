package source_test

import (
	"testing"

	"github.com/liljencrantz/crush/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSpanRoundTrips(t *testing.T) {
	src := source.New("script.crush", source.TypeFile, "let x = 1\nx + 2\n")
	span := source.Span{Location: source.Location{Start: 10, End: 15}, Source: src}

	data, err := source.EncodeSpan(span)
	require.NoError(t, err)

	decoded, err := source.DecodeSpan(data)
	require.NoError(t, err)

	assert.Equal(t, span.Location, decoded.Location)
	assert.Equal(t, src.Name, decoded.Source.Name)
	assert.Equal(t, src.Type, decoded.Source.Type)
	assert.Equal(t, src.Data, decoded.Source.Data)
	assert.Equal(t, span.Text(), decoded.Text())
}

func TestDecodeSpanSurvivesAcrossGoroutines(t *testing.T) {
	src := source.New("-", source.TypeString, "x\n")
	span := source.Span{Location: source.Location{Start: 0, End: 1}, Source: src}
	data, err := source.EncodeSpan(span)
	require.NoError(t, err)

	result := make(chan source.Span, 1)
	go func() {
		decoded, err := source.DecodeSpan(data)
		require.NoError(t, err)
		result <- decoded
	}()
	decoded := <-result
	assert.Equal(t, "x", decoded.Text())
}

func TestSpanLineCol(t *testing.T) {
	src := source.New("-", source.TypeString, "abc\ndef\n")
	span := source.Span{Source: src}

	line, col := span.LineCol(5)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}

func TestSpanRenderUnderlinesOffendingText(t *testing.T) {
	src := source.New("-", source.TypeString, "first line\nsecond line\n")
	span := source.Span{Location: source.Location{Start: 11, End: 17}, Source: src}

	rendered := span.Render()
	assert.Contains(t, rendered, "first line")
	assert.Contains(t, rendered, "second line")
	assert.Contains(t, rendered, "^")
}

func TestSpanWithNilSourceRendersEmpty(t *testing.T) {
	span := source.Span{}
	assert.Equal(t, "", span.Render())
	assert.Equal(t, "", span.Text())
}
