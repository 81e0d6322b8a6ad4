// Package source tracks the origin of AST nodes and runtime errors so
// diagnostics can point back at the text that produced them.
package source

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Type distinguishes a span's backing buffer.
type Type int

const (
	// TypeString means the buffer came from an interactive input line.
	TypeString Type = iota
	// TypeFile means the buffer was read from a file on disk.
	TypeFile
)

func (t Type) String() string {
	if t == TypeFile {
		return "file"
	}
	return "input"
}

// Source is the shared buffer a family of spans points into.
type Source struct {
	Name string
	Type Type
	Data string
}

// New wraps a buffer with its origin name and type.
func New(name string, typ Type, data string) *Source {
	return &Source{Name: name, Type: typ, Data: data}
}

// Location is a half-open byte range [Start, End) into a Source's Data.
type Location struct {
	Start int
	End   int
}

// Span pairs a Location with the Source it indexes into. A nil Source
// means the span carries no diagnostic context (e.g. synthesized values).
type Span struct {
	Location Location
	Source   *Source
}

// Snapshot is the portable form of a Span, safe to carry across a
// closure capture or hand off to another goroutine without sharing the
// Source pointer. FromSnapshot turns it back into a Span with its own
// freshly allocated Source.
type Snapshot struct {
	SourceName string `cbor:"source_name"`
	SourceType Type   `cbor:"source_type"`
	SourceData string `cbor:"source_data"`
	Start      int    `cbor:"start"`
	End        int    `cbor:"end"`
}

// ToSnapshot captures a Span's content so it survives independently of
// the originating Source allocation.
func (s Span) ToSnapshot() Snapshot {
	snap := Snapshot{Start: s.Location.Start, End: s.Location.End}
	if s.Source != nil {
		snap.SourceName = s.Source.Name
		snap.SourceType = s.Source.Type
		snap.SourceData = s.Source.Data
	}
	return snap
}

// FromSnapshot reconstructs a Span from a Snapshot, allocating a fresh
// Source to hold the captured buffer.
func FromSnapshot(snap Snapshot) Span {
	return Span{
		Location: Location{Start: snap.Start, End: snap.End},
		Source:   &Source{Name: snap.SourceName, Type: snap.SourceType, Data: snap.SourceData},
	}
}

// EncodeSpan serializes a Span to CBOR via its Snapshot form. This is
// what lets a closure's captured spans survive being handed to a worker
// thread.
func EncodeSpan(s Span) ([]byte, error) {
	return cbor.Marshal(s.ToSnapshot())
}

// DecodeSpan reverses EncodeSpan.
func DecodeSpan(data []byte) (Span, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return Span{}, fmt.Errorf("source: decode span: %w", err)
	}
	return FromSnapshot(snap), nil
}

// LineCol converts a byte offset in the span's source into a 1-based
// (line, column) pair, for error rendering.
func (s Span) LineCol(offset int) (line, col int) {
	if s.Source == nil || offset < 0 || offset > len(s.Source.Data) {
		return 0, 0
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if s.Source.Data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}

// Text returns the slice of the source buffer the span covers.
func (s Span) Text() string {
	if s.Source == nil {
		return ""
	}
	if s.Location.Start < 0 || s.Location.End > len(s.Source.Data) || s.Location.Start > s.Location.End {
		return ""
	}
	return s.Source.Data[s.Location.Start:s.Location.End]
}

// Render produces a human-readable "underline" diagnostic showing the
// line the span occurs on, the previous line for context, and a caret
// span underneath pointing at the offending text.
func (s Span) Render() string {
	if s.Source == nil {
		return ""
	}
	startLine, startCol := s.LineCol(s.Location.Start)
	_, endCol := s.LineCol(s.Location.End)
	lines := strings.Split(s.Source.Data, "\n")

	var b strings.Builder
	if startLine-2 >= 0 && startLine-2 < len(lines) {
		fmt.Fprintf(&b, "  %d | %s\n", startLine-1, lines[startLine-2])
	}
	if startLine-1 >= 0 && startLine-1 < len(lines) {
		fmt.Fprintf(&b, "  %d | %s\n", startLine, lines[startLine-1])
	}
	width := endCol - startCol
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(&b, "       %s%s\n", strings.Repeat(" ", max(startCol-1, 0)), strings.Repeat("^", width))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
