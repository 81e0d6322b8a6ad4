// Package pipe implements the typed channels that connect pipeline
// stages (§4.C): a capacity-1 Value channel, bounded/unbounded Row
// channels with schema enforcement on every read, and binary streams.
package pipe

import (
	"io"
	"sync"

	"github.com/liljencrantz/crush/container"
	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/invariant"
	"github.com/liljencrantz/crush/value"
)

// RowChannelCapacity is the bounded row channel's buffer size (§4.C).
const RowChannelCapacity = 128

// ValueSender is the write half of a Value channel.
type ValueSender struct {
	ch     chan value.Value
	closed *sync.Once
	// sentinel marks a BlackHole output, distinguishing it from a real
	// pipeline connection (§4.J "terminal mode" decision).
	sentinel bool
}

// ValueReceiver is the read half of a Value channel.
type ValueReceiver struct {
	ch chan value.Value
	// sentinel marks an EmptyChannel input, distinguishing it from a
	// real pipeline connection (§4.J "terminal mode" decision).
	sentinel bool
}

// IsSentinel reports whether s is the BlackHole sentinel rather than a
// real pipeline connection.
func (s ValueSender) IsSentinel() bool { return s.sentinel }

// IsSentinel reports whether r is the EmptyChannel sentinel rather than
// a real pipeline connection.
func (r ValueReceiver) IsSentinel() bool { return r.sentinel }

// NewValueChannel creates the capacity-1 Value channel pair (§4.C).
func NewValueChannel() (ValueSender, ValueReceiver) {
	ch := make(chan value.Value, 1)
	return ValueSender{ch: ch, closed: &sync.Once{}}, ValueReceiver{ch: ch}
}

// Send delivers v. Sending after Close returns an IoError. A receiver
// that stops reading is not detected: once the one-slot buffer is full,
// Send blocks until the next Recv.
func (s ValueSender) Send(v value.Value) (err error) {
	invariant.NotNil(v, "v")
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.IO, "send on closed value channel")
		}
	}()
	s.ch <- v
	return nil
}

// Close signals end-of-stream to the receiver. Safe to call multiple
// times; only the first takes effect.
func (s ValueSender) Close() {
	s.closed.Do(func() { close(s.ch) })
}

// Recv blocks until a Value arrives or the sender closes, in which
// case ok is false.
func (r ValueReceiver) Recv() (value.Value, bool) {
	v, ok := <-r.ch
	return v, ok
}

// BlackHole returns a ValueSender that silently discards everything
// sent to it (§4.C black_hole()).
func BlackHole() ValueSender {
	ch := make(chan value.Value)
	go func() {
		for range ch {
		}
	}()
	return ValueSender{ch: ch, closed: &sync.Once{}, sentinel: true}
}

// EmptyChannel returns a ValueReceiver pre-filled with exactly one
// Empty value followed by end-of-stream (§4.C empty_channel()).
func EmptyChannel() ValueReceiver {
	ch := make(chan value.Value, 1)
	ch <- value.EmptyValue
	close(ch)
	return ValueReceiver{ch: ch, sentinel: true}
}

// RowSender is the write half of a Row channel.
type RowSender struct {
	ch      chan *container.Row
	columns value.Columns
	closed  *sync.Once
}

// RowReceiver is the read half of a Row channel. Every Recv validates
// the row against the declared schema (§3.2 invariant 2, §4.C).
type RowReceiver struct {
	ch      chan *container.Row
	columns value.Columns
}

// NewRowChannel creates a Row channel pair for the given schema.
// unbounded requests an unbounded-in-principle (practically large)
// capacity instead of the standard bounded 128 (§4.C).
func NewRowChannel(columns value.Columns, unbounded bool) (RowSender, RowReceiver) {
	capacity := RowChannelCapacity
	if unbounded {
		capacity = 1 << 20
	}
	ch := make(chan *container.Row, capacity)
	return RowSender{ch: ch, columns: columns, closed: &sync.Once{}},
		RowReceiver{ch: ch, columns: columns}
}

// Send delivers row after validating it against the channel's schema.
func (s RowSender) Send(row *container.Row) (err error) {
	if err := validateRow(s.columns, row); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.IO, "send on closed row channel")
		}
	}()
	s.ch <- row
	return nil
}

// Close signals end-of-stream. Safe to call more than once.
func (s RowSender) Close() {
	s.closed.Do(func() { close(s.ch) })
}

// Recv returns the next row, re-validating its shape against the
// channel's schema even though the sender already checked: a
// misbehaving or adapted sender must not be trusted (§3.2 invariant 2).
func (r RowReceiver) Recv() (*container.Row, bool, error) {
	row, ok := <-r.ch
	if !ok {
		return nil, false, nil
	}
	if err := validateRow(r.columns, row); err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// Columns reports the channel's declared schema.
func (r RowReceiver) Columns() value.Columns { return r.columns }

func validateRow(columns value.Columns, row *container.Row) error {
	cells := row.Cells()
	if len(cells) != len(columns) {
		return errs.New(errs.Data, "expected %d cells, got %d", len(columns), len(cells))
	}
	for i, c := range cells {
		if !columns[i].Element.Is(c) {
			return errs.New(errs.Data, "column %q: expected %s, got %s", columns[i].Name, columns[i].Element, c.Type())
		}
	}
	return nil
}

// Initialize implements §4.C's stream-from-sender helper: it creates a
// (TableOutputStream, TableInputStream) pair with the given schema,
// sends the input end on vs, and returns the output end.
func Initialize(vs ValueSender, columns value.Columns) (*TableOutputStream, error) {
	sender, receiver := NewRowChannel(columns, false)
	in := &TableInputStream{receiver: receiver, columns: columns}
	out := &TableOutputStream{sender: sender, columns: columns}
	if err := vs.Send(in); err != nil {
		return nil, err
	}
	return out, nil
}

// TableInputStream is the readable end of a row stream (§3.1).
type TableInputStream struct {
	receiver RowReceiver
	columns  value.Columns
}

func NewTableInputStream(receiver RowReceiver, columns value.Columns) *TableInputStream {
	return &TableInputStream{receiver: receiver, columns: columns}
}

func (t *TableInputStream) Type() value.Type {
	return value.NewTableInputStreamType(t.columns)
}

// Read returns the next row, or ok=false at end of stream.
func (t *TableInputStream) Read() (*container.Row, bool, error) {
	return t.receiver.Recv()
}

// Materialize drains the stream into a concrete Table (§3.5).
func (t *TableInputStream) Materialize() (value.Value, error) {
	var rows [][]value.Value
	for {
		row, ok, err := t.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, row.Cells())
	}
	return container.NewTable(t.columns, rows)
}

func (t *TableInputStream) Field(name string) (value.Value, bool) { return nil, false }

func (t *TableInputStream) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindTableInputStream {
		return t, nil
	}
	if target.Kind() == value.KindTable {
		return t.Materialize()
	}
	return nil, errs.New(errs.Data, "cannot convert table input stream to %s", target)
}

func (t *TableInputStream) String() string { return "<table input stream>" }

// TableOutputStream is the writable end of a row stream.
type TableOutputStream struct {
	sender  RowSender
	columns value.Columns
}

func NewTableOutputStream(sender RowSender, columns value.Columns) *TableOutputStream {
	return &TableOutputStream{sender: sender, columns: columns}
}

func (t *TableOutputStream) Type() value.Type {
	return value.NewTableOutputStreamType(t.columns)
}

// Send writes a row, letting RowSender enforce schema conformance.
func (t *TableOutputStream) Send(row *container.Row) error { return t.sender.Send(row) }

// Close signals end-of-stream to the paired input stream.
func (t *TableOutputStream) Close() { t.sender.Close() }

func (t *TableOutputStream) Materialize() (value.Value, error) { return t, nil }
func (t *TableOutputStream) Field(name string) (value.Value, bool) { return nil, false }

func (t *TableOutputStream) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindTableOutputStream {
		return t, nil
	}
	return nil, errs.New(errs.Data, "cannot convert table output stream to %s", target)
}

func (t *TableOutputStream) String() string { return "<table output stream>" }

// BinaryInputStream exposes Read-like semantics over a byte pipe and
// can be cloned (reference-counted) for fan-out readers (§4.C).
type BinaryInputStream struct {
	mu   *sync.Mutex
	refs *int
	r    io.Reader
	src  io.Closer
}

// NewBinaryInputStream wraps r (closed when the last clone is
// released) as a binary stream value.
func NewBinaryInputStream(r io.ReadCloser) *BinaryInputStream {
	refs := 1
	return &BinaryInputStream{mu: &sync.Mutex{}, refs: &refs, r: r, src: r}
}

// Clone increments the reference count and returns a handle sharing
// the same underlying reader.
func (b *BinaryInputStream) Clone() *BinaryInputStream {
	b.mu.Lock()
	*b.refs++
	b.mu.Unlock()
	return &BinaryInputStream{mu: b.mu, refs: b.refs, r: b.r, src: b.src}
}

// Read satisfies io.Reader by delegating to the underlying source.
func (b *BinaryInputStream) Read(p []byte) (int, error) { return b.r.Read(p) }

// Release decrements the reference count, closing the underlying
// source once the last clone is released.
func (b *BinaryInputStream) Release() error {
	b.mu.Lock()
	*b.refs--
	drop := *b.refs <= 0
	b.mu.Unlock()
	if drop && b.src != nil {
		return b.src.Close()
	}
	return nil
}

func (b *BinaryInputStream) Type() value.Type { return value.BinaryInputStream }

// Materialize drains the stream into a Binary value (§3.5).
func (b *BinaryInputStream) Materialize() (value.Value, error) {
	data, err := io.ReadAll(b.r)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err, "reading binary stream")
	}
	return value.NewBinary(data), nil
}

func (b *BinaryInputStream) Field(name string) (value.Value, bool) { return nil, false }

func (b *BinaryInputStream) Convert(target value.Type) (value.Value, error) {
	switch target.Kind() {
	case value.KindBinaryInputStream:
		return b, nil
	case value.KindBinary:
		return b.Materialize()
	default:
		return nil, errs.New(errs.Data, "cannot convert binary input stream to %s", target)
	}
}

func (b *BinaryInputStream) String() string { return "<binary input stream>" }
