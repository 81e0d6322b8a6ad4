// Package errs defines the runtime's error-kind taxonomy (§7 of the
// execution-runtime design): a small closed set of surface categories
// that every stage, scope operation, and command invocation reports
// through, each optionally carrying a source span for diagnostics.
package errs

import (
	"errors"
	"fmt"

	"github.com/liljencrantz/crush/source"
)

// Kind is the closed set of runtime error categories. It is a surface
// taxonomy, not a hierarchy of concrete error types: callers switch on
// Kind, never on a Go type assertion chain.
type Kind int

const (
	// Generic covers anything that doesn't fit a more specific kind.
	Generic Kind = iota
	// Argument marks a bad parameter binding or call-site type mismatch.
	Argument
	// Data marks a value-shape mismatch observed at runtime (wrong
	// column count, a key of the wrong type, and similar).
	Data
	// IO wraps an underlying I/O failure (OS error, broken pipe).
	IO
	// Block is a compile-time-only signal meaning "this value cannot be
	// produced synchronously". The invocation layer consumes it to
	// decide to spawn a worker thread; it must never escape that layer.
	Block
	// Command wraps a propagated failure from user-level code, such as
	// an external command's non-zero exit.
	Command
)

func (k Kind) String() string {
	switch k {
	case Argument:
		return "ArgumentError"
	case Data:
		return "DataError"
	case IO:
		return "IoError"
	case Block:
		return "BlockError"
	case Command:
		return "CommandError"
	default:
		return "GenericError"
	}
}

// Error is the runtime's uniform error value. Every error surfaced from
// a pipeline stage, scope operation, or command invocation is one of
// these so the REPL (or any other caller) can print a stable kind and,
// when available, underline the offending source span.
type Error struct {
	Kind    Kind
	Message string
	Span    *source.Span
	Cause   error
}

// New constructs an Error with no span.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At constructs an Error carrying the given span.
func At(kind Kind, span source.Span, format string, args ...any) *Error {
	s := span
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: &s}
}

// Wrap wraps an underlying cause under the given kind.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Span != nil {
		if rendered := e.Span.Render(); rendered != "" {
			msg += "\n" + rendered
		}
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsBlock reports whether err is a BlockError, the one kind that must
// never be allowed to escape the invocation layer (§7).
func IsBlock(err error) bool { return Is(err, Block) }
