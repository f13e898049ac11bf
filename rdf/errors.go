package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorCode represents a programmatic error code for error handling.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeLineTooLong indicates a line exceeded the configured limit.
	ErrCodeLineTooLong ErrorCode = "LINE_TOO_LONG"
	// ErrCodeStatementTooLong indicates a statement exceeded the configured limit.
	ErrCodeStatementTooLong ErrorCode = "STATEMENT_TOO_LONG"
	// ErrCodeDepthExceeded indicates that nesting depth exceeded the configured limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
	// ErrCodeStatementLimit indicates that the maximum number of statements was exceeded.
	ErrCodeStatementLimit ErrorCode = "STATEMENT_LIMIT_EXCEEDED"
	// ErrCodeParse indicates a fatal syntax violation.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
	// ErrCodeIO indicates a stream read failure.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeWrite indicates a sink write failure.
	ErrCodeWrite ErrorCode = "WRITE_ERROR"
	// ErrCodeCanceled indicates the context was canceled.
	ErrCodeCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInvalidTerm indicates malformed term construction.
	ErrCodeInvalidTerm ErrorCode = "INVALID_TERM"
	// ErrCodeHandler indicates an error raised by a statement handler.
	ErrCodeHandler ErrorCode = "HANDLER_ERROR"
	// ErrCodeState indicates handler-protocol or parser misuse.
	ErrCodeState ErrorCode = "ILLEGAL_STATE"
	// ErrCodeCollection indicates a malformed RDF Collection structure.
	ErrCodeCollection ErrorCode = "MALFORMED_COLLECTION"
)

var (
	// ErrUnsupportedFormat indicates an unsupported format.
	ErrUnsupportedFormat = errors.New("rdf: unsupported format")
	// ErrLineTooLong indicates a line exceeded the configured limit.
	ErrLineTooLong = errors.New("rdf: line exceeds configured limit")
	// ErrStatementTooLong indicates a statement exceeded the configured limit.
	ErrStatementTooLong = errors.New("rdf: statement exceeds configured limit")
	// ErrDepthExceeded indicates that nesting depth exceeded the configured limit.
	ErrDepthExceeded = errors.New("rdf: nesting depth exceeded configured limit")
	// ErrStatementLimit indicates that the maximum number of statements was exceeded.
	ErrStatementLimit = errors.New("rdf: maximum number of statements exceeded")
	// ErrHandlerState indicates handler-protocol misuse: an event before
	// StartStream, after EndStream, or a handler replaced mid-parse.
	ErrHandlerState = errors.New("rdf: illegal handler state")
	// ErrNoHandler indicates a parse was attempted with no handler registered.
	ErrNoHandler = errors.New("rdf: no statement handler registered")
)

// TermError reports malformed term construction.
type TermError struct {
	// Kind is the term kind being constructed.
	Kind TermKind
	// Value is the offending input value.
	Value string
	// Err is the underlying validation error.
	Err error
}

func (e *TermError) Error() string {
	return fmt.Sprintf("rdf: invalid term %q: %v", e.Value, e.Err)
}

func (e *TermError) Unwrap() error { return e.Err }

// ParseError provides structured context for fatal parse failures.
type ParseError struct {
	// Format is the format being parsed.
	Format Format
	// Statement is the offending statement or input excerpt.
	Statement string
	// Line is the 1-based line number (0 if unknown).
	Line int
	// Column is the 1-based column number (0 if unknown).
	Column int
	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(string(e.Format))
	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	if excerpt := e.excerpt(); excerpt != "" {
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// excerpt renders the offending input around the error column with a
// caret marker.
func (e *ParseError) excerpt() string {
	if e.Statement == "" {
		return ""
	}
	const maxLen = 80
	const window = 40

	if e.Column <= 0 {
		if len(e.Statement) > maxLen {
			return e.Statement[:maxLen] + "..."
		}
		return e.Statement
	}

	mark := e.Column - 1
	if mark > len(e.Statement) {
		mark = len(e.Statement)
	}
	start := mark - window
	if start < 0 {
		start = 0
	}
	end := mark + window
	if end > len(e.Statement) {
		end = len(e.Statement)
	}
	excerpt := e.Statement[start:end]
	caret := mark - start
	if start > 0 {
		excerpt = "..." + excerpt
		caret += 3
	}
	if end < len(e.Statement) {
		excerpt += "..."
	}
	if caret >= len(excerpt) {
		caret = len(excerpt) - 1
	}
	var out strings.Builder
	out.WriteString(excerpt)
	out.WriteString("\n  ")
	for i := 0; i < caret; i++ {
		out.WriteByte(' ')
	}
	out.WriteByte('^')
	return out.String()
}

// wrapParseError adds format/statement/position context to a parse error,
// keeping the position already recorded by an inner ParseError when better.
func wrapParseError(format Format, statement string, line, column int, err error) error {
	if err == nil {
		return nil
	}
	var inner *ParseError
	if errors.As(err, &inner) {
		if inner.Line > 0 && line == 0 {
			line = inner.Line
		}
		if inner.Column > 0 && column == 0 {
			column = inner.Column
		}
	}
	return &ParseError{Format: format, Statement: statement, Line: line, Column: column, Err: err}
}

// HandlerError wraps an error raised by a statement handler during a
// callback. Producers never suppress or continue past one.
type HandlerError struct {
	// Err is the handler's original error.
	Err error
}

func (e *HandlerError) Error() string {
	return "rdf: handler error: " + e.Err.Error()
}

func (e *HandlerError) Unwrap() error { return e.Err }

// WriteError reports a sink write failure during serialization. The
// output may be left truncated; the serializer makes no recovery attempt.
type WriteError struct {
	// Err is the underlying sink error.
	Err error
}

func (e *WriteError) Error() string {
	return "rdf: write error: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// CollectionError reports a structural violation in an RDF Collection:
// a node without exactly one rdf:first, without exactly one rdf:rest, or
// a rest-cycle.
type CollectionError struct {
	// Node is the offending collection node.
	Node Term
	// Reason describes the violation.
	Reason string
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("rdf: malformed collection at %s: %s", termString(e.Node), e.Reason)
}

// Code returns the error code for an error, or ErrCodeParse if unknown.
// Returns empty string for nil errors or io.EOF.
func Code(err error) ErrorCode {
	if err == nil || err == io.EOF {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrLineTooLong):
		return ErrCodeLineTooLong
	case errors.Is(err, ErrStatementTooLong):
		return ErrCodeStatementTooLong
	case errors.Is(err, ErrDepthExceeded):
		return ErrCodeDepthExceeded
	case errors.Is(err, ErrStatementLimit):
		return ErrCodeStatementLimit
	case errors.Is(err, ErrHandlerState), errors.Is(err, ErrNoHandler):
		return ErrCodeState
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return ErrCodeHandler
	}
	var termErr *TermError
	if errors.As(err, &termErr) {
		return ErrCodeInvalidTerm
	}
	var collErr *CollectionError
	if errors.As(err, &collErr) {
		return ErrCodeCollection
	}
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return ErrCodeWrite
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if inner := Code(parseErr.Err); inner != "" && inner != ErrCodeParse {
			return inner
		}
		return ErrCodeParse
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeCanceled
	}
	var ioErr *ioError
	if errors.As(err, &ioErr) {
		return ErrCodeIO
	}

	return ErrCodeParse
}

// ioError marks a failure of the underlying input stream, as opposed to
// a syntax violation in its content.
type ioError struct {
	err error
}

func (e *ioError) Error() string { return "rdf: read error: " + e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

// wrapIOError classifies a read failure. io.EOF passes through untouched.
func wrapIOError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	return &ioError{err: err}
}
