package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// turtleSerializer emits Turtle output incrementally. Namespace bindings
// received before the first statement are emitted as a leading @prefix
// block; later bindings become inline directives (legal in Turtle).
// Registered prefixes compact matching IRIs to prefixed names.
type turtleSerializer struct {
	writer   *bufio.Writer
	prefixes []Namespace
	started  bool
	closed   bool
	err      error
}

func newTurtleSerializer(w io.Writer) *turtleSerializer {
	return &turtleSerializer{writer: bufio.NewWriter(w)}
}

// Format returns FormatTurtle.
func (e *turtleSerializer) Format() Format { return FormatTurtle }

// ready rejects events once the stream has failed or ended.
func (e *turtleSerializer) ready() error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrHandlerState
	}
	return nil
}

// StartStream implements StatementHandler.
func (e *turtleSerializer) StartStream() error { return e.ready() }

// HandleNamespace registers a prefix binding and emits its directive.
func (e *turtleSerializer) HandleNamespace(prefix, iri string) error {
	if err := e.ready(); err != nil {
		return err
	}
	for i, ns := range e.prefixes {
		if ns.Prefix == prefix {
			e.prefixes[i].IRI = iri
			return e.writeString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, iri))
		}
	}
	e.prefixes = append(e.prefixes, Namespace{Prefix: prefix, IRI: iri})
	return e.writeString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, iri))
}

// HandleComment writes a comment line.
func (e *turtleSerializer) HandleComment(text string) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.writeString("# " + strings.ReplaceAll(text, "\n", "\n# ") + "\n")
}

// HandleStatement writes one statement. Context terms are not
// representable in Turtle and are dropped with the triple kept.
func (e *turtleSerializer) HandleStatement(st Statement) error {
	if err := e.ready(); err != nil {
		return err
	}
	if st.S == nil || st.P.Value == "" || st.O == nil {
		return fmt.Errorf("turtle: missing statement fields")
	}
	if !e.started {
		e.started = true
		if len(e.prefixes) > 0 {
			if err := e.writeString("\n"); err != nil {
				return err
			}
		}
	}
	line := e.renderTerm(st.S) + " " + e.renderPredicate(st.P) + " " + e.renderTerm(st.O) + " .\n"
	return e.writeString(line)
}

// EndStream flushes buffered output.
func (e *turtleSerializer) EndStream() error {
	if err := e.ready(); err != nil {
		return err
	}
	e.closed = true
	if err := e.writer.Flush(); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}

func (e *turtleSerializer) writeString(s string) error {
	if _, err := e.writer.WriteString(s); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}

func (e *turtleSerializer) renderPredicate(p IRI) string {
	if p == RDFType {
		return "a"
	}
	return e.renderIRI(p)
}

func (e *turtleSerializer) renderTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return e.renderIRI(value)
	case Literal:
		if value.Lang != "" {
			return fmt.Sprintf("%s@%s", quoteLiteral(value.Lexical), value.Lang)
		}
		if value.Datatype.Value != "" && value.Datatype != XSDString {
			return fmt.Sprintf("%s^^%s", quoteLiteral(value.Lexical), e.renderIRI(value.Datatype))
		}
		return quoteLiteral(value.Lexical)
	default:
		return renderTerm(term)
	}
}

// renderIRI compacts an IRI to a prefixed name when a registered prefix
// matches and the remainder is a safe local name.
func (e *turtleSerializer) renderIRI(iri IRI) string {
	best := -1
	bestLen := 0
	for i, ns := range e.prefixes {
		if strings.HasPrefix(iri.Value, ns.IRI) && len(ns.IRI) > bestLen {
			local := iri.Value[len(ns.IRI):]
			if isSafeLocalName(local) {
				best = i
				bestLen = len(ns.IRI)
			}
		}
	}
	if best < 0 {
		return renderIRIRef(iri)
	}
	return e.prefixes[best].Prefix + ":" + iri.Value[bestLen:]
}

// isSafeLocalName reports whether a local part serializes as a prefixed
// name without escaping.
func isSafeLocalName(local string) bool {
	if local == "" {
		return true
	}
	if local[0] == '-' || local[0] == '.' || strings.HasSuffix(local, ".") {
		return false
	}
	for i := 0; i < len(local); i++ {
		ch := local[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '_' || ch == '-' || ch == '.':
		case ch >= 0x80: // multi-byte runes pass through
		default:
			return false
		}
	}
	return true
}
