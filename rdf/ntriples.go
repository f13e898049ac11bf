package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// parseLineFormat streams an N-Triples or N-Quads document: one
// statement per line, comments surfaced as comment events. Memory is
// bounded by the longest single line.
func parseLineFormat(r io.Reader, sess *parseSession) error {
	if err := sess.out.StartStream(); err != nil {
		return err
	}
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := readLine(reader, sess.opts.MaxLineBytes)
		if err == io.EOF && line == "" {
			break
		}
		if err == ErrLineTooLong {
			return wrapParseError(sess.format, "", lineNo+1, 0, ErrLineTooLong)
		}
		if err != nil && err != io.EOF {
			return wrapIOError(err)
		}
		lineNo++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if cbErr := sess.out.HandleComment(strings.TrimSpace(trimmed[1:])); cbErr != nil {
				return cbErr
			}
			continue
		}
		st, perr := parseStatementLine(trimmed, sess)
		if perr != nil {
			return wrapParseError(sess.format, trimmed, lineNo, 0, perr)
		}
		if cbErr := sess.statement(st); cbErr != nil {
			return cbErr
		}
	}
	return sess.out.EndStream()
}

// readLine reads one line, enforcing the byte limit while reading so an
// oversized line never buffers more than the limit plus one read chunk.
// The parse aborts on ErrLineTooLong, so the remainder of an over-limit
// line is left unread.
func readLine(reader *bufio.Reader, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		line, err := reader.ReadString('\n')
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return line, err
	}
	var buffer []byte
	for {
		part, err := reader.ReadSlice('\n')
		buffer = append(buffer, part...)
		if len(buffer) > maxBytes {
			return "", ErrLineTooLong
		}
		switch err {
		case nil:
			return string(buffer), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(buffer) > 0 {
				return string(buffer), nil
			}
			return "", io.EOF
		default:
			return "", err
		}
	}
}

// parseStatementLine parses one subject predicate object [context] "."
// line with the session's blank namespace and base resolution.
func parseStatementLine(line string, sess *parseSession) (Statement, error) {
	cursor := &lineCursor{input: line, sess: sess}
	subject, err := cursor.parseResource()
	if err != nil {
		return Statement{}, err
	}
	predicate, err := cursor.parseIRI()
	if err != nil {
		return Statement{}, err
	}
	object, err := cursor.parseTerm(true)
	if err != nil {
		return Statement{}, err
	}

	var graph Term
	if sess.format == FormatNQuads {
		cursor.skipWS()
		if cursor.pos < len(cursor.input) && cursor.input[cursor.pos] != '.' {
			graph, err = cursor.parseResource()
			if err != nil {
				return Statement{}, err
			}
		}
	}
	cursor.skipWS()
	if !cursor.consume('.') {
		return Statement{}, cursor.errorf("expected '.' at end of statement")
	}
	cursor.skipWS()
	if cursor.pos < len(cursor.input) {
		if cursor.input[cursor.pos] == '#' {
			// trailing comment, not an event of its own
		} else {
			return Statement{}, cursor.errorf("trailing tokens after '.'")
		}
	}
	return Statement{S: subject, P: predicate, O: object, G: graph}, nil
}

// lineCursor is a byte cursor over one statement line.
type lineCursor struct {
	input string
	pos   int
	sess  *parseSession
}

func (c *lineCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *lineCursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

// parseResource parses an IRI or blank node.
func (c *lineCursor) parseResource() (Term, error) {
	return c.parseTerm(false)
}

func (c *lineCursor) parseTerm(allowLiteral bool) (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of line")
	}
	switch {
	case c.input[c.pos] == '<':
		return c.parseIRI()
	case strings.HasPrefix(c.input[c.pos:], "_:"):
		return c.parseBlankNode()
	case c.input[c.pos] == '"':
		if !allowLiteral {
			return nil, c.errorf("literal not allowed here")
		}
		return c.parseLiteral()
	default:
		return nil, c.errorf("unexpected token")
	}
}

func (c *lineCursor) parseIRI() (IRI, error) {
	c.skipWS()
	if !c.consume('<') {
		return IRI{}, c.errorf("expected IRI")
	}
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != '>' {
		c.pos++
	}
	if c.pos >= len(c.input) {
		return IRI{}, c.errorf("unterminated IRI")
	}
	value := c.sess.resolve(unescapeIRI(c.input[start:c.pos]))
	c.pos++
	if err := validateAbsoluteIRI(value); err != nil {
		return IRI{}, c.errorf("invalid IRI <%s>: %v", value, err)
	}
	return IRI{Value: value}, nil
}

func (c *lineCursor) parseBlankNode() (BlankNode, error) {
	c.skipWS()
	if !strings.HasPrefix(c.input[c.pos:], "_:") {
		return BlankNode{}, c.errorf("expected blank node")
	}
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
		c.pos++
	}
	if start == c.pos {
		return BlankNode{}, c.errorf("blank node id missing")
	}
	return c.sess.mapBlank(c.input[start:c.pos]), nil
}

func (c *lineCursor) parseLiteral() (Literal, error) {
	c.skipWS()
	if !c.consume('"') {
		return Literal{}, c.errorf("expected literal")
	}
	var builder strings.Builder
	closed := false
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '"' {
			c.pos++
			closed = true
			break
		}
		if ch == '\\' {
			if c.pos+1 >= len(c.input) {
				return Literal{}, c.errorf("unterminated escape")
			}
			next := c.input[c.pos+1]
			switch next {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case 'r':
				builder.WriteByte('\r')
			case '"':
				builder.WriteByte('"')
			case '\\':
				builder.WriteByte('\\')
			case 'u', 'U':
				r, consumed, err := decodeUnicodeEscape(c.input[c.pos:])
				if err != nil {
					return Literal{}, c.errorf("%v", err)
				}
				builder.WriteRune(r)
				c.pos += consumed
				continue
			default:
				builder.WriteByte(next)
			}
			c.pos += 2
			continue
		}
		builder.WriteByte(ch)
		c.pos++
	}
	if !closed {
		return Literal{}, c.errorf("unterminated literal")
	}
	lexical := builder.String()
	if strings.HasPrefix(c.input[c.pos:], "@") {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && !isTermDelimiter(c.input[c.pos]) {
			c.pos++
		}
		if start == c.pos {
			return Literal{}, c.errorf("empty language tag")
		}
		return Literal{Lexical: lexical, Datatype: RDFLangString, Lang: c.input[start:c.pos]}, nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		dt, err := c.parseIRI()
		if err != nil {
			return Literal{}, err
		}
		return Literal{Lexical: lexical, Datatype: dt}, nil
	}
	// Simple literals carry xsd:string.
	return Literal{Lexical: lexical, Datatype: XSDString}, nil
}

func (c *lineCursor) errorf(format string, args ...interface{}) error {
	return &ParseError{Format: c.sess.format, Column: c.pos + 1, Err: fmt.Errorf(format, args...)}
}

func isTermDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '.', ';', ',', ')', ']':
		return true
	default:
		return false
	}
}

// decodeUnicodeEscape decodes \uXXXX or \UXXXXXXXX starting at the
// backslash and returns the rune plus bytes consumed.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("truncated unicode escape")
	}
	var digits int
	switch s[1] {
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return 0, 0, fmt.Errorf("not a unicode escape")
	}
	if len(s) < 2+digits {
		return 0, 0, fmt.Errorf("truncated unicode escape")
	}
	var value rune
	for i := 0; i < digits; i++ {
		ch := s[2+i]
		var v rune
		switch {
		case ch >= '0' && ch <= '9':
			v = rune(ch - '0')
		case ch >= 'a' && ch <= 'f':
			v = rune(ch-'a') + 10
		case ch >= 'A' && ch <= 'F':
			v = rune(ch-'A') + 10
		default:
			return 0, 0, fmt.Errorf("invalid hex digit %q in unicode escape", ch)
		}
		value = value<<4 | v
	}
	return value, 2 + digits, nil
}

func unescapeIRI(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}
	var builder strings.Builder
	for i := 0; i < len(value); {
		if value[i] == '\\' && i+1 < len(value) && (value[i+1] == 'u' || value[i+1] == 'U') {
			r, consumed, err := decodeUnicodeEscape(value[i:])
			if err == nil {
				builder.WriteRune(r)
				i += consumed
				continue
			}
		}
		builder.WriteByte(value[i])
		i++
	}
	return builder.String()
}

// lineSerializer emits one N-Triples/N-Quads line per statement and
// comments as "# ..." lines. Namespace events are accepted and ignored:
// the line formats have no prefix syntax.
type lineSerializer struct {
	writer *bufio.Writer
	format Format
	err    error
	closed bool
}

func newLineSerializer(format Format, w io.Writer) *lineSerializer {
	return &lineSerializer{writer: bufio.NewWriter(w), format: format}
}

// Format returns the output format.
func (e *lineSerializer) Format() Format { return e.format }

// ready rejects events once the stream has failed or ended.
func (e *lineSerializer) ready() error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrHandlerState
	}
	return nil
}

// StartStream implements StatementHandler.
func (e *lineSerializer) StartStream() error { return e.ready() }

// HandleNamespace implements StatementHandler. The line formats carry no
// prefixes, so bindings are dropped.
func (e *lineSerializer) HandleNamespace(prefix, iri string) error { return e.ready() }

// HandleComment writes a comment line.
func (e *lineSerializer) HandleComment(text string) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.writeString("# " + strings.ReplaceAll(text, "\n", "\n# ") + "\n")
}

// HandleStatement writes one statement line.
func (e *lineSerializer) HandleStatement(st Statement) error {
	if err := e.ready(); err != nil {
		return err
	}
	if st.S == nil || st.P.Value == "" || st.O == nil {
		return fmt.Errorf("%s: missing statement fields", e.format)
	}
	line := renderTerm(st.S) + " " + renderIRIRef(st.P) + " " + renderTerm(st.O)
	if e.format == FormatNQuads && st.G != nil {
		line += " " + renderTerm(st.G)
	}
	line += " .\n"
	return e.writeString(line)
}

// EndStream flushes buffered output.
func (e *lineSerializer) EndStream() error {
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

func (e *lineSerializer) writeString(s string) error {
	if _, err := e.writer.WriteString(s); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}

// renderIRIRef renders an IRI in angle brackets.
func renderIRIRef(iri IRI) string {
	return "<" + iri.Value + ">"
}

// renderTerm renders a term in N-Triples syntax. Simple xsd:string
// literals omit the datatype suffix.
func renderTerm(term Term) string {
	switch value := term.(type) {
	case IRI:
		return renderIRIRef(value)
	case BlankNode:
		return value.String()
	case Literal:
		if value.Lang != "" {
			return fmt.Sprintf("%s@%s", quoteLiteral(value.Lexical), value.Lang)
		}
		if value.Datatype.Value != "" && value.Datatype != XSDString {
			return fmt.Sprintf("%s^^%s", quoteLiteral(value.Lexical), renderIRIRef(value.Datatype))
		}
		return quoteLiteral(value.Lexical)
	default:
		return ""
	}
}

// quoteLiteral escapes and quotes a lexical form.
func quoteLiteral(lexical string) string {
	var builder strings.Builder
	builder.WriteByte('"')
	for _, r := range lexical {
		switch r {
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			builder.WriteRune(r)
		}
	}
	builder.WriteByte('"')
	return builder.String()
}
