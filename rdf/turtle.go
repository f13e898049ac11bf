package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// parseTurtle streams a Turtle document. The scanner buffers one logical
// statement at a time (never the whole document), so memory is bounded
// by the largest single statement plus the prefix table.
func parseTurtle(r io.Reader, sess *parseSession) error {
	if err := sess.out.StartStream(); err != nil {
		return err
	}
	state := &turtleState{
		sess:     sess,
		base:     sess.base,
		prefixes: make(map[string]string),
	}
	scanner := newTurtleScanner(r, sess)
	for {
		unit, err := scanner.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if unit.comment {
			if cbErr := sess.out.HandleComment(unit.text); cbErr != nil {
				return cbErr
			}
			continue
		}
		if err := state.parseUnit(unit); err != nil {
			return err
		}
	}
	return sess.out.EndStream()
}

// turtleState holds the directive context accumulated across statements.
type turtleState struct {
	sess     *parseSession
	base     string
	prefixes map[string]string
}

// parseUnit handles one scanned statement: a directive or a triple block.
func (ts *turtleState) parseUnit(unit scanUnit) error {
	text := strings.TrimSpace(unit.text)
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "@prefix") || strings.HasPrefix(lower, "prefix"):
		return ts.parsePrefixDirective(unit)
	case strings.HasPrefix(lower, "@base") || strings.HasPrefix(lower, "base"):
		return ts.parseBaseDirective(unit)
	}

	cursor := &turtleCursor{input: text, state: ts}
	stmts, err := cursor.parseTripleBlock()
	if err != nil {
		return wrapParseError(FormatTurtle, text, unit.line, 0, err)
	}
	for _, st := range stmts {
		if cbErr := ts.sess.statement(st); cbErr != nil {
			return cbErr
		}
	}
	return nil
}

func (ts *turtleState) parsePrefixDirective(unit scanUnit) error {
	cursor := &turtleCursor{input: strings.TrimSpace(unit.text), state: ts}
	cursor.skipKeyword()
	cursor.skipWS()
	start := cursor.pos
	for cursor.pos < len(cursor.input) && cursor.input[cursor.pos] != ':' {
		cursor.pos++
	}
	if cursor.pos >= len(cursor.input) {
		return wrapParseError(FormatTurtle, unit.text, unit.line, 0, cursor.errorf("expected ':' in prefix declaration"))
	}
	prefix := strings.TrimSpace(cursor.input[start:cursor.pos])
	cursor.pos++
	iri, err := cursor.parseIRIRef()
	if err != nil {
		return wrapParseError(FormatTurtle, unit.text, unit.line, 0, err)
	}
	if previous, ok := ts.prefixes[prefix]; ok && previous != iri.Value {
		ts.sess.warn(unit.line, 0, fmt.Sprintf("prefix %q redefined from <%s> to <%s>", prefix, previous, iri.Value))
	}
	ts.prefixes[prefix] = iri.Value
	return ts.sess.out.HandleNamespace(prefix, iri.Value)
}

func (ts *turtleState) parseBaseDirective(unit scanUnit) error {
	cursor := &turtleCursor{input: strings.TrimSpace(unit.text), state: ts}
	cursor.skipKeyword()
	iri, err := cursor.parseIRIRef()
	if err != nil {
		return wrapParseError(FormatTurtle, unit.text, unit.line, 0, err)
	}
	ts.base = iri.Value
	return nil
}

// resolve resolves a reference against the directive-scoped base.
func (ts *turtleState) resolve(ref string) string {
	if isAbsoluteIRI(ref) {
		return ref
	}
	if ts.base != "" {
		return resolveIRI(ts.base, ref)
	}
	return ts.sess.resolve(ref)
}

// scanUnit is one scanner output: a full-line comment or one logical
// statement (directive or triple block) with its starting line.
type scanUnit struct {
	text    string
	line    int
	comment bool
}

// turtleScanner chops the input into logical statements. A '.' only
// terminates at bracket depth zero, outside strings, and when followed
// by whitespace, a comment or end of input, which keeps decimals and
// dotted local names intact. SPARQL-style PREFIX/BASE directives have no
// terminating dot and are cut at end of line instead.
type turtleScanner struct {
	reader *bufio.Reader
	sess   *parseSession
	line   int
	queued []scanUnit
}

func newTurtleScanner(r io.Reader, sess *parseSession) *turtleScanner {
	return &turtleScanner{reader: bufio.NewReader(r), sess: sess, line: 1}
}

func (s *turtleScanner) next() (scanUnit, error) {
	if len(s.queued) > 0 {
		unit := s.queued[0]
		s.queued = s.queued[1:]
		return unit, nil
	}
	var buf strings.Builder
	startLine := 0
	depth := 0
	for {
		ch, _, err := s.reader.ReadRune()
		if err == io.EOF {
			if strings.TrimSpace(buf.String()) != "" {
				return scanUnit{}, wrapParseError(FormatTurtle, buf.String(), startLine, 0,
					fmt.Errorf("unexpected end of input in statement"))
			}
			return scanUnit{}, io.EOF
		}
		if err != nil {
			return scanUnit{}, wrapIOError(err)
		}
		if ch == '\n' {
			s.line++
			if unit, ok := s.cutDirective(&buf, startLine); ok {
				return unit, nil
			}
			buf.WriteRune(' ')
			continue
		}
		if ch == '#' && !inIRI(buf.String()) {
			comment, err := s.readToEOL()
			if err != nil && err != io.EOF {
				return scanUnit{}, wrapIOError(err)
			}
			unit := scanUnit{text: strings.TrimSpace(comment), line: s.line, comment: true}
			s.line++
			if strings.TrimSpace(buf.String()) == "" {
				return unit, nil
			}
			// Comment inside a statement: deliver after the statement.
			s.queued = append(s.queued, unit)
			buf.WriteRune(' ')
			continue
		}
		if startLine == 0 && !isSpaceRune(ch) {
			startLine = s.line
		}
		buf.WriteRune(ch)
		if s.sess.opts.MaxStatementBytes > 0 && buf.Len() > s.sess.opts.MaxStatementBytes {
			return scanUnit{}, wrapParseError(FormatTurtle, "", startLine, 0, ErrStatementTooLong)
		}
		switch ch {
		case '"', '\'':
			if err := s.copyString(&buf, ch); err != nil {
				return scanUnit{}, err
			}
		case '[', '(':
			depth++
			if s.sess.opts.MaxDepth > 0 && depth > s.sess.opts.MaxDepth {
				return scanUnit{}, wrapParseError(FormatTurtle, "", s.line, 0, ErrDepthExceeded)
			}
		case ']', ')':
			depth--
		case '.':
			if depth == 0 && s.terminatorFollows() {
				return scanUnit{text: strings.TrimSpace(buf.String()), line: startLine}, nil
			}
		}
	}
}

// cutDirective cuts a SPARQL-style PREFIX/BASE directive at end of line.
func (s *turtleScanner) cutDirective(buf *strings.Builder, startLine int) (scanUnit, bool) {
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return scanUnit{}, false
	}
	lower := strings.ToLower(text)
	isDirective := (strings.HasPrefix(lower, "prefix") || strings.HasPrefix(lower, "base")) &&
		!strings.HasPrefix(lower, "@")
	if isDirective && strings.HasSuffix(text, ">") {
		buf.Reset()
		return scanUnit{text: text, line: startLine}, true
	}
	return scanUnit{}, false
}

// copyString copies a quoted string body (short or long form) into the
// buffer, so quote content never trips the statement terminator.
func (s *turtleScanner) copyString(buf *strings.Builder, quote rune) error {
	long := false
	// Detect """ / ''' openers.
	peek, err := s.reader.Peek(2)
	if err == nil && len(peek) == 2 && rune(peek[0]) == quote && rune(peek[1]) == quote {
		long = true
		s.reader.Discard(2)
		buf.WriteRune(quote)
		buf.WriteRune(quote)
	}
	run := 0
	for {
		ch, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return wrapParseError(FormatTurtle, buf.String(), s.line, 0, fmt.Errorf("unterminated string"))
		}
		if err != nil {
			return wrapIOError(err)
		}
		if ch == '\n' {
			s.line++
			if !long {
				return wrapParseError(FormatTurtle, buf.String(), s.line, 0, fmt.Errorf("newline in string"))
			}
		}
		buf.WriteRune(ch)
		if s.sess.opts.MaxStatementBytes > 0 && buf.Len() > s.sess.opts.MaxStatementBytes {
			return wrapParseError(FormatTurtle, "", s.line, 0, ErrStatementTooLong)
		}
		if ch == '\\' {
			next, _, err := s.reader.ReadRune()
			if err != nil {
				return wrapParseError(FormatTurtle, buf.String(), s.line, 0, fmt.Errorf("unterminated escape"))
			}
			buf.WriteRune(next)
			run = 0
			continue
		}
		if ch == quote {
			if !long {
				return nil
			}
			run++
			if run == 3 {
				return nil
			}
		} else {
			run = 0
		}
	}
}

func (s *turtleScanner) terminatorFollows() bool {
	peek, err := s.reader.Peek(1)
	if err != nil {
		return true // end of input
	}
	switch peek[0] {
	case ' ', '\t', '\r', '\n', '#':
		return true
	default:
		return false
	}
}

func (s *turtleScanner) readToEOL() (string, error) {
	line, err := s.reader.ReadString('\n')
	return strings.TrimSuffix(line, "\n"), err
}

// inIRI reports whether the scan buffer has an unclosed <...> reference,
// where '#' is fragment syntax rather than a comment.
func inIRI(buf string) bool {
	open := strings.LastIndexByte(buf, '<')
	if open < 0 {
		return false
	}
	return strings.IndexByte(buf[open:], '>') < 0
}

func isSpaceRune(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

// turtleCursor parses one scanned triple block into statements.
type turtleCursor struct {
	input string
	pos   int
	state *turtleState
	out   []Statement
	depth int
}

func (c *turtleCursor) parseTripleBlock() ([]Statement, error) {
	subject, err := c.parseSubject()
	if err != nil {
		return nil, err
	}
	if err := c.parsePredicateObjectList(subject); err != nil {
		return nil, err
	}
	c.skipWS()
	if !c.consume('.') {
		return nil, c.errorf("expected '.' at end of statement")
	}
	return c.out, nil
}

func (c *turtleCursor) emit(s Term, p IRI, o Term) {
	c.out = append(c.out, Statement{S: s, P: p, O: o})
}

func (c *turtleCursor) skipWS() {
	for c.pos < len(c.input) {
		switch c.input[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		default:
			return
		}
	}
}

func (c *turtleCursor) consume(ch byte) bool {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == ch {
		c.pos++
		return true
	}
	return false
}

func (c *turtleCursor) peek() byte {
	c.skipWS()
	if c.pos >= len(c.input) {
		return 0
	}
	return c.input[c.pos]
}

// skipKeyword advances past a leading @word or bare word.
func (c *turtleCursor) skipKeyword() {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == '@' {
		c.pos++
	}
	for c.pos < len(c.input) && !isSpaceRune(rune(c.input[c.pos])) {
		c.pos++
	}
}

func (c *turtleCursor) enter() error {
	c.depth++
	if max := c.state.sess.opts.MaxDepth; max > 0 && c.depth > max {
		return ErrDepthExceeded
	}
	return nil
}

func (c *turtleCursor) parseSubject() (Term, error) {
	switch c.peek() {
	case '(':
		return c.parseCollection()
	case '[':
		return c.parseBlankNodePropertyList()
	default:
		term, err := c.parseResource()
		if err != nil {
			return nil, err
		}
		return term, nil
	}
}

func (c *turtleCursor) parsePredicateObjectList(subject Term) error {
	for {
		predicate, err := c.parsePredicate()
		if err != nil {
			return err
		}
		if err := c.parseObjectList(subject, predicate); err != nil {
			return err
		}
		if !c.consume(';') {
			return nil
		}
		// Trailing ';' before '.' or ']' is legal.
		if next := c.peek(); next == '.' || next == ']' || next == 0 {
			return nil
		}
	}
}

func (c *turtleCursor) parseObjectList(subject Term, predicate IRI) error {
	for {
		object, err := c.parseObject()
		if err != nil {
			return err
		}
		c.emit(subject, predicate, object)
		if !c.consume(',') {
			return nil
		}
	}
}

func (c *turtleCursor) parsePredicate() (IRI, error) {
	c.skipWS()
	if c.pos < len(c.input) && c.input[c.pos] == 'a' {
		next := byte(' ')
		if c.pos+1 < len(c.input) {
			next = c.input[c.pos+1]
		}
		if next == ' ' || next == '\t' {
			c.pos++
			return RDFType, nil
		}
	}
	term, err := c.parseResource()
	if err != nil {
		return IRI{}, err
	}
	iri, ok := term.(IRI)
	if !ok {
		return IRI{}, c.errorf("predicate must be an IRI")
	}
	return iri, nil
}

func (c *turtleCursor) parseObject() (Term, error) {
	switch ch := c.peek(); {
	case ch == '(':
		return c.parseCollection()
	case ch == '[':
		return c.parseBlankNodePropertyList()
	case ch == '"' || ch == '\'':
		return c.parseLiteral()
	case ch >= '0' && ch <= '9' || ch == '-' || ch == '+':
		return c.parseNumericLiteral()
	default:
		if lit, ok := c.tryParseBooleanLiteral(); ok {
			return lit, nil
		}
		return c.parseResource()
	}
}

// parseResource parses an IRI reference, prefixed name, or blank node
// label.
func (c *turtleCursor) parseResource() (Term, error) {
	c.skipWS()
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected end of statement")
	}
	switch {
	case c.input[c.pos] == '<':
		return c.parseIRIRef()
	case strings.HasPrefix(c.input[c.pos:], "_:"):
		return c.parseBlankNodeLabel()
	default:
		return c.parsePrefixedName()
	}
}

func (c *turtleCursor) parseIRIRef() (IRI, error) {
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
	ref := unescapeIRI(c.input[start:c.pos])
	c.pos++
	value := c.state.resolve(ref)
	if err := validateAbsoluteIRI(value); err != nil {
		return IRI{}, c.errorf("invalid IRI <%s>: %v", value, err)
	}
	return IRI{Value: value}, nil
}

func (c *turtleCursor) parseBlankNodeLabel() (Term, error) {
	c.skipWS()
	c.pos += 2
	start := c.pos
	for c.pos < len(c.input) && !isLocalDelimiter(c.input[c.pos]) {
		// A trailing dot terminates the statement, not the label.
		if c.input[c.pos] == '.' && (c.pos+1 >= len(c.input) || isLocalDelimiter(c.input[c.pos+1])) {
			break
		}
		c.pos++
	}
	if start == c.pos {
		return nil, c.errorf("blank node label missing")
	}
	return c.state.sess.mapBlank(c.input[start:c.pos]), nil
}

func (c *turtleCursor) parsePrefixedName() (Term, error) {
	c.skipWS()
	start := c.pos
	for c.pos < len(c.input) && c.input[c.pos] != ':' {
		if isSpaceRune(rune(c.input[c.pos])) {
			return nil, c.errorf("unexpected token %q", c.input[start:c.pos])
		}
		c.pos++
	}
	if c.pos >= len(c.input) {
		return nil, c.errorf("unexpected token %q", c.input[start:])
	}
	prefix := c.input[start:c.pos]
	c.pos++
	localStart := c.pos
	var local strings.Builder
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '\\' && c.pos+1 < len(c.input) {
			// PN_LOCAL_ESC passes the escaped punctuation through.
			local.WriteByte(c.input[c.pos+1])
			c.pos += 2
			continue
		}
		if isLocalDelimiter(ch) {
			break
		}
		// A trailing dot belongs to the statement, not the name.
		if ch == '.' && (c.pos+1 >= len(c.input) || isLocalDelimiter(c.input[c.pos+1]) || c.input[c.pos+1] == '.') {
			break
		}
		local.WriteByte(ch)
		c.pos++
	}
	namespace, ok := c.state.prefixes[prefix]
	if !ok {
		c.pos = localStart
		return nil, c.errorf("undefined prefix %q", prefix)
	}
	value := namespace + local.String()
	if err := validateAbsoluteIRI(value); err != nil {
		return nil, c.errorf("invalid IRI <%s>: %v", value, err)
	}
	return IRI{Value: value}, nil
}

func (c *turtleCursor) parseLiteral() (Term, error) {
	c.skipWS()
	quote := c.input[c.pos]
	lexical, err := c.parseQuotedString(quote)
	if err != nil {
		return nil, err
	}
	if c.pos < len(c.input) && c.input[c.pos] == '@' {
		c.pos++
		start := c.pos
		for c.pos < len(c.input) && !isLocalDelimiter(c.input[c.pos]) && c.input[c.pos] != '.' {
			c.pos++
		}
		if start == c.pos {
			return nil, c.errorf("empty language tag")
		}
		return Literal{Lexical: lexical, Datatype: RDFLangString, Lang: c.input[start:c.pos]}, nil
	}
	if strings.HasPrefix(c.input[c.pos:], "^^") {
		c.pos += 2
		dt, err := c.parseResource()
		if err != nil {
			return nil, err
		}
		dtIRI, ok := dt.(IRI)
		if !ok {
			return nil, c.errorf("datatype must be an IRI")
		}
		return Literal{Lexical: lexical, Datatype: dtIRI}, nil
	}
	return Literal{Lexical: lexical, Datatype: XSDString}, nil
}

func (c *turtleCursor) parseQuotedString(quote byte) (string, error) {
	long := strings.HasPrefix(c.input[c.pos:], strings.Repeat(string(quote), 3))
	if long {
		c.pos += 3
	} else {
		c.pos++
	}
	var builder strings.Builder
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		if ch == '\\' && c.pos+1 < len(c.input) {
			next := c.input[c.pos+1]
			switch next {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case 'r':
				builder.WriteByte('\r')
			case '"', '\'', '\\':
				builder.WriteByte(next)
			case 'u', 'U':
				r, consumed, err := decodeUnicodeEscape(c.input[c.pos:])
				if err != nil {
					return "", c.errorf("%v", err)
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
		if ch == quote {
			if !long {
				c.pos++
				return builder.String(), nil
			}
			if strings.HasPrefix(c.input[c.pos:], strings.Repeat(string(quote), 3)) {
				c.pos += 3
				return builder.String(), nil
			}
		}
		builder.WriteByte(ch)
		c.pos++
	}
	return "", c.errorf("unterminated string")
}

func (c *turtleCursor) parseNumericLiteral() (Term, error) {
	c.skipWS()
	start := c.pos
	if c.input[c.pos] == '-' || c.input[c.pos] == '+' {
		c.pos++
	}
	digits := 0
	dots := 0
	exponent := false
	for c.pos < len(c.input) {
		ch := c.input[c.pos]
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '.':
			// A dot followed by a non-digit terminates the statement.
			if c.pos+1 >= len(c.input) || c.input[c.pos+1] < '0' || c.input[c.pos+1] > '9' {
				goto done
			}
			dots++
		case ch == 'e' || ch == 'E':
			exponent = true
			if c.pos+1 < len(c.input) && (c.input[c.pos+1] == '-' || c.input[c.pos+1] == '+') {
				c.pos++
			}
		default:
			goto done
		}
		c.pos++
	}
done:
	if digits == 0 {
		return nil, c.errorf("malformed numeric literal")
	}
	lexical := c.input[start:c.pos]
	switch {
	case exponent:
		return Literal{Lexical: lexical, Datatype: XSDDouble}, nil
	case dots > 0:
		return Literal{Lexical: lexical, Datatype: XSDDecimal}, nil
	default:
		return Literal{Lexical: lexical, Datatype: XSDInteger}, nil
	}
}

func (c *turtleCursor) tryParseBooleanLiteral() (Literal, bool) {
	c.skipWS()
	for _, word := range []string{"true", "false"} {
		if strings.HasPrefix(c.input[c.pos:], word) {
			end := c.pos + len(word)
			if end >= len(c.input) || isLocalDelimiter(c.input[end]) || c.input[end] == '.' {
				c.pos = end
				return Literal{Lexical: word, Datatype: XSDBoolean}, true
			}
		}
	}
	return Literal{}, false
}

// parseCollection parses "( item* )" into the first/rest chain and
// returns the head node (rdf:nil for the empty collection).
func (c *turtleCursor) parseCollection() (Term, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer func() { c.depth-- }()
	c.consume('(')
	var items []Term
	for {
		if c.consume(')') {
			break
		}
		if c.peek() == 0 {
			return nil, c.errorf("unterminated collection")
		}
		item, err := c.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return RDFNil, nil
	}
	nodes := make([]BlankNode, len(items))
	for i := range items {
		nodes[i] = c.state.sess.newBlank()
	}
	for i, item := range items {
		c.emit(nodes[i], RDFFirst, item)
		if i == len(items)-1 {
			c.emit(nodes[i], RDFRest, RDFNil)
		} else {
			c.emit(nodes[i], RDFRest, nodes[i+1])
		}
	}
	return nodes[0], nil
}

// parseBlankNodePropertyList parses "[ predicateObjectList ]" and
// returns the fresh blank node.
func (c *turtleCursor) parseBlankNodePropertyList() (Term, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer func() { c.depth-- }()
	c.consume('[')
	node := c.state.sess.newBlank()
	if c.consume(']') {
		return node, nil
	}
	if err := c.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	if !c.consume(']') {
		return nil, c.errorf("expected ']'")
	}
	return node, nil
}

func (c *turtleCursor) errorf(format string, args ...interface{}) error {
	return &ParseError{Format: FormatTurtle, Column: c.pos + 1, Err: fmt.Errorf(format, args...)}
}

// isLocalDelimiter reports characters ending a local name, label, or
// language tag.
func isLocalDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', ';', ',', ')', ']', '(', '[', '"', '\'', '^', '<', '>':
		return true
	default:
		return false
	}
}
