package rdf

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseInto(t *testing.T, format Format, input, base string, opts ...Option) (*Graph, error) {
	t.Helper()
	return ParseGraph(strings.NewReader(input), base, format, opts...)
}

func TestNTriplesBasic(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> <http://example.org/o> .
<http://example.org/s> <http://example.org/name> "Alice" .
<http://example.org/s> <http://example.org/age> "30"^^<http://www.w3.org/2001/XMLSchema#integer> .
<http://example.org/s> <http://example.org/greeting> "hello"@en .
`
	g, err := parseInto(t, FormatNTriples, input, "")
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())

	s := MustIRI("http://example.org/s")
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/p"), O: MustIRI("http://example.org/o")}))
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/name"), O: Literal{Lexical: "Alice", Datatype: XSDString}}),
		"simple literals carry xsd:string")
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/age"), O: Literal{Lexical: "30", Datatype: XSDInteger}}))
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/greeting"), O: Literal{Lexical: "hello", Datatype: RDFLangString, Lang: "en"}}))
}

func TestNTriplesEscapes(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> "line\nbreak \"quoted\" tab\there é \U0001F600" .`
	g, err := parseInto(t, FormatNTriples, input, "")
	require.NoError(t, err)

	sts := g.Statements()
	require.Len(t, sts, 1)
	lit, ok := sts[0].O.(Literal)
	require.True(t, ok)
	assert.Equal(t, "line\nbreak \"quoted\" tab\there é \U0001F600", lit.Lexical)
}

func TestNTriplesBlankNodes(t *testing.T) {
	input := `_:a <http://example.org/p> _:b .
_:a <http://example.org/q> _:a .
`
	g, err := parseInto(t, FormatNTriples, input, "")
	require.NoError(t, err)

	sts := g.Statements()
	require.Len(t, sts, 2)
	assert.Equal(t, sts[0].S, sts[1].S, "same label, same node within a session")
	assert.Equal(t, sts[1].S, sts[1].O)
	assert.NotEqual(t, sts[0].S, sts[0].O)

	// A second parse of the same document gets distinct blank ids.
	g2, err := parseInto(t, FormatNTriples, input, "")
	require.NoError(t, err)
	assert.NotEqual(t, sts[0].S, g2.Statements()[0].S)
}

func TestNTriplesCommentsAndBlankLines(t *testing.T) {
	input := `# header comment

<http://example.org/s> <http://example.org/p> <http://example.org/o> . # trailing
`
	var comments []string
	parser, err := NewParser(FormatNTriples)
	require.NoError(t, err)

	g := NewGraph()
	handler := &commentCollector{inner: NewGraphInserter(g), comments: &comments}
	require.NoError(t, parser.SetHandler(handler))
	require.NoError(t, parser.Parse(strings.NewReader(input), ""))

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []string{"header comment"}, comments, "trailing comments are not events")
}

type commentCollector struct {
	inner    StatementHandler
	comments *[]string
}

func (c *commentCollector) StartStream() error                      { return c.inner.StartStream() }
func (c *commentCollector) HandleNamespace(p, iri string) error     { return c.inner.HandleNamespace(p, iri) }
func (c *commentCollector) HandleStatement(st Statement) error      { return c.inner.HandleStatement(st) }
func (c *commentCollector) EndStream() error                        { return c.inner.EndStream() }
func (c *commentCollector) HandleComment(text string) error {
	*c.comments = append(*c.comments, text)
	return c.inner.HandleComment(text)
}

func TestNTriplesBaseResolution(t *testing.T) {
	input := `<doc> <http://example.org/p> <#frag> .`
	g, err := parseInto(t, FormatNTriples, input, "http://example.org/dir/")
	require.NoError(t, err)

	sts := g.Statements()
	require.Len(t, sts, 1)
	assert.Equal(t, MustIRI("http://example.org/dir/doc"), sts[0].S)
	assert.Equal(t, MustIRI("http://example.org/dir/#frag"), sts[0].O)
}

func TestNTriplesRelativeIRIWithoutBase(t *testing.T) {
	_, err := parseInto(t, FormatNTriples, `<doc> <http://example.org/p> <http://example.org/o> .`, "")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestNTriplesSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing dot", `<http://example.org/s> <http://example.org/p> <http://example.org/o>`, 1},
		{"literal subject", `"lit" <http://example.org/p> <http://example.org/o> .`, 1},
		{"unterminated IRI", `<http://example.org/s <http://example.org/p> <http://example.org/o> .`, 1},
		{"unterminated literal", `<http://example.org/s> <http://example.org/p> "open .`, 1},
		{"trailing tokens", `<http://example.org/s> <http://example.org/p> <http://example.org/o> . extra`, 1},
		{"second line", "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\ngarbage here", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInto(t, FormatNTriples, tt.input, "")
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.line, parseErr.Line)
			assert.Equal(t, ErrCodeParse, Code(err))
		})
	}
}

func TestNTriplesMaxLineBytes(t *testing.T) {
	long := `<http://example.org/s> <http://example.org/p> "` + strings.Repeat("x", 2048) + `" .`
	_, err := parseInto(t, FormatNTriples, long, "", OptMaxLineBytes(1024))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Equal(t, ErrCodeLineTooLong, Code(err))

	_, err = parseInto(t, FormatNTriples, long, "", OptMaxLineBytes(4096))
	require.NoError(t, err)
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestMaxLineBytesEnforcedWhileReading(t *testing.T) {
	huge := `<http://example.org/s> <http://example.org/p> "` + strings.Repeat("x", 1<<20) + `" .`
	src := &countingReader{r: strings.NewReader(huge)}

	_, err := ParseGraph(src, "", FormatNTriples, OptMaxLineBytes(1024))
	require.ErrorIs(t, err, ErrLineTooLong)
	assert.Less(t, src.n, 64<<10, "over-limit line is abandoned, not buffered to the end")
}

func TestNQuadsGraphTerm(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .
<http://example.org/s> <http://example.org/p> <http://example.org/o2> .
_:s <http://example.org/p> "v" _:g .
`
	g, err := parseInto(t, FormatNQuads, input, "")
	require.NoError(t, err)

	sts := g.Statements()
	require.Len(t, sts, 3)
	assert.Equal(t, MustIRI("http://example.org/g"), sts[0].G)
	assert.Nil(t, sts[1].G, "triple line lands in the default graph")
	assert.Equal(t, TermBlankNode, sts[2].G.Kind())
}

func TestNTriplesRejectsGraphTerm(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .`
	_, err := parseInto(t, FormatNTriples, input, "")
	require.Error(t, err, "four terms are not N-Triples")
}

func TestLineSerializerOutput(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewSerializer(FormatNQuads, &buf)
	require.NoError(t, err)
	assert.Equal(t, FormatNQuads, out.Format())

	require.NoError(t, out.StartStream())
	require.NoError(t, out.HandleNamespace("ex", "http://example.org/")) // dropped
	require.NoError(t, out.HandleComment("generated"))
	require.NoError(t, out.HandleStatement(Statement{
		S: MustIRI("http://example.org/s"),
		P: MustIRI("http://example.org/p"),
		O: Literal{Lexical: "say \"hi\"\n", Datatype: XSDString},
		G: MustIRI("http://example.org/g"),
	}))
	require.NoError(t, out.HandleStatement(Statement{
		S: BlankNode{ID: "b0"},
		P: MustIRI("http://example.org/p"),
		O: Literal{Lexical: "1", Datatype: XSDInteger},
	}))
	require.NoError(t, out.EndStream())

	want := `# generated
<http://example.org/s> <http://example.org/p> "say \"hi\"\n" <http://example.org/g> .
_:b0 <http://example.org/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> .
`
	assert.Equal(t, want, buf.String())
}

func TestLineSerializerStickyWriteError(t *testing.T) {
	out := newLineSerializer(FormatNTriples, failingWriter{})
	require.NoError(t, out.StartStream())
	stmt := st("s", "p", "o")
	require.NoError(t, out.HandleStatement(stmt)) // buffered, not yet flushed

	err := out.EndStream()
	require.Error(t, err)
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, ErrCodeWrite, Code(err))

	// The failure sticks.
	assert.Equal(t, err, out.HandleStatement(stmt))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestNTriplesRoundTrip(t *testing.T) {
	g := NewGraph()
	g.Add(Statement{
		S: MustIRI("http://example.org/s"),
		P: MustIRI("http://example.org/p"),
		O: Literal{Lexical: "tab\tand\nnewline", Datatype: XSDString},
	})
	g.Add(st("s", "p", "o"))

	var buf bytes.Buffer
	require.NoError(t, WriteGraph(g, &buf, FormatNTriples))

	back, err := ParseGraph(&buf, "", FormatNTriples)
	require.NoError(t, err)
	assert.ElementsMatch(t, g.Statements(), back.Statements())
}
