package rdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRDFXMLBasic(t *testing.T) {
	input := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:foaf="http://xmlns.com/foaf/0.1/">
  <rdf:Description rdf:about="http://example.org/alice">
    <foaf:name>Alice</foaf:name>
    <foaf:knows rdf:resource="http://example.org/bob"/>
  </rdf:Description>
</rdf:RDF>`
	g, err := parseInto(t, FormatRDFXML, input, "")
	require.NoError(t, err)

	alice := MustIRI("http://example.org/alice")
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Contains(Statement{S: alice, P: MustIRI("http://xmlns.com/foaf/0.1/name"), O: Literal{Lexical: "Alice", Datatype: XSDString}}))
	assert.True(t, g.Contains(Statement{S: alice, P: MustIRI("http://xmlns.com/foaf/0.1/knows"), O: MustIRI("http://example.org/bob")}))

	iri, ok := g.Namespace("foaf")
	require.True(t, ok, "root xmlns declarations surface as namespace events")
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", iri)
}

func TestRDFXMLTypedNodeAndAttributes(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:foaf="http://xmlns.com/foaf/0.1/">
  <foaf:Person rdf:about="http://example.org/alice" foaf:nick="ally"/>
</rdf:RDF>`
	g, err := parseInto(t, FormatRDFXML, input, "")
	require.NoError(t, err)

	alice := MustIRI("http://example.org/alice")
	assert.True(t, g.Contains(Statement{S: alice, P: RDFType, O: MustIRI("http://xmlns.com/foaf/0.1/Person")}),
		"typed node element yields rdf:type")
	assert.True(t, g.Contains(Statement{S: alice, P: MustIRI("http://xmlns.com/foaf/0.1/nick"), O: Literal{Lexical: "ally", Datatype: XSDString}}),
		"property attribute yields string literal")
}

func TestRDFXMLDatatypeAndLang(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:about="http://example.org/s">
    <ex:age rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">30</ex:age>
    <ex:greeting xml:lang="en">hello</ex:greeting>
  </rdf:Description>
</rdf:RDF>`
	g, err := parseInto(t, FormatRDFXML, input, "")
	require.NoError(t, err)

	s := MustIRI("http://example.org/s")
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/age"), O: Literal{Lexical: "30", Datatype: XSDInteger}}))
	assert.True(t, g.Contains(Statement{S: s, P: MustIRI("http://example.org/greeting"), O: Literal{Lexical: "hello", Datatype: RDFLangString, Lang: "en"}}))
}

func TestRDFXMLBlankNodesAndNesting(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/">
  <rdf:Description rdf:nodeID="a">
    <ex:knows rdf:nodeID="a"/>
    <ex:address rdf:parseType="Resource">
      <ex:city>Springfield</ex:city>
    </ex:address>
    <ex:friend>
      <rdf:Description rdf:about="http://example.org/bob"/>
    </ex:friend>
  </rdf:Description>
</rdf:RDF>`
	g, err := parseInto(t, FormatRDFXML, input, "")
	require.NoError(t, err)
	require.Equal(t, 4, g.Len())

	sts := g.Statements()
	subject := sts[0].S
	require.Equal(t, TermBlankNode, subject.Kind())

	knows := g.Filter(nil, MustIRI("http://example.org/knows"), nil, nil).Statements()
	require.Len(t, knows, 1)
	assert.Equal(t, subject, knows[0].O, "nodeID reuse maps to the same blank node")

	addr := g.Filter(subject, MustIRI("http://example.org/address"), nil, nil).Statements()
	require.Len(t, addr, 1)
	city := g.Filter(addr[0].O, MustIRI("http://example.org/city"), nil, nil).Statements()
	require.Len(t, city, 1)
	assert.Equal(t, Literal{Lexical: "Springfield", Datatype: XSDString}, city[0].O)

	friend := g.Filter(subject, MustIRI("http://example.org/friend"), nil, nil).Statements()
	require.Len(t, friend, 1)
	assert.Equal(t, MustIRI("http://example.org/bob"), friend[0].O)
}

func TestRDFXMLBaseResolution(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/ns/">
  <rdf:Description rdf:about="doc">
    <ex:rel rdf:resource="#frag"/>
  </rdf:Description>
  <rdf:Description rdf:ID="marked">
    <ex:p>v</ex:p>
  </rdf:Description>
</rdf:RDF>`
	g, err := parseInto(t, FormatRDFXML, input, "http://example.org/dir/")
	require.NoError(t, err)

	assert.True(t, g.Contains(Statement{
		S: MustIRI("http://example.org/dir/doc"),
		P: MustIRI("http://example.org/ns/rel"),
		O: MustIRI("http://example.org/dir/#frag"),
	}))
	assert.True(t, g.Contains(Statement{
		S: MustIRI("http://example.org/dir/#marked"),
		P: MustIRI("http://example.org/ns/p"),
		O: Literal{Lexical: "v", Datatype: XSDString},
	}), "rdf:ID resolves as a fragment")
}

func TestRDFXMLSyntaxError(t *testing.T) {
	input := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="http://example.org/s">
    <unclosed>
</rdf:RDF>`
	_, err := parseInto(t, FormatRDFXML, input, "")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, FormatRDFXML, parseErr.Format)
}

func TestRDFXMLSerializerOutput(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewSerializer(FormatRDFXML, &buf)
	require.NoError(t, err)

	require.NoError(t, out.StartStream())
	require.NoError(t, out.HandleNamespace("foaf", "http://xmlns.com/foaf/0.1/"))
	require.NoError(t, out.HandleStatement(Statement{
		S: MustIRI("http://example.org/alice"),
		P: MustIRI("http://xmlns.com/foaf/0.1/name"),
		O: Literal{Lexical: "Alice <& co>", Datatype: XSDString},
	}))
	require.NoError(t, out.HandleStatement(Statement{
		S: BlankNode{ID: "b0"},
		P: MustIRI("http://xmlns.com/foaf/0.1/knows"),
		O: MustIRI("http://example.org/alice"),
	}))
	require.NoError(t, out.EndStream())

	text := buf.String()
	assert.Contains(t, text, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, text, `xmlns:foaf="http://xmlns.com/foaf/0.1/"`)
	assert.Contains(t, text, `<foaf:name>Alice &lt;&amp; co&gt;</foaf:name>`)
	assert.Contains(t, text, `rdf:nodeID="b0"`)
	assert.Contains(t, text, `rdf:resource="http://example.org/alice"`)
	assert.Contains(t, text, "</rdf:RDF>")
}

func TestRDFXMLRoundTrip(t *testing.T) {
	g := NewGraph()
	g.SetNamespace("ex", "http://example.org/ns/")
	alice := MustIRI("http://example.org/alice")
	g.Add(Statement{S: alice, P: MustIRI("http://example.org/ns/name"), O: Literal{Lexical: "Alice", Datatype: XSDString}})
	g.Add(Statement{S: alice, P: MustIRI("http://example.org/ns/age"), O: Literal{Lexical: "30", Datatype: XSDInteger}})
	g.Add(Statement{S: alice, P: MustIRI("http://example.org/ns/knows"), O: MustIRI("http://example.org/bob")})

	var buf bytes.Buffer
	require.NoError(t, WriteGraph(g, &buf, FormatRDFXML))

	back, err := ParseGraph(strings.NewReader(buf.String()), "", FormatRDFXML)
	require.NoError(t, err)
	assert.ElementsMatch(t, g.Statements(), back.Statements())
}

func TestRDFXMLRejectsUnnamespacedNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"property attribute", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="http://example.org/s" name="Bob"/>
</rdf:RDF>`},
		{"property element", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="http://example.org/s"><name>Bob</name></rdf:Description>
</rdf:RDF>`},
		{"typed node element", `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <Person rdf:about="http://example.org/s"/>
</rdf:RDF>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInto(t, FormatRDFXML, tt.input, "")
			require.Error(t, err, "names outside any XML namespace would yield relative IRIs")
			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}
