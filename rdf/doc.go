// Package rdf provides an RDF model, a graph container with live
// filtered views, and streaming parsers/serializers joined by a push
// event protocol.
//
// The package centers on three pieces:
//   - Model: IRI, BlankNode and Literal terms with structural equality,
//     combined into Statement quads. Statements are comparable and work
//     as map keys.
//   - Graph: an ordered statement container whose Filter method returns
//     live views sharing the backing store. Mutations through any view
//     are visible through every other.
//   - Streaming I/O: NewParser() drives a StatementHandler with parse
//     events; NewSerializer() returns handlers that emit syntax text, so
//     a serializer plugged into a parser converts formats in one bounded
//     pass.
//
// Supported formats: N-Triples, N-Quads, Turtle, RDF/XML and JSON-LD.
// All parsers except JSON-LD process input one statement at a time;
// JSON-LD buffers the document for context processing.
//
// Example (parsing into a graph):
//
//	g, err := rdf.ParseGraph(strings.NewReader(input), "http://example.org/", rdf.FormatTurtle)
//	if err != nil {
//	    // handle error
//	}
//	people := g.Filter(nil, rdf.RDFType, rdf.IRI{Value: "http://xmlns.com/foaf/0.1/Person"}, nil)
//
// Example (format conversion without materializing a graph):
//
//	err := rdf.Transcode(in, "http://example.org/", rdf.FormatNTriples, out, rdf.FormatTurtle)
//
// Custom event consumers implement StatementHandler, usually by
// embedding BaseHandler and overriding the events they care about.
package rdf
