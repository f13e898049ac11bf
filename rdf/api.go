package rdf

import (
	"io"
	"strings"
)

// ParseGraph parses a document into a fresh graph, capturing namespace
// bindings alongside statements.
func ParseGraph(r io.Reader, baseIRI string, format Format, opts ...Option) (*Graph, error) {
	parser, err := NewParser(format, opts...)
	if err != nil {
		return nil, err
	}
	inserter := NewGraphInserter(NewGraph())
	if err := parser.SetHandler(inserter); err != nil {
		return nil, err
	}
	if err := parser.Parse(r, baseIRI); err != nil {
		return nil, err
	}
	return inserter.Graph(), nil
}

// WriteGraph serializes a graph to w, replaying its namespace bindings
// before the statements so prefix-aware formats can compact output.
func WriteGraph(g *Graph, w io.Writer, format Format) error {
	out, err := NewSerializer(format, w)
	if err != nil {
		return err
	}
	if err := out.StartStream(); err != nil {
		return err
	}
	for _, ns := range g.Namespaces() {
		if err := out.HandleNamespace(ns.Prefix, ns.IRI); err != nil {
			return err
		}
	}
	var writeErr error
	g.Each(func(st Statement) bool {
		writeErr = out.HandleStatement(st)
		return writeErr == nil
	})
	if writeErr != nil {
		return writeErr
	}
	return out.EndStream()
}

// Transcode converts between formats in one pass by wiring a serializer
// in as the parser's handler. No graph is materialized, so conversion
// memory follows the parser's bounds rather than input size.
func Transcode(r io.Reader, baseIRI string, from Format, w io.Writer, to Format) error {
	parser, err := NewParser(from)
	if err != nil {
		return err
	}
	out, err := NewSerializer(to, w)
	if err != nil {
		return err
	}
	if err := parser.SetHandler(out); err != nil {
		return err
	}
	return parser.Parse(r, baseIRI)
}

// DetectFormat guesses the syntax of a document from its leading bytes.
// The heuristics favor precision over recall: prose that resembles no
// known syntax reports no match rather than a wrong one.
func DetectFormat(sample []byte) (Format, bool) {
	text := strings.TrimSpace(string(sample))
	if text == "" {
		return "", false
	}
	switch {
	case text[0] == '{' || text[0] == '[':
		return FormatJSONLD, true
	case strings.HasPrefix(text, "<?xml") || strings.HasPrefix(text, "<rdf:RDF"):
		return FormatRDFXML, true
	}
	if hasTurtleDirective(text) || strings.ContainsAny(text, ";,([") {
		return FormatTurtle, true
	}
	if text[0] == '<' || strings.HasPrefix(text, "_:") || text[0] == '#' {
		if firstStatementHasGraph(text) {
			return FormatNQuads, true
		}
		return FormatNTriples, true
	}
	return "", false
}

func hasTurtleDirective(text string) bool {
	if strings.HasPrefix(text, "@prefix") || strings.HasPrefix(text, "@base") {
		return true
	}
	upper := strings.ToUpper(text)
	return strings.HasPrefix(upper, "PREFIX") || strings.HasPrefix(upper, "BASE")
}

// firstStatementHasGraph counts the terms on the first non-comment line
// to tell N-Quads from N-Triples. Quoted literals count as one term no
// matter their spacing.
func firstStatementHasGraph(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, "."))
		terms := 0
		inQuote := false
		inTerm := false
		for i := 0; i < len(line); i++ {
			ch := line[i]
			switch {
			case inQuote:
				if ch == '\\' {
					i++
				} else if ch == '"' {
					inQuote = false
				}
			case ch == '"':
				inQuote = true
				if !inTerm {
					inTerm = true
					terms++
				}
			case ch == ' ' || ch == '\t':
				inTerm = false
			default:
				if !inTerm {
					inTerm = true
					terms++
				}
			}
		}
		return terms >= 4
	}
	return false
}
