package rdf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	ld "github.com/piprate/json-gold/ld"
)

// parseJSONLD streams the statements of a JSON-LD document through the
// handler. JSON-LD requires the whole document for context processing,
// so this is the one format where memory is proportional to input size;
// the event protocol is unchanged.
func parseJSONLD(r io.Reader, sess *parseSession) error {
	if err := sess.out.StartStream(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return wrapIOError(err)
	}
	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		return jsonldParseError(err)
	}

	proc := ld.NewJsonLdProcessor()
	goldOpts := ld.NewJsonLdOptions(sess.base)
	result, err := proc.ToRDF(document, goldOpts)
	if err != nil {
		return jsonldParseError(err)
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return jsonldParseError(fmt.Errorf("unexpected ToRDF result %T", result))
	}

	// Map iteration order is random; sort graph names so repeated
	// parses of one document emit statements in one order.
	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var graph Term
		if name != "@default" {
			graph, err = sess.jsonldTerm(graphNode(name))
			if err != nil {
				return err
			}
		}
		for _, quad := range dataset.Graphs[name] {
			st, err := sess.jsonldStatement(quad, graph)
			if err != nil {
				return err
			}
			if err := sess.statement(st); err != nil {
				return err
			}
		}
	}
	return sess.out.EndStream()
}

// jsonldStatement converts one json-gold quad, attaching the graph term
// derived from the dataset key.
func (s *parseSession) jsonldStatement(quad *ld.Quad, graph Term) (Statement, error) {
	subject, err := s.jsonldTerm(quad.Subject)
	if err != nil {
		return Statement{}, err
	}
	predicate, err := s.jsonldTerm(quad.Predicate)
	if err != nil {
		return Statement{}, err
	}
	pred, ok := predicate.(IRI)
	if !ok {
		return Statement{}, jsonldParseError(fmt.Errorf("non-IRI predicate %v", quad.Predicate))
	}
	object, err := s.jsonldTerm(quad.Object)
	if err != nil {
		return Statement{}, err
	}
	return Statement{S: subject, P: pred, O: object, G: graph}, nil
}

// jsonldTerm converts a json-gold node into a Term, remapping blank
// labels into the session namespace.
func (s *parseSession) jsonldTerm(node ld.Node) (Term, error) {
	switch n := node.(type) {
	case ld.IRI:
		return IRI{Value: n.Value}, nil
	case ld.BlankNode:
		return s.mapBlank(strings.TrimPrefix(n.Attribute, "_:")), nil
	case ld.Literal:
		switch {
		case n.Language != "":
			return Literal{Lexical: n.Value, Datatype: RDFLangString, Lang: n.Language}, nil
		case n.Datatype != "" && n.Datatype != XSDString.Value:
			return Literal{Lexical: n.Value, Datatype: IRI{Value: n.Datatype}}, nil
		default:
			return Literal{Lexical: n.Value, Datatype: XSDString}, nil
		}
	default:
		return nil, jsonldParseError(fmt.Errorf("unexpected node %T", node))
	}
}

// graphNode lifts a dataset graph key back into a node. Keys are either
// absolute IRIs or "_:"-prefixed blank labels.
func graphNode(name string) ld.Node {
	if strings.HasPrefix(name, "_:") {
		return ld.BlankNode{Attribute: name}
	}
	return ld.IRI{Value: name}
}

func jsonldParseError(err error) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{Format: FormatJSONLD, Err: err}
}

// jsonldSerializer buffers incoming statements as an N-Quads body and
// converts it with the JSON-LD processor on EndStream. Namespace
// bindings become a compaction context, so the emitted document uses the
// stream's prefixes as JSON-LD terms.
type jsonldSerializer struct {
	writer   io.Writer
	quads    strings.Builder
	prefixes map[string]interface{}
	closed   bool
	err      error
}

func newJSONLDSerializer(w io.Writer) *jsonldSerializer {
	return &jsonldSerializer{writer: w, prefixes: make(map[string]interface{})}
}

// Format returns FormatJSONLD.
func (e *jsonldSerializer) Format() Format { return FormatJSONLD }

// ready rejects events once the stream has failed or ended.
func (e *jsonldSerializer) ready() error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrHandlerState
	}
	return nil
}

// StartStream implements StatementHandler.
func (e *jsonldSerializer) StartStream() error { return e.ready() }

// HandleNamespace records a prefix for the compaction context.
func (e *jsonldSerializer) HandleNamespace(prefix, iri string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if prefix == "" {
		return nil
	}
	e.prefixes[prefix] = iri
	return nil
}

// HandleComment is a no-op: JSON has no comment syntax.
func (e *jsonldSerializer) HandleComment(string) error { return e.ready() }

// HandleStatement buffers one statement.
func (e *jsonldSerializer) HandleStatement(st Statement) error {
	if err := e.ready(); err != nil {
		return err
	}
	if st.S == nil || st.P.Value == "" || st.O == nil {
		return fmt.Errorf("jsonld: missing statement fields")
	}
	e.quads.WriteString(renderTerm(st.S))
	e.quads.WriteByte(' ')
	e.quads.WriteString(renderIRIRef(st.P))
	e.quads.WriteByte(' ')
	e.quads.WriteString(renderTerm(st.O))
	if st.G != nil {
		e.quads.WriteByte(' ')
		e.quads.WriteString(renderTerm(st.G))
	}
	e.quads.WriteString(" .\n")
	return nil
}

// EndStream runs the conversion and writes the document.
func (e *jsonldSerializer) EndStream() error {
	if err := e.ready(); err != nil {
		return err
	}
	e.closed = true

	proc := ld.NewJsonLdProcessor()
	goldOpts := ld.NewJsonLdOptions("")
	goldOpts.Format = "application/n-quads"
	document, err := proc.FromRDF(e.quads.String(), goldOpts)
	if err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	if len(e.prefixes) > 0 {
		compactOpts := ld.NewJsonLdOptions("")
		document, err = proc.Compact(document, map[string]interface{}{"@context": e.prefixes}, compactOpts)
		if err != nil {
			e.err = &WriteError{Err: err}
			return e.err
		}
	}

	encoded, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	if _, err := e.writer.Write(append(encoded, '\n')); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}
