package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// rdfxmlSerializer emits an RDF/XML document incrementally: XML
// declaration on StartStream, the rdf:RDF root (with the namespace
// declarations gathered so far) before the first statement, the closing
// tag on EndStream. Predicates whose namespace has no registered prefix
// get a generated one declared inline.
type rdfxmlSerializer struct {
	writer     *bufio.Writer
	prefixes   []Namespace
	rootOpen   bool
	closed     bool
	err        error
	genCounter int
}

func newRDFXMLSerializer(w io.Writer) *rdfxmlSerializer {
	return &rdfxmlSerializer{writer: bufio.NewWriter(w)}
}

// Format returns FormatRDFXML.
func (e *rdfxmlSerializer) Format() Format { return FormatRDFXML }

// ready rejects events once the stream has failed or ended.
func (e *rdfxmlSerializer) ready() error {
	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrHandlerState
	}
	return nil
}

// StartStream writes the XML declaration.
func (e *rdfxmlSerializer) StartStream() error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.writeString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
}

// HandleNamespace records a prefix for the root element. Bindings
// arriving after the root has been written only affect inline prefix
// generation.
func (e *rdfxmlSerializer) HandleNamespace(prefix, iri string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if prefix == "" || prefix == "rdf" {
		return nil
	}
	for i, ns := range e.prefixes {
		if ns.Prefix == prefix {
			e.prefixes[i].IRI = iri
			return nil
		}
	}
	e.prefixes = append(e.prefixes, Namespace{Prefix: prefix, IRI: iri})
	return nil
}

// HandleComment writes an XML comment.
func (e *rdfxmlSerializer) HandleComment(text string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.ensureRoot(); err != nil {
		return err
	}
	return e.writeString("  <!-- " + strings.ReplaceAll(text, "--", "- -") + " -->\n")
}

// HandleStatement writes one rdf:Description element.
func (e *rdfxmlSerializer) HandleStatement(st Statement) error {
	if err := e.ready(); err != nil {
		return err
	}
	if st.S == nil || st.P.Value == "" || st.O == nil {
		return fmt.Errorf("rdfxml: missing statement fields")
	}
	if err := e.ensureRoot(); err != nil {
		return err
	}

	var subjectAttr string
	switch s := st.S.(type) {
	case IRI:
		subjectAttr = fmt.Sprintf(`rdf:about=%q`, escapeXMLAttr(s.Value))
	case BlankNode:
		subjectAttr = fmt.Sprintf(`rdf:nodeID=%q`, escapeXMLAttr(s.ID))
	default:
		return fmt.Errorf("rdfxml: unsupported subject kind")
	}

	qname, nsDecl, err := e.predicateQName(st.P)
	if err != nil {
		return err
	}

	var inner string
	switch o := st.O.(type) {
	case IRI:
		inner = fmt.Sprintf(`<%s%s rdf:resource=%q/>`, qname, nsDecl, escapeXMLAttr(o.Value))
	case BlankNode:
		inner = fmt.Sprintf(`<%s%s rdf:nodeID=%q/>`, qname, nsDecl, escapeXMLAttr(o.ID))
	case Literal:
		switch {
		case o.Lang != "":
			inner = fmt.Sprintf(`<%s%s xml:lang=%q>%s</%s>`, qname, nsDecl, o.Lang, escapeXMLText(o.Lexical), qname)
		case o.Datatype.Value != "" && o.Datatype != XSDString:
			inner = fmt.Sprintf(`<%s%s rdf:datatype=%q>%s</%s>`, qname, nsDecl, escapeXMLAttr(o.Datatype.Value), escapeXMLText(o.Lexical), qname)
		default:
			inner = fmt.Sprintf(`<%s%s>%s</%s>`, qname, nsDecl, escapeXMLText(o.Lexical), qname)
		}
	default:
		return fmt.Errorf("rdfxml: unsupported object kind")
	}

	return e.writeString("  <rdf:Description " + subjectAttr + ">" + inner + "</rdf:Description>\n")
}

// EndStream closes the document and flushes.
func (e *rdfxmlSerializer) EndStream() error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.ensureRoot(); err != nil {
		return err
	}
	e.closed = true
	if err := e.writeString("</rdf:RDF>\n"); err != nil {
		return err
	}
	if err := e.writer.Flush(); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}

// ensureRoot writes the rdf:RDF open tag once, carrying every namespace
// registered so far.
func (e *rdfxmlSerializer) ensureRoot() error {
	if e.rootOpen {
		return nil
	}
	e.rootOpen = true
	var decl strings.Builder
	decl.WriteString(`<rdf:RDF xmlns:rdf="` + RDFNamespace + `"`)
	for _, ns := range e.prefixes {
		fmt.Fprintf(&decl, "\n         xmlns:%s=%q", ns.Prefix, escapeXMLAttr(ns.IRI))
	}
	decl.WriteString(">\n")
	return e.writeString(decl.String())
}

// predicateQName splits a predicate IRI into a QName, generating and
// declaring an inline namespace prefix when none is registered.
func (e *rdfxmlSerializer) predicateQName(p IRI) (qname, nsDecl string, err error) {
	namespace, local, ok := splitIRI(p.Value)
	if !ok {
		return "", "", fmt.Errorf("rdfxml: predicate <%s> has no XML-expressible local name", p.Value)
	}
	if namespace == RDFNamespace {
		return "rdf:" + local, "", nil
	}
	for _, ns := range e.prefixes {
		if ns.IRI == namespace {
			return ns.Prefix + ":" + local, "", nil
		}
	}
	e.genCounter++
	prefix := fmt.Sprintf("ns%d", e.genCounter)
	return prefix + ":" + local, fmt.Sprintf(" xmlns:%s=%q", prefix, escapeXMLAttr(namespace)), nil
}

func (e *rdfxmlSerializer) writeString(s string) error {
	if _, err := e.writer.WriteString(s); err != nil {
		e.err = &WriteError{Err: err}
		return e.err
	}
	return nil
}

// splitIRI splits an IRI at the last '#' or '/' so the remainder is a
// valid XML local name.
func splitIRI(iri string) (namespace, local string, ok bool) {
	split := strings.LastIndexAny(iri, "#/")
	if split < 0 || split == len(iri)-1 {
		return "", "", false
	}
	local = iri[split+1:]
	if !isXMLLocalName(local) {
		return "", "", false
	}
	return iri[:split+1], local, true
}

func isXMLLocalName(local string) bool {
	for i := 0; i < len(local); i++ {
		ch := local[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch == '_':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '-' || ch == '.'):
		case ch >= 0x80:
		default:
			return false
		}
	}
	if local == "" {
		return false
	}
	first := local[0]
	return first == '_' || (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first >= 0x80
}

func escapeXMLText(value string) string {
	return xmlTextReplacer.Replace(value)
}

func escapeXMLAttr(value string) string {
	return xmlAttrReplacer.Replace(value)
}

var (
	xmlTextReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	xmlAttrReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)
