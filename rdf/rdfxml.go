package rdf

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// parseRDFXML streams an RDF/XML document through the handler. The
// decoder holds one element's attributes at a time plus the open-element
// stack, so memory is O(nesting depth), not document size.
func parseRDFXML(r io.Reader, sess *parseSession) error {
	if err := sess.out.StartStream(); err != nil {
		return err
	}
	p := &rdfxmlParser{dec: xml.NewDecoder(r), sess: sess}
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.classify(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == RDFNamespace && t.Name.Local == "RDF" {
				if err := p.emitNamespaces(t); err != nil {
					return err
				}
				continue
			}
			if _, err := p.parseNodeElement(t, 0); err != nil {
				return err
			}
		case xml.Comment:
			if err := sess.out.HandleComment(strings.TrimSpace(string(t))); err != nil {
				return err
			}
		}
	}
	return sess.out.EndStream()
}

type rdfxmlParser struct {
	dec  *xml.Decoder
	sess *parseSession
}

// classify separates syntax violations from stream failures.
func (p *rdfxmlParser) classify(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Format: FormatRDFXML, Line: syntaxErr.Line, Err: errors.New(syntaxErr.Msg)}
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	if Code(err) == ErrCodeHandler || errors.Is(err, ErrHandlerState) {
		return err
	}
	return wrapIOError(err)
}

// emitNamespaces surfaces the xmlns declarations of the root element.
func (p *rdfxmlParser) emitNamespaces(root xml.StartElement) error {
	for _, attr := range root.Attr {
		switch {
		case attr.Name.Space == "xmlns":
			if err := p.sess.out.HandleNamespace(attr.Name.Local, attr.Value); err != nil {
				return err
			}
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
			if err := p.sess.out.HandleNamespace("", attr.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseNodeElement parses one node element and everything nested in it,
// returning the element's subject term.
func (p *rdfxmlParser) parseNodeElement(el xml.StartElement, depth int) (Term, error) {
	if max := p.sess.opts.MaxDepth; max > 0 && depth > max {
		return nil, wrapParseError(FormatRDFXML, "", p.line(), 0, ErrDepthExceeded)
	}
	subject, err := p.subjectFromNode(el)
	if err != nil {
		return nil, err
	}
	if el.Name.Space != RDFNamespace || el.Name.Local != "Description" {
		typ, err := p.nameIRI(el.Name)
		if err != nil {
			return nil, err
		}
		if err := p.emit(Statement{S: subject, P: RDFType, O: typ}); err != nil {
			return nil, err
		}
	}
	// Property attributes: non-rdf, non-xmlns attributes on a node
	// element are string-valued statements.
	for _, attr := range el.Attr {
		if isSyntaxAttr(attr) {
			continue
		}
		pred, err := p.nameIRI(attr.Name)
		if err != nil {
			return nil, err
		}
		obj := Literal{Lexical: attr.Value, Datatype: XSDString}
		if err := p.emit(Statement{S: subject, P: pred, O: obj}); err != nil {
			return nil, err
		}
	}
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, p.classify(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parsePropertyElement(subject, t, depth+1); err != nil {
				return nil, err
			}
		case xml.Comment:
			if err := p.sess.out.HandleComment(strings.TrimSpace(string(t))); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

// parsePropertyElement parses one predicate arc off a subject.
func (p *rdfxmlParser) parsePropertyElement(subject Term, el xml.StartElement, depth int) error {
	if max := p.sess.opts.MaxDepth; max > 0 && depth > max {
		return wrapParseError(FormatRDFXML, "", p.line(), 0, ErrDepthExceeded)
	}
	pred, err := p.nameIRI(el.Name)
	if err != nil {
		return err
	}

	if iri := attrValue(el.Attr, RDFNamespace, "resource"); iri != "" {
		object := IRI{Value: p.sess.resolve(iri)}
		if err := validateAbsoluteIRI(object.Value); err != nil {
			return wrapParseError(FormatRDFXML, iri, p.line(), 0, err)
		}
		if err := p.emit(Statement{S: subject, P: pred, O: object}); err != nil {
			return err
		}
		return p.consumeElement()
	}
	if nodeID := attrValue(el.Attr, RDFNamespace, "nodeID"); nodeID != "" {
		object := p.sess.mapBlank(nodeID)
		if err := p.emit(Statement{S: subject, P: pred, O: object}); err != nil {
			return err
		}
		return p.consumeElement()
	}
	if attrValue(el.Attr, RDFNamespace, "parseType") == "Resource" {
		// Anonymous nested resource: property elements directly inside.
		node := p.sess.newBlank()
		if err := p.emit(Statement{S: subject, P: pred, O: node}); err != nil {
			return err
		}
		for {
			tok, err := p.dec.Token()
			if err != nil {
				return p.classify(err)
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if err := p.parsePropertyElement(node, t, depth+1); err != nil {
					return err
				}
			case xml.EndElement:
				return nil
			}
		}
	}

	datatype := attrValue(el.Attr, RDFNamespace, "datatype")
	lang := attrValue(el.Attr, xmlNamespace, "lang")

	var content strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.classify(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			content.WriteString(string(t))
		case xml.StartElement:
			// Nested node element as object.
			object, err := p.parseNodeElement(t, depth+1)
			if err != nil {
				return err
			}
			if err := p.emit(Statement{S: subject, P: pred, O: object}); err != nil {
				return err
			}
			return p.consumeElement()
		case xml.EndElement:
			lexical := content.String()
			var object Literal
			switch {
			case datatype != "":
				dt, err := NewIRI(p.sess.resolve(datatype))
				if err != nil {
					return wrapParseError(FormatRDFXML, datatype, p.line(), 0, err)
				}
				object = Literal{Lexical: lexical, Datatype: dt}
			case lang != "":
				object = Literal{Lexical: lexical, Datatype: RDFLangString, Lang: lang}
			default:
				object = Literal{Lexical: strings.TrimSpace(lexical), Datatype: XSDString}
			}
			return p.emit(Statement{S: subject, P: pred, O: object})
		}
	}
}

func (p *rdfxmlParser) subjectFromNode(el xml.StartElement) (Term, error) {
	if about := attrValue(el.Attr, RDFNamespace, "about"); about != "" {
		value := p.sess.resolve(about)
		if err := validateAbsoluteIRI(value); err != nil {
			return nil, wrapParseError(FormatRDFXML, about, p.line(), 0, err)
		}
		return IRI{Value: value}, nil
	}
	if id := attrValue(el.Attr, RDFNamespace, "ID"); id != "" {
		value := p.sess.resolve("#" + id)
		if err := validateAbsoluteIRI(value); err != nil {
			return nil, wrapParseError(FormatRDFXML, id, p.line(), 0, err)
		}
		return IRI{Value: value}, nil
	}
	if nodeID := attrValue(el.Attr, RDFNamespace, "nodeID"); nodeID != "" {
		return p.sess.mapBlank(nodeID), nil
	}
	return p.sess.newBlank(), nil
}

// nameIRI joins an element or attribute name into an absolute IRI.
// RDF/XML requires namespaced names; without one the concatenation is a
// bare relative reference and must not reach the handler.
func (p *rdfxmlParser) nameIRI(name xml.Name) (IRI, error) {
	value := name.Space + name.Local
	if err := validateAbsoluteIRI(value); err != nil {
		return IRI{}, wrapParseError(FormatRDFXML, name.Local, p.line(), 0, err)
	}
	return IRI{Value: value}, nil
}

func (p *rdfxmlParser) emit(st Statement) error {
	return p.sess.statement(st)
}

// consumeElement skips to the current element's end tag.
func (p *rdfxmlParser) consumeElement() error {
	depth := 0
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return p.classify(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (p *rdfxmlParser) line() int {
	// The xml package exposes byte offsets only; lines come from
	// SyntaxError values when the decoder itself fails.
	return 0
}

func isSyntaxAttr(attr xml.Attr) bool {
	return attr.Name.Space == RDFNamespace ||
		attr.Name.Space == "xmlns" ||
		attr.Name.Local == "xmlns" ||
		attr.Name.Space == xmlNamespace
}

func attrValue(attrs []xml.Attr, space, local string) string {
	for _, attr := range attrs {
		if attr.Name.Space == space && attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}
