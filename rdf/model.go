package rdf

import "fmt"

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// Term is a value that can appear in RDF statements.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI. Construct through NewIRI to get
// absoluteness validation.
type IRI struct {
	// Value is the IRI string value.
	Value string
}

// NewIRI constructs an IRI, validating that the value is an absolute
// IRI reference (scheme present). Returns a *TermError otherwise.
func NewIRI(value string) (IRI, error) {
	if err := validateAbsoluteIRI(value); err != nil {
		return IRI{}, &TermError{Kind: TermIRI, Value: value, Err: err}
	}
	return IRI{Value: value}, nil
}

// MustIRI is like NewIRI but panics on invalid input. Intended for
// constants and tests.
func MustIRI(value string) IRI {
	iri, err := NewIRI(value)
	if err != nil {
		panic(err)
	}
	return iri
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node. IDs are process-local: they are
// unique only within one graph or parse session.
type BlankNode struct {
	// ID is the blank node identifier.
	ID string
}

// NewBlankNode constructs a blank node with the given identifier.
func NewBlankNode(id string) (BlankNode, error) {
	if id == "" {
		return BlankNode{}, &TermError{Kind: TermBlankNode, Value: id, Err: fmt.Errorf("empty blank node id")}
	}
	return BlankNode{ID: id}, nil
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal. Lang is set only when Datatype is
// rdf:langString; the constructors maintain that invariant.
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// NewLiteral constructs a typed literal. The rdf:langString datatype is
// rejected here; use NewLangLiteral for language-tagged strings.
func NewLiteral(lexical string, datatype IRI) (Literal, error) {
	if datatype == RDFLangString {
		return Literal{}, &TermError{Kind: TermLiteral, Value: lexical, Err: fmt.Errorf("rdf:langString literal requires a language tag")}
	}
	if datatype.Value != "" {
		if err := validateAbsoluteIRI(datatype.Value); err != nil {
			return Literal{}, &TermError{Kind: TermLiteral, Value: lexical, Err: err}
		}
	}
	return Literal{Lexical: lexical, Datatype: datatype}, nil
}

// NewLangLiteral constructs a language-tagged string. The datatype is
// always rdf:langString.
func NewLangLiteral(lexical, lang string) (Literal, error) {
	if lang == "" {
		return Literal{}, &TermError{Kind: TermLiteral, Value: lexical, Err: fmt.Errorf("empty language tag")}
	}
	return Literal{Lexical: lexical, Datatype: RDFLangString, Lang: lang}, nil
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns a string representation of the literal.
func (l Literal) String() string {
	if l.Lang != "" {
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	}
	if l.Datatype.Value != "" {
		return fmt.Sprintf("%q^^<%s>", l.Lexical, l.Datatype.Value)
	}
	return fmt.Sprintf("%q", l.Lexical)
}

// Statement is an RDF statement: a subject-predicate-object tuple plus an
// optional context term. All term fields hold comparable value types, so
// statements compare structurally with == and may key maps directly.
type Statement struct {
	// S is the subject (IRI or blank node).
	S Term
	// P is the predicate.
	P IRI
	// O is the object.
	O Term
	// G is the context (named graph), or nil for the default graph.
	G Term
}

// NewStatement constructs a statement, validating term positions: the
// subject and context must be IRIs or blank nodes.
func NewStatement(s Term, p IRI, o Term, g Term) (Statement, error) {
	if !isResource(s) {
		return Statement{}, &TermError{Value: termString(s), Err: fmt.Errorf("subject must be an IRI or blank node")}
	}
	if p.Value == "" {
		return Statement{}, &TermError{Kind: TermIRI, Err: fmt.Errorf("empty predicate")}
	}
	if o == nil {
		return Statement{}, &TermError{Err: fmt.Errorf("nil object")}
	}
	if g != nil && !isResource(g) {
		return Statement{}, &TermError{Value: termString(g), Err: fmt.Errorf("context must be an IRI or blank node")}
	}
	return Statement{S: s, P: p, O: o, G: g}, nil
}

// Equal reports structural equality over all four fields.
func (st Statement) Equal(other Statement) bool { return st == other }

// InDefaultGraph reports whether the statement has no context term.
func (st Statement) InDefaultGraph() bool { return st.G == nil }

// IsZero reports whether the statement has no subject/predicate/object.
func (st Statement) IsZero() bool {
	return st.S == nil && st.P.Value == "" && st.O == nil && st.G == nil
}

// String returns an N-Quads-like rendering of the statement.
func (st Statement) String() string {
	out := termString(st.S) + " " + st.P.String() + " " + termString(st.O)
	if st.G != nil {
		out += " " + st.G.String()
	}
	return out
}

// isResource reports whether a term may appear in subject or context
// position.
func isResource(t Term) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case TermIRI, TermBlankNode:
		return true
	default:
		return false
	}
}

func termString(t Term) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
