package rdf

// The few vocabulary terms the toolkit itself depends on. Full vocabulary
// tables belong to consumers, not here.

const (
	// RDFNamespace is the RDF syntax namespace.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	// XSDNamespace is the XML Schema datatypes namespace.
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

var (
	// RDFType is the rdf:type predicate (the Turtle "a" keyword).
	RDFType = IRI{Value: RDFNamespace + "type"}
	// RDFFirst links a collection node to its member value.
	RDFFirst = IRI{Value: RDFNamespace + "first"}
	// RDFRest links a collection node to the next node.
	RDFRest = IRI{Value: RDFNamespace + "rest"}
	// RDFNil terminates an RDF Collection. This is the single canonical
	// sentinel spelling; no alternates are recognized.
	RDFNil = IRI{Value: RDFNamespace + "nil"}
	// RDFLangString is the datatype of language-tagged strings.
	RDFLangString = IRI{Value: RDFNamespace + "langString"}
	// XSDString is the default literal datatype.
	XSDString = IRI{Value: XSDNamespace + "string"}
	// XSDInteger is the datatype of Turtle integer shorthand literals.
	XSDInteger = IRI{Value: XSDNamespace + "integer"}
	// XSDDecimal is the datatype of Turtle decimal shorthand literals.
	XSDDecimal = IRI{Value: XSDNamespace + "decimal"}
	// XSDDouble is the datatype of Turtle double shorthand literals.
	XSDDouble = IRI{Value: XSDNamespace + "double"}
	// XSDBoolean is the datatype of Turtle boolean shorthand literals.
	XSDBoolean = IRI{Value: XSDNamespace + "boolean"}
)
