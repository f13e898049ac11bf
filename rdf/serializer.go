package rdf

import "io"

// Serializer consumes StatementHandler callbacks and emits syntax-
// specific output incrementally. A serializer is a valid parser handler,
// so format conversion streams without materializing a graph. Sink write
// failures surface as *WriteError and stick: the output may be left
// truncated, and no attempt is made to repair it. Callers needing
// atomicity write to a temporary sink and swap.
type Serializer interface {
	StatementHandler
	Format() Format
}

// NewSerializer creates a serializer for the given format writing to w.
func NewSerializer(format Format, w io.Writer) (Serializer, error) {
	switch format {
	case FormatNTriples, FormatNQuads:
		return newLineSerializer(format, w), nil
	case FormatTurtle:
		return newTurtleSerializer(w), nil
	case FormatRDFXML:
		return newRDFXMLSerializer(w), nil
	case FormatJSONLD:
		return newJSONLDSerializer(w), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
