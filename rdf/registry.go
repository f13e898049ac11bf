package rdf

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// FormatInfo describes one registered syntax: its identity, the content
// types and file extensions it answers to, and factories for its codec
// ends. A nil factory marks the direction as unsupported.
type FormatInfo struct {
	ID            Format
	MIME          []string
	Extensions    []string
	NewParser     func(opts ...Option) (*Parser, error)
	NewSerializer func(w io.Writer) (Serializer, error)
}

// Registry maps format identifiers, MIME types and file extensions to
// codec factories. Registries are explicit values, not package state:
// callers needing a custom format set build their own and pass it where
// it is used. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	formats map[Format]FormatInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[Format]FormatInfo)}
}

// DefaultRegistry creates a registry holding every built-in format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, info := range builtinFormats() {
		r.Register(info)
	}
	return r
}

// Register adds or replaces a format entry.
func (r *Registry) Register(info FormatInfo) error {
	if info.ID == "" {
		return fmt.Errorf("registry: empty format identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[info.ID] = info
	return nil
}

// Lookup returns the entry for a format identifier.
func (r *Registry) Lookup(format Format) (FormatInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.formats[format]
	return info, ok
}

// ByExtension resolves a file extension, case-insensitively. The
// argument may be a bare extension ("ttl"), a dotted one (".ttl"), or a
// whole filename ("data.ttl").
func (r *Registry) ByExtension(ext string) (FormatInfo, bool) {
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i+1:]
	}
	ext = strings.ToLower(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.formats {
		for _, candidate := range info.Extensions {
			if candidate == ext {
				return info, true
			}
		}
	}
	return FormatInfo{}, false
}

// ByMIME resolves a MIME type, ignoring any parameters.
func (r *Registry) ByMIME(mime string) (FormatInfo, bool) {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.formats {
		for _, candidate := range info.MIME {
			if candidate == mime {
				return info, true
			}
		}
	}
	return FormatInfo{}, false
}

// Formats returns the registered identifiers in unspecified order.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]Format, 0, len(r.formats))
	for id := range r.formats {
		ids = append(ids, id)
	}
	return ids
}

// NewParser creates a parser via the registered factory.
func (r *Registry) NewParser(format Format, opts ...Option) (*Parser, error) {
	info, ok := r.Lookup(format)
	if !ok || info.NewParser == nil {
		return nil, ErrUnsupportedFormat
	}
	return info.NewParser(opts...)
}

// NewSerializer creates a serializer via the registered factory.
func (r *Registry) NewSerializer(format Format, w io.Writer) (Serializer, error) {
	info, ok := r.Lookup(format)
	if !ok || info.NewSerializer == nil {
		return nil, ErrUnsupportedFormat
	}
	return info.NewSerializer(w)
}

func builtinFormats() []FormatInfo {
	entry := func(id Format, mime []string, exts []string) FormatInfo {
		return FormatInfo{
			ID:         id,
			MIME:       mime,
			Extensions: exts,
			NewParser: func(opts ...Option) (*Parser, error) {
				return NewParser(id, opts...)
			},
			NewSerializer: func(w io.Writer) (Serializer, error) {
				return NewSerializer(id, w)
			},
		}
	}
	return []FormatInfo{
		entry(FormatNTriples, []string{"application/n-triples", "text/plain"}, []string{"nt"}),
		entry(FormatNQuads, []string{"application/n-quads"}, []string{"nq"}),
		entry(FormatTurtle, []string{"text/turtle", "application/x-turtle"}, []string{"ttl"}),
		entry(FormatRDFXML, []string{"application/rdf+xml"}, []string{"rdf", "rdfs", "owl", "xml"}),
		entry(FormatJSONLD, []string{"application/ld+json"}, []string{"jsonld", "json"}),
	}
}
