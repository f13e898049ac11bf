package rdf

import (
	"fmt"
	"net/url"
	"strings"
)

// validateAbsoluteIRI checks that a value is a well-formed absolute IRI:
// parseable, scheme present, scheme starting with a letter, and free of
// raw control or angle-bracket characters.
func validateAbsoluteIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	parsed, err := url.Parse(iri)
	if err != nil {
		return fmt.Errorf("invalid IRI syntax: %w", err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("relative IRI reference: %s", iri)
	}
	first := parsed.Scheme[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z')) {
		return fmt.Errorf("scheme must start with a letter: %s", iri)
	}
	for i, r := range iri {
		if r < 0x20 {
			return fmt.Errorf("control character at position %d in IRI", i)
		}
		if r == '<' || r == '>' || r == '"' || r == ' ' {
			return fmt.Errorf("character %q at position %d must be percent-encoded in IRI", r, i)
		}
	}
	return nil
}

// isAbsoluteIRI reports whether the value carries a scheme.
func isAbsoluteIRI(iri string) bool {
	parsed, err := url.Parse(iri)
	return err == nil && parsed.Scheme != ""
}

// resolveIRI resolves a relative IRI reference against a base IRI
// according to RFC 3986.
func resolveIRI(baseStr, relative string) string {
	baseURL, err := url.Parse(baseStr)
	if err != nil {
		return fallbackResolve(baseStr, relative)
	}
	relURL, err := url.Parse(relative)
	if err != nil {
		return fallbackResolve(baseStr, relative)
	}
	// Already absolute, nothing to resolve.
	if relURL.Scheme != "" {
		return relative
	}
	return baseURL.ResolveReference(relURL).String()
}

// fallbackResolve concatenates against the base directory when either
// side does not parse as a URL.
func fallbackResolve(baseStr, relative string) string {
	if strings.HasSuffix(baseStr, "/") {
		return baseStr + relative
	}
	lastSlash := strings.LastIndex(baseStr, "/")
	if lastSlash >= 0 {
		return baseStr[:lastSlash+1] + relative
	}
	return baseStr + "/" + relative
}
