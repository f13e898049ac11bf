package rdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Default parser resource limits.
const (
	DefaultMaxLineBytes      = 1 << 20
	DefaultMaxStatementBytes = 4 << 20
	DefaultMaxDepth          = 64
	DefaultMaxStatements     = int64(0) // unlimited
)

// WarningListener receives recoverable diagnostics during a parse:
// namespace redefinitions, deprecated syntax and similar notices that do
// not abort the session. Line and column are 1-based, 0 when unknown.
type WarningListener func(line, column int, msg string)

// Options configures parser behavior.
type Options struct {
	// Context cancels parsing cooperatively at statement boundaries.
	Context context.Context

	// Resource limits for untrusted input. Zero means the default.
	MaxLineBytes      int
	MaxStatementBytes int
	MaxDepth          int
	MaxStatements     int64

	// Warning receives recoverable diagnostics. Nil discards them.
	Warning WarningListener
}

// Option configures parser behavior.
type Option func(*Options)

// OptContext sets the context for cooperative cancellation.
func OptContext(ctx context.Context) Option {
	return func(opts *Options) { opts.Context = ctx }
}

// OptMaxLineBytes sets the maximum line size limit.
func OptMaxLineBytes(maxBytes int) Option {
	return func(opts *Options) { opts.MaxLineBytes = maxBytes }
}

// OptMaxStatementBytes sets the maximum statement size limit.
func OptMaxStatementBytes(maxBytes int) Option {
	return func(opts *Options) { opts.MaxStatementBytes = maxBytes }
}

// OptMaxDepth sets the maximum nesting depth limit.
func OptMaxDepth(maxDepth int) Option {
	return func(opts *Options) { opts.MaxDepth = maxDepth }
}

// OptMaxStatements sets the maximum number of statements to emit.
func OptMaxStatements(max int64) Option {
	return func(opts *Options) { opts.MaxStatements = max }
}

// OptSafeLimits applies tight limits suitable for untrusted input.
func OptSafeLimits() Option {
	return func(opts *Options) {
		opts.MaxLineBytes = 64 << 10
		opts.MaxStatementBytes = 256 << 10
		opts.MaxDepth = 16
		opts.MaxStatements = 1 << 20
	}
}

// OptWarningListener registers a listener for recoverable diagnostics.
func OptWarningListener(listener WarningListener) Option {
	return func(opts *Options) { opts.Warning = listener }
}

func buildOptions(opts []Option) Options {
	options := Options{
		MaxLineBytes:      DefaultMaxLineBytes,
		MaxStatementBytes: DefaultMaxStatementBytes,
		MaxDepth:          DefaultMaxDepth,
		MaxStatements:     DefaultMaxStatements,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Context == nil {
		options.Context = context.Background()
	}
	return options
}

// Parser converts a byte stream in one syntax format into a sequence of
// StatementHandler callbacks. The format is fixed at construction. A
// parser runs one session at a time; after a stream read failure the
// parser is unusable.
type Parser struct {
	format  Format
	opts    Options
	handler StatementHandler
	parsing bool
	broken  bool
}

// NewParser creates a parser for the given format.
func NewParser(format Format, opts ...Option) (*Parser, error) {
	switch format {
	case FormatNTriples, FormatNQuads, FormatTurtle, FormatRDFXML, FormatJSONLD:
	default:
		return nil, ErrUnsupportedFormat
	}
	return &Parser{format: format, opts: buildOptions(opts)}, nil
}

// Format returns the parser's syntax format.
func (p *Parser) Format() Format { return p.format }

// SetHandler registers the handler parse events are delivered to.
// Replacing the handler mid-parse fails with ErrHandlerState.
func (p *Parser) SetHandler(h StatementHandler) error {
	if p.parsing {
		return fmt.Errorf("%w: handler replaced during parse", ErrHandlerState)
	}
	p.handler = h
	return nil
}

// Parse reads the input and streams events to the registered handler.
// Relative IRIs are resolved against baseIRI before emission. Fatal
// syntax violations return a *ParseError; read failures return an error
// with code ErrCodeIO and leave the parser unusable; handler errors are
// returned wrapped in *HandlerError.
func (p *Parser) Parse(input io.Reader, baseIRI string) error {
	if p.handler == nil {
		return ErrNoHandler
	}
	if p.broken {
		return fmt.Errorf("%w: parser unusable after stream failure", ErrHandlerState)
	}
	if p.parsing {
		return fmt.Errorf("%w: parse already in progress", ErrHandlerState)
	}
	p.parsing = true
	defer func() { p.parsing = false }()

	sess := newParseSession(p.format, baseIRI, p.opts, NewCheckedHandler(p.handler))
	var err error
	switch p.format {
	case FormatNTriples, FormatNQuads:
		err = parseLineFormat(input, sess)
	case FormatTurtle:
		err = parseTurtle(input, sess)
	case FormatRDFXML:
		err = parseRDFXML(input, sess)
	case FormatJSONLD:
		err = parseJSONLD(input, sess)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		sess.out.abort()
		if Code(err) == ErrCodeIO {
			p.broken = true
		}
		return err
	}
	return nil
}

// parseSession carries the per-session state every format parser needs:
// the checked handler, the base IRI, limits, the session-scoped blank
// node namespace and the statement budget.
type parseSession struct {
	format  Format
	base    string
	opts    Options
	out     *CheckedHandler
	blankNS string
	blanks  map[string]BlankNode
	nextGen int
	emitted int64
}

func newParseSession(format Format, base string, opts Options, out *CheckedHandler) *parseSession {
	// Source blank labels are namespaced per session so two parses
	// feeding the same graph can never collide.
	ns := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return &parseSession{
		format:  format,
		base:    base,
		opts:    opts,
		out:     out,
		blankNS: ns,
		blanks:  make(map[string]BlankNode),
	}
}

// mapBlank maps a source-syntax blank label into the session namespace.
func (s *parseSession) mapBlank(label string) BlankNode {
	if b, ok := s.blanks[label]; ok {
		return b
	}
	b := BlankNode{ID: s.blankNS + "-" + label}
	s.blanks[label] = b
	return b
}

// newBlank allocates a fresh anonymous blank node.
func (s *parseSession) newBlank() BlankNode {
	s.nextGen++
	return BlankNode{ID: fmt.Sprintf("%s-gen%d", s.blankNS, s.nextGen)}
}

// resolve resolves an IRI reference against the session base.
func (s *parseSession) resolve(ref string) string {
	if isAbsoluteIRI(ref) || s.base == "" {
		return ref
	}
	return resolveIRI(s.base, ref)
}

// statement delivers one statement, enforcing the statement budget and
// cooperative cancellation.
func (s *parseSession) statement(st Statement) error {
	if err := s.opts.Context.Err(); err != nil {
		return err
	}
	if s.opts.MaxStatements > 0 && s.emitted >= s.opts.MaxStatements {
		return ErrStatementLimit
	}
	s.emitted++
	return s.out.HandleStatement(st)
}

func (s *parseSession) warn(line, column int, msg string) {
	if s.opts.Warning != nil {
		s.opts.Warning(line, column, msg)
	}
}
