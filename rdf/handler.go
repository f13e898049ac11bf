package rdf

// StatementHandler is the consumer side of the streaming protocol. A
// producer (parser or programmatic caller) invokes the events in strict
// sequence: StartStream exactly once, then any number of HandleNamespace,
// HandleComment and HandleStatement calls, then EndStream exactly once.
// A producer that fails mid-stream never calls EndStream; partial side
// effects already applied by the handler are the handler's own concern.
//
// Namespace events are not guaranteed to precede the statements using
// them. Statements arrive fully resolved: absolute IRIs, assigned blank
// node ids, datatypes set.
type StatementHandler interface {
	StartStream() error
	HandleNamespace(prefix, iri string) error
	HandleComment(text string) error
	HandleStatement(st Statement) error
	EndStream() error
}

// BaseHandler is a no-op StatementHandler for embedding, so implementers
// override only the events they need.
type BaseHandler struct{}

// StartStream implements StatementHandler.
func (BaseHandler) StartStream() error { return nil }

// HandleNamespace implements StatementHandler.
func (BaseHandler) HandleNamespace(prefix, iri string) error { return nil }

// HandleComment implements StatementHandler.
func (BaseHandler) HandleComment(text string) error { return nil }

// HandleStatement implements StatementHandler.
func (BaseHandler) HandleStatement(st Statement) error { return nil }

// EndStream implements StatementHandler.
func (BaseHandler) EndStream() error { return nil }

// StatementHandlerFunc adapts a statement callback to a full handler with
// no-op lifecycle events.
type StatementHandlerFunc func(Statement) error

// StartStream implements StatementHandler.
func (StatementHandlerFunc) StartStream() error { return nil }

// HandleNamespace implements StatementHandler.
func (StatementHandlerFunc) HandleNamespace(prefix, iri string) error { return nil }

// HandleComment implements StatementHandler.
func (StatementHandlerFunc) HandleComment(text string) error { return nil }

// HandleStatement calls the underlying function.
func (fn StatementHandlerFunc) HandleStatement(st Statement) error { return fn(st) }

// EndStream implements StatementHandler.
func (StatementHandlerFunc) EndStream() error { return nil }

// GraphInserter is the collector handler: it adds incoming statements and
// namespace bindings to a Graph.
type GraphInserter struct {
	BaseHandler
	graph *Graph
}

// NewGraphInserter creates a handler collecting into g.
func NewGraphInserter(g *Graph) *GraphInserter {
	return &GraphInserter{graph: g}
}

// HandleNamespace records the binding in the graph's namespace map.
func (gi *GraphInserter) HandleNamespace(prefix, iri string) error {
	gi.graph.SetNamespace(prefix, iri)
	return nil
}

// HandleStatement adds the statement to the graph. Duplicates are
// silently ignored.
func (gi *GraphInserter) HandleStatement(st Statement) error {
	gi.graph.Add(st)
	return nil
}

// Graph returns the graph being filled.
func (gi *GraphInserter) Graph() *Graph { return gi.graph }

type sessionState uint8

const (
	sessionIdle sessionState = iota
	sessionOpen
	sessionDone
	sessionAborted
)

// CheckedHandler wraps a StatementHandler and enforces the event
// ordering contract: any event before StartStream, a second StartStream,
// or any event after EndStream fails with ErrHandlerState. An error
// returned by the inner handler is wrapped in *HandlerError and poisons
// the session. Every parser drives its handler through one of these.
type CheckedHandler struct {
	inner StatementHandler
	state sessionState
}

// NewCheckedHandler wraps h with protocol-order enforcement.
func NewCheckedHandler(h StatementHandler) *CheckedHandler {
	return &CheckedHandler{inner: h}
}

// StartStream implements StatementHandler.
func (c *CheckedHandler) StartStream() error {
	if c.inner == nil {
		return ErrNoHandler
	}
	if c.state != sessionIdle {
		return ErrHandlerState
	}
	if err := c.inner.StartStream(); err != nil {
		c.state = sessionAborted
		return &HandlerError{Err: err}
	}
	c.state = sessionOpen
	return nil
}

// HandleNamespace implements StatementHandler.
func (c *CheckedHandler) HandleNamespace(prefix, iri string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.inner.HandleNamespace(prefix, iri); err != nil {
		c.state = sessionAborted
		return &HandlerError{Err: err}
	}
	return nil
}

// HandleComment implements StatementHandler.
func (c *CheckedHandler) HandleComment(text string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.inner.HandleComment(text); err != nil {
		c.state = sessionAborted
		return &HandlerError{Err: err}
	}
	return nil
}

// HandleStatement implements StatementHandler.
func (c *CheckedHandler) HandleStatement(st Statement) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.inner.HandleStatement(st); err != nil {
		c.state = sessionAborted
		return &HandlerError{Err: err}
	}
	return nil
}

// EndStream implements StatementHandler.
func (c *CheckedHandler) EndStream() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if err := c.inner.EndStream(); err != nil {
		c.state = sessionAborted
		return &HandlerError{Err: err}
	}
	c.state = sessionDone
	return nil
}

// abort marks the session dead after a producer-side failure so no
// further events reach the inner handler.
func (c *CheckedHandler) abort() {
	if c.state == sessionOpen {
		c.state = sessionAborted
	}
}

func (c *CheckedHandler) checkOpen() error {
	if c.inner == nil {
		return ErrNoHandler
	}
	if c.state != sessionOpen {
		return ErrHandlerState
	}
	return nil
}
