package rdf

// graphStore is the single backing store shared by a Graph and all views
// filtered from it. Entries keep insertion order; removals leave
// tombstones that are compacted once they outnumber live entries.
type graphStore struct {
	entries  []Statement
	index    map[Statement]int
	dead     int
	prefixes []Namespace
}

// Namespace is one prefix-to-IRI binding of a graph's namespace map.
type Namespace struct {
	// Prefix is the short namespace prefix, without the trailing colon.
	Prefix string
	// IRI is the namespace IRI the prefix expands to.
	IRI string
}

// Graph is a mutable set of statements plus an ordered namespace map.
// A Graph obtained through Filter is a live view: it shares the backing
// store with its parent, so mutations through either are visible in both.
// Graphs are not safe for concurrent mutation; callers needing that must
// hold an external lock around the parent and all of its views.
type Graph struct {
	store *graphStore
	pat   pattern
}

// pattern restricts a view to matching statements. Nil fields are
// wildcards.
type pattern struct {
	s Term
	p Term
	o Term
	g Term
}

func (p pattern) empty() bool {
	return p.s == nil && p.p == nil && p.o == nil && p.g == nil
}

func (p pattern) match(st Statement) bool {
	if p.s != nil && p.s != st.S {
		return false
	}
	if p.p != nil {
		iri, ok := p.p.(IRI)
		if !ok || iri != st.P {
			return false
		}
	}
	if p.o != nil && p.o != st.O {
		return false
	}
	if p.g != nil && p.g != st.G {
		return false
	}
	return true
}

// NewGraph creates an empty graph with an empty namespace map.
func NewGraph() *Graph {
	return &Graph{store: &graphStore{index: make(map[Statement]int)}}
}

// Add inserts a statement and reports whether it was not already present.
// Adding through a view inserts into the shared store even when the
// statement falls outside the view's own pattern.
func (g *Graph) Add(st Statement) bool {
	if _, ok := g.store.index[st]; ok {
		return false
	}
	g.store.entries = append(g.store.entries, st)
	g.store.index[st] = len(g.store.entries) - 1
	return true
}

// Remove deletes a statement and reports whether it was present. Through
// a view, only statements matching the view's pattern are removed.
func (g *Graph) Remove(st Statement) bool {
	idx, ok := g.store.index[st]
	if !ok || !g.pat.match(st) {
		return false
	}
	g.store.entries[idx] = Statement{}
	delete(g.store.index, st)
	g.store.dead++
	g.maybeCompact()
	return true
}

// Contains reports whether the statement is present and visible through
// this graph's pattern.
func (g *Graph) Contains(st Statement) bool {
	_, ok := g.store.index[st]
	return ok && g.pat.match(st)
}

// Len returns the number of visible statements.
func (g *Graph) Len() int {
	if g.pat.empty() {
		return len(g.store.index)
	}
	n := 0
	g.Each(func(Statement) bool {
		n++
		return true
	})
	return n
}

// Each walks visible statements in insertion order. The walk stops early
// when fn returns false. The statement set must not be mutated during
// the walk.
func (g *Graph) Each(fn func(Statement) bool) {
	for _, st := range g.store.entries {
		if st.S == nil {
			continue // tombstone
		}
		if !g.pat.match(st) {
			continue
		}
		if !fn(st) {
			return
		}
	}
}

// Statements returns a snapshot slice of the visible statements in
// insertion order.
func (g *Graph) Statements() []Statement {
	out := make([]Statement, 0, len(g.store.index))
	g.Each(func(st Statement) bool {
		out = append(out, st)
		return true
	})
	return out
}

// Filter returns a live view restricted to statements matching the
// pattern; nil fields act as wildcards. The view shares this graph's
// backing store and namespace map. Filtering an already-filtered view
// narrows it further; a field constrained by both patterns to different
// values yields an empty view.
func (g *Graph) Filter(s Term, p Term, o Term, ctx Term) *Graph {
	child := g.pat
	child.s = narrowField(child.s, s)
	child.p = narrowField(child.p, p)
	child.o = narrowField(child.o, o)
	child.g = narrowField(child.g, ctx)
	return &Graph{store: g.store, pat: child}
}

// narrowField intersects two pattern fields. Conflicting constants
// produce an unsatisfiable marker term.
func narrowField(parent, child Term) Term {
	if child == nil {
		return parent
	}
	if parent == nil || parent == child {
		return child
	}
	return unsatisfiable
}

// unsatisfiable never equals any real term, so a pattern holding it
// matches nothing.
var unsatisfiable Term = BlankNode{ID: "\x00unsatisfiable"}

// RemoveAll deletes every visible statement and returns how many were
// removed.
func (g *Graph) RemoveAll() int {
	matched := g.Statements()
	for _, st := range matched {
		idx, ok := g.store.index[st]
		if !ok {
			continue
		}
		g.store.entries[idx] = Statement{}
		delete(g.store.index, st)
		g.store.dead++
	}
	g.maybeCompact()
	return len(matched)
}

// SetNamespace binds a prefix to a namespace IRI, preserving first-set
// order. Rebinding an existing prefix updates it in place.
func (g *Graph) SetNamespace(prefix, iri string) {
	for i, ns := range g.store.prefixes {
		if ns.Prefix == prefix {
			g.store.prefixes[i].IRI = iri
			return
		}
	}
	g.store.prefixes = append(g.store.prefixes, Namespace{Prefix: prefix, IRI: iri})
}

// RemoveNamespace deletes a prefix binding and reports whether it existed.
func (g *Graph) RemoveNamespace(prefix string) bool {
	for i, ns := range g.store.prefixes {
		if ns.Prefix == prefix {
			g.store.prefixes = append(g.store.prefixes[:i], g.store.prefixes[i+1:]...)
			return true
		}
	}
	return false
}

// Namespace looks up the namespace IRI bound to a prefix.
func (g *Graph) Namespace(prefix string) (string, bool) {
	for _, ns := range g.store.prefixes {
		if ns.Prefix == prefix {
			return ns.IRI, true
		}
	}
	return "", false
}

// Namespaces returns the namespace bindings in first-set order.
func (g *Graph) Namespaces() []Namespace {
	out := make([]Namespace, len(g.store.prefixes))
	copy(out, g.store.prefixes)
	return out
}

// maybeCompact rebuilds the entry slice once tombstones outnumber live
// statements, so long remove-heavy sessions do not leak.
func (g *Graph) maybeCompact() {
	if g.store.dead <= len(g.store.index) || g.store.dead < 64 {
		return
	}
	live := make([]Statement, 0, len(g.store.index))
	for _, st := range g.store.entries {
		if st.S != nil {
			live = append(live, st)
		}
	}
	g.store.entries = live
	for i, st := range live {
		g.store.index[st] = i
	}
	g.store.dead = 0
}
