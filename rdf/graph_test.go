package rdf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func st(s, p, o string) Statement {
	return Statement{
		S: MustIRI("http://example.org/" + s),
		P: MustIRI("http://example.org/" + p),
		O: MustIRI("http://example.org/" + o),
	}
}

func TestGraphAddRemoveContains(t *testing.T) {
	g := NewGraph()
	a := st("s1", "p", "o1")
	b := st("s2", "p", "o2")

	assert.True(t, g.Add(a))
	assert.False(t, g.Add(a), "duplicate add")
	assert.True(t, g.Add(b))
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Contains(a))

	assert.True(t, g.Remove(a))
	assert.False(t, g.Remove(a), "double remove")
	assert.False(t, g.Contains(a))
	assert.Equal(t, 1, g.Len())
}

func TestGraphInsertionOrder(t *testing.T) {
	g := NewGraph()
	var want []Statement
	for i := 0; i < 10; i++ {
		s := st(fmt.Sprintf("s%d", i), "p", "o")
		want = append(want, s)
		g.Add(s)
	}
	assert.Equal(t, want, g.Statements())
}

func TestGraphEachEarlyStop(t *testing.T) {
	g := NewGraph()
	for i := 0; i < 5; i++ {
		g.Add(st(fmt.Sprintf("s%d", i), "p", "o"))
	}
	n := 0
	g.Each(func(Statement) bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)
}

func TestFilterViewIsLive(t *testing.T) {
	g := NewGraph()
	alice := MustIRI("http://example.org/alice")
	bob := MustIRI("http://example.org/bob")
	knows := MustIRI("http://example.org/knows")

	view := g.Filter(alice, nil, nil, nil)
	assert.Equal(t, 0, view.Len())

	// Parent mutation appears in the view.
	g.Add(Statement{S: alice, P: knows, O: bob})
	g.Add(Statement{S: bob, P: knows, O: alice})
	assert.Equal(t, 1, view.Len())
	assert.True(t, view.Contains(Statement{S: alice, P: knows, O: bob}))
	assert.False(t, view.Contains(Statement{S: bob, P: knows, O: alice}))

	// View mutation appears in the parent.
	carol := MustIRI("http://example.org/carol")
	view.Add(Statement{S: alice, P: knows, O: carol})
	assert.Equal(t, 3, g.Len())
	assert.True(t, g.Contains(Statement{S: alice, P: knows, O: carol}))

	require.True(t, view.Remove(Statement{S: alice, P: knows, O: bob}))
	assert.False(t, g.Contains(Statement{S: alice, P: knows, O: bob}))
	assert.Equal(t, 2, g.Len())
}

func TestFilterViewAddOutsidePattern(t *testing.T) {
	g := NewGraph()
	alice := MustIRI("http://example.org/alice")
	view := g.Filter(alice, nil, nil, nil)

	outside := st("other", "p", "o")
	assert.True(t, view.Add(outside))
	assert.True(t, g.Contains(outside), "insert lands in shared store")
	assert.False(t, view.Contains(outside), "but stays invisible through the view")

	// Removal through the view is pattern-restricted.
	assert.False(t, view.Remove(outside))
	assert.True(t, g.Contains(outside))
}

func TestFilterNarrowing(t *testing.T) {
	g := NewGraph()
	alice := MustIRI("http://example.org/alice")
	bob := MustIRI("http://example.org/bob")
	knows := MustIRI("http://example.org/knows")
	name := MustIRI("http://example.org/name")

	g.Add(Statement{S: alice, P: knows, O: bob})
	g.Add(Statement{S: alice, P: name, O: Literal{Lexical: "Alice", Datatype: XSDString}})
	g.Add(Statement{S: bob, P: name, O: Literal{Lexical: "Bob", Datatype: XSDString}})

	byAlice := g.Filter(alice, nil, nil, nil)
	assert.Equal(t, 2, byAlice.Len())

	aliceNames := byAlice.Filter(nil, name, nil, nil)
	assert.Equal(t, 1, aliceNames.Len())

	// Conflicting constraints yield an empty view that stays empty.
	conflicting := byAlice.Filter(bob, nil, nil, nil)
	assert.Equal(t, 0, conflicting.Len())
	g.Add(Statement{S: bob, P: knows, O: alice})
	assert.Equal(t, 0, conflicting.Len())
}

func TestFilterByContext(t *testing.T) {
	g := NewGraph()
	ctx := MustIRI("http://example.org/graph1")
	in := Statement{S: MustIRI("http://example.org/s"), P: MustIRI("http://example.org/p"), O: MustIRI("http://example.org/o"), G: ctx}
	out := st("s", "p", "o")
	g.Add(in)
	g.Add(out)

	named := g.Filter(nil, nil, nil, ctx)
	assert.Equal(t, []Statement{in}, named.Statements())
}

func TestRemoveAllThroughView(t *testing.T) {
	g := NewGraph()
	alice := MustIRI("http://example.org/alice")
	for i := 0; i < 4; i++ {
		g.Add(Statement{S: alice, P: MustIRI(fmt.Sprintf("http://example.org/p%d", i)), O: Literal{Lexical: "v", Datatype: XSDString}})
	}
	other := st("other", "p", "o")
	g.Add(other)

	removed := g.Filter(alice, nil, nil, nil).RemoveAll()
	assert.Equal(t, 4, removed)
	assert.Equal(t, []Statement{other}, g.Statements())
}

func TestGraphCompaction(t *testing.T) {
	g := NewGraph()
	var sts []Statement
	for i := 0; i < 200; i++ {
		s := st(fmt.Sprintf("s%d", i), "p", "o")
		sts = append(sts, s)
		g.Add(s)
	}
	for i := 0; i < 150; i++ {
		require.True(t, g.Remove(sts[i]))
	}
	assert.Equal(t, 50, g.Len())
	assert.Equal(t, sts[150:], g.Statements(), "order survives compaction")
	for i := 150; i < 200; i++ {
		assert.True(t, g.Contains(sts[i]))
	}
}

func TestNamespaces(t *testing.T) {
	g := NewGraph()
	g.SetNamespace("foaf", "http://xmlns.com/foaf/0.1/")
	g.SetNamespace("ex", "http://example.org/")
	g.SetNamespace("foaf", "http://xmlns.com/foaf/0.2/")

	iri, ok := g.Namespace("foaf")
	require.True(t, ok)
	assert.Equal(t, "http://xmlns.com/foaf/0.2/", iri)

	assert.Equal(t, []Namespace{
		{Prefix: "foaf", IRI: "http://xmlns.com/foaf/0.2/"},
		{Prefix: "ex", IRI: "http://example.org/"},
	}, g.Namespaces(), "first-set order, rebind in place")

	assert.True(t, g.RemoveNamespace("ex"))
	assert.False(t, g.RemoveNamespace("ex"))
	_, ok = g.Namespace("ex")
	assert.False(t, ok)
}

func TestViewSharesNamespaces(t *testing.T) {
	g := NewGraph()
	view := g.Filter(MustIRI("http://example.org/s"), nil, nil, nil)
	view.SetNamespace("ex", "http://example.org/")
	iri, ok := g.Namespace("ex")
	require.True(t, ok)
	assert.Equal(t, "http://example.org/", iri)
}
