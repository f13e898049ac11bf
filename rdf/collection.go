package rdf

import (
	"strings"

	"github.com/google/uuid"
)

// freshListNode labels an intermediate chain node. Labels are
// uuid-derived so encoding into a graph that already holds collections
// cannot collide with existing chain nodes.
func freshListNode() string {
	return "list-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// EncodeCollection writes items into sink as an RDF collection rooted at
// head: a chain of rdf:first/rdf:rest nodes closed by rdf:nil. With no
// items nothing is written and callers should use RDFNil directly as the
// head term. Head must be an IRI or a blank node.
func EncodeCollection(items []Term, head Term, sink *Graph) error {
	if !isResource(head) {
		return &CollectionError{Node: head, Reason: "collection head must be an IRI or blank node"}
	}
	if len(items) == 0 {
		return nil
	}
	node := head
	for i, item := range items {
		if item == nil {
			return &CollectionError{Node: node, Reason: "nil collection item"}
		}
		first, err := NewStatement(node, RDFFirst, item, nil)
		if err != nil {
			return err
		}
		sink.Add(first)

		var rest Term = RDFNil
		if i < len(items)-1 {
			rest = BlankNode{ID: freshListNode()}
		}
		restSt, err := NewStatement(node, RDFRest, rest, nil)
		if err != nil {
			return err
		}
		sink.Add(restSt)
		node = rest
	}
	return nil
}

// DecodeCollection reads the collection rooted at head out of source and
// returns its items in order. An RDFNil head decodes to an empty list.
// Malformed chains (missing or duplicate rdf:first/rdf:rest, cycles)
// fail with a *CollectionError naming the offending node.
func DecodeCollection(source *Graph, head Term) ([]Term, error) {
	var items []Term
	err := walkCollection(source, head, func(node, item Term) error {
		items = append(items, item)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ExtractCollection copies the statements forming the collection rooted
// at head from source into sink, preserving the chain structure.
func ExtractCollection(source *Graph, head Term, sink *Graph) error {
	return ExtractCollectionFunc(source, head, func(st Statement) error {
		sink.Add(st)
		return nil
	})
}

// ExtractCollectionFunc walks the collection rooted at head and passes
// each chain statement to fn in order. An error from fn aborts the walk.
func ExtractCollectionFunc(source *Graph, head Term, fn func(Statement) error) error {
	return walkCollection(source, head, nil, fn)
}

// walkCollection traverses an rdf:first/rdf:rest chain from head to
// rdf:nil. itemFn receives (node, item) pairs; stFn receives the chain
// statements as stored in source, context term included. A visited set
// bounds traversal on cyclic chains.
func walkCollection(source *Graph, head Term, itemFn func(node, item Term) error, stFn func(Statement) error) error {
	if head == nil {
		return &CollectionError{Node: head, Reason: "nil collection head"}
	}
	visited := make(map[Term]struct{})
	node := head
	for {
		if node == Term(RDFNil) {
			return nil
		}
		if !isResource(node) {
			return &CollectionError{Node: node, Reason: "collection node is not a resource"}
		}
		if _, seen := visited[node]; seen {
			return &CollectionError{Node: node, Reason: "cycle in collection"}
		}
		visited[node] = struct{}{}

		first, err := uniqueArc(source, node, RDFFirst)
		if err != nil {
			return err
		}
		rest, err := uniqueArc(source, node, RDFRest)
		if err != nil {
			return err
		}
		if itemFn != nil {
			if err := itemFn(node, first.O); err != nil {
				return err
			}
		}
		if stFn != nil {
			if err := stFn(first); err != nil {
				return err
			}
			if err := stFn(rest); err != nil {
				return err
			}
		}
		node = rest.O
	}
}

// uniqueArc returns the single (node, pred) statement in source, failing
// when the arc is missing or ambiguous.
func uniqueArc(source *Graph, node Term, pred IRI) (Statement, error) {
	var match Statement
	count := 0
	source.Filter(node, pred, nil, nil).Each(func(st Statement) bool {
		if count == 0 {
			match = st
		}
		count++
		return count < 2
	})
	switch {
	case count == 0:
		return Statement{}, &CollectionError{Node: node, Reason: "missing " + pred.Value}
	case count > 1:
		return Statement{}, &CollectionError{Node: node, Reason: "multiple values for " + pred.Value}
	}
	return match, nil
}
