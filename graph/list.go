package graph

import (
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
)

var (
	// First is rdf:first.
	First = quad.IRI(rdf.First).Full()
	// Rest is rdf:rest.
	Rest = quad.IRI(rdf.Rest).Full()
	// Nil is rdf:nil, the empty list.
	Nil = quad.IRI(rdf.Nil).Full()
)

// ErrMalformedList is returned when a list chain is broken, branches or loops.
var ErrMalformedList = errors.New("malformed rdf list")

// IsList reports whether node heads an RDF list.
func (g *Graph) IsList(node quad.Value) bool {
	if node == Nil {
		return true
	}
	_, ok := g.Object(node, First)
	return ok
}

// List returns the elements of the list headed by node, in order.
func (g *Graph) List(head quad.Value) ([]quad.Value, error) {
	var out []quad.Value
	seen := make(map[quad.Value]bool)
	for node := head; node != Nil; {
		if seen[node] {
			return nil, fmt.Errorf("%w: cycle at %v", ErrMalformedList, node)
		}
		seen[node] = true

		firsts := g.Objects(node, First)
		rests := g.Objects(node, Rest)
		if len(firsts) != 1 || len(rests) != 1 {
			return nil, fmt.Errorf("%w: node %v has %d first and %d rest", ErrMalformedList, node, len(firsts), len(rests))
		}
		out = append(out, firsts[0])
		node = rests[0]
	}
	return out, nil
}

// AddList asserts a list holding values and returns its head. An empty list
// is rdf:nil.
func (g *Graph) AddList(values []quad.Value) quad.Value {
	if len(values) == 0 {
		return Nil
	}
	head := NewBlankNode()
	node := head
	for i, v := range values {
		g.Add(node, First, v)
		if i == len(values)-1 {
			g.Add(node, Rest, Nil)
			break
		}
		next := NewBlankNode()
		g.Add(node, Rest, next)
		node = next
	}
	return head
}
