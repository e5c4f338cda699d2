// Package graph provides the triple graph the mapper writes to and reads from,
// plus utilities for publishing entity graphs to the knowledge graph.
package graph

import (
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/google/uuid"

	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Graph is a set of statements. Duplicate statements collapse; iteration
// follows first insertion order.
type Graph struct {
	quads []quad.Quad
	index map[quad.Quad]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[quad.Quad]int)}
}

// FromQuads creates a graph holding the given statements.
func FromQuads(quads []quad.Quad) *Graph {
	g := New()
	for _, q := range quads {
		g.AddQuad(q)
	}
	return g
}

// NewBlankNode returns an anonymous node that is unique across graphs.
func NewBlankNode() quad.BNode {
	return quad.BNode("b" + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Add asserts (s, p, o) in the default graph.
func (g *Graph) Add(s, p, o quad.Value) {
	g.AddQuad(quad.Quad{Subject: s, Predicate: p, Object: o})
}

// AddQuad asserts q. It reports whether the statement was new.
func (g *Graph) AddQuad(q quad.Quad) bool {
	if g.index == nil {
		g.index = make(map[quad.Quad]int)
	}
	if _, ok := g.index[q]; ok {
		return false
	}
	g.index[q] = len(g.quads)
	g.quads = append(g.quads, q)
	return true
}

// AddAll asserts every statement of other.
func (g *Graph) AddAll(other *Graph) {
	if other == nil {
		return
	}
	for _, q := range other.quads {
		g.AddQuad(q)
	}
}

// Remove retracts q if present.
func (g *Graph) Remove(q quad.Quad) {
	i, ok := g.index[q]
	if !ok {
		return
	}
	delete(g.index, q)
	g.quads = append(g.quads[:i], g.quads[i+1:]...)
	for j := i; j < len(g.quads); j++ {
		g.index[g.quads[j]] = j
	}
}

// Len returns the number of statements.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.quads)
}

// Quads returns a copy of the statements in insertion order.
func (g *Graph) Quads() []quad.Quad {
	if g == nil {
		return nil
	}
	out := make([]quad.Quad, len(g.quads))
	copy(out, g.quads)
	return out
}

// Contains reports whether (s, p, o) is asserted.
func (g *Graph) Contains(s, p, o quad.Value) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[quad.Quad{Subject: s, Predicate: p, Object: o}]
	return ok
}

// Filter returns the statements matching the pattern. A nil term matches
// anything.
func (g *Graph) Filter(s, p, o quad.Value) []quad.Quad {
	if g == nil {
		return nil
	}
	var out []quad.Quad
	for _, q := range g.quads {
		if s != nil && q.Subject != s {
			continue
		}
		if p != nil && q.Predicate != p {
			continue
		}
		if o != nil && q.Object != o {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Objects returns the objects of statements with subject s and predicate p.
func (g *Graph) Objects(s, p quad.Value) []quad.Value {
	matches := g.Filter(s, p, nil)
	out := make([]quad.Value, 0, len(matches))
	for _, q := range matches {
		out = append(out, q.Object)
	}
	return out
}

// Object returns the first object of (s, p, ?).
func (g *Graph) Object(s, p quad.Value) (quad.Value, bool) {
	if g == nil {
		return nil, false
	}
	for _, q := range g.quads {
		if q.Subject == s && q.Predicate == p {
			return q.Object, true
		}
	}
	return nil, false
}

// Subjects returns the distinct subjects in order of first appearance.
func (g *Graph) Subjects() []quad.Value {
	if g == nil {
		return nil
	}
	seen := make(map[quad.Value]bool)
	var out []quad.Value
	for _, q := range g.quads {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			out = append(out, q.Subject)
		}
	}
	return out
}

// Predicates returns the distinct predicates used with subject s.
func (g *Graph) Predicates(s quad.Value) []quad.Value {
	seen := make(map[quad.Value]bool)
	var out []quad.Value
	for _, q := range g.Filter(s, nil, nil) {
		if !seen[q.Predicate] {
			seen[q.Predicate] = true
			out = append(out, q.Predicate)
		}
	}
	return out
}

// Types returns the rdf:type objects of s that are IRIs.
func (g *Graph) Types(s quad.Value) []quad.IRI {
	var out []quad.IRI
	for _, o := range g.Objects(s, TypePredicate) {
		if iri, ok := o.(quad.IRI); ok {
			out = append(out, iri)
		}
	}
	return out
}

// TypePredicate is rdf:type.
var TypePredicate = quad.IRI(semmap.RDFType)

// IsNode reports whether v identifies a node rather than a literal.
func IsNode(v quad.Value) bool {
	switch v.(type) {
	case quad.IRI, quad.BNode:
		return true
	}
	return false
}

// Describe returns the statements about s together with, recursively, the
// statements about blank nodes reachable from them.
func (g *Graph) Describe(s quad.Value) *Graph {
	out := New()
	visited := map[quad.Value]bool{s: true}
	queue := []quad.Value{s}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, q := range g.Filter(node, nil, nil) {
			out.AddQuad(q)
			if b, ok := q.Object.(quad.BNode); ok && !visited[b] {
				visited[b] = true
				queue = append(queue, b)
			}
		}
	}
	return out
}

// Roots returns the subjects that are IRIs, in order of first appearance.
func (g *Graph) Roots() []quad.IRI {
	var out []quad.IRI
	for _, s := range g.Subjects() {
		if iri, ok := s.(quad.IRI); ok {
			out = append(out, iri)
		}
	}
	return out
}
