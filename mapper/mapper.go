// Package mapper converts Go entities to RDF graphs and back.
//
// A Mapper is assembled once with a Builder (or New with options) and is then
// immutable and safe for concurrent use. Write derives an identifier for an
// entity and projects each property into statements; Read resolves the
// subject of a graph, instantiates the target type and fills its properties
// from the matching statements.
package mapper

import (
	"log/slog"
	"reflect"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/graph"
)

// Mapper maps entities to graphs and graphs to entities.
type Mapper struct {
	namespaces   Namespaces
	registry     *Registry
	idFuncs      []idFuncEntry
	collections  CollectionFactory
	maps         MapFactory
	introspector Introspector
	options      Options
	logger       *slog.Logger
	metrics      *Metrics
	hash         HashAlgorithm
}

// Result is the outcome of a successful Write.
type Result struct {
	Subject  quad.Value
	Graph    *graph.Graph
	Warnings []Warning
}

// ReadResult is the outcome of a successful Read.
type ReadResult struct {
	Value    any
	Warnings []Warning
}

// Options returns the strictness options.
func (m *Mapper) Options() Options { return m.options }

// Namespaces returns a copy of the prefix table.
func (m *Mapper) Namespaces() Namespaces {
	out := make(Namespaces, len(m.namespaces))
	for p, uri := range m.namespaces {
		out[p] = uri
	}
	return out
}

// Registry returns the type registry.
func (m *Mapper) Registry() *Registry { return m.registry }

// TypeIRI returns the type IRI written for t: the registry binding first,
// then the class declared on the type.
func (m *Mapper) TypeIRI(t reflect.Type) (quad.IRI, bool, error) {
	if iri, ok := m.registry.TypeIRI(t); ok {
		return iri, true, nil
	}
	if deref(t).Kind() != reflect.Struct {
		return "", false, nil
	}
	info, err := m.introspector.Describe(t)
	if err != nil || info.Class == "" {
		return "", false, err
	}
	iri, err := m.namespaces.Expand(info.Class)
	if err != nil {
		return "", false, err
	}
	return iri, true, nil
}

// predicate resolves the predicate of p.
func (m *Mapper) predicate(p *Property) (quad.IRI, error) {
	if p.Predicate == "" {
		return quad.IRI(m.namespaces.Default() + p.Name), nil
	}
	return m.namespaces.Expand(p.Predicate)
}
