package mapper

import (
	"reflect"

	"github.com/cayleygraph/quad"
)

// Registry binds type IRIs to Go types and Go types to codecs. Both
// directions of the type binding are kept as mutual inverses.
type Registry struct {
	byIRI  map[quad.IRI]reflect.Type
	byType map[reflect.Type]quad.IRI
	order  []quad.IRI
	codecs map[reflect.Type]Codec
}

func newRegistry() *Registry {
	return &Registry{
		byIRI:  make(map[quad.IRI]reflect.Type),
		byType: make(map[reflect.Type]quad.IRI),
		codecs: make(map[reflect.Type]Codec),
	}
}

func (r *Registry) clone() *Registry {
	c := newRegistry()
	for k, v := range r.byIRI {
		c.byIRI[k] = v
	}
	for k, v := range r.byType {
		c.byType[k] = v
	}
	for k, v := range r.codecs {
		c.codecs[k] = v
	}
	c.order = append(c.order, r.order...)
	return c
}

// bind registers t under iri. The registered form of t (pointer or value) is
// what reads instantiate.
func (r *Registry) bind(iri quad.IRI, t reflect.Type) {
	r.byIRI[iri] = t
	r.byType[deref(t)] = iri
	r.order = append(r.order, iri)
}

// TypeIRI returns the IRI registered for t or its pointer/value form.
func (r *Registry) TypeIRI(t reflect.Type) (quad.IRI, bool) {
	iri, ok := r.byType[deref(t)]
	return iri, ok
}

// Type returns the Go type registered for iri.
func (r *Registry) Type(iri quad.IRI) (reflect.Type, bool) {
	t, ok := r.byIRI[iri]
	return t, ok
}

// Codec returns the codec for t, falling back to its pointer/value form.
func (r *Registry) Codec(t reflect.Type) (Codec, bool) {
	if t == nil {
		return nil, false
	}
	if c, ok := r.codecs[t]; ok {
		return c, true
	}
	if t.Kind() == reflect.Pointer {
		c, ok := r.codecs[t.Elem()]
		return c, ok
	}
	c, ok := r.codecs[reflect.PointerTo(t)]
	return c, ok
}

// Len returns the number of bound type IRIs.
func (r *Registry) Len() int { return len(r.byIRI) }

// IRIs returns bound type IRIs in registration order.
func (r *Registry) IRIs() []quad.IRI {
	return append([]quad.IRI(nil), r.order...)
}

// moreSpecific reports whether a is a subtype of b: a embeds b, or b is an
// interface a implements.
func moreSpecific(a, b reflect.Type) bool {
	if a == b {
		return false
	}
	if b.Kind() == reflect.Interface {
		return a.Kind() != reflect.Interface && (a.Implements(b) || reflect.PointerTo(a).Implements(b))
	}
	return embeds(deref(a), deref(b), 0)
}

func embeds(outer, inner reflect.Type, depth int) bool {
	if outer.Kind() != reflect.Struct || depth > 8 {
		return false
	}
	for i := 0; i < outer.NumField(); i++ {
		f := outer.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := deref(f.Type)
		if ft == inner || embeds(ft, inner, depth+1) {
			return true
		}
	}
	return false
}

// assignableForm returns the form of registered type t (as is, or pointer
// to it) that can be stored in declared, if any.
func assignableForm(t, declared reflect.Type) (reflect.Type, bool) {
	if t.AssignableTo(declared) {
		return t, true
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if p := reflect.PointerTo(t); p.AssignableTo(declared) {
			return p, true
		}
	}
	return nil, false
}

// resolve picks the most specific registered type among types that can be
// stored in declared. Ties keep the earlier type.
func (r *Registry) resolve(types []quad.IRI, declared reflect.Type) (reflect.Type, bool) {
	var candidates []reflect.Type
	for _, iri := range types {
		t, ok := r.byIRI[iri]
		if !ok {
			continue
		}
		if form, ok := assignableForm(t, declared); ok {
			candidates = append(candidates, form)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if moreSpecific(c, best) {
			best = c
		}
	}
	return best, true
}
