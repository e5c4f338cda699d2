package mapper

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

var (
	keyPredicate      = quad.IRI(semmap.KeyIRI)
	valuePredicate    = quad.IRI(semmap.ValueIRI)
	hasEntryPredicate = quad.IRI(semmap.HasEntryIRI)
)

// writeKey identifies an entity instance being written, so that reference
// cycles emit an edge to the subject instead of recursing.
type writeKey struct {
	ptr uintptr
	typ reflect.Type
}

type writer struct {
	m          *Mapper
	g          *graph.Graph
	warnings   []Warning
	inProgress map[writeKey]quad.Value
}

// Write converts v, a struct, pointer to struct or value with a registered
// codec, into a graph rooted at the returned subject. On failure no partial
// result is returned.
func (m *Mapper) Write(v any) (*Result, error) {
	w := &writer{
		m:          m,
		g:          graph.New(),
		inProgress: make(map[writeKey]quad.Value),
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		m.metrics.observeWrite(0, 0, errNilEntity)
		return nil, &MappingError{Op: "write", Err: errNilEntity}
	}

	subject, err := w.writeEntity(rv, false)
	m.metrics.observeWrite(w.g.Len(), len(w.warnings), err)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Wrote entity",
		slog.String("type", rv.Type().String()),
		slog.String("subject", graph.TermString(subject)),
		slog.Int("statements", w.g.Len()))

	return &Result{Subject: subject, Graph: w.g, Warnings: w.warnings}, nil
}

var errNilEntity = fmt.Errorf("%w: nil entity", ErrMapping)

func (w *writer) warn(property, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.warnings = append(w.warnings, Warning{Property: property, Message: msg})
	w.m.logger.Warn("Mapping warning", slog.String("property", property), slog.String("reason", msg))
}

// writeEntity writes an entity and returns its subject. nested is set for
// values reached through a property.
func (w *writer) writeEntity(rv reflect.Value, nested bool) (quad.Value, error) {
	if c, ok := w.m.registry.Codec(rv.Type()); ok {
		return w.writeWithCodec(c, rv, nested)
	}

	var key writeKey
	if rv.Kind() == reflect.Pointer {
		key = writeKey{ptr: rv.Pointer(), typ: rv.Type()}
		if subject, ok := w.inProgress[key]; ok {
			return subject, nil
		}
		rv = rv.Elem()
		if c, ok := w.m.registry.Codec(rv.Type()); ok {
			return w.writeWithCodec(c, rv, nested)
		}
	}

	t := rv.Type()
	if t.Kind() != reflect.Struct {
		return nil, &MappingError{Op: "write", Type: t, Err: fmt.Errorf("%w: not an entity", ErrUnsupportedType)}
	}
	if !rv.CanAddr() {
		c := reflect.New(t).Elem()
		c.Set(rv)
		rv = c
	}

	subject, err := w.m.identify(rv.Addr())
	if err != nil {
		return nil, err
	}
	if id, ok := identifiable(rv); ok && id.ID() == nil {
		id.SetID(subject)
	}
	if key.ptr != 0 {
		w.inProgress[key] = subject
	}

	typeIRI, ok, err := w.m.TypeIRI(t)
	if err != nil {
		if !w.m.options.IgnoreInvalidAnnotations {
			return nil, &MappingError{Op: "write", Type: t, Err: err}
		}
		w.warn("", "type %s: %v", t, err)
	} else if ok {
		w.g.Add(subject, graph.TypePredicate, typeIRI)
	}

	info, err := w.m.introspector.Describe(t)
	if err != nil {
		return nil, &MappingError{Op: "write", Type: t, Err: err}
	}
	for i := range info.Properties {
		p := &info.Properties[i]
		if err := w.writeProperty(subject, p, p.Get(rv)); err != nil {
			return nil, wrapProperty("write", t, p, err)
		}
	}
	return subject, nil
}

func wrapProperty(op string, t reflect.Type, p *Property, err error) error {
	if me, ok := err.(*MappingError); ok && me.Property != "" {
		return err
	}
	return &MappingError{Op: op, Type: t, Property: p.Name, Err: err}
}

// writeWithCodec asserts a codec's output. A literal is wrapped in a node
// about the value. RequireIDs does not apply to that node when the value
// sits under a property.
func (w *writer) writeWithCodec(c Codec, rv reflect.Value, nested bool) (quad.Value, error) {
	enc, err := c.Encode(rv.Interface())
	if err != nil {
		return nil, &MappingError{Op: "write", Type: rv.Type(), Err: err}
	}

	if enc.Graph != nil {
		if enc.Subject == nil {
			return nil, &MappingError{Op: "write", Type: rv.Type(), Err: fmt.Errorf("%w: codec returned a graph without a subject", ErrMapping)}
		}
		w.g.AddAll(enc.Graph)
		return enc.Subject, nil
	}

	subject, err := w.m.identifyWith(rv, w.m.options.RequireIDs && !nested)
	if err != nil {
		return nil, err
	}
	if enc.Literal != nil {
		w.g.Add(subject, valuePredicate, enc.Literal)
	}
	if typeIRI, ok := w.m.registry.TypeIRI(rv.Type()); ok {
		w.g.Add(subject, graph.TypePredicate, typeIRI)
	}
	return subject, nil
}

// writeProperty asserts the statements for one property value.
func (w *writer) writeProperty(subject quad.Value, p *Property, v reflect.Value) error {
	if isAbsent(v) && !isDeclaredEnum(v) {
		return nil
	}

	predicate, err := w.m.predicate(p)
	if err != nil {
		if w.m.options.IgnoreInvalidAnnotations {
			w.warn(p.Name, "skipping property with invalid predicate: %v", err)
			return nil
		}
		return err
	}

	v, ok := w.indirect(v)
	if !ok {
		return nil
	}

	switch {
	case isCollectionType(v.Type()) && !w.hasCodec(v.Type()):
		return w.writeCollection(subject, predicate, p, v)
	case isScalarType(v.Type()) && !isEnumType(v.Type()) && !w.hasCodec(v.Type()):
		lit, ok, err := w.scalar(p, v)
		if err != nil || !ok {
			return err
		}
		w.g.Add(subject, predicate, lit)
		return nil
	}

	term, ok, err := w.term(v, p)
	if err != nil || !ok {
		return err
	}
	w.g.Add(subject, predicate, term)
	return nil
}

func (w *writer) hasCodec(t reflect.Type) bool {
	_, ok := w.m.registry.Codec(t)
	return ok
}

// scalar encodes v honouring the property's datatype and language.
func (w *writer) scalar(p *Property, v reflect.Value) (quad.Value, bool, error) {
	var datatype quad.IRI
	if p != nil && p.Datatype != "" {
		dt, err := w.m.namespaces.Expand(p.Datatype)
		if err != nil {
			if w.m.options.IgnoreInvalidAnnotations {
				w.warn(p.Name, "skipping property with invalid datatype: %v", err)
				return nil, false, nil
			}
			return nil, false, err
		}
		datatype = dt
	}
	lang := ""
	if p != nil {
		lang = p.Language
	}
	lit, err := EncodeScalar(v, datatype, lang)
	if err != nil {
		return nil, false, err
	}
	return lit, true, nil
}

// term encodes any supported value as a single graph term, writing nested
// entities, maps and collections as needed. ok is false when the value is
// absent.
func (w *writer) term(v reflect.Value, p *Property) (quad.Value, bool, error) {
	v, ok := w.indirect(v)
	if !ok {
		return nil, false, nil
	}

	t := v.Type()
	if qv, ok := v.Interface().(quad.Value); ok {
		return qv, true, nil
	}

	switch {
	case w.hasCodec(t):
		subject, err := w.writeEntity(v, true)
		return subject, err == nil, err
	case isEnumType(t):
		iri, err := w.m.enumIRI(v)
		if err != nil {
			if !w.m.options.IgnoreInvalidAnnotations || !isInvalidIRI(err) {
				return nil, false, err
			}
			w.warn(propertyName(p), "skipping enum with invalid IRI: %v", err)
			return nil, false, nil
		}
		return iri, iri != "", nil
	case isScalarType(t):
		return w.scalar(p, v)
	case t.Kind() == reflect.Map:
		return w.writeMap(v)
	case isCollectionType(t):
		terms, err := w.terms(v)
		if err != nil {
			return nil, false, err
		}
		return w.g.AddList(terms), true, nil
	case deref(t).Kind() == reflect.Struct:
		subject, err := w.writeEntity(v, true)
		return subject, err == nil, err
	}
	return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func isInvalidIRI(err error) bool {
	return errors.Is(err, ErrInvalidIRI)
}

// indirect follows interfaces and pointers down to the value that is
// encoded. Pointers to entities and *url.URL are kept. ok is false for nil.
func (w *writer) indirect(v reflect.Value) (reflect.Value, bool) {
	for {
		if !v.IsValid() {
			return v, false
		}
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return v, false
			}
			v = v.Elem()
			continue
		case reflect.Pointer:
			if v.IsNil() {
				return v, false
			}
			elem := v.Type().Elem()
			if elem == urlType || w.hasCodec(v.Type()) ||
				(elem.Kind() == reflect.Struct && !isScalarType(elem)) {
				return v, true
			}
			v = v.Elem()
			continue
		}
		return v, true
	}
}

func propertyName(p *Property) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func isDeclaredEnum(v reflect.Value) bool {
	if !v.IsValid() || !isEnumType(v.Type()) {
		return false
	}
	for _, ev := range enumValues(v.Type()) {
		if sameEnumValue(ev.Value, v.Interface()) {
			return true
		}
	}
	return false
}

// terms encodes the elements of a collection in iteration order. Absent
// elements are dropped.
func (w *writer) terms(v reflect.Value) ([]quad.Value, error) {
	out := make([]quad.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		term, ok, err := w.term(v.Index(i), nil)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if ok {
			out = append(out, term)
		}
	}
	return out, nil
}

func (w *writer) writeCollection(subject quad.Value, predicate quad.IRI, p *Property, v reflect.Value) error {
	var terms []quad.Value
	for i := 0; i < v.Len(); i++ {
		elem, present := w.indirect(v.Index(i))
		if !present {
			continue
		}
		var (
			term quad.Value
			ok   bool
			err  error
		)
		if isScalarType(elem.Type()) && !isEnumType(elem.Type()) && !w.hasCodec(elem.Type()) {
			term, ok, err = w.scalar(p, elem)
		} else {
			term, ok, err = w.term(elem, nil)
		}
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if ok {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	if p.List || w.m.options.SerializeCollectionsAsLists {
		w.g.Add(subject, predicate, w.g.AddList(terms))
		return nil
	}
	for _, term := range terms {
		w.g.Add(subject, predicate, term)
	}
	return nil
}

type mapEntry struct {
	key   quad.Value
	value quad.Value
}

// writeMap writes a container node with one entry node per pair. Entries
// are emitted in key order so the output is stable.
func (w *writer) writeMap(v reflect.Value) (quad.Value, bool, error) {
	if v.Len() == 0 {
		return nil, false, nil
	}

	entries := make([]mapEntry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, ok, err := w.term(iter.Key(), nil)
		if err != nil {
			return nil, false, fmt.Errorf("map key %v: %w", iter.Key(), err)
		}
		if !ok {
			continue
		}
		val, _, err := w.term(iter.Value(), nil)
		if err != nil {
			return nil, false, fmt.Errorf("map value for %v: %w", iter.Key(), err)
		}
		entries = append(entries, mapEntry{key: k, value: val})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.String() < entries[j].key.String()
	})

	container := graph.NewBlankNode()
	for _, e := range entries {
		entry := graph.NewBlankNode()
		w.g.Add(container, hasEntryPredicate, entry)
		w.g.Add(entry, keyPredicate, e.key)
		if e.value != nil {
			w.g.Add(entry, valuePredicate, e.value)
		}
	}
	return container, true, nil
}
