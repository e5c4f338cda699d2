package mapper

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/graph"
)

// readKey memoizes the instance built for a subject, so that cyclic graphs
// resolve to cyclic pointers instead of recursing.
type readKey struct {
	subject quad.Value
	typ     reflect.Type
}

type reader struct {
	m        *Mapper
	g        *graph.Graph
	warnings []Warning
	memo     map[readKey]reflect.Value
}

// Read builds a value of type t from the statements about subject in g.
// With a nil subject the graph must have exactly one distinct subject; an
// empty graph yields a new zero instance. t may be a struct, a pointer to
// struct, a type with a registered codec, or an interface resolved through
// the node's rdf:type statements.
func (m *Mapper) Read(g *graph.Graph, t reflect.Type, subject quad.Value) (*ReadResult, error) {
	if t == nil {
		err := &MappingError{Op: "read", Err: fmt.Errorf("%w: nil target type", ErrConstruct)}
		m.metrics.observeRead(0, err)
		return nil, err
	}
	if g == nil {
		g = graph.New()
	}
	r := &reader{
		m:    m,
		g:    g,
		memo: make(map[readKey]reflect.Value),
	}

	v, err := r.read(t, subject)
	m.metrics.observeRead(len(r.warnings), err)
	if err != nil {
		return nil, err
	}
	return &ReadResult{Value: v.Interface(), Warnings: r.warnings}, nil
}

// ReadAs is Read with the target type given as a type parameter.
func ReadAs[T any](m *Mapper, g *graph.Graph, subject quad.Value) (T, []Warning, error) {
	var zero T
	res, err := m.Read(g, reflect.TypeOf((*T)(nil)).Elem(), subject)
	if err != nil {
		return zero, nil, err
	}
	v, ok := res.Value.(T)
	if !ok {
		return zero, res.Warnings, nil
	}
	return v, res.Warnings, nil
}

func (r *reader) read(t reflect.Type, subject quad.Value) (reflect.Value, error) {
	if subject == nil {
		subjects := r.g.Subjects()
		switch len(subjects) {
		case 0:
			return newInstance(t)
		case 1:
			subject = subjects[0]
		default:
			return reflect.Value{}, &MappingError{Op: "read", Type: t,
				Err: fmt.Errorf("%w: found %d", ErrAmbiguousSubject, len(subjects))}
		}
	}

	v, err := r.readEntity(subject, t)
	if err != nil {
		return reflect.Value{}, err
	}
	r.m.logger.Debug("Read entity",
		slog.String("type", t.String()),
		slog.String("subject", graph.TermString(subject)))
	return v, nil
}

func newInstance(t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Pointer:
		return reflect.New(t.Elem()), nil
	case reflect.Interface:
		return reflect.Value{}, &MappingError{Op: "read", Type: t,
			Err: fmt.Errorf("%w: interface without a subject", ErrConstruct)}
	}
	return reflect.New(t).Elem(), nil
}

func (r *reader) warn(property, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, Warning{Property: property, Message: msg})
	r.m.logger.Warn("Mapping warning", slog.String("property", property), slog.String("reason", msg))
}

func (r *reader) hasCodec(t reflect.Type) bool {
	_, ok := r.m.registry.Codec(t)
	return ok
}

// readEntity reads the node subject as a value of type t.
func (r *reader) readEntity(subject quad.Value, t reflect.Type) (reflect.Value, error) {
	if c, ok := r.m.registry.Codec(t); ok {
		return r.readWithCodec(c, subject, t)
	}

	switch t.Kind() {
	case reflect.Interface:
		concrete, err := r.concreteType(subject, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return r.readEntity(subject, concrete)
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			return r.readStruct(subject, t.Elem())
		}
	case reflect.Struct:
		ptr, err := r.readStruct(subject, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	}
	return reflect.Value{}, &MappingError{Op: "read", Type: t,
		Err: fmt.Errorf("%w: %s is not an entity type", ErrConstruct, t)}
}

// concreteType picks the type to instantiate for a node whose declared type
// is an interface.
func (r *reader) concreteType(subject quad.Value, declared reflect.Type) (reflect.Type, error) {
	types := r.g.Types(subject)
	t, ok := r.m.registry.resolve(types, declared)
	if !ok {
		return nil, &MappingError{Op: "read", Type: declared,
			Err: fmt.Errorf("%w: no registered type among %v for %v", ErrConstruct, types, subject)}
	}
	if t.Kind() == reflect.Interface {
		return nil, &MappingError{Op: "read", Type: declared,
			Err: fmt.Errorf("%w: %s is abstract", ErrConstruct, t)}
	}
	return t, nil
}

func (r *reader) readWithCodec(c Codec, subject quad.Value, t reflect.Type) (reflect.Value, error) {
	val, err := c.Decode(r.g, subject)
	if err != nil {
		return reflect.Value{}, &MappingError{Op: "read", Type: t, Err: err}
	}
	rv := reflect.ValueOf(val)
	switch {
	case !rv.IsValid():
		return reflect.Zero(t), nil
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p, nil
	case rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(t) && !rv.IsNil():
		return rv.Elem(), nil
	}
	return reflect.Value{}, &MappingError{Op: "read", Type: t,
		Err: fmt.Errorf("codec returned %s", rv.Type())}
}

// readStruct returns a pointer to a new t populated from subject.
func (r *reader) readStruct(subject quad.Value, t reflect.Type) (reflect.Value, error) {
	key := readKey{subject: subject, typ: t}
	if ptr, ok := r.memo[key]; ok {
		return ptr, nil
	}

	info, err := r.m.introspector.Describe(t)
	if err != nil {
		return reflect.Value{}, &MappingError{Op: "read", Type: t, Err: fmt.Errorf("%w: %v", ErrConstruct, err)}
	}

	ptr := reflect.New(t)
	r.memo[key] = ptr
	if id, ok := identifiable(ptr); ok {
		id.SetID(subject)
	}

	for i := range info.Properties {
		p := &info.Properties[i]
		predicate, err := r.m.predicate(p)
		if err != nil {
			if r.m.options.IgnoreInvalidAnnotations {
				r.warn(p.Name, "skipping property with invalid predicate: %v", err)
				continue
			}
			return reflect.Value{}, wrapProperty("read", t, p, err)
		}

		objects := r.g.Objects(subject, predicate)
		if len(objects) == 0 {
			continue
		}

		v, ok, err := r.property(p, objects)
		if err != nil {
			return reflect.Value{}, wrapProperty("read", t, p, err)
		}
		if !ok {
			continue
		}
		if err := p.Set(ptr.Elem(), v); err != nil {
			return reflect.Value{}, wrapProperty("read", t, p, err)
		}
	}
	return ptr, nil
}

// property decodes the objects asserted for p.
func (r *reader) property(p *Property, objects []quad.Value) (reflect.Value, bool, error) {
	t := p.Type
	if !r.hasCodec(t) {
		switch {
		case isCollectionType(t):
			return r.collection(p, t, objects)
		case t.Kind() == reflect.Map:
			container, err := r.single(p, objects)
			if err != nil {
				return reflect.Value{}, false, err
			}
			return r.mapNode(p, container, t)
		}
	}

	obj, err := r.single(p, objects)
	if err != nil {
		return reflect.Value{}, false, err
	}
	return r.value(obj, t, p)
}

// single applies the cardinality policy to a single-valued property.
func (r *reader) single(p *Property, objects []quad.Value) (quad.Value, error) {
	if len(objects) == 1 {
		return objects[0], nil
	}
	if !r.m.options.IgnoreCardinalityViolations {
		return nil, fmt.Errorf("%w: %d values for a single-valued property", ErrCardinality, len(objects))
	}
	r.warn(p.Name, "%d values for a single-valued property, using the first", len(objects))
	return objects[0], nil
}

// value decodes one graph term into a value of type t. ok is false when
// the term decodes to absent.
func (r *reader) value(obj quad.Value, t reflect.Type, p *Property) (reflect.Value, bool, error) {
	switch {
	case t == valueType:
		return reflect.ValueOf(obj), true, nil
	case t == iriType, t == bnodeType:
		if reflect.TypeOf(obj) != t {
			return reflect.Value{}, false, fmt.Errorf("%w: expected %s, got %v", ErrMapping, t, obj)
		}
		return reflect.ValueOf(obj), true, nil
	case r.hasCodec(t):
		if !graph.IsNode(obj) {
			return reflect.Value{}, false, fmt.Errorf("%w: expected a node for %s, got %v", ErrMapping, t, obj)
		}
		v, err := r.readEntity(obj, t)
		return v, err == nil, err
	case t.Kind() == reflect.Pointer && !isEntityPointer(t):
		inner, ok, err := r.value(obj, t.Elem(), p)
		if err != nil || !ok {
			return reflect.Value{}, ok, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, true, nil
	case isEnumType(t):
		return r.enum(obj, t, p)
	case isScalarType(t):
		return r.scalar(obj, t, p)
	case t.Kind() == reflect.Map:
		return r.mapNode(p, obj, t)
	case isCollectionType(t):
		return r.list(obj, t, p)
	case t.Kind() == reflect.Interface:
		return r.dynamic(obj, t, p)
	case deref(t).Kind() == reflect.Struct:
		if !graph.IsNode(obj) {
			return reflect.Value{}, false, fmt.Errorf("%w: expected a node for %s, got %v", ErrMapping, t, obj)
		}
		v, err := r.readEntity(obj, t)
		return v, err == nil, err
	}
	return reflect.Value{}, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func isEntityPointer(t reflect.Type) bool {
	elem := t.Elem()
	return elem.Kind() == reflect.Struct && !isScalarType(elem)
}

func (r *reader) enum(obj quad.Value, t reflect.Type, p *Property) (reflect.Value, bool, error) {
	iri, ok := obj.(quad.IRI)
	if !ok {
		return reflect.Value{}, false, fmt.Errorf("%w: expected an IRI for %s, got %v", ErrMapping, t, obj)
	}
	v, found, err := r.m.decodeEnum(iri, t)
	if err != nil {
		return reflect.Value{}, false, err
	}
	if !found {
		r.warn(propertyName(p), "no %s constant for %s", t, iri)
		return reflect.Value{}, false, nil
	}
	return v, true, nil
}

func (r *reader) scalar(obj quad.Value, t reflect.Type, p *Property) (reflect.Value, bool, error) {
	if graph.IsNode(obj) {
		return reflect.Value{}, false, fmt.Errorf("%w: expected a literal for %s, got %v", ErrMapping, t, obj)
	}
	v, err := DecodeScalar(obj, t)
	if err != nil {
		var skip errSkip
		if errors.As(err, &skip) {
			r.warn(propertyName(p), "%s", skip.reason)
			return reflect.Value{}, false, nil
		}
		return reflect.Value{}, false, err
	}
	return v, true, nil
}

// dynamic decodes a term into an interface-typed target: literals become
// their native value, lists []any, map containers map[any]any and other
// nodes the registered type for their rdf:type.
func (r *reader) dynamic(obj quad.Value, t reflect.Type, p *Property) (reflect.Value, bool, error) {
	if !graph.IsNode(obj) {
		v, err := DecodeScalar(obj, nil)
		if err != nil {
			var skip errSkip
			if errors.As(err, &skip) {
				r.warn(propertyName(p), "%s", skip.reason)
				return reflect.Value{}, false, nil
			}
			return reflect.Value{}, false, err
		}
		if !v.Type().AssignableTo(t) {
			return reflect.Value{}, false, fmt.Errorf("%w: %s does not implement %s", ErrMapping, v.Type(), t)
		}
		return v, true, nil
	}

	if len(r.g.Types(obj)) == 0 {
		if _, isBlank := obj.(quad.BNode); (isBlank || obj == graph.Nil) && r.g.IsList(obj) && anySliceType.AssignableTo(t) {
			return r.list(obj, anySliceType, p)
		}
		if len(r.g.Objects(obj, hasEntryPredicate)) > 0 && anyMapType.AssignableTo(t) {
			return r.mapNode(p, obj, t)
		}
	}

	v, err := r.readEntity(obj, t)
	return v, err == nil, err
}

// collection decodes a collection property from all of its objects. Lists
// are spliced in, so list and multi-valued encodings can be mixed.
func (r *reader) collection(p *Property, t reflect.Type, objects []quad.Value) (reflect.Value, bool, error) {
	coll, err := r.m.collections.NewCollection(t)
	if err != nil {
		return reflect.Value{}, false, err
	}
	elem := coll.Value().Type().Elem()
	splice := p.List || r.m.options.SerializeCollectionsAsLists || !isCollectionType(elem)

	var values []quad.Value
	for _, o := range objects {
		if splice && graph.IsNode(o) && r.g.IsList(o) {
			items, err := r.g.List(o)
			if err != nil {
				return reflect.Value{}, false, fmt.Errorf("%w: %v", ErrMapping, err)
			}
			values = append(values, items...)
			continue
		}
		values = append(values, o)
	}

	if err := r.fill(coll, elem, values, p); err != nil {
		return reflect.Value{}, false, err
	}
	return coll.Value(), true, nil
}

// list decodes a single list node into a collection of type t.
func (r *reader) list(obj quad.Value, t reflect.Type, p *Property) (reflect.Value, bool, error) {
	if !graph.IsNode(obj) || !r.g.IsList(obj) {
		return reflect.Value{}, false, fmt.Errorf("%w: expected a list for %s, got %v", ErrMapping, t, obj)
	}
	items, err := r.g.List(obj)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("%w: %v", ErrMapping, err)
	}
	coll, err := r.m.collections.NewCollection(t)
	if err != nil {
		return reflect.Value{}, false, err
	}
	if err := r.fill(coll, coll.Value().Type().Elem(), items, p); err != nil {
		return reflect.Value{}, false, err
	}
	return coll.Value(), true, nil
}

func (r *reader) fill(coll Collection, elem reflect.Type, values []quad.Value, p *Property) error {
	for i, o := range values {
		v, ok, err := r.value(o, elem, p)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if err := coll.Add(v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// mapNode decodes a map container. Entries whose key or value cannot be
// decoded are skipped with a warning; unsupported datatypes still fail.
func (r *reader) mapNode(p *Property, container quad.Value, t reflect.Type) (reflect.Value, bool, error) {
	if !graph.IsNode(container) {
		return reflect.Value{}, false, fmt.Errorf("%w: expected a map node for %s, got %v", ErrMapping, t, container)
	}
	mv, err := r.m.maps.NewMap(t)
	if err != nil {
		return reflect.Value{}, false, err
	}
	if mv.Type() != t && t != anyType {
		r.warn(propertyName(p), "cannot build %s, using %s", t, mv.Type())
	}
	keyType, valType := mv.Type().Key(), mv.Type().Elem()

	for _, entry := range r.g.Objects(container, hasEntryPredicate) {
		keyObj, ok := r.g.Object(entry, keyPredicate)
		if !ok {
			r.warn(propertyName(p), "map entry %v has no key", entry)
			continue
		}
		k, ok, err := r.value(keyObj, keyType, nil)
		if err != nil || !ok {
			if errors.Is(err, ErrUnsupportedDatatype) {
				return reflect.Value{}, false, err
			}
			r.warn(propertyName(p), "skipping map entry with key %v: %v", keyObj, err)
			continue
		}

		val := reflect.Zero(valType)
		if valObj, ok := r.g.Object(entry, valuePredicate); ok {
			v, ok, err := r.value(valObj, valType, nil)
			if err != nil || !ok {
				if errors.Is(err, ErrUnsupportedDatatype) {
					return reflect.Value{}, false, err
				}
				r.warn(propertyName(p), "skipping map entry with value %v: %v", valObj, err)
				continue
			}
			val = v
		}

		k, err = assignTo(k, keyType)
		if err != nil {
			r.warn(propertyName(p), "skipping map entry: %v", err)
			continue
		}
		val, err = assignTo(val, valType)
		if err != nil {
			r.warn(propertyName(p), "skipping map entry: %v", err)
			continue
		}
		mv.SetMapIndex(k, val)
	}
	return mv, true, nil
}

func assignTo(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && v.Kind() == t.Kind() {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
}
