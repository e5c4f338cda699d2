package mapper

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/zeebo/blake3"

	"github.com/c360studio/semmap/graph"
)

// Identify returns the identifier of v without writing it. It applies, in
// order: the entity's own identity slot, a registered identity function,
// the hash of its identity-contributing properties, and the hash of its
// string form.
func (m *Mapper) Identify(v any) (quad.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, &MappingError{Op: "identify", Err: fmt.Errorf("%w: nil entity", ErrUnidentifiable)}
	}
	return m.identify(rv)
}

func (m *Mapper) identify(rv reflect.Value) (quad.Value, error) {
	return m.identifyWith(rv, m.options.RequireIDs)
}

// identifyWith is identify with the RequireIDs switch given explicitly.
func (m *Mapper) identifyWith(rv reflect.Value, requireIDs bool) (quad.Value, error) {
	if id := existingID(rv); id != nil {
		return id, nil
	}

	if fn, arg := m.idFuncFor(rv); fn != nil {
		s, err := fn(arg)
		if err != nil {
			return nil, &MappingError{Op: "identify", Type: rv.Type(), Err: err}
		}
		if s != "" {
			iri, err := m.namespaces.Expand(s)
			if err != nil {
				return nil, &MappingError{Op: "identify", Type: rv.Type(), Err: err}
			}
			return iri, nil
		}
	}

	base := rv
	for base.Kind() == reflect.Pointer && !base.IsNil() {
		base = base.Elem()
	}

	if base.Kind() == reflect.Struct {
		key, ok, err := m.identityKey(base)
		if err != nil {
			return nil, err
		}
		if ok {
			return m.hashIRI(key), nil
		}
	}

	if requireIDs {
		return nil, &MappingError{Op: "identify", Type: rv.Type(), Err: ErrUnidentifiable}
	}
	if base.Kind() == reflect.Pointer {
		return nil, &MappingError{Op: "identify", Type: rv.Type(), Err: fmt.Errorf("%w: nil entity", ErrUnidentifiable)}
	}
	return m.hashIRI(fmt.Sprint(base.Interface())), nil
}

// existingID returns the identifier already stored in rv's identity slot.
func existingID(rv reflect.Value) quad.Value {
	if id, ok := identifiable(rv); ok && id.ID() != nil {
		return id.ID()
	}
	return nil
}

// identifiable returns rv as an Identifiable when rv, or its address, has
// the identity slot.
func identifiable(rv reflect.Value) (Identifiable, bool) {
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, false
	}
	if id, ok := rv.Interface().(Identifiable); ok {
		return id, true
	}
	if rv.CanAddr() {
		if id, ok := rv.Addr().Interface().(Identifiable); ok {
			return id, true
		}
	}
	return nil, false
}

// idFuncFor returns the function registered for the type of rv exactly,
// else the first registered interface it implements, together with the
// argument to call it with.
func (m *Mapper) idFuncFor(rv reflect.Value) (IDFunc, any) {
	t := rv.Type()
	isPtr := t.Kind() == reflect.Pointer && !rv.IsNil()
	for _, e := range m.idFuncs {
		switch {
		case e.t.Kind() == reflect.Interface:
		case e.t == t:
			return e.fn, rv.Interface()
		case isPtr && e.t == t.Elem():
			return e.fn, rv.Elem().Interface()
		}
	}
	for _, e := range m.idFuncs {
		if e.t.Kind() != reflect.Interface {
			continue
		}
		if t.Implements(e.t) {
			return e.fn, rv.Interface()
		}
		if isPtr && t.Elem().Implements(e.t) {
			return e.fn, rv.Elem().Interface()
		}
	}
	return nil, nil
}

// identityKey concatenates the string forms of the identity-contributing
// properties of the struct v, sorted by property name. Absent values are
// skipped.
func (m *Mapper) identityKey(v reflect.Value) (string, bool, error) {
	info, err := m.introspector.Describe(v.Type())
	if err != nil {
		return "", false, &MappingError{Op: "identify", Type: v.Type(), Err: err}
	}

	var props []*Property
	for i := range info.Properties {
		if info.Properties[i].ID {
			props = append(props, &info.Properties[i])
		}
	}
	sort.SliceStable(props, func(i, j int) bool { return props[i].Name < props[j].Name })

	var sb strings.Builder
	contributed := false
	for _, p := range props {
		fv := p.Get(v)
		if isAbsent(fv) {
			continue
		}
		sb.WriteString(m.stringForm(fv))
		contributed = true
	}
	return sb.String(), contributed, nil
}

// stringForm renders a property value for identity hashing.
func (m *Mapper) stringForm(v reflect.Value) string {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem() == urlType {
			break
		}
		v = v.Elem()
	}
	if isEnumType(v.Type()) {
		if iri, err := m.enumIRI(v); err == nil && iri != "" {
			return string(iri)
		}
	}
	if isScalarType(v.Type()) {
		if lexical, _, err := scalarLexical(v); err == nil {
			return lexical
		}
	}
	if id := existingID(v); id != nil {
		return graph.TermString(id)
	}
	return fmt.Sprint(v.Interface())
}

func (m *Mapper) hashIRI(key string) quad.IRI {
	var sum string
	switch m.hash {
	case HashBLAKE3:
		h := blake3.Sum256([]byte(key))
		sum = hex.EncodeToString(h[:])
	default:
		h := md5.Sum([]byte(key))
		sum = hex.EncodeToString(h[:])
	}
	return quad.IRI(m.namespaces.Default() + sum)
}

// isAbsent reports whether v is treated as a missing value: nil, the zero
// value, or an empty collection.
func isAbsent(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}
