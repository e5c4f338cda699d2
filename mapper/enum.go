package mapper

import (
	"fmt"
	"reflect"

	"github.com/cayleygraph/quad"
)

// enumIRI returns the identifier of the enum constant v. An empty IRI with
// a nil error means v is not a declared constant and is zero, so it is
// absent.
func (m *Mapper) enumIRI(v reflect.Value) (quad.IRI, error) {
	val := v.Interface()
	for _, ev := range enumValues(v.Type()) {
		if !sameEnumValue(ev.Value, val) {
			continue
		}
		if ev.IRI != "" {
			return m.namespaces.Expand(ev.IRI)
		}
		return quad.IRI(m.namespaces.Default() + ev.Name), nil
	}
	if v.IsZero() {
		return "", nil
	}
	return "", fmt.Errorf("%w: %v is not a declared %s constant", ErrMapping, val, v.Type())
}

func sameEnumValue(declared, v any) bool {
	if declared == nil {
		return false
	}
	dv := reflect.ValueOf(declared)
	vv := reflect.ValueOf(v)
	if dv.Type() != vv.Type() {
		if !dv.Type().ConvertibleTo(vv.Type()) {
			return false
		}
		dv = dv.Convert(vv.Type())
	}
	return dv.Equal(vv)
}

// decodeEnum resolves iri to a constant of enum type t. It matches the
// constant name against the IRI's local name, then the constants' IRI
// overrides. ok is false when nothing matches.
func (m *Mapper) decodeEnum(iri quad.IRI, t reflect.Type) (reflect.Value, bool, error) {
	values := enumValues(t)
	local := localName(string(iri))
	for _, ev := range values {
		if ev.Name == local {
			v, err := enumConstant(ev, t)
			return v, err == nil, err
		}
	}
	for _, ev := range values {
		if ev.IRI == "" {
			continue
		}
		override, err := m.namespaces.Expand(ev.IRI)
		if err != nil || override != iri {
			continue
		}
		v, err := enumConstant(ev, t)
		if err != nil {
			return reflect.Value{}, false, fmt.Errorf("%w: %s resolves to %s but the constant does not match: %v",
				ErrMapping, iri, ev.Name, err)
		}
		return v, true, nil
	}
	return reflect.Value{}, false, nil
}

func enumConstant(ev EnumValue, t reflect.Type) (reflect.Value, error) {
	if ev.Value == nil {
		return reflect.Value{}, fmt.Errorf("%w: constant %s has no value", ErrMapping, ev.Name)
	}
	v := reflect.ValueOf(ev.Value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && v.Kind() == t.Kind() {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: constant %s is %s, not %s", ErrMapping, ev.Name, v.Type(), t)
}
