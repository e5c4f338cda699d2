package mapper

import (
	"fmt"
	"reflect"
)

// Collection accumulates decoded elements on read.
type Collection interface {
	Add(v reflect.Value) error
	Value() reflect.Value
}

// CollectionFactory creates the collection for a declared collection type.
type CollectionFactory interface {
	NewCollection(t reflect.Type) (Collection, error)
}

// MapFactory creates the map for a declared map type. The returned map may
// be of a different type than declared when declared cannot be built.
type MapFactory interface {
	NewMap(t reflect.Type) (reflect.Value, error)
}

// DefaultCollectionFactory builds slices and fixed-size arrays. Any other
// declared type falls back to []any.
type DefaultCollectionFactory struct{}

// NewCollection implements CollectionFactory.
func (DefaultCollectionFactory) NewCollection(t reflect.Type) (Collection, error) {
	switch t.Kind() {
	case reflect.Slice:
		return &sliceCollection{v: reflect.MakeSlice(t, 0, 0)}, nil
	case reflect.Array:
		return &arrayCollection{v: reflect.New(t).Elem()}, nil
	case reflect.Interface:
		if anySliceType.AssignableTo(t) {
			return &sliceCollection{v: reflect.MakeSlice(anySliceType, 0, 0)}, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot build a collection of type %s", ErrConstruct, t)
}

type sliceCollection struct {
	v reflect.Value
}

func (c *sliceCollection) Add(v reflect.Value) error {
	elem := c.v.Type().Elem()
	if !v.Type().AssignableTo(elem) {
		if !v.Type().ConvertibleTo(elem) {
			return fmt.Errorf("cannot add %s to %s", v.Type(), c.v.Type())
		}
		v = v.Convert(elem)
	}
	c.v = reflect.Append(c.v, v)
	return nil
}

func (c *sliceCollection) Value() reflect.Value { return c.v }

type arrayCollection struct {
	v reflect.Value
	n int
}

func (c *arrayCollection) Add(v reflect.Value) error {
	if c.n >= c.v.Len() {
		return fmt.Errorf("%w: more than %d elements for %s", ErrCardinality, c.v.Len(), c.v.Type())
	}
	elem := c.v.Type().Elem()
	if !v.Type().AssignableTo(elem) {
		if !v.Type().ConvertibleTo(elem) {
			return fmt.Errorf("cannot add %s to %s", v.Type(), c.v.Type())
		}
		v = v.Convert(elem)
	}
	c.v.Index(c.n).Set(v)
	c.n++
	return nil
}

func (c *arrayCollection) Value() reflect.Value { return c.v }

// DefaultMapFactory builds maps of the declared type, or map[any]any when the
// declared type is an interface.
type DefaultMapFactory struct{}

// NewMap implements MapFactory.
func (DefaultMapFactory) NewMap(t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Map:
		return reflect.MakeMap(t), nil
	case reflect.Interface:
		if anyMapType.AssignableTo(t) {
			return reflect.MakeMap(anyMapType), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot build a map of type %s", ErrConstruct, t)
}

func isCollectionType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return !isBytesType(t)
	case reflect.Array:
		return true
	}
	return false
}
