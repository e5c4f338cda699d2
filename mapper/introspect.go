package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cayleygraph/quad"
)

// TagName is the struct tag read by TagIntrospector.
const TagName = "rdf"

// Property describes one mapped property of an entity type.
type Property struct {
	// Name is the property name. Default predicates append it to the
	// default namespace.
	Name string
	// Predicate is the configured predicate, compact or absolute. Empty
	// means the default predicate.
	Predicate string
	// Datatype overrides the literal datatype on write.
	Datatype string
	// Language tags string literals.
	Language string
	// List forces RDF list encoding for a collection.
	List bool
	// ID marks the property as identity-contributing.
	ID bool
	// Type is the declared Go type.
	Type reflect.Type

	index []int
}

// Get returns the property value of the struct v.
func (p *Property) Get(v reflect.Value) reflect.Value {
	return v.FieldByIndex(p.index)
}

// Set assigns x to the property of the addressable struct v.
func (p *Property) Set(v reflect.Value, x reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("set %s: %v", p.Name, r)
		}
	}()
	f := v.FieldByIndex(p.index)
	if !f.CanSet() {
		return fmt.Errorf("property %s is not settable", p.Name)
	}
	if !x.Type().AssignableTo(f.Type()) {
		if !x.Type().ConvertibleTo(f.Type()) {
			return fmt.Errorf("cannot assign %s to %s", x.Type(), f.Type())
		}
		x = x.Convert(f.Type())
	}
	f.Set(x)
	return nil
}

// TypeInfo is the introspected shape of an entity type.
type TypeInfo struct {
	Type reflect.Type
	// Class is the default type IRI declared on the type, compact or
	// absolute.
	Class      string
	Properties []Property
}

// Introspector lists the properties of entity types. The mapper depends only
// on this interface.
type Introspector interface {
	Describe(t reflect.Type) (*TypeInfo, error)
}

// TagIntrospector reads `rdf` struct tags:
//
//	type Person struct {
//		mapper.Identity
//		_     struct{} `rdf:"@type=foaf:Person"`
//		Name  string   `rdf:"foaf:name,id"`
//		Tags  []string `rdf:",list"`
//		Notes string   `rdf:"rdfs:comment,lang=en"`
//		Skip  string   `rdf:"-"`
//	}
//
// Exported fields are properties; embedded structs are flattened. Results
// are cached per type.
type TagIntrospector struct {
	cache sync.Map // reflect.Type → *TypeInfo
}

// NewTagIntrospector creates a struct tag introspector.
func NewTagIntrospector() *TagIntrospector {
	return &TagIntrospector{}
}

var identityType = reflect.TypeOf(Identity{})

// Describe implements Introspector.
func (ti *TagIntrospector) Describe(t reflect.Type) (*TypeInfo, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := ti.cache.Load(t); ok {
		return cached.(*TypeInfo), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}

	info := &TypeInfo{Type: t}
	var fields []field
	if err := ti.collect(t, nil, info, &fields); err != nil {
		return nil, err
	}
	info.Properties = visible(fields)
	actual, _ := ti.cache.LoadOrStore(t, info)
	return actual.(*TypeInfo), nil
}

// field is a candidate property found at some embedding depth.
type field struct {
	prop  Property
	depth int
}

func (ti *TagIntrospector) collect(t reflect.Type, prefix []int, info *TypeInfo, fields *[]field) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, hasTag := f.Tag.Lookup(TagName)
		index := append(append([]int(nil), prefix...), i)

		if f.Name == "_" {
			if class, ok := strings.CutPrefix(tag, "@type="); ok && info.Class == "" {
				info.Class = class
			}
			continue
		}
		if tag == "-" || f.Type == identityType {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && !hasTag && !isScalarType(f.Type) {
			if err := ti.collect(f.Type, index, info, fields); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		p := Property{
			Name:  lowerCamel(f.Name),
			Type:  f.Type,
			index: index,
		}
		if err := parseTag(tag, &p); err != nil {
			return fmt.Errorf("field %s.%s: %w", t, f.Name, err)
		}
		*fields = append(*fields, field{prop: p, depth: len(prefix)})
	}
	return nil
}

// visible keeps, for each property name, the shallowest field, so outer
// fields shadow embedded ones whatever the declaration order. At equal
// depth the first declared field wins. Declaration order is preserved.
func visible(fields []field) []Property {
	best := make(map[string]int, len(fields))
	for i, f := range fields {
		j, ok := best[f.prop.Name]
		if !ok || f.depth < fields[j].depth {
			best[f.prop.Name] = i
		}
	}
	out := make([]Property, 0, len(best))
	for i, f := range fields {
		if best[f.prop.Name] == i {
			out = append(out, f.prop)
		}
	}
	return out
}

func parseTag(tag string, p *Property) error {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	p.Predicate = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "list":
			p.List = true
		case opt == "id":
			p.ID = true
		case strings.HasPrefix(opt, "datatype="):
			p.Datatype = strings.TrimPrefix(opt, "datatype=")
		case strings.HasPrefix(opt, "lang="):
			p.Language = strings.TrimPrefix(opt, "lang=")
		case strings.HasPrefix(opt, "name="):
			p.Name = strings.TrimPrefix(opt, "name=")
		case opt == "":
		default:
			return fmt.Errorf("unknown tag option %q", opt)
		}
	}
	return nil
}

func lowerCamel(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// Leading acronyms: URL → url, HTTPServer → httpServer.
	upper := 0
	for _, c := range s {
		if !unicode.IsUpper(c) {
			break
		}
		upper++
	}
	if upper > 1 && upper < utf8.RuneCountInString(s) {
		runes := []rune(s)
		return strings.ToLower(string(runes[:upper-1])) + string(runes[upper-1:])
	}
	if upper == utf8.RuneCountInString(s) {
		return strings.ToLower(s)
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Identifiable is implemented by entities that carry their own node
// identifier. Embed Identity to get an implementation.
type Identifiable interface {
	ID() quad.Value
	SetID(id quad.Value)
}

// Identity is an embeddable identity slot.
type Identity struct {
	id quad.Value
}

// ID returns the stored identifier, or nil.
func (i *Identity) ID() quad.Value { return i.id }

// SetID stores id.
func (i *Identity) SetID(id quad.Value) { i.id = id }
