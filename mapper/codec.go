package mapper

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cayleygraph/quad"
	"github.com/google/uuid"

	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Char is a single character. It is written as a one-character xsd:string
// and read back only from strings of length one.
type Char rune

// DateTimeLayout is the lexical form of written xsd:dateTime literals.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	urlType      = reflect.TypeOf(url.URL{})
	charType     = reflect.TypeOf(Char(0))
	valueType    = reflect.TypeOf((*quad.Value)(nil)).Elem()
	iriType      = reflect.TypeOf(quad.IRI(""))
	bnodeType    = reflect.TypeOf(quad.BNode(""))
	enumType     = reflect.TypeOf((*Enumerated)(nil)).Elem()
	anyType      = reflect.TypeOf((*any)(nil)).Elem()
	anyMapType   = reflect.TypeOf(map[any]any(nil))
	anySliceType = reflect.TypeOf([]any(nil))
)

// Codec converts values of one type to and from graph form, replacing the
// default property mapping for that type.
type Codec interface {
	// Encode returns either a single literal, which the mapper asserts
	// under the reserved value predicate, or a graph fragment about
	// Subject.
	Encode(v any) (Encoded, error)
	// Decode reconstructs a value from the statements about subject.
	Decode(g *graph.Graph, subject quad.Value) (any, error)
}

// Encoded is the output of a Codec.
type Encoded struct {
	Literal quad.Value
	Subject quad.Value
	Graph   *graph.Graph
}

// UUIDCodec maps uuid.UUID values to their canonical string form. The
// literal sits under the value predicate of the value's node.
type UUIDCodec struct{}

// Encode implements Codec.
func (UUIDCodec) Encode(v any) (Encoded, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return Encoded{Literal: quad.String(u.String())}, nil
	case *uuid.UUID:
		return Encoded{Literal: quad.String(u.String())}, nil
	}
	return Encoded{}, fmt.Errorf("%w: %T is not a UUID", ErrUnsupportedType, v)
}

// Decode implements Codec.
func (UUIDCodec) Decode(g *graph.Graph, subject quad.Value) (any, error) {
	lit, ok := g.Object(subject, quad.IRI(semmap.ValueIRI))
	if !ok {
		return nil, fmt.Errorf("no value for %v", subject)
	}
	return uuid.Parse(graph.TermString(lit))
}

// EnumValue is one constant of an enumerated type.
type EnumValue struct {
	// Name is the constant name. Without an IRI it is written as the
	// default namespace plus Name.
	Name string
	// IRI overrides the written identifier. Compact forms are expanded.
	IRI string
	// Value is the Go constant.
	Value any
}

// Enumerated is implemented by enum types. Values are written as IRIs.
type Enumerated interface {
	EnumValues() []EnumValue
}

func isEnumType(t reflect.Type) bool {
	return t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && t.Implements(enumType)
}

func enumValues(t reflect.Type) []EnumValue {
	return reflect.Zero(t).Interface().(Enumerated).EnumValues()
}

// isScalarType reports whether t is encoded as a single literal.
func isScalarType(t reflect.Type) bool {
	switch t {
	case timeType, urlType, charType:
		return true
	}
	switch t.Kind() {
	case reflect.Slice:
		return isBytesType(t)
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return !isNodeType(t)
	case reflect.Pointer:
		return t.Elem() == urlType
	}
	return false
}

func isBytesType(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isNodeType(t reflect.Type) bool {
	return t == iriType || t == bnodeType || t == valueType
}

// EncodeScalar encodes a scalar as a literal. The property's language tag
// applies to strings and takes precedence over the default datatype; an
// explicit datatype replaces the default one.
func EncodeScalar(v reflect.Value, datatype quad.IRI, lang string) (quad.Value, error) {
	lexical, dt, err := scalarLexical(v)
	if err != nil {
		return nil, err
	}
	if datatype != "" {
		return quad.TypedString{Value: quad.String(lexical), Type: datatype}, nil
	}
	if lang != "" && dt == semmap.XSDString && v.Type() != charType {
		return quad.LangString{Value: quad.String(lexical), Lang: lang}, nil
	}
	return quad.TypedString{Value: quad.String(lexical), Type: quad.IRI(dt)}, nil
}

func scalarLexical(v reflect.Value) (string, string, error) {
	t := v.Type()
	switch t {
	case timeType:
		return v.Interface().(time.Time).Format(DateTimeLayout), semmap.XSDDateTime, nil
	case urlType:
		u := v.Interface().(url.URL)
		return u.String(), semmap.XSDAnyURI, nil
	case charType:
		return string(rune(v.Int())), semmap.XSDString, nil
	}
	if isBytesType(t) {
		return base64.StdEncoding.EncodeToString(v.Bytes()), semmap.XSDBase64Binary, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem() == urlType && !v.IsNil() {
			return v.Interface().(*url.URL).String(), semmap.XSDAnyURI, nil
		}
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), semmap.XSDBoolean, nil
	case reflect.String:
		return v.String(), semmap.XSDString, nil
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), semmap.XSDLong, nil
	case reflect.Int32:
		return strconv.FormatInt(v.Int(), 10), semmap.XSDInt, nil
	case reflect.Int16:
		return strconv.FormatInt(v.Int(), 10), semmap.XSDShort, nil
	case reflect.Int8:
		return strconv.FormatInt(v.Int(), 10), semmap.XSDByte, nil
	case reflect.Uint, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), semmap.XSDUnsignedLong, nil
	case reflect.Uint32:
		return strconv.FormatUint(v.Uint(), 10), semmap.XSDUnsignedInt, nil
	case reflect.Uint16:
		return strconv.FormatUint(v.Uint(), 10), semmap.XSDUnsignedShort, nil
	case reflect.Uint8:
		return strconv.FormatUint(v.Uint(), 10), semmap.XSDUnsignedByte, nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), semmap.XSDFloat, nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), semmap.XSDDouble, nil
	}
	return "", "", fmt.Errorf("%w: %s is not a scalar", ErrUnsupportedType, t)
}

// NormalizeLiteral rewrites native cayley literal values into their typed
// string form.
func NormalizeLiteral(v quad.Value) quad.Value {
	switch t := v.(type) {
	case quad.Int:
		return quad.TypedString{Value: quad.String(strconv.FormatInt(int64(t), 10)), Type: semmap.XSDLong}
	case quad.Float:
		return quad.TypedString{Value: quad.String(strconv.FormatFloat(float64(t), 'g', -1, 64)), Type: semmap.XSDDouble}
	case quad.Bool:
		return quad.TypedString{Value: quad.String(strconv.FormatBool(bool(t))), Type: semmap.XSDBoolean}
	case quad.Time:
		return quad.TypedString{Value: quad.String(time.Time(t).Format(DateTimeLayout)), Type: semmap.XSDDateTime}
	case quad.TypedString:
		// Typed literals that name a compact datatype are expanded so the
		// lookup table matches.
		if full := t.Type.Full(); full != t.Type {
			t.Type = full
		}
		return t
	}
	return v
}

// errSkip marks a literal that decodes to absent.
type errSkip struct{ reason string }

func (e errSkip) Error() string { return e.reason }

// DecodeScalar decodes a literal into the native value for its datatype and
// converts it to target. A nil target, or an interface target, receives the
// native value.
func DecodeScalar(lit quad.Value, target reflect.Type) (reflect.Value, error) {
	native, err := decodeNative(lit, target)
	if err != nil {
		return reflect.Value{}, err
	}
	if target == nil {
		return native, nil
	}
	return convertNative(native, target)
}

func decodeNative(lit quad.Value, target reflect.Type) (reflect.Value, error) {
	var lexical, datatype string
	switch l := NormalizeLiteral(lit).(type) {
	case quad.String:
		lexical, datatype = string(l), semmap.XSDString
	case quad.LangString:
		lexical, datatype = string(l.Value), semmap.XSDString
	case quad.TypedString:
		lexical, datatype = string(l.Value), string(l.Type)
	case nil:
		return reflect.Value{}, fmt.Errorf("%w: missing literal", ErrMapping)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %v is not a literal", ErrUnsupportedType, lit)
	}

	kind := semmap.DatatypeKind(datatype)
	switch kind {
	case semmap.KindString:
		if deref(target) == charType {
			if utf8.RuneCountInString(lexical) != 1 {
				return reflect.Value{}, fmt.Errorf("%q is not a single character", lexical)
			}
			r, _ := utf8.DecodeRuneInString(lexical)
			return reflect.ValueOf(Char(r)), nil
		}
		return reflect.ValueOf(lexical), nil
	case semmap.KindBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(lexical))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid boolean %q", lexical)
		}
		return reflect.ValueOf(b), nil
	case semmap.KindInt, semmap.KindLong, semmap.KindShort, semmap.KindByte:
		return decodeInteger(strings.TrimSpace(lexical), datatype, kind)
	case semmap.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid float %q", lexical)
		}
		if target == nil || deref(target).Kind() == reflect.Interface {
			return reflect.ValueOf(float32(f)), nil
		}
		return reflect.ValueOf(f), nil
	case semmap.KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid double %q", lexical)
		}
		return reflect.ValueOf(f), nil
	case semmap.KindURI:
		u, err := url.Parse(lexical)
		if err != nil {
			return reflect.Value{}, errSkip{fmt.Sprintf("invalid URI %q", lexical)}
		}
		return reflect.ValueOf(u), nil
	case semmap.KindDateTime:
		for _, layout := range readLayouts {
			if ts, err := time.Parse(layout, lexical); err == nil {
				return reflect.ValueOf(ts), nil
			}
		}
		return reflect.Value{}, fmt.Errorf("invalid dateTime %q", lexical)
	case semmap.KindTime:
		ms, err := strconv.ParseInt(strings.TrimSpace(lexical), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid time %q", lexical)
		}
		return reflect.ValueOf(time.UnixMilli(ms).UTC()), nil
	case semmap.KindBinary:
		b, err := base64.StdEncoding.DecodeString(lexical)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid base64 %q", lexical)
		}
		return reflect.ValueOf(b), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedDatatype, datatype)
}

func decodeInteger(lexical, datatype string, kind semmap.Kind) (reflect.Value, error) {
	bits := map[semmap.Kind]int{
		semmap.KindInt:   32,
		semmap.KindLong:  64,
		semmap.KindShort: 16,
		semmap.KindByte:  8,
	}[kind]

	if strings.HasPrefix(localName(datatype), "unsigned") {
		u, err := strconv.ParseUint(lexical, 10, bits)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid %s %q", localName(datatype), lexical)
		}
		switch bits {
		case 8:
			return reflect.ValueOf(uint8(u)), nil
		case 16:
			return reflect.ValueOf(uint16(u)), nil
		case 32:
			return reflect.ValueOf(uint32(u)), nil
		}
		return reflect.ValueOf(u), nil
	}

	i, err := strconv.ParseInt(lexical, 10, bits)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("invalid %s %q", localName(datatype), lexical)
	}
	switch bits {
	case 8:
		return reflect.ValueOf(int8(i)), nil
	case 16:
		return reflect.ValueOf(int16(i)), nil
	case 32:
		return reflect.ValueOf(int32(i)), nil
	}
	return reflect.ValueOf(i), nil
}

func deref(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// convertNative converts a decoded native value to target, allocating
// pointers as needed and checking numeric ranges.
func convertNative(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if target.Kind() == reflect.Pointer && v.Type() != target {
		inner, err := convertNative(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(inner)
		return p, nil
	}
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if target.Kind() == reflect.Interface {
		return reflect.Value{}, fmt.Errorf("%w: %s does not implement %s", ErrMapping, v.Type(), target)
	}

	switch src := v.Interface().(type) {
	case *url.URL:
		switch {
		case target == urlType:
			return reflect.ValueOf(*src), nil
		case target.Kind() == reflect.String:
			return reflect.ValueOf(src.String()).Convert(target), nil
		}
	case Char:
		if target.Kind() == reflect.String {
			return reflect.ValueOf(string(rune(src))).Convert(target), nil
		}
	case time.Time, []byte, bool:
		if v.Type().ConvertibleTo(target) && target.Kind() == v.Kind() {
			return v.Convert(target), nil
		}
	case string:
		if target.Kind() == reflect.String {
			return v.Convert(target), nil
		}
	}

	if isNumberKind(v.Kind()) && isNumberKind(target.Kind()) {
		return convertNumber(v, target)
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Type(), target)
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertNumber(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	overflow := fmt.Errorf("%v overflows %s", v.Interface(), target)

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch {
		case v.CanInt():
			i = v.Int()
		case v.CanUint():
			if v.Uint() > math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			i = int64(v.Uint())
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v is not integral", f)
			}
			i = int64(f)
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, overflow
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		switch {
		case v.CanUint():
			u = v.Uint()
		case v.CanInt():
			if v.Int() < 0 {
				return reflect.Value{}, overflow
			}
			u = uint64(v.Int())
		default:
			f := v.Float()
			if f < 0 || f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v is not a natural number", f)
			}
			u = uint64(f)
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, overflow
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		var f float64
		switch {
		case v.CanInt():
			f = float64(v.Int())
		case v.CanUint():
			f = float64(v.Uint())
		default:
			f = v.Float()
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, overflow
		}
		out.SetFloat(f)
	}
	return out, nil
}
