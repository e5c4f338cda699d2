package semmap

// DefaultNamespace anchors derived identifiers, reserved terms and enum
// constants that carry no explicit IRI.
const DefaultNamespace = "tag:semmap:"

// Reserved terms for associative containers. They live in the default
// namespace and cannot be redefined by a mapper configuration.
const (
	// KeyIRI links a map entry node to the entry key.
	KeyIRI = DefaultNamespace + "_key"

	// ValueIRI links a map entry node to the entry value. It is also the
	// predicate used when a codec produces a bare literal for an entity.
	ValueIRI = DefaultNamespace + "_value"

	// HasEntryIRI links a map container node to each of its entry nodes.
	HasEntryIRI = DefaultNamespace + "_hasEntry"
)

// Standard namespaces.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	SKOS = "http://www.w3.org/2004/02/skos/core#"
	DC   = "http://purl.org/dc/elements/1.1/"
	FOAF = "http://xmlns.com/foaf/0.1/"
)

// RDF terms used by the mapper.
const (
	RDFType    = RDF + "type"
	RDFFirst   = RDF + "first"
	RDFRest    = RDF + "rest"
	RDFNil     = RDF + "nil"
	RDFLangStr = RDF + "langString"

	RDFSLiteral = RDFS + "Literal"
)

// XSD datatype IRIs.
const (
	XSDString             = XSD + "string"
	XSDBoolean            = XSD + "boolean"
	XSDInt                = XSD + "int"
	XSDInteger            = XSD + "integer"
	XSDPositiveInteger    = XSD + "positiveInteger"
	XSDNegativeInteger    = XSD + "negativeInteger"
	XSDNonNegativeInteger = XSD + "nonNegativeInteger"
	XSDNonPositiveInteger = XSD + "nonPositiveInteger"
	XSDUnsignedInt        = XSD + "unsignedInt"
	XSDLong               = XSD + "long"
	XSDUnsignedLong       = XSD + "unsignedLong"
	XSDShort              = XSD + "short"
	XSDUnsignedShort      = XSD + "unsignedShort"
	XSDByte               = XSD + "byte"
	XSDUnsignedByte       = XSD + "unsignedByte"
	XSDFloat              = XSD + "float"
	XSDDecimal            = XSD + "decimal"
	XSDDouble             = XSD + "double"
	XSDAnyURI             = XSD + "anyURI"
	XSDDate               = XSD + "date"
	XSDDateTime           = XSD + "dateTime"
	XSDTime               = XSD + "time"
	XSDBase64Binary       = XSD + "base64Binary"
)

// Kind is the native family a literal datatype decodes into.
type Kind int

// Datatype kinds.
const (
	KindUnknown Kind = iota
	KindString
	KindBoolean
	KindInt
	KindLong
	KindShort
	KindByte
	KindFloat
	KindDouble
	KindURI
	KindDateTime
	KindTime
	KindBinary
)

var datatypeKinds = map[string]Kind{
	XSDString:   KindString,
	RDFSLiteral: KindString,
	RDFLangStr:  KindString,

	XSDBoolean: KindBoolean,

	XSDInt:                KindInt,
	XSDInteger:            KindInt,
	XSDPositiveInteger:    KindInt,
	XSDNegativeInteger:    KindInt,
	XSDNonNegativeInteger: KindInt,
	XSDNonPositiveInteger: KindInt,
	XSDUnsignedInt:        KindInt,

	XSDLong:         KindLong,
	XSDUnsignedLong: KindLong,

	XSDShort:         KindShort,
	XSDUnsignedShort: KindShort,

	XSDByte:         KindByte,
	XSDUnsignedByte: KindByte,

	XSDFloat:   KindFloat,
	XSDDecimal: KindFloat,

	XSDDouble: KindDouble,

	XSDAnyURI: KindURI,

	XSDDate:     KindDateTime,
	XSDDateTime: KindDateTime,

	// Times of day are carried as epoch milliseconds.
	XSDTime: KindTime,

	XSDBase64Binary: KindBinary,
}

// DatatypeKind returns the native family for a datatype IRI, or KindUnknown.
func DatatypeKind(datatype string) Kind {
	return datatypeKinds[datatype]
}

// IsKnownDatatype reports whether datatype decodes to a native kind.
func IsKnownDatatype(datatype string) bool {
	return DatatypeKind(datatype) != KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindShort:
		return "short"
	case KindByte:
		return "byte"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindURI:
		return "uri"
	case KindDateTime:
		return "dateTime"
	case KindTime:
		return "time"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}
