package semmap

import "github.com/c360studio/semstreams/vocabulary"

// Dotted predicate names for the reserved map vocabulary.
const (
	// MapEntry links a map container to an entry node.
	MapEntry = "semmap.map.entry"

	// MapKey links an entry node to its key.
	MapKey = "semmap.map.key"

	// MapValue links an entry node to its value.
	MapValue = "semmap.map.value"

	// EntityType is the class of an entity.
	EntityType = "semmap.entity.type"

	// ListFirst is the head element of a list node.
	ListFirst = "semmap.list.first"

	// ListRest is the remainder of a list node.
	ListRest = "semmap.list.rest"
)

// PredicateIRIMap maps dotted predicate names to full IRIs.
var PredicateIRIMap = map[string]string{
	MapEntry:   HasEntryIRI,
	MapKey:     KeyIRI,
	MapValue:   ValueIRI,
	EntityType: RDFType,
	ListFirst:  RDFFirst,
	ListRest:   RDFRest,
}

var iriPredicates = func() map[string]string {
	m := make(map[string]string, len(PredicateIRIMap))
	for name, iri := range PredicateIRIMap {
		m[iri] = name
	}
	return m
}()

// PredicateName returns the dotted name registered for a predicate IRI.
// Unregistered IRIs are returned unchanged.
func PredicateName(iri string) string {
	if name, ok := iriPredicates[iri]; ok {
		return name
	}
	return iri
}

func init() {
	vocabulary.Register(MapEntry,
		vocabulary.WithDescription("Entry of an associative container"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(HasEntryIRI))

	vocabulary.Register(MapKey,
		vocabulary.WithDescription("Key of a map entry"),
		vocabulary.WithDataType("any"),
		vocabulary.WithIRI(KeyIRI))

	vocabulary.Register(MapValue,
		vocabulary.WithDescription("Value of a map entry or codec-produced literal"),
		vocabulary.WithDataType("any"),
		vocabulary.WithIRI(ValueIRI))

	vocabulary.Register(EntityType,
		vocabulary.WithDescription("Class of an entity"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(RDFType))

	vocabulary.Register(ListFirst,
		vocabulary.WithDescription("First element of a list node"),
		vocabulary.WithDataType("any"),
		vocabulary.WithIRI(RDFFirst))

	vocabulary.Register(ListRest,
		vocabulary.WithDescription("Remainder of a list node"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(RDFRest))
}
