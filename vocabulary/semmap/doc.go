// Package semmap provides the fixed vocabulary used by the semmap entity mapper.
//
// The vocabulary has three parts:
//   - Namespaces: the default namespace that anchors derived identifiers and
//     reserved terms, plus the standard prefixes every mapper starts with
//   - Datatypes: XSD datatype IRIs and the groups of datatypes that decode to
//     the same native kind
//   - Reserved map terms: the key, value and entry predicates used to encode
//     associative containers
//
// # Semstreams Integration
//
// The reserved map predicates are registered in init() with the semstreams
// predicate registry so that graphs produced by the mapper can be ingested as
// semstreams triples:
//
//	meta := vocabulary.GetPredicateMetadata(semmap.MapKey)
//	meta.StandardIRI // → tag:semmap:_key
//
// PredicateName converts a full predicate IRI back to its dotted name when
// one is registered.
package semmap
