package semmap

import (
	"regexp"
	"sort"
)

// DefaultPrefixes are the prefixes every mapper configuration starts with.
// The empty prefix maps to DefaultNamespace.
var DefaultPrefixes = map[string]string{
	"":     DefaultNamespace,
	"dc":   DC,
	"foaf": FOAF,
	"owl":  OWL,
	"rdf":  RDF,
	"rdfs": RDFS,
	"skos": SKOS,
	"xsd":  XSD,
}

var prefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// IsValidPrefix reports whether p can be used as a namespace prefix.
// The empty prefix is valid and denotes the default namespace.
func IsValidPrefix(p string) bool {
	return p == "" || prefixPattern.MatchString(p)
}

// SortedPrefixes returns the keys of prefixes in lexical order.
func SortedPrefixes(prefixes map[string]string) []string {
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
