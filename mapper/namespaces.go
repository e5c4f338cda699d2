package mapper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Namespaces is a prefix table used to expand compact IRIs.
type Namespaces map[string]string

// DefaultNamespaces returns a copy of the standard prefix table.
func DefaultNamespaces() Namespaces {
	ns := make(Namespaces, len(semmap.DefaultPrefixes))
	for p, uri := range semmap.DefaultPrefixes {
		ns[p] = uri
	}
	return ns
}

// Default returns the namespace bound to the empty prefix.
func (ns Namespaces) Default() string {
	if d, ok := ns[""]; ok {
		return d
	}
	return semmap.DefaultNamespace
}

// Expand resolves a compact or absolute IRI. A leading registered prefix is
// replaced by its namespace; anything else must already be an absolute IRI.
func (ns Namespaces) Expand(s string) (quad.IRI, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIRI)
	}
	if i := strings.Index(s, ":"); i >= 0 {
		if uri, ok := ns[s[:i]]; ok {
			s = uri + s[i+1:]
		}
	}
	if err := ValidateIRI(s); err != nil {
		return "", err
	}
	return quad.IRI(s), nil
}

// Compact returns iri in prefix:local form when a namespace matches.
func (ns Namespaces) Compact(iri string) string {
	best, bestLen := "", 0
	for p, uri := range ns {
		if p == "" || !strings.HasPrefix(iri, uri) || len(uri) <= bestLen {
			continue
		}
		best, bestLen = p, len(uri)
	}
	if bestLen == 0 {
		return iri
	}
	return best + ":" + iri[bestLen:]
}

// ValidateIRI checks that s is an absolute IRI without characters that are
// illegal in IRI references.
func ValidateIRI(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIRI)
	}
	if strings.ContainsAny(s, " \t\r\n<>\"{}|\\^`") {
		return fmt.Errorf("%w: %q contains illegal characters", ErrInvalidIRI, s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidIRI, s, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidIRI, s)
	}
	return nil
}

// localName returns the part of iri after the last '#', '/' or ':'.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/:"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
