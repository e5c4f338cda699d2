package semmap_test

import (
	"testing"

	"github.com/c360studio/semmap/vocabulary/semmap"
	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	for name, iri := range semmap.PredicateIRIMap {
		t.Run(name, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(name)
			if meta == nil {
				t.Fatalf("predicate %q not registered", name)
			}
			if meta.Description == "" {
				t.Errorf("predicate %q has no description", name)
			}
			if meta.StandardIRI != iri {
				t.Errorf("predicate %q IRI = %q, want %q", name, meta.StandardIRI, iri)
			}
		})
	}
}

func TestPredicateName(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{semmap.KeyIRI, semmap.MapKey},
		{semmap.HasEntryIRI, semmap.MapEntry},
		{semmap.RDFType, semmap.EntityType},
		{"http://example.org/unknown", "http://example.org/unknown"},
	}

	for _, tt := range tests {
		if got := semmap.PredicateName(tt.iri); got != tt.want {
			t.Errorf("PredicateName(%q) = %q, want %q", tt.iri, got, tt.want)
		}
	}
}

func TestReservedTermsInDefaultNamespace(t *testing.T) {
	for _, iri := range []string{semmap.KeyIRI, semmap.ValueIRI, semmap.HasEntryIRI} {
		if len(iri) <= len(semmap.DefaultNamespace) || iri[:len(semmap.DefaultNamespace)] != semmap.DefaultNamespace {
			t.Errorf("%q is not in the default namespace", iri)
		}
	}
}
