package mapper

import (
	"log/slog"
	"reflect"
)

// Options are the strictness switches of a mapper.
type Options struct {
	// RequireIDs makes Write fail with ErrUnidentifiable instead of
	// hashing the entity's string form when no identity can be derived.
	RequireIDs bool `yaml:"require_ids"`

	// IgnoreCardinalityViolations makes Read use the first value of a
	// single-valued property with several values, instead of failing.
	IgnoreCardinalityViolations bool `yaml:"ignore_cardinality_violations"`

	// IgnoreInvalidAnnotations makes the mapper skip properties whose
	// configured IRI or datatype is invalid, instead of failing.
	IgnoreInvalidAnnotations bool `yaml:"ignore_invalid_annotations"`

	// SerializeCollectionsAsLists writes every collection as an RDF list.
	SerializeCollectionsAsLists bool `yaml:"serialize_collections_as_lists"`
}

// DefaultOptions returns the default strictness options.
func DefaultOptions() Options {
	return Options{
		IgnoreInvalidAnnotations: true,
	}
}

// HashAlgorithm selects the content hash used for derived identities.
type HashAlgorithm string

const (
	HashMD5    HashAlgorithm = "md5"
	HashBLAKE3 HashAlgorithm = "blake3"
)

// Option configures a mapper built with New.
type Option func(*Builder) error

// New builds a mapper from functional options applied to a fresh Builder.
func New(opts ...Option) (*Mapper, error) {
	b := NewBuilder()
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// WithNamespace binds prefix to uri.
func WithNamespace(prefix, uri string) Option {
	return func(b *Builder) error { return b.Namespace(prefix, uri) }
}

// WithMapping binds a type IRI to a Go type.
func WithMapping(typeIRI string, t reflect.Type) Option {
	return func(b *Builder) error { return b.Map(typeIRI, t) }
}

// WithCodec registers a codec for t.
func WithCodec(t reflect.Type, c Codec) Option {
	return func(b *Builder) error { return b.Codec(t, c) }
}

// WithIDFunc registers an identity function for t.
func WithIDFunc(t reflect.Type, fn IDFunc) Option {
	return func(b *Builder) error { return b.IDFunc(t, fn) }
}

// WithOptions replaces the strictness options.
func WithOptions(o Options) Option {
	return func(b *Builder) error {
		b.Options(o)
		return nil
	}
}

// WithCollectionFactory replaces the collection factory.
func WithCollectionFactory(f CollectionFactory) Option {
	return func(b *Builder) error { return b.CollectionFactory(f) }
}

// WithMapFactory replaces the map factory.
func WithMapFactory(f MapFactory) Option {
	return func(b *Builder) error { return b.MapFactory(f) }
}

// WithIntrospector replaces the property introspector.
func WithIntrospector(i Introspector) Option {
	return func(b *Builder) error { return b.Introspector(i) }
}

// WithLogger sets the logger for soft conditions.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) error {
		b.Logger(l)
		return nil
	}
}

// WithMetrics attaches metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(b *Builder) error {
		b.Metrics(m)
		return nil
	}
}

// WithIdentityHash selects the hash for derived identities.
func WithIdentityHash(h HashAlgorithm) Option {
	return func(b *Builder) error { return b.IdentityHash(h) }
}
