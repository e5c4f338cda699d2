package mapper

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/c360studio/semmap/vocabulary/semmap"
)

// IDFunc derives the identifier of an entity as a compact or absolute IRI.
// An empty result defers to the next identity strategy.
type IDFunc func(v any) (string, error)

type idFuncEntry struct {
	t  reflect.Type
	fn IDFunc
}

// Builder assembles a mapper configuration. Each method validates its input
// and returns a *ConfigError immediately when rejected.
type Builder struct {
	namespaces   Namespaces
	registry     *Registry
	idFuncs      []idFuncEntry
	collections  CollectionFactory
	maps         MapFactory
	introspector Introspector
	options      Options
	logger       *slog.Logger
	metrics      *Metrics
	hash         HashAlgorithm
}

// NewBuilder creates a builder with the default prefixes and options.
func NewBuilder() *Builder {
	return &Builder{
		namespaces: DefaultNamespaces(),
		registry:   newRegistry(),
		options:    DefaultOptions(),
		hash:       HashMD5,
	}
}

// Namespace binds prefix to uri. The empty prefix sets the default
// namespace used for default predicates, derived identities and enum
// constants.
func (b *Builder) Namespace(prefix, uri string) error {
	if !semmap.IsValidPrefix(prefix) {
		return configErr("namespace", "%q is not a valid prefix", prefix)
	}
	if err := ValidateIRI(uri); err != nil {
		return configErr("namespace", "%q is not a valid namespace: %w", uri, err)
	}
	b.namespaces[prefix] = uri
	return nil
}

// Map binds typeIRI to t. Pass a pointer type to have reads produce
// pointers. Binding an IRI or a type twice is rejected.
func (b *Builder) Map(typeIRI string, t reflect.Type) error {
	if t == nil {
		return configErr("map", "nil type for %q", typeIRI)
	}
	iri, err := b.namespaces.Expand(typeIRI)
	if err != nil {
		return configErr("map", "%w", err)
	}
	if existing, ok := b.registry.Type(iri); ok {
		return configErr("map", "%s is already bound to %s", iri, existing)
	}
	if existing, ok := b.registry.TypeIRI(t); ok {
		return configErr("map", "%s is already bound to %s", t, existing)
	}
	b.registry.bind(iri, t)
	return nil
}

// Codec registers c for values of type t.
func (b *Builder) Codec(t reflect.Type, c Codec) error {
	if t == nil || c == nil {
		return configErr("codec", "type and codec are required")
	}
	b.registry.codecs[t] = c
	return nil
}

// IDFunc registers fn as the identity function for t. t may be an
// interface; concrete registrations win over interface ones, and interfaces
// are tried in registration order.
func (b *Builder) IDFunc(t reflect.Type, fn IDFunc) error {
	if t == nil || fn == nil {
		return configErr("id func", "type and function are required")
	}
	for i, e := range b.idFuncs {
		if e.t == t {
			b.idFuncs[i].fn = fn
			return nil
		}
	}
	b.idFuncs = append(b.idFuncs, idFuncEntry{t: t, fn: fn})
	return nil
}

// CollectionFactory replaces the factory used to build collections on read.
func (b *Builder) CollectionFactory(f CollectionFactory) error {
	if f == nil {
		return configErr("collection factory", "nil factory")
	}
	b.collections = f
	return nil
}

// MapFactory replaces the factory used to build maps on read.
func (b *Builder) MapFactory(f MapFactory) error {
	if f == nil {
		return configErr("map factory", "nil factory")
	}
	b.maps = f
	return nil
}

// Introspector replaces the property introspector.
func (b *Builder) Introspector(i Introspector) error {
	if i == nil {
		return configErr("introspector", "nil introspector")
	}
	b.introspector = i
	return nil
}

// Options replaces the strictness options.
func (b *Builder) Options(o Options) {
	b.options = o
}

// Logger sets the logger for soft conditions.
func (b *Builder) Logger(l *slog.Logger) {
	b.logger = l
}

// Metrics attaches metrics collectors.
func (b *Builder) Metrics(m *Metrics) {
	b.metrics = m
}

// IdentityHash selects the hash for derived identities.
func (b *Builder) IdentityHash(h HashAlgorithm) error {
	switch h {
	case HashMD5, HashBLAKE3:
		b.hash = h
		return nil
	case "":
		b.hash = HashMD5
		return nil
	}
	return configErr("identity hash", "unknown hash algorithm %q", h)
}

// Build returns an immutable mapper. The builder may be reused; later
// changes do not affect mappers already built.
func (b *Builder) Build() *Mapper {
	ns := make(Namespaces, len(b.namespaces))
	for p, uri := range b.namespaces {
		ns[p] = uri
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mapper{
		namespaces:   ns,
		registry:     b.registry.clone(),
		idFuncs:      append([]idFuncEntry(nil), b.idFuncs...),
		collections:  b.collections,
		maps:         b.maps,
		introspector: b.introspector,
		options:      b.options,
		logger:       logger.With(slog.String("component", "semmap.mapper")),
		metrics:      b.metrics,
		hash:         b.hash,
	}
	if m.collections == nil {
		m.collections = DefaultCollectionFactory{}
	}
	if m.maps == nil {
		m.maps = DefaultMapFactory{}
	}
	if m.introspector == nil {
		m.introspector = NewTagIntrospector()
	}
	return m
}

func (b *Builder) String() string {
	return fmt.Sprintf("Builder{namespaces: %d, types: %d}", len(b.namespaces), b.registry.Len())
}
