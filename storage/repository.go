package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/export"
	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/mapper"
)

// Repository stores the graph of each written entity under its subject.
// Values are CBOR graph snapshots; keys are the base64url form of the
// subject, which is valid in every backend including JetStream.
type Repository struct {
	kv        KV
	mapper    *mapper.Mapper
	publisher *graph.Publisher
	logger    *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithPublisher publishes every saved graph to the knowledge graph.
func WithPublisher(p *graph.Publisher) RepositoryOption {
	return func(r *Repository) { r.publisher = p }
}

// WithLogger sets the repository logger.
func WithLogger(l *slog.Logger) RepositoryOption {
	return func(r *Repository) { r.logger = l }
}

// NewRepository creates a repository over kv using m to map entities.
func NewRepository(kv KV, m *mapper.Mapper, opts ...RepositoryOption) *Repository {
	r := &Repository{kv: kv, mapper: m, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "semmap.storage")
	return r
}

// Save writes entity through the mapper and stores the resulting graph.
// A previously stored graph for the same subject is replaced.
func (r *Repository) Save(ctx context.Context, entity any) (quad.Value, error) {
	res, err := r.mapper.Write(entity)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.logger.Debug("Save warning", slog.String("warning", w.String()))
	}
	if err := r.SaveGraph(ctx, res.Subject, res.Graph); err != nil {
		return nil, err
	}
	return res.Subject, nil
}

// SaveGraph stores g under subject. With a publisher configured the graph
// is published first and nothing is stored when publishing fails.
func (r *Repository) SaveGraph(ctx context.Context, subject quad.Value, g *graph.Graph) error {
	if subject == nil {
		return errors.New("storage: nil subject")
	}
	data, err := export.MarshalGraph(g)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, subject, g); err != nil {
			return fmt.Errorf("publish %s: %w", graph.TermString(subject), err)
		}
	}

	if err := r.kv.Put(ctx, Key(subject), data); err != nil {
		return fmt.Errorf("store %s: %w", graph.TermString(subject), err)
	}

	r.logger.Debug("Stored entity graph",
		slog.String("subject", graph.TermString(subject)),
		slog.Int("statements", g.Len()))
	return nil
}

// Graph returns the stored graph for subject.
func (r *Repository) Graph(ctx context.Context, subject quad.Value) (*graph.Graph, error) {
	data, err := r.kv.Get(ctx, Key(subject))
	if err != nil {
		return nil, err
	}
	g, err := export.UnmarshalGraph(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph for %s: %w", graph.TermString(subject), err)
	}
	return g, nil
}

// Load reads the entity stored for subject as a value of type t.
func (r *Repository) Load(ctx context.Context, subject quad.Value, t reflect.Type) (*mapper.ReadResult, error) {
	g, err := r.Graph(ctx, subject)
	if err != nil {
		return nil, err
	}
	return r.mapper.Read(g, t, subject)
}

// LoadAs is Load with the target type given as a type parameter.
func LoadAs[T any](ctx context.Context, r *Repository, subject quad.Value) (T, error) {
	var zero T
	g, err := r.Graph(ctx, subject)
	if err != nil {
		return zero, err
	}
	v, _, err := mapper.ReadAs[T](r.mapper, g, subject)
	return v, err
}

// Delete removes the graph stored for subject.
func (r *Repository) Delete(ctx context.Context, subject quad.Value) error {
	return r.kv.Delete(ctx, Key(subject))
}

// Subjects lists the stored subjects. Keys that are not valid subject keys
// are skipped.
func (r *Repository) Subjects(ctx context.Context) ([]quad.Value, error) {
	keys, err := r.kv.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]quad.Value, 0, len(keys))
	for _, k := range keys {
		s, err := ParseKey(k)
		if err != nil {
			r.logger.Warn("Skipping foreign key", slog.String("key", k))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Close closes the underlying store.
func (r *Repository) Close() error {
	return r.kv.Close()
}

// Key returns the storage key for subject.
func Key(subject quad.Value) string {
	return base64.RawURLEncoding.EncodeToString([]byte(graph.TermString(subject)))
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (quad.Value, error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid key %q: %w", key, err)
	}
	s := string(raw)
	if b, ok := strings.CutPrefix(s, "_:"); ok {
		return quad.BNode(b), nil
	}
	if err := mapper.ValidateIRI(s); err != nil {
		return nil, err
	}
	return quad.IRI(s), nil
}
