package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/cayleygraph/quad"
)

// GraphIngestSubject is the stream subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// DefaultSource is the triple source recorded for mapped entities.
const DefaultSource = "semmap.mapper"

// StreamPublisher publishes raw payloads to a JetStream subject.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

var _ StreamPublisher = (*natsclient.Client)(nil)

// Publisher sends mapped entity graphs to the knowledge graph.
type Publisher struct {
	client StreamPublisher
	source string
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a publisher. A nil client turns publishing into a
// no-op.
func NewPublisher(client StreamPublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		source: DefaultSource,
		logger: logger,
		now:    time.Now,
	}
}

// WithSource sets the source recorded on published triples.
func (p *Publisher) WithSource(source string) *Publisher {
	p.source = source
	return p
}

// Payload builds the ingest payload for the entity identified by subject.
func (p *Publisher) Payload(subject quad.Value, g *Graph) *EntityPayload {
	now := p.now()
	var types []string
	for _, t := range g.Types(subject) {
		types = append(types, string(t))
	}
	return &EntityPayload{
		EntityID_:  TermString(subject),
		Types:      types,
		Statements: g.Len(),
		TripleData: g.Triples(p.source, now),
		UpdatedAt:  now,
	}
}

// Publish sends the entity graph to GraphIngestSubject.
func (p *Publisher) Publish(ctx context.Context, subject quad.Value, g *Graph) error {
	if p.client == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	payload := p.Payload(subject, g)
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid entity payload: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	if err := p.client.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish entity: %w", err)
	}

	p.logger.Debug("Published entity graph",
		slog.String("subject", payload.EntityID_),
		slog.Any("types", payload.Types),
		slog.Int("triples", len(payload.TripleData)))
	return nil
}
