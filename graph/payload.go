package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "semmap",
		Category:    "entity",
		Version:     "v1",
		Description: "Mapped entity graph for knowledge graph ingestion",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for mapped entity payloads.
var EntityType = message.Type{Domain: "semmap", Category: "entity", Version: "v1"}

// EntityPayload implements message.Payload for a mapped entity graph.
// Types lists the rdf:type IRIs asserted on the root subject and
// Statements is the size of the graph the triples were converted from.
type EntityPayload struct {
	EntityID_  string           `json:"id"`
	Types      []string         `json:"types,omitempty"`
	Statements int              `json:"statements"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e *EntityPayload) EntityID() string          { return e.EntityID_ }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

func (e *EntityPayload) Validate() error {
	if e.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	if len(e.TripleData) == 0 {
		return errors.New("entity has no triples")
	}
	if e.Statements != len(e.TripleData) {
		return fmt.Errorf("entity has %d triples for %d statements", len(e.TripleData), e.Statements)
	}
	return nil
}

func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	return json.Unmarshal(data, (*Alias)(e))
}
