package export

import (
	"encoding/json"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/graph"
)

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]any `json:"@context"`
	Graph   []JSONLDNode   `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string         `json:"@id"`
	Type       []string       `json:"@type,omitempty"`
	Properties map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for JSONLDNode.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	m["@id"] = n.ID
	if len(n.Type) > 0 {
		m["@type"] = n.Type
	}
	for k, v := range n.Properties {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements custom JSON unmarshaling for JSONLDNode.
func (n *JSONLDNode) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	n.Properties = make(map[string]any)
	for k, v := range m {
		switch k {
		case "@id":
			n.ID, _ = v.(string)
		case "@type":
			if types, ok := v.([]any); ok {
				for _, t := range types {
					if s, ok := t.(string); ok {
						n.Type = append(n.Type, s)
					}
				}
			}
		default:
			n.Properties[k] = v
		}
	}
	return nil
}

// JSONLDWriter writes RDF in JSON-LD format.
type JSONLDWriter struct {
	doc JSONLDDocument
}

// NewJSONLDWriter creates a new JSON-LD writer.
func NewJSONLDWriter() *JSONLDWriter {
	return &JSONLDWriter{
		doc: JSONLDDocument{
			Context: make(map[string]any),
			Graph:   make([]JSONLDNode, 0),
		},
	}
}

// SetContext sets the @context with prefixes.
func (w *JSONLDWriter) SetContext(prefixes map[string]string) {
	for k, v := range prefixes {
		w.doc.Context[k] = v
	}
}

// AddNode adds a node to the graph.
func (w *JSONLDWriter) AddNode(id string, types []string, properties map[string]any) {
	node := JSONLDNode{
		ID:         id,
		Type:       types,
		Properties: properties,
	}
	w.doc.Graph = append(w.doc.Graph, node)
}

// AddGraph adds one node per subject of g. Property keys and types are
// compacted against the context; every property value is an array.
func (w *JSONLDWriter) AddGraph(g *graph.Graph) {
	for _, s := range g.Subjects() {
		var types []string
		props := make(map[string]any)
		for _, q := range g.Filter(s, nil, nil) {
			if q.Predicate == graph.TypePredicate {
				if iri, ok := q.Object.(quad.IRI); ok {
					types = append(types, w.compact(string(iri)))
					continue
				}
			}
			key := w.compact(graph.TermString(q.Predicate))
			values, _ := props[key].([]any)
			props[key] = append(values, w.value(q.Object))
		}
		w.AddNode(graph.TermString(s), types, props)
	}
}

func (w *JSONLDWriter) value(v quad.Value) any {
	switch t := v.(type) {
	case quad.IRI, quad.BNode:
		return map[string]any{"@id": graph.TermString(t)}
	case quad.String:
		return string(t)
	case quad.LangString:
		return map[string]any{"@value": string(t.Value), "@language": t.Lang}
	case quad.TypedString:
		return map[string]any{"@value": string(t.Value), "@type": w.compact(string(t.Type.Full()))}
	}
	return graph.TermString(v)
}

func (w *JSONLDWriter) compact(iri string) string {
	best, bestLen := "", 0
	for p, ns := range w.doc.Context {
		s, ok := ns.(string)
		if !ok || len(s) <= bestLen || !strings.HasPrefix(iri, s) {
			continue
		}
		best, bestLen = p, len(s)
	}
	if bestLen == 0 {
		return iri
	}
	return best + ":" + iri[bestLen:]
}

// Document returns the accumulated document.
func (w *JSONLDWriter) Document() *JSONLDDocument {
	return &w.doc
}

// Marshal returns the indented JSON-LD output.
func (w *JSONLDWriter) Marshal() ([]byte, error) {
	return json.MarshalIndent(w.doc, "", "  ")
}

// String returns the JSON-LD output.
func (w *JSONLDWriter) String() string {
	data, err := w.Marshal()
	if err != nil {
		return "{}"
	}
	return string(data)
}
