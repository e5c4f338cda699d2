package graph

import (
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Triples converts the statements of g into semstreams triples. Predicates
// with a registered dotted name use it; node terms use their identifier
// string and literals their lexical form.
func (g *Graph) Triples(source string, ts time.Time) []message.Triple {
	if g == nil {
		return nil
	}
	out := make([]message.Triple, 0, len(g.quads))
	for _, q := range g.quads {
		out = append(out, message.Triple{
			Subject:    TermString(q.Subject),
			Predicate:  semmap.PredicateName(TermString(q.Predicate)),
			Object:     objectValue(q.Object),
			Source:     source,
			Timestamp:  ts,
			Confidence: 1.0,
		})
	}
	return out
}

// TermString returns the identifier of a node term or the lexical form of a
// literal.
func TermString(v quad.Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case quad.IRI:
		return string(t)
	case quad.BNode:
		return "_:" + string(t)
	case quad.String:
		return string(t)
	case quad.TypedString:
		return string(t.Value)
	case quad.LangString:
		return string(t.Value)
	default:
		return v.String()
	}
}

func objectValue(v quad.Value) any {
	switch t := v.(type) {
	case quad.Int:
		return int64(t)
	case quad.Float:
		return float64(t)
	case quad.Bool:
		return bool(t)
	case quad.Time:
		return time.Time(t).Format(time.RFC3339Nano)
	default:
		return TermString(v)
	}
}
