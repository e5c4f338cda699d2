package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/graph"
)

var localNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

// TurtleWriter writes RDF in Turtle format.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	w := &TurtleWriter{prefixes: make(map[string]string, len(prefixes))}
	for k, v := range prefixes {
		w.prefixes[k] = v
	}
	return w
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	// Sort prefixes for consistent output
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteGraph writes the prefix block followed by one block per subject.
// Objects sharing a predicate are joined with commas.
func (w *TurtleWriter) WriteGraph(g *graph.Graph) {
	w.WritePrefixes()
	for _, s := range g.Subjects() {
		w.writeSubject(g, s)
		w.sb.WriteString("\n")
	}
}

func (w *TurtleWriter) writeSubject(g *graph.Graph, s quad.Value) {
	var predicates []quad.Value
	objects := make(map[quad.Value][]quad.Value)
	for _, q := range g.Filter(s, nil, nil) {
		if _, seen := objects[q.Predicate]; !seen {
			predicates = append(predicates, q.Predicate)
		}
		objects[q.Predicate] = append(objects[q.Predicate], q.Object)
	}

	w.sb.WriteString(w.Term(s))
	w.sb.WriteString("\n")
	for i, p := range predicates {
		pred := w.Term(p)
		if p == graph.TypePredicate {
			pred = "a"
		}
		terms := make([]string, 0, len(objects[p]))
		for _, o := range objects[p] {
			terms = append(terms, w.Term(o))
		}
		terminator := " ;"
		if i == len(predicates)-1 {
			terminator = " ."
		}
		w.sb.WriteString(fmt.Sprintf("    %s %s%s\n", pred, strings.Join(terms, ", "), terminator))
	}
}

// Term renders a value in Turtle syntax, compacting IRIs with the known
// prefixes.
func (w *TurtleWriter) Term(v quad.Value) string {
	switch t := v.(type) {
	case quad.IRI:
		return w.iri(string(t))
	case quad.BNode:
		return "_:" + string(t)
	case quad.String:
		return `"` + escapeString(string(t)) + `"`
	case quad.LangString:
		return `"` + escapeString(string(t.Value)) + `"@` + t.Lang
	case quad.TypedString:
		return `"` + escapeString(string(t.Value)) + `"^^` + w.iri(string(t.Type.Full()))
	case nil:
		return `""`
	}
	return v.String()
}

func (w *TurtleWriter) iri(iri string) string {
	best, bestLen := "", 0
	for p, ns := range w.prefixes {
		if len(ns) <= bestLen || !strings.HasPrefix(iri, ns) {
			continue
		}
		if local := iri[len(ns):]; local == "" || localNamePattern.MatchString(local) {
			best, bestLen = p, len(ns)
		}
	}
	if bestLen == 0 {
		return "<" + iri + ">"
	}
	return best + ":" + iri[bestLen:]
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}
