// Package export serializes mapper graphs to standard RDF formats and reads
// them back.
package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output. Named graph labels are
	// dropped.
	FormatNTriples Format = "ntriples"

	// FormatNQuads produces N-Quads (.nq) output.
	FormatNQuads Format = "nquads"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"

	// FormatCBOR produces a deterministic CBOR graph snapshot.
	FormatCBOR Format = "cbor"
)

// ParseFormat resolves a format name, accepting the registered file
// extensions as aliases.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(s, "."))
	for f, info := range FormatRegistry {
		if string(f) == name || strings.TrimPrefix(info.Extension, ".") == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Exporter writes graphs using a prefix table for the formats that compact
// IRIs.
type Exporter struct {
	prefixes map[string]string
}

// NewExporter creates an exporter with the default prefixes.
func NewExporter() *Exporter {
	prefixes := make(map[string]string, len(semmap.DefaultPrefixes))
	for p, uri := range semmap.DefaultPrefixes {
		if p != "" {
			prefixes[p] = uri
		}
	}
	return &Exporter{prefixes: prefixes}
}

// SetPrefix sets a namespace prefix.
func (e *Exporter) SetPrefix(prefix, iri string) {
	e.prefixes[prefix] = iri
}

// Prefixes returns the prefix names in sorted order.
func (e *Exporter) Prefixes() []string {
	keys := make([]string, 0, len(e.prefixes))
	for k := range e.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export serializes g to the specified format.
func (e *Exporter) Export(g *graph.Graph, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, g, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes g to w in the specified format.
func (e *Exporter) Write(w io.Writer, g *graph.Graph, format Format) error {
	switch format {
	case FormatTurtle:
		tw := NewTurtleWriter(e.prefixes)
		tw.WriteGraph(g)
		_, err := io.WriteString(w, tw.String())
		return err
	case FormatNTriples:
		return writeNQuads(w, g, false)
	case FormatNQuads:
		return writeNQuads(w, g, true)
	case FormatJSONLD:
		jw := NewJSONLDWriter()
		jw.SetContext(e.prefixes)
		jw.AddGraph(g)
		data, err := jw.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatCBOR:
		data, err := MarshalGraph(g)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
