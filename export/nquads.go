package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cayleygraph/quad/nquads"

	"github.com/c360studio/semmap/graph"
)

// writeNQuads writes one line per statement. Labels are kept only when
// withLabels is set, which turns N-Quads output into N-Triples.
func writeNQuads(w io.Writer, g *graph.Graph, withLabels bool) error {
	qw := nquads.NewWriter(w)
	for _, q := range g.Quads() {
		if !withLabels {
			q.Label = nil
		}
		if err := qw.WriteQuad(q); err != nil {
			return fmt.Errorf("write statement %v: %w", q, err)
		}
	}
	return qw.Close()
}

// ReadNQuads parses N-Quads or N-Triples into a graph. Typed literals are
// kept in their lexical form.
func ReadNQuads(r io.Reader) (*graph.Graph, error) {
	g := graph.New()
	qr := nquads.NewReader(r, true)
	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read statement %d: %w", g.Len()+1, err)
		}
		g.AddQuad(q)
	}
}

// Read parses r in the given format. Only formats marked Readable are
// supported.
func Read(r io.Reader, format Format) (*graph.Graph, error) {
	switch format {
	case FormatNQuads, FormatNTriples:
		return ReadNQuads(r)
	case FormatCBOR:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return UnmarshalGraph(data)
	}
	return nil, fmt.Errorf("unsupported input format: %s", format)
}

// ParseNQuads is ReadNQuads over a byte slice.
func ParseNQuads(data []byte) (*graph.Graph, error) {
	return ReadNQuads(bytes.NewReader(data))
}
