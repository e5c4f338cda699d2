package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"

	"github.com/c360studio/semmap/export"
	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	alice := quad.IRI("http://example.org/people/alice")
	g.Add(alice, graph.TypePredicate, quad.IRI(semmap.FOAF+"Person"))
	g.Add(alice, quad.IRI(semmap.FOAF+"name"), quad.TypedString{Value: "Alice \"Al\" Smith", Type: semmap.XSDString})
	g.Add(alice, quad.IRI(semmap.FOAF+"nick"), quad.LangString{Value: "ali", Lang: "en"})
	g.Add(alice, quad.IRI(semmap.FOAF+"age"), quad.TypedString{Value: "42", Type: semmap.XSDInt})

	tags := g.AddList([]quad.Value{quad.String("a"), quad.String("b")})
	g.Add(alice, quad.IRI("http://example.org/tags"), tags)
	return g
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want export.Format
	}{
		{"turtle", export.FormatTurtle},
		{"ttl", export.FormatTurtle},
		{".nt", export.FormatNTriples},
		{"NQuads", export.FormatNQuads},
		{"jsonld", export.FormatJSONLD},
		{"cbor", export.FormatCBOR},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := export.ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := export.ParseFormat("rdfxml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatForPath(t *testing.T) {
	if f, ok := export.FormatForPath("data/graph.nq"); !ok || f != export.FormatNQuads {
		t.Errorf("FormatForPath(.nq) = %q, %v", f, ok)
	}
	if _, ok := export.FormatForPath("README"); ok {
		t.Error("expected no format for a path without extension")
	}
}

func TestFormatRegistry(t *testing.T) {
	for format, info := range export.FormatRegistry {
		if info.Name != format {
			t.Errorf("registry entry %q has name %q", format, info.Name)
		}
		if info.MIMEType == "" || info.Extension == "" {
			t.Errorf("registry entry %q is incomplete", format)
		}
	}
}

func TestExportNTriples(t *testing.T) {
	g := sampleGraph()
	g.AddQuad(quad.Quad{
		Subject:   quad.IRI("http://example.org/s"),
		Predicate: quad.IRI("http://example.org/p"),
		Object:    quad.String("labelled"),
		Label:     quad.IRI("http://example.org/graph"),
	})

	out, err := export.NewExporter().Export(g, export.FormatNTriples)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != g.Len() {
		t.Errorf("expected %d lines, got %d", g.Len(), len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, " .") {
			t.Errorf("line should end with ' .': %s", line)
		}
	}
	if strings.Contains(string(out), "http://example.org/graph") {
		t.Error("N-Triples output should not contain graph labels")
	}
	if !strings.Contains(string(out), `"42"^^<http://www.w3.org/2001/XMLSchema#int>`) {
		t.Errorf("typed literal missing from output:\n%s", out)
	}
}

func TestNQuadsRoundTrip(t *testing.T) {
	g := sampleGraph()
	g.AddQuad(quad.Quad{
		Subject:   quad.IRI("http://example.org/s"),
		Predicate: quad.IRI("http://example.org/p"),
		Object:    quad.String("labelled"),
		Label:     quad.IRI("http://example.org/graph"),
	})

	var buf bytes.Buffer
	if err := export.NewExporter().Write(&buf, g, export.FormatNQuads); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	back, err := export.ReadNQuads(&buf)
	if err != nil {
		t.Fatalf("ReadNQuads failed: %v", err)
	}
	if !graph.Isomorphic(g, back) {
		t.Errorf("round trip changed the graph:\nwant %v\ngot  %v", g.Quads(), back.Quads())
	}
}

func TestReadNQuadsError(t *testing.T) {
	_, err := export.ParseNQuads([]byte("<http://example.org/s> <http://example.org/p> .\n"))
	if err == nil {
		t.Error("expected error for a statement without object")
	}
}

func TestExportTurtle(t *testing.T) {
	out, err := export.NewExporter().Export(sampleGraph(), export.FormatTurtle)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	ttl := string(out)

	for _, want := range []string{
		"@prefix foaf: <http://xmlns.com/foaf/0.1/> .",
		"<http://example.org/people/alice>",
		"a foaf:Person",
		`foaf:name "Alice \"Al\" Smith"^^xsd:string`,
		`foaf:nick "ali"@en`,
		`"42"^^xsd:int`,
		"rdf:first",
	} {
		if !strings.Contains(ttl, want) {
			t.Errorf("Turtle output should contain %q:\n%s", want, ttl)
		}
	}
}

func TestTurtleTermCompaction(t *testing.T) {
	w := export.NewTurtleWriter(map[string]string{"ex": "http://example.org/"})

	tests := []struct {
		in   quad.Value
		want string
	}{
		{quad.IRI("http://example.org/thing"), "ex:thing"},
		{quad.IRI("http://example.org/a/b"), "<http://example.org/a/b>"},
		{quad.IRI("http://other.org/x"), "<http://other.org/x>"},
		{quad.BNode("b1"), "_:b1"},
		{quad.String("line\nbreak"), `"line\nbreak"`},
	}
	for _, tt := range tests {
		if got := w.Term(tt.in); got != tt.want {
			t.Errorf("Term(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestExportJSONLD(t *testing.T) {
	out, err := export.NewExporter().Export(sampleGraph(), export.FormatJSONLD)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc export.JSONLDDocument
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Context["foaf"] != semmap.FOAF {
		t.Errorf("context should bind foaf, got %v", doc.Context["foaf"])
	}

	var alice *export.JSONLDNode
	for i := range doc.Graph {
		if doc.Graph[i].ID == "http://example.org/people/alice" {
			alice = &doc.Graph[i]
		}
	}
	if alice == nil {
		t.Fatal("alice node missing from @graph")
	}
	if len(alice.Type) != 1 || alice.Type[0] != "foaf:Person" {
		t.Errorf("unexpected types: %v", alice.Type)
	}
	nick, ok := alice.Properties["foaf:nick"].([]any)
	if !ok || len(nick) != 1 {
		t.Fatalf("foaf:nick should be a single-element array, got %v", alice.Properties["foaf:nick"])
	}
	if v := nick[0].(map[string]any); v["@language"] != "en" || v["@value"] != "ali" {
		t.Errorf("unexpected language value: %v", v)
	}
	if tags, ok := alice.Properties["http://example.org/tags"].([]any); !ok || len(tags) != 1 {
		t.Errorf("tags should reference the list head, got %v", alice.Properties["http://example.org/tags"])
	}
}

func TestCBORSnapshot(t *testing.T) {
	g := sampleGraph()
	g.Add(quad.IRI("http://example.org/n"), quad.IRI("http://example.org/count"), quad.Int(3))

	first, err := export.MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph failed: %v", err)
	}
	second, err := export.MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("snapshot encoding should be deterministic")
	}

	back, err := export.UnmarshalGraph(first)
	if err != nil {
		t.Fatalf("UnmarshalGraph failed: %v", err)
	}
	if back.Len() != g.Len() {
		t.Fatalf("expected %d statements, got %d", g.Len(), back.Len())
	}
	want := quad.TypedString{Value: "3", Type: semmap.XSDLong}
	if !back.Contains(quad.IRI("http://example.org/n"), quad.IRI("http://example.org/count"), want) {
		t.Error("native literal should decode as a typed literal")
	}

	read, err := export.Read(bytes.NewReader(first), export.FormatCBOR)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !graph.Isomorphic(back, read) {
		t.Error("Read(cbor) should match UnmarshalGraph")
	}
}

func TestUnmarshalGraphRejectsGarbage(t *testing.T) {
	if _, err := export.UnmarshalGraph([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid snapshot")
	}
}

func TestReadUnsupportedFormat(t *testing.T) {
	if _, err := export.Read(strings.NewReader(""), export.FormatTurtle); err == nil {
		t.Error("expected error reading turtle")
	}
}
