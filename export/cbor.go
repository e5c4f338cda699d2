package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/fxamacker/cbor/v2"

	"github.com/c360studio/semmap/graph"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

// SnapshotVersion is the version written into CBOR graph snapshots.
const SnapshotVersion = 1

// encMode uses Core Deterministic Encoding, so equal graphs with equal
// statement order produce identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("export: CBOR decoder initialization failed: " + err.Error())
	}
}

type termKind uint8

const (
	termIRI termKind = iota + 1
	termBNode
	termString
	termTyped
	termLang
)

type term struct {
	_     struct{} `cbor:",toarray"`
	Kind  termKind
	Value string
	Extra string
}

type statement struct {
	_         struct{} `cbor:",toarray"`
	Subject   term
	Predicate term
	Object    term
	Label     *term
}

type snapshot struct {
	Version    int         `cbor:"1,keyasint"`
	Statements []statement `cbor:"2,keyasint"`
}

// MarshalGraph encodes g as a CBOR snapshot. Native cayley literals are
// written as typed literals.
func MarshalGraph(g *graph.Graph) ([]byte, error) {
	snap := snapshot{Version: SnapshotVersion, Statements: make([]statement, 0, g.Len())}
	for _, q := range g.Quads() {
		st := statement{}
		var err error
		if st.Subject, err = encodeTerm(q.Subject); err != nil {
			return nil, err
		}
		if st.Predicate, err = encodeTerm(q.Predicate); err != nil {
			return nil, err
		}
		if st.Object, err = encodeTerm(q.Object); err != nil {
			return nil, err
		}
		if q.Label != nil {
			label, err := encodeTerm(q.Label)
			if err != nil {
				return nil, err
			}
			st.Label = &label
		}
		snap.Statements = append(snap.Statements, st)
	}
	return encMode.Marshal(snap)
}

// UnmarshalGraph decodes a CBOR snapshot.
func UnmarshalGraph(data []byte) (*graph.Graph, error) {
	var snap snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	g := graph.New()
	for i, st := range snap.Statements {
		q := quad.Quad{}
		var err error
		if q.Subject, err = decodeTerm(st.Subject); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		if q.Predicate, err = decodeTerm(st.Predicate); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		if q.Object, err = decodeTerm(st.Object); err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		if st.Label != nil {
			if q.Label, err = decodeTerm(*st.Label); err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
		}
		g.AddQuad(q)
	}
	return g, nil
}

func encodeTerm(v quad.Value) (term, error) {
	switch t := v.(type) {
	case quad.IRI:
		return term{Kind: termIRI, Value: string(t.Full())}, nil
	case quad.BNode:
		return term{Kind: termBNode, Value: string(t)}, nil
	case quad.String:
		return term{Kind: termString, Value: string(t)}, nil
	case quad.TypedString:
		return term{Kind: termTyped, Value: string(t.Value), Extra: string(t.Type.Full())}, nil
	case quad.LangString:
		return term{Kind: termLang, Value: string(t.Value), Extra: t.Lang}, nil
	case quad.Int:
		return term{Kind: termTyped, Value: strconv.FormatInt(int64(t), 10), Extra: semmap.XSDLong}, nil
	case quad.Float:
		return term{Kind: termTyped, Value: strconv.FormatFloat(float64(t), 'g', -1, 64), Extra: semmap.XSDDouble}, nil
	case quad.Bool:
		return term{Kind: termTyped, Value: strconv.FormatBool(bool(t)), Extra: semmap.XSDBoolean}, nil
	case quad.Time:
		return term{Kind: termTyped, Value: time.Time(t).Format(time.RFC3339Nano), Extra: semmap.XSDDateTime}, nil
	}
	return term{}, fmt.Errorf("cannot encode %T in a snapshot", v)
}

func decodeTerm(t term) (quad.Value, error) {
	switch t.Kind {
	case termIRI:
		return quad.IRI(t.Value), nil
	case termBNode:
		return quad.BNode(t.Value), nil
	case termString:
		return quad.String(t.Value), nil
	case termTyped:
		return quad.TypedString{Value: quad.String(t.Value), Type: quad.IRI(t.Extra)}, nil
	case termLang:
		return quad.LangString{Value: quad.String(t.Value), Lang: t.Extra}, nil
	}
	return nil, fmt.Errorf("unknown term kind %d", t.Kind)
}
