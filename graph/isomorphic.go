package graph

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/zeebo/blake3"
)

// Isomorphic reports whether a and b are equal up to a renaming of blank
// nodes.
func Isomorphic(a, b *Graph) bool {
	if a.Len() != b.Len() {
		return false
	}
	sigA := blankSignatures(a)
	sigB := blankSignatures(b)
	if len(sigA) != len(sigB) {
		return false
	}

	classesA := groupBySignature(sigA)
	classesB := groupBySignature(sigB)
	if len(classesA) != len(classesB) {
		return false
	}
	for sig, nodes := range classesA {
		if len(classesB[sig]) != len(nodes) {
			return false
		}
	}

	var order []quad.BNode
	for _, sig := range sortedKeys(classesA) {
		order = append(order, classesA[sig]...)
	}

	mapping := make(map[quad.BNode]quad.BNode, len(order))
	used := make(map[quad.BNode]bool, len(order))
	var search func(i int) bool
	search = func(i int) bool {
		if i == len(order) {
			return sameUnder(a, b, mapping)
		}
		src := order[i]
		for _, dst := range classesB[sigA[src]] {
			if used[dst] {
				continue
			}
			mapping[src] = dst
			used[dst] = true
			if search(i + 1) {
				return true
			}
			used[dst] = false
		}
		delete(mapping, src)
		return false
	}
	return search(0)
}

func sameUnder(a, b *Graph, mapping map[quad.BNode]quad.BNode) bool {
	rename := func(v quad.Value) quad.Value {
		if bn, ok := v.(quad.BNode); ok {
			return mapping[bn]
		}
		return v
	}
	for _, q := range a.quads {
		r := quad.Quad{
			Subject:   rename(q.Subject),
			Predicate: rename(q.Predicate),
			Object:    rename(q.Object),
			Label:     q.Label,
		}
		if _, ok := b.index[r]; !ok {
			return false
		}
	}
	return true
}

// blankSignatures computes a renaming-invariant signature per blank node by
// iterative refinement over the statements each node takes part in.
func blankSignatures(g *Graph) map[quad.BNode]string {
	sigs := make(map[quad.BNode]string)
	for _, q := range g.quads {
		for _, v := range []quad.Value{q.Subject, q.Object} {
			if bn, ok := v.(quad.BNode); ok {
				sigs[bn] = ""
			}
		}
	}

	term := func(v quad.Value, self quad.BNode) string {
		if bn, ok := v.(quad.BNode); ok {
			if bn == self {
				return "@self"
			}
			return "_:" + sigs[bn]
		}
		if v == nil {
			return ""
		}
		return v.String()
	}

	for round := 0; round <= len(sigs); round++ {
		next := make(map[quad.BNode]string, len(sigs))
		for bn := range sigs {
			var parts []string
			for _, q := range g.quads {
				if q.Subject != bn && q.Object != bn {
					continue
				}
				parts = append(parts, term(q.Subject, bn)+" "+term(q.Predicate, bn)+" "+term(q.Object, bn))
			}
			sort.Strings(parts)
			sum := blake3.Sum256([]byte(strings.Join(parts, "\n")))
			next[bn] = hex.EncodeToString(sum[:16])
		}
		stable := distinctCount(next) == distinctCount(sigs)
		sigs = next
		if stable && round > 0 {
			break
		}
	}
	return sigs
}

func distinctCount(sigs map[quad.BNode]string) int {
	seen := make(map[string]struct{}, len(sigs))
	for _, s := range sigs {
		seen[s] = struct{}{}
	}
	return len(seen)
}

func groupBySignature(sigs map[quad.BNode]string) map[string][]quad.BNode {
	out := make(map[string][]quad.BNode)
	for bn, s := range sigs {
		out[s] = append(out[s], bn)
	}
	for _, nodes := range out {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	}
	return out
}

func sortedKeys(m map[string][]quad.BNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
