// Package network turns best-predecessor rows into a directed graph of
// jokes and the jokes that set them up best.
package network

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
)

// Edge points from a group to its best predecessor.
type Edge struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Weight float64 `json:"weight" yaml:"weight"`
	Count  int     `json:"count" yaml:"count"`
}

// Edges keeps the topN best rows by mean score (all when topN <= 0) and
// emits one edge per row. Equal means keep their input order.
func Edges(best []aggregate.Best, topN int) []Edge {
	rows := append([]aggregate.Best(nil), best...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].MeanScore > rows[j].MeanScore })
	rows = aggregate.TopN(rows, topN)

	out := make([]Edge, len(rows))
	for i, b := range rows {
		out[i] = Edge{From: b.Group, To: b.Predecessor, Weight: b.MeanScore, Count: b.Count}
	}
	return out
}

// Nodes lists distinct node labels in order of first appearance.
func Nodes(edges []Edge) []string {
	seen := make(map[string]struct{}, 2*len(edges))
	var out []string
	for _, e := range edges {
		for _, n := range [2]string{e.From, e.To} {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// WriteDOT renders edges as a Graphviz digraph.
func WriteDOT(w io.Writer, name string, edges []Edge) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(name))
	b.WriteString("  rankdir=LR;\n")
	for _, n := range Nodes(edges) {
		fmt.Fprintf(&b, "  %s;\n", strconv.Quote(n))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s -> %s [label=%s];\n",
			strconv.Quote(e.From), strconv.Quote(e.To),
			strconv.Quote(strconv.FormatFloat(e.Weight, 'f', 2, 64)))
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// DOT returns the Graphviz text for edges.
func DOT(name string, edges []Edge) string {
	var b strings.Builder
	_ = WriteDOT(&b, name, edges)
	return b.String()
}
