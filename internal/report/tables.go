// Package report encodes aggregation results as CSV tables, YAML series and
// Markdown summaries.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/cooccur"
	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/network"
)

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WritePairs writes the intermediate (group, predecessor) table.
func WritePairs(w io.Writer, rows []aggregate.PairStat) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Group, r.Predecessor, strconv.Itoa(r.Count), fmtFloat(r.Mean)}
	}
	return writeAll(w, []string{"grouped_jokeid", "preceding_jokeid", "count", "avg_score"}, out)
}

// WriteBest writes the best-predecessor table.
func WriteBest(w io.Writer, rows []aggregate.Best) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Group, r.Predecessor, fmtFloat(r.MeanScore), strconv.Itoa(r.Count)}
	}
	return writeAll(w, []string{"grouped_jokeid", "preceding_jokeid", "avg_score", "count"}, out)
}

// WriteFrequencies writes group occurrence counts.
func WriteFrequencies(w io.Writer, rows []aggregate.Frequency) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Group, strconv.Itoa(r.Count)}
	}
	return writeAll(w, []string{"grouped_jokeid", "count"}, out)
}

// WriteGroupMeans writes mean scores per group.
func WriteGroupMeans(w io.Writer, rows []aggregate.GroupMean) error {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Group, fmtFloat(r.Mean), strconv.Itoa(r.Count)}
	}
	return writeAll(w, []string{"grouped_jokeid", "avg_score", "count"}, out)
}

// WriteGroups writes the identifier to canonical mapping, one row per member.
func WriteGroups(w io.Writer, groups []grouping.Group) error {
	var out [][]string
	for _, g := range groups {
		for _, m := range g.Members {
			out = append(out, []string{m, g.Canonical})
		}
	}
	return writeAll(w, []string{"jokeid", "grouped_jokeid"}, out)
}

// WriteMatrix writes a labelled square matrix with an empty corner cell.
func WriteMatrix(w io.Writer, m *cooccur.Matrix) error {
	header := append([]string{""}, m.Labels...)
	out := make([][]string, m.Len())
	for i, label := range m.Labels {
		row := make([]string, 0, m.Len()+1)
		row = append(row, label)
		for j := range m.Labels {
			row = append(row, fmtFloat(m.At(i, j)))
		}
		out[i] = row
	}
	return writeAll(w, header, out)
}

// WriteEdges writes a directed edge list.
func WriteEdges(w io.Writer, edges []network.Edge) error {
	out := make([][]string, len(edges))
	for i, e := range edges {
		out[i] = []string{e.From, e.To, fmtFloat(e.Weight), strconv.Itoa(e.Count)}
	}
	return writeAll(w, []string{"source", "target", "weight", "count"}, out)
}
