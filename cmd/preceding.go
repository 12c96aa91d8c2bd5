package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/network"
	"github.com/KaramelBytes/setlist-cli/internal/report"
	"github.com/KaramelBytes/setlist-cli/internal/sink"
	"github.com/KaramelBytes/setlist-cli/internal/source"
)

var (
	precedingMin   int
	precedingTop   int
	precedingPairs bool
)

var precedingCmd = &cobra.Command{
	Use:   "preceding",
	Short: "Find the joke that works best right before each joke",
	Long: `Pairs every scored joke with the joke told immediately before it in the same
set, merges misspelled identifiers, and picks for each joke the predecessor
with the highest mean score. Writes the best-predecessor table and a network
of the top N edges as CSV and Graphviz DOT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("min-occurrences") {
			cfg.MinOccurrences = precedingMin
		}
		if f.Changed("top") {
			cfg.TopN = precedingTop
		}
		if f.Changed("emit-pairs") {
			cfg.EmitPairs = precedingPairs
		}

		s, err := openSession(cmd, "preceding", true)
		if err != nil {
			return err
		}
		defer s.close()

		events, err := s.events(source.Query{Kind: source.Preceding, MinOccurrences: cfg.MinOccurrences})
		if err != nil {
			return err
		}
		idx, err := s.group(events)
		if err != nil {
			return err
		}
		remapped, err := aggregate.Remap(events, idx)
		if err != nil {
			return err
		}
		table, drops := aggregate.Pairs(remapped)
		s.drops(drops)

		if cfg.EmitPairs {
			if err := s.write(sink.Table, "pairs", func(w io.Writer) error {
				return report.WritePairs(w, table.Rows())
			}); err != nil {
				return err
			}
		}
		best := aggregate.BestPredecessors(table)
		if err := s.write(sink.Table, "best_preceding", func(w io.Writer) error {
			return report.WriteBest(w, best)
		}); err != nil {
			return err
		}

		edges := network.Edges(best, cfg.TopN)
		if err := s.write(sink.Graph, "network", func(w io.Writer) error {
			return report.WriteEdges(w, edges)
		}); err != nil {
			return err
		}
		if err := s.write(sink.Graph, "network.dot", func(w io.Writer) error {
			return network.WriteDOT(w, "preceding", edges)
		}); err != nil {
			return err
		}

		lines := make([]string, 0, len(edges))
		for _, e := range edges {
			lines = append(lines, fmt.Sprintf("%s <- %s (avg %.2f over %d)", e.From, e.To, e.Weight, e.Count))
		}
		sum := &report.Summary{
			Drops:    &drops,
			Sections: []report.Section{{Title: "Best predecessors", Lines: lines}},
		}
		sum.Settings = append(sum.Settings,
			report.Setting{Key: "min_occurrences", Value: cfg.MinOccurrences},
			report.Setting{Key: "top_n", Value: cfg.TopN},
		)
		if table.Len() == 0 {
			sum.Warnings = append(sum.Warnings, "no scored joke had a predecessor in the same set")
		}
		return s.finish(sum)
	},
}

func init() {
	precedingCmd.Flags().IntVar(&precedingMin, "min-occurrences", source.DefaultMinOccurrences, "minimum appearances of both jokes in a pair (overrides min_occurrences)")
	precedingCmd.Flags().IntVar(&precedingTop, "top", 0, "number of edges in the network, 0 for all (overrides top_n)")
	precedingCmd.Flags().BoolVar(&precedingPairs, "emit-pairs", false, "also write the full pair table before best-predecessor selection")
	rootCmd.AddCommand(precedingCmd)
}
