package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/report"
	"github.com/KaramelBytes/setlist-cli/internal/sink"
	"github.com/KaramelBytes/setlist-cli/internal/source"
)

var (
	groupAnchor string
	groupTop    int
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group the jokes told in sets where the anchor joke did well",
	Long: `Reads every set in which the anchor joke scored above its own average,
merges misspelled identifiers of the other jokes in those sets and counts how
often each group appears. Writes the grouping, the frequency table and a
top-N frequency series.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("anchor") {
			cfg.AnchorJoke = groupAnchor
		}
		if cmd.Flags().Changed("top") {
			cfg.FrequencyTopN = groupTop
		}
		if cfg.AnchorJoke == "" {
			return fmt.Errorf("anchor joke is required (--anchor or anchor_joke)")
		}

		s, err := openSession(cmd, "group", true)
		if err != nil {
			return err
		}
		defer s.close()

		events, err := s.events(source.Query{Kind: source.AnchorSets, Anchor: cfg.AnchorJoke})
		if err != nil {
			return err
		}
		idx, err := s.group(events)
		if err != nil {
			return err
		}
		freqs, err := aggregate.Frequencies(events, idx)
		if err != nil {
			return err
		}
		if err := s.write(sink.Table, "frequencies", func(w io.Writer) error {
			return report.WriteFrequencies(w, freqs)
		}); err != nil {
			return err
		}
		top := aggregate.TopN(freqs, cfg.FrequencyTopN)
		series := report.FrequencySeries(fmt.Sprintf("Jokes told alongside %s", cfg.AnchorJoke), top)
		if err := s.write(sink.Series, "frequency_series", func(w io.Writer) error {
			return report.WriteSeries(w, series)
		}); err != nil {
			return err
		}

		lines := make([]string, 0, len(top))
		for i, f := range top {
			lines = append(lines, fmt.Sprintf("%d. %s (%d)", i+1, f.Group, f.Count))
		}
		sum := &report.Summary{
			Sections: []report.Section{{Title: "Most frequent", Lines: lines}},
		}
		sum.Settings = append(sum.Settings, report.Setting{Key: "anchor_joke", Value: cfg.AnchorJoke})
		if len(events) == 0 {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("no sets found where %s beat its average", cfg.AnchorJoke))
		}
		return s.finish(sum)
	},
}

func init() {
	groupCmd.Flags().StringVar(&groupAnchor, "anchor", "", "anchor joke identifier (overrides anchor_joke)")
	groupCmd.Flags().IntVar(&groupTop, "top", 0, "number of groups in the frequency series, 0 for all (overrides frequency_top_n)")
	rootCmd.AddCommand(groupCmd)
}
