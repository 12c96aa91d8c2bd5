package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/cooccur"
	"github.com/KaramelBytes/setlist-cli/internal/report"
	"github.com/KaramelBytes/setlist-cli/internal/sink"
	"github.com/KaramelBytes/setlist-cli/internal/source"
)

var (
	cooccurTop  int
	cooccurMode string
)

var cooccurCmd = &cobra.Command{
	Use:   "cooccur",
	Short: "Score how the top jokes do when told in the same set",
	Long: `Ranks joke groups by mean score, keeps the top N, and builds a symmetric
matrix whose cells hold the average score of two jokes told in the same set.
With --mode overwrite the last co-occurrence wins; with --mode average every
co-occurrence contributes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("top") {
			cfg.TopN = cooccurTop
		}
		if f.Changed("mode") {
			cfg.CooccurMode = cooccurMode
		}

		s, err := openSession(cmd, "cooccur", true)
		if err != nil {
			return err
		}
		defer s.close()

		mode, err := cooccur.ParseMode(cfg.CooccurMode)
		if err != nil {
			return err
		}
		events, err := s.events(source.Query{Kind: source.Scored})
		if err != nil {
			return err
		}
		idx, err := s.group(events)
		if err != nil {
			return err
		}
		means, err := aggregate.GroupMeans(events, idx)
		if err != nil {
			return err
		}
		top := aggregate.TopN(means, cfg.TopN)
		if err := s.write(sink.Table, "top_jokes", func(w io.Writer) error {
			return report.WriteGroupMeans(w, top)
		}); err != nil {
			return err
		}
		if err := s.write(sink.Series, "top_jokes_series", func(w io.Writer) error {
			return report.WriteSeries(w, report.MeanSeries("Top jokes by mean score", top))
		}); err != nil {
			return err
		}

		m, err := cooccur.Build(events, idx, aggregate.GroupNames(top), mode)
		if err != nil {
			return err
		}
		if err := s.write(sink.Matrix, "cooccurrence", func(w io.Writer) error {
			return report.WriteMatrix(w, m)
		}); err != nil {
			return err
		}

		lines := make([]string, 0, len(top))
		for i, g := range top {
			lines = append(lines, fmt.Sprintf("%d. %s (avg %.2f over %d)", i+1, g.Group, g.Mean, g.Count))
		}
		sum := &report.Summary{
			Sections: []report.Section{{Title: "Top jokes", Lines: lines}},
		}
		sum.Settings = append(sum.Settings,
			report.Setting{Key: "top_n", Value: cfg.TopN},
			report.Setting{Key: "cooccur_mode", Value: string(mode)},
		)
		if len(events) == 0 {
			sum.Warnings = append(sum.Warnings, "no scored jokes found")
		}
		return s.finish(sum)
	},
}

func init() {
	cooccurCmd.Flags().IntVar(&cooccurTop, "top", 0, "number of top groups in the matrix, 0 for all (overrides top_n)")
	cooccurCmd.Flags().StringVar(&cooccurMode, "mode", "", "co-occurrence mode: overwrite|average (overrides cooccur_mode)")
	rootCmd.AddCommand(cooccurCmd)
}
