package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/accidents"
	"github.com/KaramelBytes/setlist-cli/internal/report"
	"github.com/KaramelBytes/setlist-cli/internal/sink"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
	"github.com/KaramelBytes/setlist-cli/pkg/metrics"
)

var accidentsCmd = &cobra.Command{
	Use:   "accidents <csv>",
	Short: "Summarize cyclist accidents by hour, weekday, borough, location and factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input not found: %w", err)
		}
		s, err := openSession(cmd, "accidents", false)
		if err != nil {
			return err
		}
		s.run.Source = path

		ds, err := accidents.LoadFile(path)
		if err != nil {
			return err
		}
		metrics.RecordRecordsRead(s.command, ds.Total)
		metrics.RecordDropped(s.command, metrics.ReasonBadTime, ds.Dropped)
		s.log.Info(s.ctx, "accidents loaded",
			logger.Int("rows", ds.Total),
			logger.Int("kept", len(ds.Records)),
			logger.Int("bad_time", ds.Dropped))

		st := accidents.Analyze(ds)
		if err := s.write(sink.Table, "accidents_enriched", func(w io.Writer) error {
			return accidents.WriteEnriched(w, ds, st)
		}); err != nil {
			return err
		}
		tables := []struct {
			name, key string
			rows      []accidents.Bucket
		}{
			{"by_hour", accidents.ColHour, st.ByHour},
			{"by_day", accidents.ColDayOfWeek, st.ByDay},
			{"by_borough", accidents.ColBorough, st.ByBorough},
			{"by_location", "Location", st.ByLocation},
			{"by_factor", accidents.ColFactor, st.ByFactor},
			{"top_factors", accidents.ColFactor, st.TopFactors},
		}
		for _, t := range tables {
			if err := s.write(sink.Table, t.name, func(w io.Writer) error {
				return accidents.WriteBuckets(w, t.key, t.rows)
			}); err != nil {
				return err
			}
		}

		lines := make([]string, 0, len(st.TopFactors))
		for i, b := range st.TopFactors {
			lines = append(lines, fmt.Sprintf("%d. %s (%d injured, %d killed)", i+1, b.Key, b.Injured, b.Killed))
		}
		sum := &report.Summary{
			Sections: []report.Section{
				{Title: "Records", Lines: []string{
					fmt.Sprintf("Rows: %d", ds.Total),
					fmt.Sprintf("Kept: %d", len(ds.Records)),
					fmt.Sprintf("Dropped (bad time): %d", ds.Dropped),
				}},
				{Title: "Top factors", Lines: lines},
			},
		}
		if ds.Dropped > 0 {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("%d rows dropped for a missing or malformed time", ds.Dropped))
		}
		return s.finish(sum)
	},
}

func init() {
	rootCmd.AddCommand(accidentsCmd)
}
