package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/setlist-cli/internal/run"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect previous runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs under the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		runs, err := run.List(cfg.OutputDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "- %s %s (%s, %d outputs)\n",
				r.Command, r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(r.Outputs))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the manifest of the run containing path (default: current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		r, err := run.Find(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run: %s\n", r.ID)
		fmt.Fprintf(out, "Command: %s\n", r.Command)
		if r.Source != "" {
			fmt.Fprintf(out, "Source: %s\n", r.Source)
		}
		fmt.Fprintf(out, "Created: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		if r.IDs > 0 {
			fmt.Fprintf(out, "Identifiers: %d, groups: %d\n", r.IDs, r.Groups)
		}
		if r.Drops.Total > 0 {
			fmt.Fprintf(out, "Records: %d (kept %d, missing score %d, missing predecessor %d)\n",
				r.Drops.Total, r.Drops.Kept, r.Drops.MissingScore, r.Drops.MissingPredecessor)
		}
		fmt.Fprintln(out, "Outputs:")
		for _, o := range r.Outputs {
			fmt.Fprintf(out, "- [%s] %s (%d bytes)\n", o.Kind, o.Path, o.Bytes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}
