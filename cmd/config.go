package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/setlist-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set setlist configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		snap := cfg.Snapshot()
		for _, k := range cfgpkg.Keys {
			fmt.Fprintf(out, "%s: %v\n", k, snap[k])
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "⚠️  %v\n", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Reload so flag overrides of this invocation are not persisted.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	switch key {
	case "database":
		c.Database = val
	case "output_dir":
		c.OutputDir = val
	case "similarity_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		c.SimilarityThreshold = f
	case "grouping_policy":
		c.GroupingPolicy = val
	case "scorer":
		c.Scorer = val
	case "min_occurrences":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.MinOccurrences = i
	case "top_n":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.TopN = i
	case "frequency_top_n":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.FrequencyTopN = i
	case "anchor_joke":
		c.AnchorJoke = val
	case "cooccur_mode":
		c.CooccurMode = val
	case "emit_pairs":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		c.EmitPairs = b
	case "log_level":
		c.LogLevel = val
	case "log_file":
		c.LogFile = val
	case "metrics_file":
		c.MetricsFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
