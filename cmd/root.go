package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/setlist-cli/internal/config"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Overrides (applied over config when set)
	flagDatabase    string
	flagOutputDir   string
	flagThreshold   float64
	flagPolicy      string
	flagScorer      string
	flagLogFile     string
	flagMetricsFile string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "setlist",
	Short: "Setlist CLI: fuzzy-group joke identifiers and score what works together",
	Long: `Setlist reads joke performance records from a SQLite database or CSV export,
merges misspelled joke identifiers by string similarity, and writes per-joke
statistics: frequencies, best preceding jokes, and co-occurrence scores.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.setlist/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagDatabase, "db", "", "input database or CSV export (overrides config)")
	pf.StringVar(&flagOutputDir, "output-dir", "", "directory for run outputs (overrides config)")
	pf.Float64Var(&flagThreshold, "threshold", 0, "similarity threshold 0-100 (overrides config)")
	pf.StringVar(&flagPolicy, "policy", "", "grouping policy: greedy|batch (overrides config)")
	pf.StringVar(&flagScorer, "scorer", "", "similarity scorer: ratio|levenshtein|token_sort (overrides config)")
	pf.StringVar(&flagLogFile, "log-file", "", "append logs to this file instead of stderr")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("db") {
		cfg.Database = flagDatabase
	}
	if f.Changed("output-dir") {
		cfg.OutputDir = flagOutputDir
	}
	if f.Changed("threshold") {
		cfg.SimilarityThreshold = flagThreshold
	}
	if f.Changed("policy") {
		cfg.GroupingPolicy = flagPolicy
	}
	if f.Changed("scorer") {
		cfg.Scorer = flagScorer
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = flagMetricsFile
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	return initLogging(cmd)
}

func initLogging(cmd *cobra.Command) error {
	_ = logger.Sync()
	if cfg.LogFile != "" {
		if err := logger.InitFile(cfg.LogFile); err != nil {
			return err
		}
	} else if err := logger.Init(cmd.ErrOrStderr()); err != nil {
		return err
	}
	return logger.SetLevelString(cfg.LogLevel)
}
