package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/setlist-cli/internal/cooccur"
	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/similarity"
)

// Global configuration structure.
type Global struct {
	Database  string `mapstructure:"database" yaml:"database"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Grouping
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	GroupingPolicy      string  `mapstructure:"grouping_policy" yaml:"grouping_policy"`
	Scorer              string  `mapstructure:"scorer" yaml:"scorer"`

	// Aggregation
	MinOccurrences int    `mapstructure:"min_occurrences" yaml:"min_occurrences"`
	TopN           int    `mapstructure:"top_n" yaml:"top_n"`
	FrequencyTopN  int    `mapstructure:"frequency_top_n" yaml:"frequency_top_n"`
	AnchorJoke     string `mapstructure:"anchor_joke" yaml:"anchor_joke"`
	CooccurMode    string `mapstructure:"cooccur_mode" yaml:"cooccur_mode"`
	EmitPairs      bool   `mapstructure:"emit_pairs" yaml:"emit_pairs"`

	// Ambient
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"database", "output_dir",
	"similarity_threshold", "grouping_policy", "scorer",
	"min_occurrences", "top_n", "frequency_top_n", "anchor_joke", "cooccur_mode", "emit_pairs",
	"log_level", "log_file", "metrics_file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "jokes.db")
	v.SetDefault("output_dir", "setlist-out")
	v.SetDefault("similarity_threshold", grouping.DefaultThreshold)
	v.SetDefault("grouping_policy", string(grouping.Greedy))
	v.SetDefault("scorer", similarity.NameRatio)
	v.SetDefault("min_occurrences", 5)
	v.SetDefault("top_n", 20)
	v.SetDefault("frequency_top_n", 30)
	v.SetDefault("anchor_joke", "AI_killing_poetry")
	v.SetDefault("cooccur_mode", string(cooccur.Overwrite))
	v.SetDefault("emit_pairs", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_file", "")
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// DefaultPath returns ~/.setlist/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".setlist", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.setlist/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SETLIST")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".setlist"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// no config yet; defaults apply
		case cfgFile != "" && errors.Is(err, fs.ErrNotExist):
			// explicit path not written yet, e.g. before the first `config set`
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks that enumerated and ranged values are usable.
func (c *Global) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity_threshold %.2f: %w", c.SimilarityThreshold, grouping.ErrInvalidThreshold)
	}
	if _, err := grouping.ParsePolicy(c.GroupingPolicy); err != nil {
		return err
	}
	if _, err := similarity.ByName(c.Scorer); err != nil {
		return err
	}
	if _, err := cooccur.ParseMode(c.CooccurMode); err != nil {
		return err
	}
	if c.MinOccurrences < 0 {
		return fmt.Errorf("min_occurrences must be >= 0, got %d", c.MinOccurrences)
	}
	return nil
}

// Snapshot returns the configuration as a key/value map for run manifests.
func (c *Global) Snapshot() map[string]any {
	return map[string]any{
		"database":             c.Database,
		"output_dir":           c.OutputDir,
		"similarity_threshold": c.SimilarityThreshold,
		"grouping_policy":      c.GroupingPolicy,
		"scorer":               c.Scorer,
		"min_occurrences":      c.MinOccurrences,
		"top_n":                c.TopN,
		"frequency_top_n":      c.FrequencyTopN,
		"anchor_joke":          c.AnchorJoke,
		"cooccur_mode":         c.CooccurMode,
		"emit_pairs":           c.EmitPairs,
		"log_level":            c.LogLevel,
		"log_file":             c.LogFile,
		"metrics_file":         c.MetricsFile,
	}
}
