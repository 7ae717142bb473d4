package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/pipeline"
	"github.com/ppiankov/amr2daide/internal/util"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "amr2daide",
	Short: "amr2daide - translate AMR annotations of Diplomacy messages into DAIDE",
	Long: `amr2daide translates Abstract Meaning Representation (AMR) graphs of
Diplomacy game messages into the DAIDE negotiation language.

Each annotated sentence is translated as far as the rule dictionary allows.
Parts without a DAIDE counterpart are kept as AMR text, and every result is
labelled Full-DAIDE, Partial-DAIDE or No-DAIDE.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of amr2daide.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "amr2daide %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.amr2daide/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in the state directory
		viper.AddConfigPath(model.HomeDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match AMR2DAIDE_*, e.g.
	// AMR2DAIDE_CONCURRENCY_WORKERS=4
	viper.SetEnvPrefix("AMR2DAIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every built-in setting with viper so environment
// variables can override keys that no config file mentions.
func setDefaults() error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	registerDefaults("", tree)
	return nil
}

func registerDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			registerDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Concurrency.Workers < 1 {
		return nil, fmt.Errorf("concurrency.workers must be at least 1, got %d", cfg.Concurrency.Workers)
	}
	if cfg.Input.MaxRecords < 0 {
		return nil, fmt.Errorf("input.max_records must not be negative, got %d", cfg.Input.MaxRecords)
	}
	return cfg, nil
}

// newLogger returns the diagnostics logger. Diagnostics go to stderr so
// they never mix with translations on stdout.
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadDictionary loads the configured rule and resource files
func loadDictionary(cfg *model.Config) (*dictionary.Dictionary, error) {
	d, err := dictionary.Load(cfg.Dictionary.Rules, cfg.Dictionary.Resources)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return d, nil
}

// newFetcher builds the input fetcher from the input settings
func newFetcher(cfg *model.Config) (*pipeline.Fetcher, error) {
	proxy, err := util.NewProxyFunc(cfg.Input.HTTPProxy, cfg.Input.HTTPSProxy)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.FetcherOption{pipeline.WithProxy(proxy)}
	if cfg.Input.Robots {
		opts = append(opts, pipeline.WithRobots(time.Hour))
	}
	return pipeline.NewFetcher(cfg.Input.Timeout, cfg.Input.UserAgent, cfg.Input.MaxBytes, opts...), nil
}

// ensureDir creates the parent directory of path
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}
