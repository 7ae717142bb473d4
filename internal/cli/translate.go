package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/pipeline"
	"github.com/ppiankov/amr2daide/internal/score"
	"github.com/ppiankov/amr2daide/internal/store"
)

var (
	inputPath     string
	textPath      string
	jsonlPath     string
	htmlPath      string
	maxRecords    int
	developerMode bool
	workers       int
	noCache       bool
	recordRun     bool
	rulesPath     string
	resourcesPath string
	noGloss       bool
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate an annotation file into DAIDE",
	Long: `Translate reads AMR-annotated sentences and writes one DAIDE translation
per record:
- Text output in the annotation layout (stdout by default)
- JSON Lines with id, snt, amr, daide-status and daide fields
- An HTML report with translated and untranslated parts highlighted

Input may be a file, an http(s) URL or "-" for stdin. Text output is left
out when JSON Lines go to stdout, unless -o names a file.

Example:
  amr2daide translate -i dip-all.txt
  amr2daide translate -i dip-all.txt -j - > out.jsonl
  amr2daide translate -i dip-all.txt -d -o dev.txt --html report.html
  amr2daide translate -i dip-all.txt --workers 8 --record`,
	Args: cobra.NoArgs,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	// Input and output flags
	translateCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "input annotation file, URL or - for stdin")
	translateCmd.Flags().StringVarP(&textPath, "output", "o", "", "text output path (default: stdout)")
	translateCmd.Flags().StringVarP(&jsonlPath, "json", "j", "", "JSON Lines output path, - for stdout")
	translateCmd.Flags().StringVar(&htmlPath, "html", "", "HTML report path")
	translateCmd.Flags().IntVarP(&maxRecords, "max", "m", 0, "maximum number of records to translate (0 for all)")

	// Behavior flags
	translateCmd.Flags().BoolVarP(&developerMode, "developer", "d", false, "developer mode: rule ids, English gloss, summary")
	translateCmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent translation workers")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the translation cache")
	translateCmd.Flags().BoolVar(&recordRun, "record", false, "record the run in the run store")
	translateCmd.Flags().StringVar(&rulesPath, "rules", "", "rule dictionary file (default: built-in)")
	translateCmd.Flags().StringVar(&resourcesPath, "resources", "", "resource file (default: built-in)")
	translateCmd.Flags().BoolVar(&noGloss, "no-gloss", false, "leave out English glosses in developer mode")
}

// applyTranslateFlags lays explicitly set flags over the loaded config
func applyTranslateFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("max") {
		cfg.Input.MaxRecords = maxRecords
	}
	if flags.Changed("developer") {
		cfg.Output.DeveloperMode = developerMode
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if recordRun {
		cfg.Store.Enabled = true
	}
	if noGloss {
		cfg.Output.Gloss = false
	}
	if rulesPath != "" {
		cfg.Dictionary.Rules = rulesPath
	}
	if resourcesPath != "" {
		cfg.Dictionary.Resources = resourcesPath
	}
}

func runTranslate(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyTranslateFlags(cmd, cfg)
	if cfg.Concurrency.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", cfg.Concurrency.Workers)
	}
	logger := newLogger(cfg)

	// The dictionary must load before any record is touched
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Input:      %s\n", inputPath)
		fmt.Fprintf(os.Stderr, "Dictionary: %d rules, digest %.12s\n", len(dict.Rules()), dict.Digest())
		fmt.Fprintf(os.Stderr, "Workers:    %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Store.Enabled {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, pipeline.WithStore(s))
	}
	p := pipeline.NewPipeline(cfg, dict, opts...)

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	src, err := fetcher.Open(ctx, inputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	var outputs pipeline.Outputs
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if closeErr := c.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}
	}()

	open := func(path string) (io.Writer, error) {
		w, c, err := createOutput(path, cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}
		closers = append(closers, c)
		return w, nil
	}

	switch {
	case textPath != "":
		if outputs.Text, err = open(textPath); err != nil {
			return err
		}
	case jsonlPath != "-":
		outputs.Text = cmd.OutOrStdout()
	}
	if jsonlPath != "" {
		if outputs.JSONL, err = open(jsonlPath); err != nil {
			return err
		}
	}
	if htmlPath != "" {
		if outputs.HTML, err = open(htmlPath); err != nil {
			return err
		}
	}

	result, err := p.Run(ctx, src, outputs)
	if err != nil {
		return fmt.Errorf("translate failed: %w", err)
	}

	if cfg.Output.Verbose {
		s := result.Summary
		fmt.Fprintf(os.Stderr, "✓ Translated %d records (%d Full-DAIDE, %d Partial-DAIDE, %d No-DAIDE)\n",
			s.Total, s.ByStatus[model.StatusFull], s.ByStatus[model.StatusPartial], s.ByStatus[model.StatusNone])
		if s.Skipped > 0 {
			fmt.Fprintf(os.Stderr, "✗ Skipped %d records\n", s.Skipped)
		}
		if s.Cached > 0 {
			fmt.Fprintf(os.Stderr, "✓ %d translations served from cache\n", s.Cached)
		}
		printSignals(s)
	}
	if result.Run != nil {
		fmt.Fprintf(os.Stderr, "✓ Recorded run %s\n", result.Run.ID)
	}
	return nil
}

// printSignals lists the run's findings on stderr
func printSignals(s *score.Summary) {
	signals := s.Signals()
	if len(signals) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nSignals:\n")
	for _, sig := range signals {
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", sig.Severity, sig.Description)
	}
}

// createOutput opens path for writing; "-" selects stdout, which is never
// closed.
func createOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if path == "-" {
		return stdout, io.NopCloser(nil), nil
	}
	if err := ensureDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f, nil
}

// openStore opens the configured run store
func openStore(cfg *model.Config) (*store.SQLiteStore, error) {
	if err := ensureDir(cfg.Store.Path); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return s, nil
}
