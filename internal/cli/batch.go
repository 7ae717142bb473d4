package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/pipeline"
)

var (
	outputDir    string
	batchTimeout time.Duration
	batchHTML    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Translate many annotation files listed in a file",
	Long: `Batch translates every annotation file or URL listed in the input file
(one per line, # starts a comment):
- Files are translated one after another with a shared translation cache
- Records of each file are translated by the configured worker pool
- Each file gets <name>.txt and <name>.jsonl reports in the output directory

Example:
  amr2daide batch worksets.txt
  amr2daide batch worksets.txt --workers 8 --output-dir ./daide
  amr2daide batch worksets.txt --html --record`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./amr2daide-out", "output directory for translations")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchHTML, "html", false, "also write an HTML report per file")

	// Shared with translate
	batchCmd.Flags().BoolVarP(&developerMode, "developer", "d", false, "developer mode: rule ids, English gloss, summary")
	batchCmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent translation workers")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the translation cache")
	batchCmd.Flags().BoolVar(&recordRun, "record", false, "record each run in the run store")
	batchCmd.Flags().StringVar(&rulesPath, "rules", "", "rule dictionary file (default: built-in)")
	batchCmd.Flags().StringVar(&resourcesPath, "resources", "", "resource file (default: built-in)")
}

// readLocations reads one location per line, skipping blanks and comments
func readLocations(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	var locations []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		locations = append(locations, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return locations, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyTranslateFlags(cmd, cfg)
	if cfg.Concurrency.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", cfg.Concurrency.Workers)
	}

	locations, err := readLocations(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  amr2daide Batch Translation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input list:   %s (%d files)\n", file, len(locations))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLogger(newLogger(cfg))}
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

	successCount := 0
	failureCount := 0
	records := 0

	for _, location := range locations {
		if ctx.Err() != nil {
			break
		}
		total, err := translateOne(ctx, p, fetcher, location)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", location, err)
			continue
		}
		successCount++
		records += total
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Files:     %d\n", len(locations))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Records:   %d\n", records)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if failureCount > 0 {
		return fmt.Errorf("%d of %d files failed", failureCount, len(locations))
	}
	return nil
}

// translateOne translates one listed file into the output directory
func translateOne(ctx context.Context, p *pipeline.Pipeline, fetcher *pipeline.Fetcher, location string) (total int, err error) {
	src, err := fetcher.Open(ctx, location)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	base := filepath.Join(outputDir, sanitizeFilename(src.Subject))
	var outputs pipeline.Outputs
	var files []*os.File
	defer func() {
		for _, f := range files {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}
	}()

	create := func(ext string) (*os.File, error) {
		f, err := os.Create(base + ext)
		if err != nil {
			return nil, fmt.Errorf("create output: %w", err)
		}
		files = append(files, f)
		return f, nil
	}

	if outputs.Text, err = create(".txt"); err != nil {
		return 0, err
	}
	if outputs.JSONL, err = create(".jsonl"); err != nil {
		return 0, err
	}
	if batchHTML {
		if outputs.HTML, err = create(".html"); err != nil {
			return 0, err
		}
	}

	result, err := p.Run(ctx, src, outputs)
	if err != nil {
		return 0, err
	}

	s := result.Summary
	fmt.Fprintf(os.Stderr, "✓ %s (%d records: %d full, %d partial, %d none, %d skipped)\n",
		src.Subject, s.Total, s.ByStatus[model.StatusFull], s.ByStatus[model.StatusPartial], s.ByStatus[model.StatusNone], s.Skipped)
	return s.Total, nil
}

// sanitizeFilename turns a display name into a safe file name stem
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(filepath.Base(filepath.Clean(s)), filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." {
		s = "input"
	}
	return s
}
