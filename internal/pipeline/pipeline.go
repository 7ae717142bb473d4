// Package pipeline reads annotation records, translates them and writes the
// results to the configured outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/amr2daide/internal/cache"
	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/extract"
	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/score"
	"github.com/ppiankov/amr2daide/internal/store"
	"github.com/ppiankov/amr2daide/internal/worker"
)

// Pipeline orchestrates a translation run
type Pipeline struct {
	config     *model.Config
	dict       *dictionary.Dictionary
	translator *Translator
	scorer     *score.Scorer
	glosser    *daide.Glosser
	store      store.Store
	logger     *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the diagnostics logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithStore records every run in s
func WithStore(s store.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// NewPipeline creates a new pipeline. A translation cache is set up when
// the configuration enables it.
func NewPipeline(cfg *model.Config, dict *dictionary.Dictionary, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:  cfg,
		dict:    dict,
		scorer:  score.NewScorer(),
		glosser: daide.NewGlosser(dict.Resources()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var translations *cache.Translations
	if cfg.Cache.Enabled {
		translations = cache.NewTranslations(cache.New(cfg.Cache), cfg.Cache.DiskTTL)
	}
	p.translator = NewTranslator(dict, cfg.Output.DeveloperMode, translations, p.logger)
	return p
}

// Outputs are the destinations of a run. Nil writers are skipped.
type Outputs struct {
	Text  io.Writer
	JSONL io.Writer
	HTML  io.Writer
}

// RunResult contains the outcome of a run
type RunResult struct {
	Summary *score.Summary
	Run     *store.Run // Nil unless a store is attached
}

// Run translates every record of src and writes the results to out
func (p *Pipeline) Run(ctx context.Context, src *Source, out Outputs) (*RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := time.Now()
	summary := score.NewSummary()
	developer := p.config.Output.DeveloperMode

	var text *TextWriter
	var htmlOut *HTMLWriter
	var sinks []Sink
	if out.Text != nil {
		var glosser *daide.Glosser
		if p.config.Output.Gloss {
			glosser = p.glosser
		}
		text = NewTextWriter(out.Text, developer, glosser)
		sinks = append(sinks, text)
	}
	if out.JSONL != nil {
		sinks = append(sinks, NewJSONLWriter(out.JSONL))
	}
	if out.HTML != nil {
		htmlOut = NewHTMLWriter(out.HTML, "AMR to DAIDE: "+src.Subject)
		htmlOut.SetSummary(summary)
		sinks = append(sinks, htmlOut)
	}

	records := make(chan model.Record)
	var skipped []*extract.BlockError
	var readErr error
	feederDone := make(chan struct{})
	go func() {
		defer close(feederDone)
		defer close(records)
		reader := extract.NewRecordReader(src, p.config.Input.MaxBytes)
		sent := 0
		for {
			if limit := p.config.Input.MaxRecords; limit > 0 && sent >= limit {
				return
			}
			rec, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			var be *extract.BlockError
			if errors.As(err, &be) {
				skipped = append(skipped, be)
				continue
			}
			if err != nil {
				readErr = err
				return
			}
			select {
			case records <- rec:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()

	var rows []store.RecordRow
	emit := func(tr *worker.TranslateResult) error {
		if tr.Error != nil {
			p.logger.Warn("skipping record", "id", tr.Record.ID, "line", tr.Record.Line, "error", tr.Error)
			summary.Skip(tr.Record.ID)
			return nil
		}
		r := tr.Result
		if !r.Record.ValidID() {
			p.logger.Warn("malformed sentence id", "id", r.Record.ID, "line", r.Record.Line)
		}

		a := p.scorer.Assess(r)
		summary.Add(r, a)
		p.diagnose(r)
		if p.store != nil {
			rows = append(rows, store.Row(r))
		}

		for _, s := range sinks {
			if s == text && developer && a.Hidden() {
				continue
			}
			if err := s.Write(r); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	}

	processor := worker.NewBatchProcessor(p.translator, p.config.Concurrency.Workers)
	if p.config.Output.Verbose {
		processor.WithProgress(worker.NewProgress(p.config.Concurrency.ProgressInterval, func(done int) {
			p.logger.Info("progress", "records", done)
		}))
	}
	procErr := processor.Process(ctx, records, emit)
	cancel()

	if procErr == nil {
		// All records were consumed, so the reader has finished
		<-feederDone
		for _, be := range skipped {
			p.logger.Warn("skipping block", "line", be.Line, "id", be.ID, "error", be.Err)
			id := be.ID
			if id == "" {
				id = fmt.Sprintf("line %d", be.Line)
			}
			summary.Skip(id)
		}
	}

	var closeErr error
	if text != nil && developer {
		closeErr = text.WriteSummary(summary)
	}
	for _, s := range sinks {
		if err := s.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("close output: %w", err)
		}
	}

	result := &RunResult{Summary: summary}
	if procErr != nil {
		return result, procErr
	}
	if readErr != nil {
		return result, fmt.Errorf("read %s: %w", src.Location, readErr)
	}
	if closeErr != nil {
		return result, closeErr
	}

	if p.store != nil {
		run, err := p.store.SaveRun(context.WithoutCancel(ctx), store.SaveParams{
			Input:     src.Location,
			Digest:    p.dict.Digest(),
			StartedAt: started,
			Records:   rows,
		})
		if err != nil {
			return result, fmt.Errorf("save run: %w", err)
		}
		result.Run = run
	}
	return result, nil
}

// diagnose logs the per-record diagnostics stream
func (p *Pipeline) diagnose(r *model.Result) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"id", r.Record.ID, "status", string(r.Status)}
	if r.Cached {
		attrs = append(attrs, "cached", true)
	}
	if p.config.Output.DeveloperMode && len(r.Rules) > 0 {
		attrs = append(attrs, "rules", strings.Join(r.Rules, " "))
	}
	if literals := r.Literals(); len(literals) > 0 {
		attrs = append(attrs, "unmapped", strings.Join(literals, " | "))
	}
	p.logger.Debug("translated", attrs...)
}
