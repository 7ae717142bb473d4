package worker

import (
	"context"

	"github.com/ppiankov/amr2daide/internal/model"
)

// Translator translates one record
type Translator interface {
	Translate(ctx context.Context, rec model.Record) (*model.Result, error)
}

// TranslateJob represents a record translation job
type TranslateJob struct {
	Record     model.Record
	Translator Translator
}

// Execute executes the translation job
func (j *TranslateJob) Execute(ctx context.Context) Result {
	result, err := j.Translator.Translate(ctx, j.Record)
	return &TranslateResult{
		Record: j.Record,
		Result: result,
		Error:  err,
	}
}

// TranslateResult represents the result of a translation job
type TranslateResult struct {
	Record model.Record
	Result *model.Result
	Error  error
}

// GetError returns the error from the translation result
func (r *TranslateResult) GetError() error {
	return r.Error
}

// BatchProcessor translates a stream of records concurrently
type BatchProcessor struct {
	translator  Translator
	concurrency int
	progress    *Progress
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(translator Translator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		translator:  translator,
		concurrency: concurrency,
	}
}

// WithProgress attaches a progress reporter ticked after every emitted result
func (b *BatchProcessor) WithProgress(p *Progress) *BatchProcessor {
	b.progress = p
	return b
}

// Process translates every record read from records and calls emit with
// the results in input order, setting Result.Index to the record's input
// position. It stops at the first emit error.
func (b *BatchProcessor) Process(ctx context.Context, records <-chan model.Record, emit func(*TranslateResult) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Job)
	go func() {
		defer close(jobs)
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-records:
				if !ok {
					return
				}
				select {
				case jobs <- &TranslateJob{Record: rec, Translator: b.translator}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	results := NewPool(b.concurrency).Run(ctx, jobs)
	done := 0
	for r := range results {
		tr := r.(*TranslateResult)
		if tr.Result != nil {
			tr.Result.Index = done
		}
		done++
		if err := emit(tr); err != nil {
			cancel()
			for range results {
			}
			return err
		}
		b.progress.Tick(done)
	}
	return ctx.Err()
}

// ProcessAll translates a slice of records and returns the results in order
func (b *BatchProcessor) ProcessAll(ctx context.Context, recs []model.Record) ([]*TranslateResult, error) {
	records := make(chan model.Record)
	go func() {
		defer close(records)
		for _, rec := range recs {
			select {
			case records <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	var out []*TranslateResult
	err := b.Process(ctx, records, func(r *TranslateResult) error {
		out = append(out, r)
		return nil
	})
	return out, err
}
