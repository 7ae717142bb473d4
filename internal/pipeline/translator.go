package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/amr2daide/internal/amr"
	"github.com/ppiankov/amr2daide/internal/cache"
	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/mapper"
	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/score"
)

// Translator runs parse, map and classify for one record. It is safe for
// concurrent use.
type Translator struct {
	dict      *dictionary.Dictionary
	mapper    *mapper.Mapper
	cache     *cache.Translations
	developer bool
	logger    *slog.Logger
}

// NewTranslator creates a translator. cache may be nil.
func NewTranslator(dict *dictionary.Dictionary, developer bool, c *cache.Translations, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		dict:      dict,
		mapper:    mapper.New(dict, mapper.WithDeveloperMode(developer)),
		cache:     c,
		developer: developer,
		logger:    logger,
	}
}

// Translate translates one record. A record whose AMR does not parse yields
// an error wrapping the *amr.ParseError.
func (t *Translator) Translate(ctx context.Context, rec model.Record) (*model.Result, error) {
	key := ""
	if t.cache != nil {
		key = cache.CacheKey(t.dict.Digest(), t.developer, rec.AMR)
		if e, found := t.cache.Get(key); found {
			r := newResult(rec, e.Segments, e.Rules)
			r.Cached = true
			return r, nil
		}
	}

	g, err := amr.Parse(rec.AMR)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	trace := t.mapper.Trace(g)

	if t.cache != nil {
		if err := t.cache.Put(key, &cache.Entry{Segments: trace.Segments, Rules: trace.Rules}); err != nil {
			t.logger.Debug("cache write failed", "id", rec.ID, "error", err)
		}
	}
	return newResult(rec, trace.Segments, trace.Rules), nil
}

func newResult(rec model.Record, segs []model.Segment, rules []string) *model.Result {
	r := &model.Result{
		Record:   rec,
		Segments: segs,
		Status:   score.Classify(segs),
		Rules:    rules,
	}
	if r.Status.HasDAIDE() {
		r.DAIDE = mapper.Compose(segs)
	}
	return r
}
