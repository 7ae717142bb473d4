package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/amr2daide/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "nested", "runs.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rows(specs ...string) []RecordRow {
	// Each spec is "id|status|daide"
	var out []RecordRow
	for i, spec := range specs {
		parts := strings.SplitN(spec, "|", 3)
		out = append(out, RecordRow{Seq: i, ID: parts[0], Status: model.Status(parts[1]), DAIDE: parts[2]})
	}
	return out
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run, err := s.SaveRun(ctx, SaveParams{
		Input:  "dip.txt",
		Digest: "abc",
		Records: rows(
			"dip_a_0001.1|Full-DAIDE|AUS",
			"dip_a_0001.2|Partial-DAIDE|PRP ((x / xyz-01))",
			"dip_a_0001.3|No-DAIDE|",
		),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(run.ID) != 26 {
		t.Errorf("expected a ULID, got %q", run.ID)
	}

	got, err := s.GetRun(ctx, run.ID, true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Input != "dip.txt" || got.Digest != "abc" || got.Total != 3 {
		t.Errorf("unexpected run %+v", got)
	}
	if got.Counts[model.StatusFull] != 1 || got.Counts[model.StatusPartial] != 1 || got.Counts[model.StatusNone] != 1 {
		t.Errorf("unexpected counts %v", got.Counts)
	}
	if len(got.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got.Records))
	}
	if got.Records[1].DAIDE != "PRP ((x / xyz-01))" || got.Records[2].DAIDE != "" {
		t.Errorf("unexpected records %+v", got.Records)
	}

	// Prefix lookup, lower case
	short, err := s.GetRun(ctx, strings.ToLower(run.ID[:20]), false)
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if short.ID != run.ID || short.Records != nil {
		t.Errorf("unexpected prefix lookup result %+v", short)
	}
}

func TestGetRun_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetRun(ctx, "01ZZZ", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	now := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := s.SaveRun(ctx, SaveParams{Input: "x", StartedAt: now}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	// Same millisecond, so the ids share the timestamp prefix
	if _, err := s.GetRun(ctx, "0", false); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, SaveParams{Input: string(rune('a' + i)), StartedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Input != "c" || runs[1].Input != "b" {
		t.Errorf("expected newest first, got %s, %s", runs[0].Input, runs[1].Input)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("unexpected start time %v", runs[0].StartedAt)
	}
}

func TestDiffRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.SaveRun(ctx, SaveParams{Input: "x", Records: rows(
		"dip_a_0001.1|Full-DAIDE|AUS",
		"dip_a_0001.2|No-DAIDE|",
		"dip_a_0001.3|Full-DAIDE|FRA",
		"dip_a_0001.4|Full-DAIDE|ENG",
	)})
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, err := s.SaveRun(ctx, SaveParams{Input: "x", Records: rows(
		"dip_a_0001.1|Full-DAIDE|AUS",
		"dip_a_0001.2|Partial-DAIDE|PRP ((x / xyz-01))",
		"dip_a_0001.3|Partial-DAIDE|FRA (y / yes)",
		"dip_a_0001.5|Full-DAIDE|GER",
	)})
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	d, err := s.DiffRuns(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if d.Same != 1 {
		t.Errorf("expected 1 unchanged, got %d", d.Same)
	}
	if len(d.Changed) != 2 || d.Improved != 1 || d.Regressed != 1 {
		t.Errorf("unexpected changes %+v", d)
	}
	if len(d.Added) != 1 || d.Added[0].ID != "dip_a_0001.5" || d.Added[0].Before != nil {
		t.Errorf("unexpected added %+v", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].ID != "dip_a_0001.4" || d.Removed[0].After != nil {
		t.Errorf("unexpected removed %+v", d.Removed)
	}
}

func TestRow(t *testing.T) {
	r := Row(&model.Result{
		Index:  4,
		Record: model.Record{ID: "dip_a_0001.5"},
		Status: model.StatusFull,
		DAIDE:  "AUS",
	})
	if r.Seq != 4 || r.ID != "dip_a_0001.5" || r.Status != model.StatusFull || r.DAIDE != "AUS" {
		t.Errorf("unexpected row %+v", r)
	}
}
