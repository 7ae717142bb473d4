// Package store persists translation runs and compares them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/amr2daide/internal/model"
)

var (
	// ErrNotFound marks a run id or prefix that matches no run
	ErrNotFound = errors.New("store: run not found")
	// ErrAmbiguous marks a run id prefix that matches several runs
	ErrAmbiguous = errors.New("store: ambiguous run id")
)

// Run is one recorded translation run
type Run struct {
	ID        string               `json:"id"`
	StartedAt time.Time            `json:"started_at"`
	Input     string               `json:"input"`
	Digest    string               `json:"dictionary_digest"`
	Total     int                  `json:"total"`
	Counts    map[model.Status]int `json:"counts"`
	Records   []RecordRow          `json:"records,omitempty"`
}

// RecordRow is the stored outcome of one record
type RecordRow struct {
	Seq    int          `json:"seq"`
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
	DAIDE  string       `json:"daide,omitempty"`
}

// Row converts a translation result into a stored row
func Row(r *model.Result) RecordRow {
	return RecordRow{Seq: r.Index, ID: r.Record.ID, Status: r.Status, DAIDE: r.DAIDE}
}

// SaveParams holds parameters for saving a run.
type SaveParams struct {
	Input     string
	Digest    string
	StartedAt time.Time
	Records   []RecordRow
}

// Change is one record that differs between two runs. Before is nil for
// records only in the second run, After for records only in the first.
type Change struct {
	ID     string     `json:"id"`
	Before *RecordRow `json:"before,omitempty"`
	After  *RecordRow `json:"after,omitempty"`
}

// Diff compares two runs record by record
type Diff struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Same      int      `json:"unchanged"`
	Changed   []Change `json:"changed,omitempty"`
	Added     []Change `json:"added,omitempty"`
	Removed   []Change `json:"removed,omitempty"`
	Improved  int      `json:"improved"`
	Regressed int      `json:"regressed"`
}

// Store defines the run storage interface.
type Store interface {
	// SaveRun stores a run and its records. Returns the created run.
	SaveRun(ctx context.Context, p SaveParams) (*Run, error)

	// ListRuns lists the most recent runs first, without records.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// GetRun retrieves a run by id or unique id prefix.
	GetRun(ctx context.Context, id string, withRecords bool) (*Run, error)

	// DiffRuns compares two runs by record id.
	DiffRuns(ctx context.Context, from, to string) (*Diff, error)

	// Close closes the store.
	Close() error
}

// rank orders statuses by how much was translated
func rank(s model.Status) int {
	switch s {
	case model.StatusFull:
		return 2
	case model.StatusPartial:
		return 1
	default:
		return 0
	}
}

// Compare builds the diff of two loaded runs
func Compare(from, to *Run) *Diff {
	d := &Diff{From: from.ID, To: to.ID}

	before := make(map[string]*RecordRow, len(from.Records))
	for i := range from.Records {
		before[from.Records[i].ID] = &from.Records[i]
	}
	seen := make(map[string]bool, len(to.Records))

	for i := range to.Records {
		after := &to.Records[i]
		seen[after.ID] = true
		prev, ok := before[after.ID]
		if !ok {
			d.Added = append(d.Added, Change{ID: after.ID, After: after})
			continue
		}
		if prev.Status == after.Status && prev.DAIDE == after.DAIDE {
			d.Same++
			continue
		}
		d.Changed = append(d.Changed, Change{ID: after.ID, Before: prev, After: after})
		switch {
		case rank(after.Status) > rank(prev.Status):
			d.Improved++
		case rank(after.Status) < rank(prev.Status):
			d.Regressed++
		}
	}

	for i := range from.Records {
		if r := &from.Records[i]; !seen[r.ID] {
			d.Removed = append(d.Removed, Change{ID: r.ID, Before: r})
		}
	}
	return d
}
