package score

import (
	"fmt"

	"github.com/ppiankov/amr2daide/internal/model"
)

// Severity levels for summary signals
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Signal is one diagnostic finding of a run
type Signal struct {
	Type        string                 `json:"type"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Summary aggregates the results of one run. It is not safe for concurrent
// use; feed it from the goroutine that emits results in order.
type Summary struct {
	Total          int                  `json:"total"`
	Empty          int                  `json:"empty"`
	Skipped        int                  `json:"skipped"`
	Unproblematic  int                  `json:"unproblematic"`
	Underspecified int                  `json:"underspecified_units"`
	WithKnown      int                  `json:"with_known_extended"`
	WithOther      int                  `json:"with_other_extended"`
	ByStatus       map[model.Status]int `json:"by_status"`
	Cached         int                  `json:"cached"`
	LastID         string               `json:"last_id,omitempty"`
	SkippedIDs     []string             `json:"skipped_ids,omitempty"`

	known counter
	other counter
}

// NewSummary creates an empty summary
func NewSummary() *Summary {
	return &Summary{
		ByStatus: make(map[model.Status]int),
		known:    make(counter),
		other:    make(counter),
	}
}

// Add records one translated result and its assessment
func (s *Summary) Add(r *model.Result, a Assessment) {
	s.Total++
	s.ByStatus[r.Status]++
	s.LastID = r.Record.ID
	if r.Cached {
		s.Cached++
	}

	if a.Empty {
		s.Empty++
	}
	if a.Underspecified {
		s.Underspecified++
	}
	if len(a.Known) > 0 {
		s.WithKnown++
		s.known.add(a.Known)
	}
	if len(a.Other) > 0 {
		s.WithOther++
		s.other.add(a.Other)
	}
	if !a.Problematic {
		s.Unproblematic++
	}
}

// Skip records a record that could not be translated
func (s *Summary) Skip(id string) {
	s.Skipped++
	s.SkippedIDs = append(s.SkippedIDs, id)
}

// Line renders the one-line developer summary
func (s *Summary) Line() string {
	return fmt.Sprintf("Summary: %d AMRs; %d empty AMRs; %d unproblematic; %d underspecified units; %d/%d AMRs with extended concept",
		s.Total, s.Empty, s.Unproblematic, s.Underspecified, s.WithKnown, s.WithOther)
}

// Signals lists the run's findings, most actionable first
func (s *Summary) Signals() []Signal {
	var signals []Signal

	if s.Skipped > 0 {
		signals = append(signals, Signal{
			Type:        "skipped_records",
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d record(s) skipped", s.Skipped),
			Data:        map[string]interface{}{"ids": s.SkippedIDs},
		})
	}
	if s.Underspecified > 0 {
		signals = append(signals, Signal{
			Type:        "underspecified_units",
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d AMR(s) with a unit missing power, type or location", s.Underspecified),
		})
	}
	for _, c := range s.known.sorted() {
		signals = append(signals, Signal{
			Type:        "known_extended_concept",
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("Extended concept %s (%d)", c, s.known[c]),
			Data:        map[string]interface{}{"concept": c, "count": s.known[c]},
		})
	}
	for _, c := range s.other.sorted() {
		signals = append(signals, Signal{
			Type:        "other_extended_concept",
			Severity:    SeverityInfo,
			Description: fmt.Sprintf("Extended concept %s (%d)", c, s.other[c]),
			Data:        map[string]interface{}{"concept": c, "count": s.other[c]},
		})
	}
	return signals
}
