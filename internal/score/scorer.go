// Package score classifies translations and aggregates run summaries.
package score

import (
	"regexp"
	"sort"

	"github.com/ppiankov/amr2daide/internal/mapper"
	"github.com/ppiankov/amr2daide/internal/model"
)

// KnownExtendedConcepts are AMR senses that recur in the corpus and have no
// DAIDE counterpart yet.
var KnownExtendedConcepts = []string{
	"attack-01", "betray-01", "defend-01", "dislodge-01", "expect-01", "fear-01",
	"gain-02", "lie-08", "lose-02", "possible-01", "prevent-01", "threaten-01",
	"trust-01", "warn-01",
}

var (
	extendedConceptPattern = regexp.MustCompile(`[a-z]\S*-\d\d\b`)
	underspecifiedUnit     = regexp.MustCompile(`\((?:[a-z]\d* / )?(?:unit[ )]|(?:army|fleet) :(?:mod|location) [A-Z]{3}\))`)
	lowercase              = regexp.MustCompile(`[a-z]`)
)

// Classify reduces a segment sequence to its completeness status
func Classify(segs []model.Segment) model.Status {
	daide, literal := 0, 0
	for _, s := range segs {
		if s.IsDAIDE() {
			daide++
		} else {
			literal++
		}
	}

	switch {
	case daide == 0:
		return model.StatusNone
	case literal == 0:
		return model.StatusFull
	default:
		return model.StatusPartial
	}
}

// Assessment is the developer-mode verdict on one translation
type Assessment struct {
	Empty          bool
	Underspecified bool     // A unit lacks power, type or location
	Known          []string // Known extended concepts left untranslated
	Other          []string // Other word senses left untranslated
	Problematic    bool
}

// Hidden reports whether developer output should leave the record out
func (a Assessment) Hidden() bool {
	return a.Empty || a.Underspecified || len(a.Known) > 0
}

// Scorer assesses translation results
type Scorer struct {
	known map[string]bool
}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	known := make(map[string]bool, len(KnownExtendedConcepts))
	for _, c := range KnownExtendedConcepts {
		known[c] = true
	}
	return &Scorer{known: known}
}

// Assess inspects the composed text of a result for leftover AMR content
func (s *Scorer) Assess(r *model.Result) Assessment {
	if len(r.Segments) == 0 {
		return Assessment{Empty: true}
	}

	text := mapper.Compose(r.Segments)
	var a Assessment

	if concepts := extendedConceptPattern.FindAllString(text, -1); len(concepts) > 0 {
		hasKnown := false
		for _, c := range concepts {
			if s.known[c] {
				hasKnown = true
				break
			}
		}
		// A record counts in one group only, as the corpus reports do.
		for _, c := range concepts {
			switch {
			case hasKnown && s.known[c]:
				a.Known = append(a.Known, c)
			case !hasKnown:
				a.Other = append(a.Other, c)
			}
		}
		a.Problematic = true
	}

	if underspecifiedUnit.MatchString(text) {
		a.Underspecified = true
		a.Problematic = true
	}
	if lowercase.MatchString(text) {
		a.Problematic = true
	}
	return a
}

// counter is a name → count tally with sorted output
type counter map[string]int

func (c counter) add(names []string) {
	for _, n := range names {
		c[n]++
	}
}

func (c counter) sorted() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
