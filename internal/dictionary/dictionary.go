package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/ppiankov/amr2daide/internal/amr"
)

// Dictionary is the loaded, immutable rule table. It is safe for concurrent
// use once built.
type Dictionary struct {
	rules     []*Rule
	compound  map[string][]*Rule // concept → candidate compound rules, best first
	wildcard  []*Rule            // compound rules whose head matches any concept
	atomic    map[string]*Rule
	ignore    map[string]bool
	keepRoles bool
	res       *Resources
	digest    string
}

func newDictionary(rules []*Rule, res *Resources, ignore []string, keepRoles bool, sources ...[]byte) *Dictionary {
	d := &Dictionary{
		rules:     rules,
		compound:  make(map[string][]*Rule),
		atomic:    make(map[string]*Rule),
		ignore:    make(map[string]bool),
		keepRoles: keepRoles,
		res:       res,
	}
	for _, role := range ignore {
		d.ignore[role] = true
	}

	for i, r := range rules {
		r.order = i
		switch {
		case r.Kind == Atomic:
			d.atomic[r.Concept] = r
		case len(r.Pattern.Concepts) == 0:
			d.wildcard = append(d.wildcard, r)
		default:
			for _, c := range r.Pattern.Concepts {
				d.compound[c] = append(d.compound[c], r)
			}
		}
	}

	sortRules(d.wildcard)
	for c, list := range d.compound {
		list = append(list, d.wildcard...)
		sortRules(list)
		d.compound[c] = list
	}

	h := sha256.New()
	for _, src := range sources {
		h.Write(src)
		h.Write([]byte{0})
	}
	d.digest = hex.EncodeToString(h.Sum(nil))
	return d
}

// sortRules orders candidates by descending rank, then declaration order.
func sortRules(list []*Rule) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Rank != list[j].Rank {
			return list[i].Rank > list[j].Rank
		}
		return list[i].order < list[j].order
	})
}

// Compound returns the best compound rule whose pattern matches n.
func (d *Dictionary) Compound(n *amr.Node) (*Match, bool) {
	candidates, ok := d.compound[n.Concept]
	if !ok {
		candidates = d.wildcard
	}
	for _, r := range candidates {
		if m, ok := r.Apply(n); ok {
			return m, true
		}
	}
	return nil, false
}

// Atomic returns the atomic rule for a concept.
func (d *Dictionary) Atomic(concept string) (*Rule, bool) {
	r, ok := d.atomic[concept]
	return r, ok
}

// Lookup finds the rule for n: the most specific matching compound rule,
// otherwise the atomic rule for its concept.
func (d *Dictionary) Lookup(n *amr.Node) (*Match, bool) {
	if m, ok := d.Compound(n); ok {
		return m, true
	}
	if r, ok := d.Atomic(n.Concept); ok {
		return &Match{Rule: r}, true
	}
	return nil, false
}

// Candidates lists the compound rules tried for a concept, best first.
func (d *Dictionary) Candidates(concept string) []*Rule {
	if list, ok := d.compound[concept]; ok {
		return list
	}
	return d.wildcard
}

// Ignorable reports whether a role is dropped from translation output.
func (d *Dictionary) Ignorable(role string) bool {
	return d.ignore[role]
}

// KeepUnconsumedRoles reports whether roles a compound rule did not consume
// are carried as literal fragments instead of dropped.
func (d *Dictionary) KeepUnconsumedRoles() bool {
	return d.keepRoles
}

// Resources returns the name resources the dictionary was built with.
func (d *Dictionary) Resources() *Resources {
	return d.res
}

// Rules returns every rule in declaration order.
func (d *Dictionary) Rules() []*Rule {
	return d.rules
}

// Rule returns a rule by id.
func (d *Dictionary) Rule(id string) (*Rule, bool) {
	for _, r := range d.rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Digest identifies the rule and resource sources.
func (d *Dictionary) Digest() string {
	return d.digest
}
