package dictionary

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category groups resource entries
type Category string

const (
	CategoryPower    Category = "power"
	CategoryProvince Category = "province"
	CategorySea      Category = "sea"
	CategoryUnitType Category = "unit_type"
	CategoryCoast    Category = "coast"
)

// entityConcepts lists the AMR concepts a named entity of each category
// appears under.
var entityConcepts = map[Category][]string{
	CategoryPower:    {"country"},
	CategoryProvince: {"province"},
	CategorySea:      {"sea"},
}

// Entry is one Diplomacy name with its DAIDE token
type Entry struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	AltNames  []string `yaml:"alt_names,omitempty"`
	Pertainym string   `yaml:"pertainym,omitempty"`
	Category  Category `yaml:"-"`
}

// Names returns the canonical name followed by the alternates
func (e Entry) Names() []string {
	return append([]string{e.Name}, e.AltNames...)
}

type resourceFile struct {
	Powers    []Entry `yaml:"powers"`
	Provinces []Entry `yaml:"provinces"`
	Seas      []Entry `yaml:"seas"`
	UnitTypes []Entry `yaml:"unit_types"`
	Coasts    []Entry `yaml:"coasts"`
}

// Resources resolves Diplomacy names to DAIDE tokens and back
type Resources struct {
	entries []Entry
	byName  map[string]string
	byID    map[string]int
}

// ParseResources parses a resources document
func ParseResources(data []byte) (*Resources, error) {
	var f resourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}

	r := &Resources{
		byName: make(map[string]string),
		byID:   make(map[string]int),
	}
	groups := []struct {
		cat     Category
		entries []Entry
	}{
		{CategoryPower, f.Powers},
		{CategoryProvince, f.Provinces},
		{CategorySea, f.Seas},
		{CategoryUnitType, f.UnitTypes},
		{CategoryCoast, f.Coasts},
	}
	for _, g := range groups {
		for _, e := range g.entries {
			if err := r.add(g.cat, e); err != nil {
				return nil, err
			}
		}
	}
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("resources define no entries")
	}
	return r, nil
}

func (r *Resources) add(cat Category, e Entry) error {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" || e.Name == "" {
		return fmt.Errorf("%s entry needs both id and name (id=%q name=%q)", cat, e.ID, e.Name)
	}
	if _, dup := r.byID[e.ID]; dup {
		return fmt.Errorf("duplicate resource id %s", e.ID)
	}
	e.Category = cat
	for _, name := range e.Names() {
		if prev, dup := r.byName[name]; dup && prev != e.ID {
			return fmt.Errorf("name %q maps to both %s and %s", name, prev, e.ID)
		}
		r.byName[name] = e.ID
	}
	r.byID[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// ID returns the DAIDE token for a name. Lookup is case-sensitive.
func (r *Resources) ID(name string) (string, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Lookup returns the entry for a DAIDE token
func (r *Resources) Lookup(id string) (Entry, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Name returns the canonical name for a DAIDE token
func (r *Resources) Name(id string) (string, bool) {
	e, ok := r.Lookup(id)
	return e.Name, ok
}

// Entries returns every entry of a category in file order
func (r *Resources) Entries(cat Category) []Entry {
	var out []Entry
	for _, e := range r.entries {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries
func (r *Resources) Len() int {
	return len(r.entries)
}

// namingRules generates one compound rule per entity name, e.g.
// (country :name (name :op1 "United" :op2 "Kingdom")) → UK.
func (r *Resources) namingRules() []*Rule {
	cats := make([]Category, 0, len(entityConcepts))
	for c := range entityConcepts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var rules []*Rule
	for _, cat := range cats {
		concepts := entityConcepts[cat]
		for _, e := range r.Entries(cat) {
			for _, name := range e.Names() {
				words := strings.Fields(name)
				ops := make([]RolePattern, len(words))
				for i, w := range words {
					ops[i] = RolePattern{
						Role:    fmt.Sprintf("op%d", i+1),
						Pattern: Pattern{Const: w, IsConst: true},
					}
				}
				p := &Pattern{
					Concepts: concepts,
					Roles: []RolePattern{{
						Role:    "name",
						Pattern: Pattern{Concepts: []string{"name"}, Roles: ops, Exact: true},
					}},
				}
				rules = append(rules, &Rule{
					ID:       fmt.Sprintf("name:%s:%s", e.ID, strings.Join(words, "_")),
					Kind:     Compound,
					Concept:  concepts[0],
					Pattern:  p,
					Template: e.ID,
					Rank:     p.specificity(),
					Origin:   "resources",
				})
			}
		}
	}
	return rules
}
