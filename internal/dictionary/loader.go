package dictionary

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml data/resources.yaml
var builtin embed.FS

var (
	// ErrInvalidRule marks a rule that cannot be compiled or indexed.
	ErrInvalidRule = errors.New("dictionary: invalid rule")
	// ErrInvalidResources marks an unreadable or inconsistent resources file.
	ErrInvalidResources = errors.New("dictionary: invalid resources")
)

// LoadError reports a dictionary that could not be loaded. Rule is the
// offending rule id, if any.
type LoadError struct {
	Source string
	Rule   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("load %s: rule %q: %v", e.Source, e.Rule, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Placeholder matches a $name slot in a template.
var Placeholder = regexp.MustCompile(`\$([a-zA-Z][a-zA-Z0-9_]*)`)

type ruleFile struct {
	Version             int        `yaml:"version"`
	IgnoreRoles         []string   `yaml:"ignore_roles"`
	KeepUnconsumedRoles bool       `yaml:"keep_unconsumed_roles"`
	Rules               []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID            string   `yaml:"id"`
	Pattern       string   `yaml:"pattern"`
	Template      string   `yaml:"template"`
	Concept       string   `yaml:"concept"`
	Token         string   `yaml:"token"`
	Rank          *int     `yaml:"rank"`
	Ancestors     []string `yaml:"ancestors"`
	GroupChildren bool     `yaml:"group_children"`
}

// Load reads the rule and resource files. An empty path selects the
// built-in file.
func Load(rulesPath, resourcesPath string) (*Dictionary, error) {
	rulesSrc, rulesName, err := readSource(rulesPath, "data/rules.yaml")
	if err != nil {
		return nil, &LoadError{Source: rulesName, Err: err}
	}
	resSrc, resName, err := readSource(resourcesPath, "data/resources.yaml")
	if err != nil {
		return nil, &LoadError{Source: resName, Err: err}
	}
	return Parse(rulesName, rulesSrc, resName, resSrc)
}

// Default returns the built-in dictionary.
func Default() (*Dictionary, error) {
	return Load("", "")
}

func readSource(path, fallback string) ([]byte, string, error) {
	if path == "" {
		data, err := builtin.ReadFile(fallback)
		return data, "builtin:" + strings.TrimPrefix(fallback, "data/"), err
	}
	data, err := os.ReadFile(path)
	return data, path, err
}

// Parse builds a dictionary from rule and resource documents.
func Parse(rulesName string, rulesSrc []byte, resName string, resSrc []byte) (*Dictionary, error) {
	res, err := ParseResources(resSrc)
	if err != nil {
		return nil, &LoadError{Source: resName, Err: fmt.Errorf("%w: %v", ErrInvalidResources, err)}
	}

	var f ruleFile
	if err := yaml.Unmarshal(rulesSrc, &f); err != nil {
		return nil, &LoadError{Source: rulesName, Err: fmt.Errorf("%w: %v", ErrInvalidRule, err)}
	}
	if f.Version > 1 {
		return nil, &LoadError{Source: rulesName, Err: fmt.Errorf("%w: unsupported version %d", ErrInvalidRule, f.Version)}
	}

	seen := make(map[string]bool)
	atomic := make(map[string]string)
	rules := make([]*Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		if spec.ID == "" {
			spec.ID = fmt.Sprintf("rule-%d", i+1)
		}
		fail := func(format string, args ...interface{}) error {
			return &LoadError{Source: rulesName, Rule: spec.ID, Err: fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRule}, args...)...)}
		}

		if seen[spec.ID] {
			return nil, fail("duplicate id")
		}
		seen[spec.ID] = true

		r, err := compileRule(spec)
		if err != nil {
			return nil, fail("%v", err)
		}
		if r.Kind == Atomic {
			if prev, dup := atomic[r.Concept]; dup {
				return nil, fail("concept %s already has atomic rule %q", r.Concept, prev)
			}
			atomic[r.Concept] = r.ID
		}
		rules = append(rules, r)
	}

	for _, r := range res.namingRules() {
		if seen[r.ID] {
			return nil, &LoadError{Source: resName, Rule: r.ID, Err: fmt.Errorf("%w: duplicate id", ErrInvalidRule)}
		}
		seen[r.ID] = true
		rules = append(rules, r)
	}

	return newDictionary(rules, res, f.IgnoreRoles, f.KeepUnconsumedRoles, rulesSrc, resSrc), nil
}

func compileRule(spec ruleSpec) (*Rule, error) {
	hasPattern := strings.TrimSpace(spec.Pattern) != ""
	hasConcept := strings.TrimSpace(spec.Concept) != ""
	switch {
	case hasPattern && hasConcept:
		return nil, fmt.Errorf("set either pattern or concept, not both")
	case !hasPattern && !hasConcept:
		return nil, fmt.Errorf("missing pattern or concept")
	}

	if hasConcept {
		if spec.Template != "" || len(spec.Ancestors) > 0 {
			return nil, fmt.Errorf("atomic rules take token, not template or ancestors")
		}
		return &Rule{
			ID:            spec.ID,
			Kind:          Atomic,
			Concept:       strings.TrimSpace(spec.Concept),
			Template:      strings.TrimSpace(spec.Token),
			GroupChildren: spec.GroupChildren,
			Origin:        "rules",
		}, nil
	}

	if spec.Token != "" || spec.GroupChildren {
		return nil, fmt.Errorf("compound rules take template, not token or group_children")
	}
	template := strings.TrimSpace(spec.Template)
	if template == "" {
		return nil, fmt.Errorf("missing template")
	}
	p, err := CompilePattern(spec.Pattern)
	if err != nil {
		return nil, err
	}

	bound := make(map[string]bool)
	for _, name := range p.bindings(nil) {
		bound[name] = true
	}
	for _, m := range Placeholder.FindAllStringSubmatch(template, -1) {
		if !bound[m[1]] {
			return nil, fmt.Errorf("template uses unbound $%s", m[1])
		}
	}

	r := &Rule{
		ID:        spec.ID,
		Kind:      Compound,
		Pattern:   p,
		Template:  template,
		Rank:      p.specificity(),
		Ancestors: spec.Ancestors,
		Origin:    "rules",
	}
	if len(p.Concepts) > 0 {
		r.Concept = p.Concepts[0]
	}
	if spec.Rank != nil {
		r.Rank = *spec.Rank
	}
	return r, nil
}
