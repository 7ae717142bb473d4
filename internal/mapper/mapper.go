// Package mapper translates a parsed AMR graph into an ordered sequence of
// DAIDE segments and literal AMR fragments.
package mapper

import (
	"fmt"
	"strings"

	"github.com/ppiankov/amr2daide/internal/amr"
	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/model"
)

// EmptyConcept marks an annotation with no content.
const EmptyConcept = "amr-empty"

// Mapper walks AMR graphs against a dictionary. It holds no per-graph state
// and is safe for concurrent use.
type Mapper struct {
	dict      *dictionary.Dictionary
	developer bool
}

// Option configures a Mapper
type Option func(*Mapper)

// WithDeveloperMode stamps each DAIDE segment with the id of the rule that
// produced it.
func WithDeveloperMode(on bool) Option {
	return func(m *Mapper) {
		m.developer = on
	}
}

// New creates a mapper over dict
func New(dict *dictionary.Dictionary, opts ...Option) *Mapper {
	m := &Mapper{dict: dict}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Trace is a translation together with the rules that fired, in firing
// order.
type Trace struct {
	Segments []model.Segment
	Rules    []string
}

// Map translates g. An empty annotation yields an empty sequence.
func (m *Mapper) Map(g *amr.Graph) []model.Segment {
	return m.Trace(g).Segments
}

// Trace translates g and records every rule that fired.
func (m *Mapper) Trace(g *amr.Graph) Trace {
	if g == nil || g.Root == nil {
		return Trace{}
	}
	if g.Root.Concept == EmptyConcept && g.Root.IsLeaf() {
		return Trace{}
	}
	w := &walker{
		Mapper:   m,
		resolved: make(map[string][]model.Segment),
		active:   make(map[string]bool),
	}
	segs := w.visit(g.Root)
	return Trace{Segments: segs, Rules: w.fired}
}

// walker carries the state of one translation.
type walker struct {
	*Mapper
	resolved map[string][]model.Segment // variable → finished translation
	active   map[string]bool            // variables on the current path
	fired    []string
}

func (w *walker) visit(n *amr.Node) []model.Segment {
	if segs, ok := w.resolved[n.Variable]; ok {
		return append([]model.Segment(nil), segs...)
	}
	if w.active[n.Variable] {
		// Cycle back to an ancestor.
		return []model.Segment{model.LiteralSegment(n.Variable)}
	}
	w.active[n.Variable] = true

	var out []model.Segment
	if match, ok := w.dict.Compound(n); ok {
		out = w.compound(n, match)
	} else if rule, ok := w.dict.Atomic(n.Concept); ok {
		out = w.atomic(n, rule)
	} else {
		out = w.literal(n)
	}

	delete(w.active, n.Variable)
	w.resolved[n.Variable] = out
	return append([]model.Segment(nil), out...)
}

func (w *walker) fire(r *dictionary.Rule) string {
	w.fired = append(w.fired, r.ID)
	if w.developer {
		return r.ID
	}
	return ""
}

func (w *walker) compound(n *amr.Node, match *dictionary.Match) []model.Segment {
	r := match.Rule
	template := r.Template
	if pol, ok := n.Value("polarity"); ok && pol == "-" && !match.Consumed["polarity"] {
		template = "NOT (" + template + ")"
		match.Consumed["polarity"] = true
	}

	var names []string
	var runs [][]model.Segment
	seen := make(map[string]bool)
	for _, loc := range dictionary.Placeholder.FindAllStringSubmatch(template, -1) {
		name := loc[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		runs = append(runs, w.binding(match.Bindings[name]))
	}

	head := model.Segment{Kind: model.SegmentDAIDE, Text: template, Rule: w.fire(r)}
	out := absorb(head, names, runs)

	if w.dict.KeepUnconsumedRoles() {
		for i := range n.Edges {
			e := &n.Edges[i]
			if match.Consumed[e.Role] || w.dict.Ignorable(e.Role) {
				continue
			}
			out = append(out, w.roleFragment(e)...)
		}
	}
	return out
}

// binding translates the value a pattern captured.
func (w *walker) binding(b dictionary.Binding) []model.Segment {
	res := w.dict.Resources()
	switch {
	case b.Const != nil:
		if id, ok := res.ID(b.Const.Value); ok {
			return []model.Segment{model.DAIDESegment(id)}
		}
		return []model.Segment{model.LiteralSegment(b.Const.String())}
	case b.Node == nil:
		return nil
	case b.ConceptOnly:
		if id, ok := res.ID(b.Node.Concept); ok {
			return []model.Segment{model.DAIDESegment(id)}
		}
		return []model.Segment{model.LiteralSegment(b.Node.Concept)}
	case b.Node.IsLeaf():
		if id, ok := res.ID(b.Node.Concept); ok {
			return []model.Segment{model.DAIDESegment(id)}
		}
	}
	return w.visit(b.Node)
}

func (w *walker) atomic(n *amr.Node, r *dictionary.Rule) []model.Segment {
	var out []model.Segment
	if r.Template != "" {
		out = append(out, model.DAIDESegment(r.Template))
	}
	for i := range n.Edges {
		e := &n.Edges[i]
		if w.dict.Ignorable(e.Role) {
			continue
		}
		if e.Node == nil {
			out = append(out, w.roleFragment(e)...)
			continue
		}
		run := w.visit(e.Node)
		if r.GroupChildren {
			run = group(run)
		}
		out = append(out, run...)
	}

	// A tokenless rule that produced no DAIDE translated nothing.
	if r.Template == "" && !anyDAIDE(out) {
		return w.literal(n)
	}
	rule := w.fire(r)
	if r.Template != "" {
		out[0].Rule = rule
	}
	return out
}

// literal reconstructs n as PENMAN text, with a hole for every child
// subgraph so that translated descendants keep their DAIDE segments.
func (w *walker) literal(n *amr.Node) []model.Segment {
	var b strings.Builder
	b.WriteString("(" + n.Variable + " / " + n.Concept)

	var names []string
	var runs [][]model.Segment
	for i := range n.Edges {
		e := &n.Edges[i]
		b.WriteString(" :" + e.Role + " ")
		switch {
		case e.Node == nil:
			b.WriteString(e.Const.String())
		case e.Reentrant && w.seen(e.Node.Variable):
			b.WriteString(e.Node.Variable)
		default:
			name := fmt.Sprintf("arg%d", len(names)+1)
			b.WriteString("$" + name)
			names = append(names, name)
			runs = append(runs, w.visit(e.Node))
		}
	}
	b.WriteString(")")

	return absorb(model.LiteralSegment(b.String()), names, runs)
}

// roleFragment renders one edge as ":role value" literal text.
func (w *walker) roleFragment(e *amr.Edge) []model.Segment {
	if e.Node == nil {
		return []model.Segment{model.LiteralSegment(":" + e.Role + " " + e.Const.String())}
	}
	head := model.LiteralSegment(":" + e.Role + " $arg")
	return absorb(head, []string{"arg"}, [][]model.Segment{w.visit(e.Node)})
}

func (w *walker) seen(variable string) bool {
	_, done := w.resolved[variable]
	return done || w.active[variable]
}

// absorb fills the holes of head whose runs are entirely of head's kind and
// leaves the others open, followed by their runs.
func absorb(head model.Segment, names []string, runs [][]model.Segment) []model.Segment {
	values := make(map[string]string)
	var tail []model.Segment
	for i, run := range runs {
		if sameKind(run, head.Kind) {
			values[names[i]] = strings.Join(composeRun(run), " ")
			continue
		}
		head.Holes = append(head.Holes, model.Hole{Name: names[i], Len: len(run)})
		tail = append(tail, run...)
	}
	head.Text = fill(head.Text, values, head.IsDAIDE())
	return append([]model.Segment{head}, tail...)
}

func sameKind(run []model.Segment, kind model.SegmentKind) bool {
	for _, s := range run {
		if s.Kind != kind {
			return false
		}
	}
	return true
}

func anyDAIDE(segs []model.Segment) bool {
	for _, s := range segs {
		if s.IsDAIDE() {
			return true
		}
	}
	return false
}
