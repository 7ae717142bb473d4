// Package dictionary holds the read-only AMR→DAIDE rule table and the
// Diplomacy name resources it is built from.
package dictionary

import (
	"github.com/ppiankov/amr2daide/internal/amr"
)

// Kind tags a rule as atomic (concept only) or compound (concept plus
// required roles).
type Kind int

const (
	Atomic Kind = iota
	Compound
)

func (k Kind) String() string {
	if k == Compound {
		return "compound"
	}
	return "atomic"
}

// Rule maps an AMR concept, optionally with required roles, to DAIDE text.
type Rule struct {
	ID       string
	Kind     Kind
	Concept  string   // Atomic key; for compound rules the first head alternative, "" for a wildcard head
	Pattern  *Pattern // Compound only
	Template string   // DAIDE template with $name placeholders, or the atomic token
	Rank     int      // Specificity; atomic rules rank 0

	Ancestors     []string // Compound only: some ancestor must carry one of these concepts
	GroupChildren bool     // Atomic only: parenthesize multi-token child translations
	Origin        string   // "rules" or "resources"

	order int
}

// Pattern is a compiled constraint on one node. A pattern with neither
// concepts nor roles matches any node.
type Pattern struct {
	Bind     string   // Binding name, "" if unbound
	Concepts []string // Allowed concepts, empty means any
	Head     bool     // Bind the concept itself rather than the subgraph
	Const    string   // Required constant value when IsConst
	IsConst  bool
	Exact    bool // The node may carry no roles beyond Roles
	Roles    []RolePattern
}

// RolePattern constrains the first edge carrying Role.
type RolePattern struct {
	Role string
	Pattern
}

// Binding is the value a pattern captured for one $name.
type Binding struct {
	Node        *amr.Node
	Const       *amr.Constant
	ConceptOnly bool // Only the node's concept is bound, not its subgraph
}

// Match is a rule that fired on a node, with its captured bindings and the
// top-level roles it consumed.
type Match struct {
	Rule     *Rule
	Bindings map[string]Binding
	Consumed map[string]bool
}

// specificity counts the constraints a pattern imposes.
func (p *Pattern) specificity() int {
	n := 0
	if len(p.Concepts) > 0 {
		n++
	}
	if p.IsConst {
		n++
	}
	for i := range p.Roles {
		n += 1 + p.Roles[i].Pattern.specificity()
	}
	return n
}

// bindings lists every binding name declared in the pattern.
func (p *Pattern) bindings(out []string) []string {
	if p.Bind != "" {
		out = append(out, p.Bind)
	}
	for i := range p.Roles {
		out = p.Roles[i].Pattern.bindings(out)
	}
	return out
}

func (p *Pattern) allows(concept string) bool {
	if len(p.Concepts) == 0 {
		return true
	}
	for _, c := range p.Concepts {
		if c == concept {
			return true
		}
	}
	return false
}

// match tests n against the pattern, recording bindings into m.
func (p *Pattern) match(n *amr.Node, m *Match, top bool) bool {
	if !p.allows(n.Concept) {
		return false
	}
	if p.Exact && len(n.Edges) != len(p.Roles) {
		return false
	}
	if p.Bind != "" {
		m.Bindings[p.Bind] = Binding{Node: n, ConceptOnly: p.Head}
	}

	for i := range p.Roles {
		rp := &p.Roles[i]
		e := n.Edge(rp.Role)
		if e == nil {
			return false
		}

		switch {
		case rp.IsConst:
			if e.Const == nil || e.Const.Value != rp.Const {
				return false
			}
		case e.Node == nil:
			// Constants match on their value and cannot carry roles.
			if e.Const == nil || len(rp.Roles) > 0 || !rp.allows(e.Const.Value) {
				return false
			}
			if rp.Bind != "" {
				m.Bindings[rp.Bind] = Binding{Const: e.Const}
			}
		default:
			if !rp.Pattern.match(e.Node, m, false) {
				return false
			}
		}

		if top {
			m.Consumed[rp.Role] = true
		}
	}
	return true
}

// Apply tests a compound rule against n.
func (r *Rule) Apply(n *amr.Node) (*Match, bool) {
	if r.Kind != Compound || r.Pattern == nil {
		return nil, false
	}
	if len(r.Ancestors) > 0 && !n.HasAncestor(r.Ancestors...) {
		return nil, false
	}
	m := &Match{
		Rule:     r,
		Bindings: make(map[string]Binding),
		Consumed: make(map[string]bool),
	}
	if !r.Pattern.match(n, m, true) {
		return nil, false
	}
	return m, true
}
