// Package amr parses Abstract Meaning Representation annotations written in
// PENMAN notation into a rooted graph with coreference resolved.
package amr

import "strings"

// Node is one AMR instance: (variable / concept :role target ...)
type Node struct {
	Variable string
	Concept  string
	Edges    []Edge // declaration order, never re-sorted

	parents []*Node
}

// Edge is a labeled role pointing either at a child node or at a constant.
// Reentrant edges are shared back-references to a node owned elsewhere.
type Edge struct {
	Role      string
	Node      *Node
	Const     *Constant
	Reentrant bool
}

// Constant is a literal role value: a quoted string or a bare token such as
// a number, "-" or "imperative".
type Constant struct {
	Value  string
	Quoted bool
}

// String renders the constant the way it appeared in the annotation.
func (c Constant) String() string {
	if !c.Quoted {
		return c.Value
	}
	escaped := strings.ReplaceAll(c.Value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// Graph is a parsed AMR: the root node plus every declared variable.
type Graph struct {
	Root      *Node
	Variables map[string]*Node
}

// Lookup returns the node declared under variable v.
func (g *Graph) Lookup(v string) (*Node, bool) {
	n, ok := g.Variables[v]
	return n, ok
}

// String renders the graph in single-line PENMAN notation.
func (g *Graph) String() string {
	if g == nil || g.Root == nil {
		return ""
	}
	return Format(g.Root)
}

// Edge returns the first edge with the given role, or nil.
func (n *Node) Edge(role string) *Edge {
	for i := range n.Edges {
		if n.Edges[i].Role == role {
			return &n.Edges[i]
		}
	}
	return nil
}

// Child returns the node under the first edge with the given role.
func (n *Node) Child(role string) (*Node, bool) {
	e := n.Edge(role)
	if e == nil || e.Node == nil {
		return nil, false
	}
	return e.Node, true
}

// Value returns the constant under the first edge with the given role.
func (n *Node) Value(role string) (string, bool) {
	e := n.Edge(role)
	if e == nil || e.Const == nil {
		return "", false
	}
	return e.Const.Value, true
}

// IsLeaf reports whether the node has no roles at all.
func (n *Node) IsLeaf() bool {
	return len(n.Edges) == 0
}

// HasAncestor reports whether any ancestor of n has one of the concepts.
// Cycles through reentrant structure are tolerated.
func (n *Node) HasAncestor(concepts ...string) bool {
	if len(concepts) == 0 {
		return false
	}
	want := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		want[c] = true
	}

	visited := map[*Node]bool{n: true}
	stack := append([]*Node(nil), n.parents...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[p] {
			continue
		}
		visited[p] = true
		if want[p.Concept] {
			return true
		}
		stack = append(stack, p.parents...)
	}
	return false
}
