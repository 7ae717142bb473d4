package amr

import (
	"regexp"
	"strings"
)

// variablePattern matches bare tokens that annotators use as variables
// (c, c2, p13). Other bare tokens are constants.
var variablePattern = regexp.MustCompile(`^[a-z]\d*$`)

// pendingRef is a reference to a variable that was not yet declared when
// the parser reached it.
type pendingRef struct {
	node  *Node
	index int
	tok   token
}

type parser struct {
	tokens    []token
	pos       int
	variables map[string]*Node
	pending   []pendingRef
}

// openGroup is one "(" on the explicit parse stack.
type openGroup struct {
	node *Node
	role *token // role waiting for its value, nil if none
}

// Parse reads exactly one AMR s-expression. Forward references to variables
// declared later in the same graph are resolved once the whole graph has
// been read; references that never resolve are an error.
func Parse(text string) (*Graph, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Msg: "no AMR text", Err: ErrEmpty}
	}

	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		tokens:    tokens,
		variables: make(map[string]*Node),
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	if err := p.resolvePending(); err != nil {
		return nil, err
	}

	return &Graph{Root: root, Variables: p.variables}, nil
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parse() (*Node, error) {
	first := p.next()
	switch first.kind {
	case tokLParen:
	case tokRParen:
		return nil, errorAt(first, ErrUnbalanced, "unexpected ')' before any group")
	default:
		return nil, errorAt(first, ErrSyntax, "expected '(' but found %s %q", first.kind, first.text)
	}

	root, err := p.openNode()
	if err != nil {
		return nil, err
	}
	stack := []*openGroup{{node: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		t := p.next()

		switch t.kind {
		case tokEOF:
			return nil, errorAt(t, ErrUnbalanced, "missing ')' for (%s / %s", top.node.Variable, top.node.Concept)

		case tokRParen:
			if top.role != nil {
				return nil, errorAt(*top.role, ErrSyntax, "role :%s has no value", top.role.text)
			}
			stack = stack[:len(stack)-1]

		case tokRole:
			if top.role != nil {
				return nil, errorAt(*top.role, ErrSyntax, "role :%s has no value", top.role.text)
			}
			role := t
			top.role = &role

		case tokLParen:
			if top.role == nil {
				return nil, errorAt(t, ErrMissingRoleMarker, "group inside (%s / %s) is not preceded by a role", top.node.Variable, top.node.Concept)
			}
			child, err := p.openNode()
			if err != nil {
				return nil, err
			}
			child.parents = append(child.parents, top.node)
			top.node.Edges = append(top.node.Edges, Edge{Role: top.role.text, Node: child})
			top.role = nil
			stack = append(stack, &openGroup{node: child})

		case tokString, tokAtom:
			if top.role == nil {
				return nil, errorAt(t, ErrMissingRoleMarker, "value %q inside (%s / %s) is not preceded by a role", t.text, top.node.Variable, top.node.Concept)
			}
			p.attachValue(top.node, top.role.text, t)
			top.role = nil

		case tokSlash:
			return nil, errorAt(t, ErrSyntax, "unexpected '/'")
		}
	}

	if rest := p.next(); rest.kind != tokEOF {
		if rest.kind == tokRParen {
			return nil, errorAt(rest, ErrUnbalanced, "surplus ')' after the root group")
		}
		return nil, errorAt(rest, ErrSyntax, "unexpected %s after the root group", rest.kind)
	}
	return root, nil
}

// openNode consumes "variable / concept" after an opening parenthesis.
func (p *parser) openNode() (*Node, error) {
	v := p.next()
	if v.kind != tokAtom {
		return nil, errorAt(v, ErrSyntax, "expected a variable after '(' but found %s", v.kind)
	}
	slash := p.next()
	if slash.kind != tokSlash {
		return nil, errorAt(slash, ErrSyntax, "expected '/' after variable %s", v.text)
	}
	c := p.next()
	if c.kind != tokAtom {
		return nil, errorAt(c, ErrSyntax, "expected a concept after %s /", v.text)
	}
	if _, dup := p.variables[v.text]; dup {
		return nil, errorAt(v, ErrDuplicateVariable, "variable %s is declared twice", v.text)
	}

	n := &Node{Variable: v.text, Concept: c.text}
	p.variables[v.text] = n
	return n, nil
}

func (p *parser) attachValue(n *Node, role string, t token) {
	if t.kind == tokString {
		n.Edges = append(n.Edges, Edge{Role: role, Const: &Constant{Value: t.text, Quoted: true}})
		return
	}
	if ref, ok := p.variables[t.text]; ok {
		n.Edges = append(n.Edges, Edge{Role: role, Node: ref, Reentrant: true})
		return
	}
	if variablePattern.MatchString(t.text) {
		n.Edges = append(n.Edges, Edge{Role: role, Reentrant: true})
		p.pending = append(p.pending, pendingRef{node: n, index: len(n.Edges) - 1, tok: t})
		return
	}
	n.Edges = append(n.Edges, Edge{Role: role, Const: &Constant{Value: t.text}})
}

func (p *parser) resolvePending() error {
	for _, ref := range p.pending {
		target, ok := p.variables[ref.tok.text]
		if !ok {
			return errorAt(ref.tok, ErrUndeclaredVariable, "variable %s is never declared", ref.tok.text)
		}
		ref.node.Edges[ref.index].Node = target
	}
	p.pending = nil
	return nil
}
