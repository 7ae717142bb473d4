package dictionary

import (
	"fmt"
	"strings"
)

// CompilePattern compiles the rule pattern notation:
//
//	(move-01 :ARG1 $unit :ARG2 $destination)
//	($utype(army|fleet) :mod $power(country) :location $location(sea|province))
//	(country :name (name :op1 "France"))
//
// A $name binder captures the node (or, at the head of a parenthesized
// pattern, just its concept). A (a|b) suffix restricts the concept.
func CompilePattern(src string) (*Pattern, error) {
	c := &patternCompiler{src: src}
	c.skipSpace()
	p, err := c.group()
	if err != nil {
		return nil, err
	}
	c.skipSpace()
	if !c.done() {
		return nil, c.errorf("trailing input %q", c.src[c.pos:])
	}

	seen := make(map[string]bool)
	for _, name := range p.bindings(nil) {
		if seen[name] {
			return nil, fmt.Errorf("binding $%s declared twice", name)
		}
		seen[name] = true
	}
	return p, nil
}

type patternCompiler struct {
	src string
	pos int
}

func (c *patternCompiler) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("pattern offset %d: %s", c.pos, fmt.Sprintf(format, args...))
}

func (c *patternCompiler) done() bool { return c.pos >= len(c.src) }

func (c *patternCompiler) peek() byte {
	if c.done() {
		return 0
	}
	return c.src[c.pos]
}

func (c *patternCompiler) skipSpace() {
	for !c.done() && strings.IndexByte(" \t\r\n", c.src[c.pos]) >= 0 {
		c.pos++
	}
}

func (c *patternCompiler) expect(b byte) error {
	if c.peek() != b {
		if c.done() {
			return c.errorf("expected %q, got end of pattern", b)
		}
		return c.errorf("expected %q, got %q", b, c.peek())
	}
	c.pos++
	return nil
}

// group parses "(head :role value ...)".
func (c *patternCompiler) group() (*Pattern, error) {
	if err := c.expect('('); err != nil {
		return nil, err
	}
	c.skipSpace()

	var p *Pattern
	var err error
	if c.peek() == '$' {
		p, err = c.binder()
		if err != nil {
			return nil, err
		}
		p.Head = true
	} else {
		concept := c.symbol()
		if concept == "" {
			return nil, c.errorf("missing concept")
		}
		p = &Pattern{Concepts: []string{concept}}
	}

	for {
		c.skipSpace()
		switch c.peek() {
		case ')':
			c.pos++
			return p, nil
		case ':':
			c.pos++
			role := c.symbol()
			if role == "" {
				return nil, c.errorf("role marker without name")
			}
			c.skipSpace()
			v, err := c.value()
			if err != nil {
				return nil, err
			}
			p.Roles = append(p.Roles, RolePattern{Role: role, Pattern: *v})
		case 0:
			return nil, c.errorf("missing ')'")
		default:
			return nil, c.errorf("expected role or ')', got %q", c.peek())
		}
	}
}

func (c *patternCompiler) value() (*Pattern, error) {
	switch c.peek() {
	case '(':
		return c.group()
	case '$':
		return c.binder()
	case '"':
		s, err := c.quoted()
		if err != nil {
			return nil, err
		}
		return &Pattern{Const: s, IsConst: true}, nil
	case 0, ')':
		return nil, c.errorf("role has no value")
	}
	s := c.symbol()
	if s == "" {
		return nil, c.errorf("unexpected %q", c.peek())
	}
	if s == "-" || s == "+" || isNumber(s) {
		return &Pattern{Const: s, IsConst: true}, nil
	}
	return &Pattern{Concepts: []string{s}}, nil
}

// binder parses "$name" with an optional "(a|b)" concept restriction.
func (c *patternCompiler) binder() (*Pattern, error) {
	c.pos++ // $
	name := c.symbol()
	if name == "" {
		return nil, c.errorf("binding without name")
	}
	p := &Pattern{Bind: name}
	if c.peek() != '(' {
		return p, nil
	}

	c.pos++
	end := strings.IndexByte(c.src[c.pos:], ')')
	if end < 0 {
		return nil, c.errorf("unterminated concept list for $%s", name)
	}
	for _, alt := range strings.Split(c.src[c.pos:c.pos+end], "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" || strings.ContainsAny(alt, " :$(\"") {
			return nil, c.errorf("bad concept %q in $%s", alt, name)
		}
		p.Concepts = append(p.Concepts, alt)
	}
	c.pos += end + 1
	return p, nil
}

func (c *patternCompiler) symbol() string {
	start := c.pos
	for !c.done() && strings.IndexByte(" \t\r\n()\":$|", c.src[c.pos]) < 0 {
		c.pos++
	}
	return c.src[start:c.pos]
}

func (c *patternCompiler) quoted() (string, error) {
	c.pos++ // opening quote
	var b strings.Builder
	for !c.done() {
		ch := c.src[c.pos]
		c.pos++
		switch ch {
		case '"':
			return b.String(), nil
		case '\\':
			if !c.done() {
				b.WriteByte(c.src[c.pos])
				c.pos++
			}
		default:
			b.WriteByte(ch)
		}
	}
	return "", c.errorf("unterminated string")
}

func isNumber(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r == '-' || r == '+') && i == 0:
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}
