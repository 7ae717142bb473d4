// Package daide reads DAIDE token text back into a tree and paraphrases it
// in English.
package daide

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrSpuriousClose = errors.New("spurious close parenthesis")
	ErrSpuriousChar  = errors.New("spurious character")
	ErrMissingClose  = errors.New("missing close parenthesis")
)

// SyntaxError reports a problem at a character position. Parsing recovers
// from every SyntaxError by ignoring the offending character or closing the
// open group.
type SyntaxError struct {
	Pos  int
	Char rune
	Err  error
}

func (e *SyntaxError) Error() string {
	switch {
	case errors.Is(e.Err, ErrSpuriousClose):
		return fmt.Sprintf("ignoring spurious close parenthesis at position %d", e.Pos)
	case errors.Is(e.Err, ErrSpuriousChar):
		return fmt.Sprintf("ignoring spurious character %c at position %d", e.Char, e.Pos)
	default:
		return e.Err.Error()
	}
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Node is a DAIDE token or a parenthesized group of nodes
type Node struct {
	Token    string
	Children []*Node
}

// IsToken reports whether n is a single token
func (n *Node) IsToken() bool { return n.Token != "" }

// Len returns the number of children of a group
func (n *Node) Len() int { return len(n.Children) }

// TokenAt returns the token of child i, or "" when it is a group or absent
func (n *Node) TokenAt(i int) string {
	if i < 0 || i >= len(n.Children) {
		return ""
	}
	return n.Children[i].Token
}

// Parse reads DAIDE text into a root group holding the top-level nodes.
// Tokens are runs of letters; everything else besides spaces and
// parentheses is skipped with an error.
func Parse(s string) (*Node, []error) {
	root := &Node{}
	stack := []*Node{root}
	var errs []error

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		top := stack[len(stack)-1]
		switch {
		case c == ' ':
		case c == '(':
			group := &Node{}
			top.Children = append(top.Children, group)
			stack = append(stack, group)
		case c == ')':
			if len(stack) == 1 {
				errs = append(errs, &SyntaxError{Pos: i, Char: c, Err: ErrSpuriousClose})
				continue
			}
			stack = stack[:len(stack)-1]
		case unicode.IsLetter(c):
			start := i
			for i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
				i++
			}
			top.Children = append(top.Children, &Node{Token: string(runes[start : i+1])})
		default:
			errs = append(errs, &SyntaxError{Pos: i, Char: c, Err: ErrSpuriousChar})
		}
	}
	for depth := len(stack) - 1; depth > 0; depth-- {
		errs = append(errs, &SyntaxError{Pos: len(runes), Err: ErrMissingClose})
	}
	return root, errs
}

// String prints the tree back as DAIDE text. The root group has no
// parentheses of its own.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	if n.IsToken() {
		sb.WriteString(n.Token)
		return
	}
	if depth > 0 {
		sb.WriteByte('(')
	}
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		c.write(sb, depth+1)
	}
	if depth > 0 {
		sb.WriteByte(')')
	}
}
