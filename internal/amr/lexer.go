package amr

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokSlash
	tokRole
	tokString
	tokAtom
	tokEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokSlash:
		return "'/'"
	case tokRole:
		return "role"
	case tokString:
		return "string"
	case tokAtom:
		return "symbol"
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lex splits PENMAN text into tokens. Roles are returned without the colon
// and strings without their quotes.
func lex(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)
	line, col := 1, 1

	advance := func(r rune) {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		start := token{line: line, col: col}

		switch {
		case unicode.IsSpace(r):
			advance(r)
			i++

		case r == '(':
			start.kind = tokLParen
			tokens = append(tokens, start)
			advance(r)
			i++

		case r == ')':
			start.kind = tokRParen
			tokens = append(tokens, start)
			advance(r)
			i++

		case r == '/':
			start.kind = tokSlash
			tokens = append(tokens, start)
			advance(r)
			i++

		case r == '"':
			var b strings.Builder
			advance(r)
			i++
			closed := false
			for i < len(runes) {
				c := runes[i]
				if c == '\\' && i+1 < len(runes) {
					advance(c)
					i++
					c = runes[i]
					b.WriteRune(c)
					advance(c)
					i++
					continue
				}
				advance(c)
				i++
				if c == '"' {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, errorAt(start, ErrSyntax, "unterminated string")
			}
			start.kind = tokString
			start.text = b.String()
			tokens = append(tokens, start)

		case r == ':':
			advance(r)
			i++
			j := i
			for j < len(runes) && isSymbolRune(runes[j]) {
				j++
			}
			name := string(runes[i:j])
			if name == "" {
				return nil, errorAt(start, ErrSyntax, "role marker without a name")
			}
			for _, c := range runes[i:j] {
				advance(c)
			}
			i = j
			start.kind = tokRole
			start.text = name
			tokens = append(tokens, start)

		default:
			j := i
			for j < len(runes) && isSymbolRune(runes[j]) {
				j++
			}
			for _, c := range runes[i:j] {
				advance(c)
			}
			start.kind = tokAtom
			start.text = string(runes[i:j])
			tokens = append(tokens, start)
			i = j
		}
	}

	tokens = append(tokens, token{kind: tokEOF, line: line, col: col})
	return tokens, nil
}

func isSymbolRune(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	switch r {
	case '(', ')', '/', '"', ':':
		return false
	}
	return true
}
