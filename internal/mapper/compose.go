package mapper

import (
	"regexp"
	"strings"

	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/model"
)

var doubleParens = regexp.MustCompile(`\((\([^()]*\))\)`)

// Compose renders a segment sequence as one line, filling every hole with
// the text of its run.
func Compose(segs []model.Segment) string {
	return strings.Join(composeRun(segs), " ")
}

func composeRun(segs []model.Segment) []string {
	var out []string
	for i := 0; i < len(segs); {
		text, n := composeUnit(segs[i:])
		if text != "" {
			out = append(out, text)
		}
		i += n
	}
	return out
}

// composeUnit renders segs[0] with its hole runs and reports how many
// segments it consumed.
func composeUnit(segs []model.Segment) (string, int) {
	head := segs[0]
	used := 1
	values := make(map[string]string, len(head.Holes))
	for _, h := range head.Holes {
		end := used + h.Len
		if end > len(segs) {
			end = len(segs)
		}
		values[h.Name] = strings.Join(composeRun(segs[used:end]), " ")
		used = end
	}
	return fill(head.Text, values, head.IsDAIDE()), used
}

// fill substitutes $name slots that have a value and leaves the rest in
// place. A multi-token value is parenthesized unless it already is, or the
// slot itself sits directly inside parentheses. DAIDE output then has
// redundant ((X)) pairs reduced to (X).
func fill(template string, values map[string]string, daide bool) string {
	var b strings.Builder
	last := 0
	for _, loc := range dictionary.Placeholder.FindAllStringSubmatchIndex(template, -1) {
		v, ok := values[template[loc[2]:loc[3]]]
		if !ok {
			continue
		}
		b.WriteString(template[last:loc[0]])
		enclosed := strings.HasSuffix(b.String(), "(") && strings.HasPrefix(template[loc[1]:], ")")
		if strings.Contains(v, " ") && !hasOuterParens(v) && !enclosed {
			v = "(" + v + ")"
		}
		b.WriteString(v)
		last = loc[1]
	}
	b.WriteString(template[last:])

	out := b.String()
	if daide {
		out = collapseParens(out)
	}
	return out
}

// hasOuterParens reports whether s is a single parenthesized group.
func hasOuterParens(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i < len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func collapseParens(s string) string {
	for {
		next := doubleParens.ReplaceAllString(s, "$1")
		if next == s {
			return s
		}
		s = next
	}
}

// group parenthesizes a single multi-token DAIDE translation so that it
// stays one element of an enclosing list.
func group(run []model.Segment) []model.Segment {
	if len(run) != 1 || !run[0].IsDAIDE() || !run[0].IsClosed() {
		return run
	}
	text := run[0].Text
	if !strings.Contains(text, " ") || hasOuterParens(text) {
		return run
	}
	out := run[0]
	out.Text = "(" + text + ")"
	return []model.Segment{out}
}
