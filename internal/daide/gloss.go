package daide

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/amr2daide/internal/dictionary"
)

// form is the grammatical role a subtree is rendered for
type form int

const (
	formPlain form = iota
	formOrder
	formComplement
	formNoun
	formNounList
)

// phrase is rendered English plus what the caller needs to know about it
type phrase struct {
	text     string
	sentence bool // a full clause, capitalized and closed at top level
	coast    bool // a coast, takes "on" rather than "in"
}

// Glosser paraphrases DAIDE in English using the Diplomacy name resources
type Glosser struct {
	res *dictionary.Resources
}

// NewGlosser creates a glosser
func NewGlosser(res *dictionary.Resources) *Glosser {
	return &Glosser{res: res}
}

// English parses DAIDE text and paraphrases it. Syntax errors are returned
// alongside the best-effort paraphrase.
func (g *Glosser) English(text string) (string, []error) {
	tree, errs := Parse(text)
	return g.Render(tree), errs
}

// Render paraphrases a parsed tree. Clauses are capitalized and end in a
// period.
func (g *Glosser) Render(tree *Node) string {
	p := g.render(tree, formPlain, 0)
	if !p.sentence || p.text == "" {
		return p.text
	}
	r, size := utf8.DecodeRuneInString(p.text)
	return string(unicode.ToUpper(r)) + p.text[size:] + "."
}

func (g *Glosser) render(n *Node, f form, depth int) phrase {
	if n.IsToken() {
		return phrase{text: g.tokenName(n.Token)}
	}

	if f == formNounList {
		parts := make([]string, n.Len())
		for i, c := range n.Children {
			parts[i] = g.render(c, formNoun, depth+1).text
		}
		return phrase{text: joinList(parts)}
	}

	verb := func(order, past string) string {
		if f == formOrder {
			return order
		}
		return past
	}

	switch {
	case n.Len() == 3 && n.TokenAt(1) == "MTO":
		unit := g.render(n.Children[0], formPlain, depth+1).text
		dest := g.render(n.Children[2], formPlain, depth+1).text
		return phrase{text: fmt.Sprintf("%s %s %s", unit, verb("shall move to", "moved to"), dest), sentence: true}

	case n.Len() == 2 && n.TokenAt(1) == "HLD":
		unit := g.render(n.Children[0], formPlain, depth+1).text
		return phrase{text: fmt.Sprintf("%s %s", unit, verb("shall remain in place", "remained in place")), sentence: true}

	case (n.Len() == 3 || n.Len() == 5) && n.TokenAt(1) == "SUP":
		supporter := g.render(n.Children[0], formPlain, depth+1).text
		object := g.render(n.Children[2], formPlain, depth+1).text
		if n.Len() == 5 && n.Children[3].IsToken() {
			target := g.render(n.Children[4], formPlain, depth+1).text
			if n.TokenAt(3) == "MTO" {
				object = fmt.Sprintf("%s moving to %s", object, target)
			} else {
				object = fmt.Sprintf("%s %s %s", object, g.render(n.Children[3], formPlain, depth+1).text, target)
			}
		}
		return phrase{text: fmt.Sprintf("%s %s %s", supporter, verb("shall support", "supported"), object), sentence: true}
	}

	if head := n.TokenAt(0); head != "" {
		if p, ok := g.renderHeaded(n, head, f, depth); ok {
			return p
		}
	}

	parts := make([]string, n.Len())
	for i, c := range n.Children {
		parts[i] = g.render(c, formPlain, depth+1).text
	}
	text := strings.Join(parts, " ")
	if depth > 0 {
		text = "(" + text + ")"
	}
	return phrase{text: text}
}

// renderHeaded handles groups that start with a token
func (g *Glosser) renderHeaded(n *Node, head string, f form, depth int) (phrase, bool) {
	if n.Len() == 1 {
		if e, ok := g.res.Lookup(head); ok && isPlace(e.Category) {
			return phrase{text: e.Name}, true
		}
	}

	// the English fleet in Liverpool
	if n.Len() == 3 {
		power, okPower := g.entry(head, dictionary.CategoryPower)
		unit, okUnit := g.entry(n.TokenAt(1), dictionary.CategoryUnitType)
		if okPower && okUnit {
			if loc := g.render(n.Children[2], formPlain, depth+1); loc.text != "" {
				adjective := power.Pertainym
				if adjective == "" {
					adjective = power.Name
				}
				prep := "in"
				if loc.coast {
					prep = "on"
				}
				return phrase{text: fmt.Sprintf("the %s %s %s %s", adjective, unit.Name, prep, loc.text)}, true
			}
		}
	}

	// the south coast of Spain
	if n.Len() == 2 {
		province, okProvince := g.entry(head, dictionary.CategoryProvince)
		coast, okCoast := g.entry(n.TokenAt(1), dictionary.CategoryCoast)
		if okProvince && okCoast {
			return phrase{text: fmt.Sprintf("the %s of %s", coast.Name, province.Name), coast: true}, true
		}
	}

	switch {
	case head == "SUB" && n.Len() >= 2:
		if n.Len() == 2 {
			return phrase{text: "we submit the following order: " + g.render(n.Children[1], formOrder, depth+1).text, sentence: true}, true
		}
		var sb strings.Builder
		sb.WriteString("we submit the following orders:")
		last := n.Len() - 1
		for i := 1; i <= last; i++ {
			fmt.Fprintf(&sb, " (%d) %s", i, g.render(n.Children[i], formOrder, depth+1).text)
			switch {
			case i < last-1:
				sb.WriteString(";")
			case i < last:
				sb.WriteString("; and")
			}
		}
		return phrase{text: sb.String(), sentence: true}, true

	case head == "PRP" && n.Len() >= 2:
		return phrase{text: "we propose " + g.render(n.Children[1], formComplement, depth+1).text, sentence: true}, true

	case head == "ALY":
		var allies, enemies string
		if n.Len() >= 2 {
			allies = g.render(n.Children[1], formNounList, depth+1).text
		}
		if n.Len() >= 3 {
			enemies = g.render(n.Children[2], formNounList, depth+1).text
		}
		against := ""
		if enemies != "" {
			against = " against " + enemies
		}
		switch {
		case allies == "":
			return phrase{text: "an alliance"}, true
		case f == formComplement || f == formNoun:
			return phrase{text: fmt.Sprintf("an alliance between %s%s", allies, against)}, true
		default:
			return phrase{text: fmt.Sprintf("%s are allies%s", allies, against), sentence: true}, true
		}
	}
	return phrase{}, false
}

// tokenName renders a lone token. Seas take the definite article.
func (g *Glosser) tokenName(token string) string {
	e, ok := g.res.Lookup(token)
	if !ok {
		return token
	}
	if e.Category == dictionary.CategorySea {
		return "the " + e.Name
	}
	return e.Name
}

func (g *Glosser) entry(id string, cat dictionary.Category) (dictionary.Entry, bool) {
	if id == "" {
		return dictionary.Entry{}, false
	}
	e, ok := g.res.Lookup(id)
	if !ok || e.Category != cat {
		return dictionary.Entry{}, false
	}
	return e, true
}

func isPlace(c dictionary.Category) bool {
	return c == dictionary.CategoryPower || c == dictionary.CategoryProvince || c == dictionary.CategorySea
}

// joinList renders "a, b and c"
func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

// Mentions lists the powers, provinces and seas a DAIDE text names, in
// order of first mention
func (g *Glosser) Mentions(text string) []dictionary.Entry {
	tree, _ := Parse(text)
	var out []dictionary.Entry
	seen := make(map[string]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsToken() {
			if e, ok := g.res.Lookup(n.Token); ok && isPlace(e.Category) && !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree)
	return out
}
