package amr

import "strings"

// Format renders n and its descendants in single-line PENMAN notation.
// Each node is written out once; later mentions print only its variable.
func Format(n *Node) string {
	var b strings.Builder
	printed := make(map[*Node]bool)
	writeNode(&b, n, printed)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, printed map[*Node]bool) {
	if printed[n] && n.Variable != "" {
		b.WriteString(n.Variable)
		return
	}
	printed[n] = true

	b.WriteByte('(')
	if n.Variable != "" {
		b.WriteString(n.Variable)
		b.WriteString(" / ")
	}
	b.WriteString(n.Concept)
	for _, e := range n.Edges {
		b.WriteString(" :")
		b.WriteString(e.Role)
		b.WriteByte(' ')
		switch {
		case e.Const != nil:
			b.WriteString(e.Const.String())
		case e.Node != nil:
			writeNode(b, e.Node, printed)
		}
	}
	b.WriteByte(')')
}
