package pipeline

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/score"
)

const reportStyle = `body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; vertical-align: top; text-align: left; }
pre { margin: 0; font-size: 0.85em; }
.seg { font-family: monospace; margin-right: 0.4em; padding: 0 2px; }
.daide { background: #dff0d8; }
.literal { background: #f8d7da; }
.Full-DAIDE { color: #2e7d32; }
.Partial-DAIDE { color: #ef6c00; }
.No-DAIDE { color: #c62828; }
`

// HTMLWriter collects results into a table and writes the report on Close
type HTMLWriter struct {
	w       io.Writer
	title   string
	tbody   *html.Node
	rows    int
	summary *score.Summary
}

// NewHTMLWriter creates an HTML report writer
func NewHTMLWriter(w io.Writer, title string) *HTMLWriter {
	return &HTMLWriter{w: w, title: title, tbody: element(atom.Tbody)}
}

// SetSummary adds run totals above the table
func (h *HTMLWriter) SetSummary(s *score.Summary) {
	h.summary = s
}

func (h *HTMLWriter) Write(r *model.Result) error {
	tr := element(atom.Tr)

	tr.AppendChild(cell(textNode(r.Record.ID)))
	tr.AppendChild(cell(textNode(r.Record.Snt)))

	pre := element(atom.Pre)
	pre.AppendChild(textNode(r.Record.AMR))
	tr.AppendChild(cell(pre))

	status := element(atom.Span, attr("class", string(r.Status)))
	status.AppendChild(textNode(string(r.Status)))
	tr.AppendChild(cell(status))

	daideCell := element(atom.Td)
	if r.Status.HasDAIDE() {
		code := element(atom.Code)
		code.AppendChild(textNode(r.DAIDE))
		daideCell.AppendChild(code)
	}
	tr.AppendChild(daideCell)

	segs := element(atom.Td)
	for _, s := range r.Segments {
		span := element(atom.Span, attr("class", "seg "+string(s.Kind)))
		if s.Rule != "" {
			span.Attr = append(span.Attr, attr("title", s.Rule))
		}
		span.AppendChild(textNode(s.Text))
		segs.AppendChild(span)
	}
	tr.AppendChild(segs)

	h.tbody.AppendChild(tr)
	h.rows++
	return nil
}

// Close renders the whole document
func (h *HTMLWriter) Close() error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, attr("lang", "en"))
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	title := element(atom.Title)
	title.AppendChild(textNode(h.title))
	head.AppendChild(title)
	style := element(atom.Style)
	style.AppendChild(textNode(reportStyle))
	head.AppendChild(style)
	root.AppendChild(head)

	body := element(atom.Body)
	h1 := element(atom.H1)
	h1.AppendChild(textNode(h.title))
	body.AppendChild(h1)

	p := element(atom.P, attr("class", "summary"))
	p.AppendChild(textNode(h.summaryText()))
	body.AppendChild(p)

	table := element(atom.Table)
	thead := element(atom.Thead)
	header := element(atom.Tr)
	for _, name := range []string{"ID", "Sentence", "AMR", "Status", "DAIDE", "Segments"} {
		th := element(atom.Th)
		th.AppendChild(textNode(name))
		header.AppendChild(th)
	}
	thead.AppendChild(header)
	table.AppendChild(thead)
	table.AppendChild(h.tbody)
	body.AppendChild(table)
	root.AppendChild(body)

	if err := html.Render(h.w, doc); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	_, err := io.WriteString(h.w, "\n")
	return err
}

func (h *HTMLWriter) summaryText() string {
	if h.summary == nil {
		return fmt.Sprintf("%d records", h.rows)
	}
	s := h.summary
	parts := []string{fmt.Sprintf("%d records", s.Total)}
	for _, st := range []model.Status{model.StatusFull, model.StatusPartial, model.StatusNone} {
		parts = append(parts, fmt.Sprintf("%d %s", s.ByStatus[st], st))
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	return strings.Join(parts, "; ")
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func cell(child *html.Node) *html.Node {
	td := element(atom.Td)
	td.AppendChild(child)
	return td
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
