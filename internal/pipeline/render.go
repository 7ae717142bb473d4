package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/score"
)

// Sink receives translation results in input order
type Sink interface {
	Write(r *model.Result) error
	Close() error
}

// TextWriter writes the annotation-style text report
type TextWriter struct {
	w         io.Writer
	developer bool
	glosser   *daide.Glosser
}

// NewTextWriter creates a text writer. In developer mode each record also
// gets a RULES line and, for Full-DAIDE records when glosser is set, an
// ENGLISH line.
func NewTextWriter(w io.Writer, developer bool, glosser *daide.Glosser) *TextWriter {
	return &TextWriter{w: w, developer: developer, glosser: glosser}
}

func (t *TextWriter) Write(r *model.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# ::id %s\n", r.Record.ID)
	fmt.Fprintf(&b, "# ::snt %s\n", r.Record.Snt)
	fmt.Fprintf(&b, "AMR:\n%s\n", r.Record.AMR)

	switch r.Status {
	case model.StatusFull:
		fmt.Fprintf(&b, "DAIDE: %s\n", r.DAIDE)
	case model.StatusPartial:
		fmt.Fprintf(&b, "PARTIAL-DAIDE: %s\n", r.DAIDE)
	default:
		b.WriteString("NO-DAIDE\n")
	}

	if t.developer {
		if len(r.Rules) > 0 {
			fmt.Fprintf(&b, "RULES: %s\n", strings.Join(r.Rules, " "))
		}
		if t.glosser != nil && r.Status == model.StatusFull {
			english, _ := t.glosser.English(r.DAIDE)
			fmt.Fprintf(&b, "ENGLISH: %s\n", english)
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

// WriteSummary writes the closing developer summary
func (t *TextWriter) WriteSummary(s *score.Summary) error {
	_, err := fmt.Fprintf(t.w, "%s\nLast snt-id: %s\n", s.Line(), s.LastID)
	return err
}

func (t *TextWriter) Close() error { return nil }

// JSONLWriter writes one JSON object per record with ", " and ": "
// separators and every non-ASCII rune escaped as \uXXXX
type JSONLWriter struct {
	w io.Writer
}

// NewJSONLWriter creates a JSONL writer
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w}
}

func (j *JSONLWriter) Write(r *model.Result) error {
	line, err := JSONLine(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(j.w, line+"\n")
	return err
}

func (j *JSONLWriter) Close() error { return nil }

// JSONLine renders r as
// {"id": ..., "snt": ..., "amr": ..., "daide-status": ...[, "daide": ...]}.
// The daide field is absent for No-DAIDE results.
func JSONLine(r *model.Result) (string, error) {
	fields := [][2]string{
		{"id", r.Record.ID},
		{"snt", r.Record.Snt},
		{"amr", r.Record.AMR},
		{"daide-status", string(r.Status)},
	}
	if r.Status.HasDAIDE() {
		fields = append(fields, [2]string{"daide", r.DAIDE})
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		k, err := pyString(f[0])
		if err != nil {
			return "", err
		}
		v, err := pyString(f[1])
		if err != nil {
			return "", err
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
	}
	b.WriteByte('}')
	return b.String(), nil
}

// pyString quotes s as a JSON string with every non-ASCII character
// escaped as \uXXXX (surrogate pairs above the BMP).
func pyString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encode string: %w", err)
	}
	quoted := bytes.TrimRight(buf.Bytes(), "\n")

	var out strings.Builder
	for len(quoted) > 0 {
		r, size := utf8.DecodeRune(quoted)
		quoted = quoted[size:]
		switch {
		case r < utf8.RuneSelf:
			out.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&out, `\u%04x`, r)
		}
	}
	return out.String(), nil
}
