package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/amr"
	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/extract"
	"github.com/ppiankov/amr2daide/internal/llm"
	"github.com/ppiankov/amr2daide/internal/mapper"
	"github.com/ppiankov/amr2daide/internal/model"
	"github.com/ppiankov/amr2daide/internal/score"
)

var explainFile string

var (
	headStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	daideStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
	literalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var statusStyles = map[model.Status]lipgloss.Style{
	model.StatusFull:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E7D32")),
	model.StatusPartial: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF6C00")),
	model.StatusNone:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C62828")),
}

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain [AMR]",
	Short: "Show how an AMR is translated, rule by rule",
	Long: `Explain translates one AMR (or every record of an annotation file) and
shows each output segment with the rule that produced it, the composed
DAIDE, its status and an English gloss.

With --llm a language model adds a fluent paraphrase of Full-DAIDE results.

Example:
  amr2daide explain '(c / country :name (n / name :op1 "Austria"))'
  amr2daide explain -f dip-sample.txt
  echo '(p / propose-01 :ARG1 (x / xyz-01))' | amr2daide explain
  amr2daide explain --llm ollama --llm-model llama3.1 -f dip-sample.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVarP(&explainFile, "file", "f", "", "annotation file to explain")
	addLLMFlags(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cmd, cfg)
	dict, err := loadDictionary(cfg)
	if err != nil {
		return err
	}

	var text string
	switch {
	case len(args) == 1:
		text = args[0]
	case explainFile != "":
		data, err := os.ReadFile(explainFile)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		text = string(data)
	}

	records, err := explainRecords(text)
	if err != nil {
		return err
	}

	glosser := daide.NewGlosser(dict.Resources())
	paraphraser, err := llm.NewParaphraser(llm.ConfigFromModel(cfg), glosser)
	if err != nil {
		return err
	}
	e := &explainer{
		mapper:      mapper.New(dict, mapper.WithDeveloperMode(true)),
		glosser:     glosser,
		scorer:      score.NewScorer(),
		paraphraser: paraphraser,
		ctx:         paraphraseContext(cmd),
	}
	out := cmd.OutOrStdout()
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(out)
		}
		block, err := e.explain(rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", rec.ID, err)
			continue
		}
		fmt.Fprintln(out, block)
	}
	return nil
}

// explainRecords treats annotated input as records and bare text as one AMR
func explainRecords(text string) ([]model.Record, error) {
	if !strings.Contains(text, "# ::") {
		amrText := strings.TrimSpace(text)
		if amrText == "" {
			return nil, fmt.Errorf("no AMR given")
		}
		return []model.Record{{ID: "input", AMR: amrText}}, nil
	}

	records, skipped, err := extract.ReadAll(strings.NewReader(text), 0)
	if err != nil {
		return nil, err
	}
	for _, be := range skipped {
		fmt.Fprintf(os.Stderr, "✗ skipping block: %v\n", be)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found")
	}
	return records, nil
}

type explainer struct {
	mapper      *mapper.Mapper
	glosser     *daide.Glosser
	scorer      *score.Scorer
	paraphraser *llm.Paraphraser
	ctx         context.Context
}

func (e *explainer) explain(rec model.Record) (string, error) {
	g, err := amr.Parse(rec.AMR)
	if err != nil {
		return "", err
	}
	trace := e.mapper.Trace(g)
	status := score.Classify(trace.Segments)
	composed := mapper.Compose(trace.Segments)

	var b strings.Builder
	b.WriteString(headStyle.Render(rec.ID))
	if rec.Snt != "" {
		b.WriteString("  " + rec.Snt)
	}
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("AMR") + "\n" + g.String() + "\n\n")

	b.WriteString(labelStyle.Render("Segments") + "\n")
	if len(trace.Segments) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, s := range trace.Segments {
		style, kind := literalStyle, "literal"
		if s.IsDAIDE() {
			style, kind = daideStyle, "daide  "
		}
		line := fmt.Sprintf("  %s %s", kind, style.Render(s.Text))
		if s.Rule != "" {
			line += labelStyle.Render("  ← " + s.Rule)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + labelStyle.Render("Rules") + "  " + strings.Join(trace.Rules, " ") + "\n")
	b.WriteString(labelStyle.Render("Status") + " " + statusStyles[status].Render(string(status)) + "\n")
	if status.HasDAIDE() {
		b.WriteString(labelStyle.Render("DAIDE") + "  " + composed + "\n")
	}
	if status == model.StatusFull {
		english, errs := e.glosser.English(composed)
		if len(errs) == 0 {
			b.WriteString(labelStyle.Render("English") + " " + english + "\n")
		}
		if e.paraphraser.IsEnabled() {
			resp, err := e.paraphraser.Paraphrase(e.ctx, composed, rec.Snt)
			switch {
			case err != nil:
				b.WriteString(literalStyle.Render(e.paraphraser.ProviderName()+": "+err.Error()) + "\n")
			default:
				b.WriteString(labelStyle.Render(e.paraphraser.ProviderName()) + " " + resp.Text + "\n")
			}
		}
	}

	a := e.scorer.Assess(&model.Result{Record: rec, Segments: trace.Segments, Status: status})
	if len(a.Known) > 0 {
		b.WriteString(labelStyle.Render("Known extended concepts") + " " + strings.Join(a.Known, ", ") + "\n")
	}
	if len(a.Other) > 0 {
		b.WriteString(labelStyle.Render("Other extended concepts") + " " + strings.Join(a.Other, ", ") + "\n")
	}
	if a.Underspecified {
		b.WriteString(literalStyle.Render("Underspecified unit") + "\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n")), nil
}
