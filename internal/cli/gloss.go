package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/llm"
	"github.com/ppiankov/amr2daide/internal/model"
)

var (
	llmProvider string
	llmModel    string
)

// glossCmd represents the gloss command
var glossCmd = &cobra.Command{
	Use:   "gloss <DAIDE>...",
	Short: "Paraphrase DAIDE in English",
	Long: `Gloss parses DAIDE text and prints an English paraphrase. All arguments
are joined into one DAIDE expression.

With --llm the rule-based paraphrase is followed by a fluent one from a
language model. The model answer is rejected when it leaves out a power or
place that the DAIDE names (set llm.strict: false to allow it).

Example:
  amr2daide gloss "PRP (ALY (AUS ITA) VSS (FRA))"
  amr2daide gloss "(AUS AMY BUD) MTO VIE"
  amr2daide gloss --llm openai "PRP (ALY (AUS ITA) VSS (FRA))"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyLLMFlags(cmd, cfg)
		dict, err := loadDictionary(cfg)
		if err != nil {
			return err
		}

		glosser := daide.NewGlosser(dict.Resources())
		text := strings.Join(args, " ")
		english, errs := glosser.English(text)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "✗ %v\n", e)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, english)
		if len(errs) > 0 {
			return fmt.Errorf("%d syntax errors in DAIDE input", len(errs))
		}

		paraphraser, err := llm.NewParaphraser(llm.ConfigFromModel(cfg), glosser)
		if err != nil {
			return err
		}
		if !paraphraser.IsEnabled() {
			return nil
		}
		resp, err := paraphraser.Paraphrase(paraphraseContext(cmd), text, "")
		if err != nil {
			return fmt.Errorf("%s paraphrase: %w", paraphraser.ProviderName(), err)
		}
		fmt.Fprintln(out, resp.Text)
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ %s (%s, %d tokens)\n", paraphraser.ProviderName(), resp.Model, resp.TokensUsed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossCmd)
	addLLMFlags(glossCmd)
}

// addLLMFlags registers the language model flags on cmd
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&llmProvider, "llm", "", "paraphrase with a language model: openai, anthropic or ollama")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "language model name (provider default if empty)")
}

// applyLLMFlags lays explicitly set language model flags over the config
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("llm") {
		cfg.LLM.Provider = llmProvider
	}
	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

// paraphraseContext returns the command context, or a background one when
// the command runs without it
func paraphraseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
