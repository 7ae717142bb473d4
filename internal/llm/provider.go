// Package llm paraphrases DAIDE into fluent English with a language model.
// The rule-based gloss stays the reference; a model paraphrase is rejected
// when it drops a power or place the DAIDE names.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDrift marks a paraphrase that leaves out a named power or place
var ErrDrift = errors.New("paraphrase drift")

const systemPrompt = "You rewrite Diplomacy negotiation messages given in the DAIDE language as short, natural English. Never add powers, provinces or orders that the DAIDE does not contain."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Paraphrase turns one DAIDE expression into English
	Paraphrase(ctx context.Context, req ParaphraseRequest) (*ParaphraseResponse, error)
}

// ParaphraseRequest contains the input for one paraphrase
type ParaphraseRequest struct {
	// DAIDE is the expression to paraphrase
	DAIDE string

	// Gloss is the rule-based English rendering of DAIDE
	Gloss string

	// Sentence is the annotated source sentence, if known
	Sentence string

	// Mentions lists every power or place the DAIDE names. Each entry holds
	// the spellings that count as naming it, e.g. {"Austria", "Austrian"}.
	Mentions [][]string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ParaphraseResponse contains the model's paraphrase
type ParaphraseResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// Strict rejects paraphrases that drop a mention
	Strict bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns the defaults: no provider, strict checking
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		Strict:    true,
		MaxTokens: 200,
	}
}

// BuildPrompt constructs the user prompt for one paraphrase
func BuildPrompt(req ParaphraseRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DAIDE: %s\n", req.DAIDE)
	if req.Gloss != "" {
		fmt.Fprintf(&b, "Literal reading: %s\n", req.Gloss)
	}
	if req.Sentence != "" {
		fmt.Fprintf(&b, "Original message: %s\n", req.Sentence)
	}
	if len(req.Mentions) > 0 {
		names := make([]string, len(req.Mentions))
		for i, m := range req.Mentions {
			names[i] = m[0]
		}
		fmt.Fprintf(&b, "\nYour sentence must name: %s.\n", strings.Join(names, ", "))
	}
	b.WriteString("\nAnswer with one or two English sentences and nothing else.")
	return b.String()
}

// checkMentions verifies that text names every mention
func checkMentions(text string, mentions [][]string) error {
	lower := strings.ToLower(text)
	var missing []string
	for _, spellings := range mentions {
		found := false
		for _, s := range spellings {
			if s != "" && strings.Contains(lower, strings.ToLower(s)) {
				found = true
				break
			}
		}
		if !found && len(spellings) > 0 {
			missing = append(missing, spellings[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing from %q", ErrDrift, strings.Join(missing, ", "), text)
	}
	return nil
}

// settle applies the request and config defaults shared by every provider
func settle(req ParaphraseRequest, cfg Config, fallbackModel string) (model string, maxTokens int) {
	model = req.Model
	if model == "" {
		model = cfg.Model
	}
	if model == "" {
		model = fallbackModel
	}
	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 200
	}
	return model, maxTokens
}

// finish trims a model answer and enforces strict mode
func finish(text string, req ParaphraseRequest, cfg Config) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty paraphrase")
	}
	if cfg.Strict {
		if err := checkMentions(text, req.Mentions); err != nil {
			return "", err
		}
	}
	return text, nil
}
