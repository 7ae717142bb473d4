package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/amr2daide/internal/model"
)

// NewProvider creates a new LLM provider based on configuration. An empty
// provider name disables paraphrasing and yields a nil Provider.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the run configuration into provider settings.
// API keys come from OPENAI_API_KEY / ANTHROPIC_API_KEY when the config
// leaves them empty, and OLLAMA_BASE_URL overrides an empty base URL.
func ConfigFromModel(cfg *model.Config) Config {
	c := Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		Strict:     cfg.LLM.Strict,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.Input.HTTPProxy,
		HTTPSProxy: cfg.Input.HTTPSProxy,
	}

	switch strings.ToLower(c.Provider) {
	case "openai":
		if c.APIKey == "" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if c.APIKey == "" {
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.BaseURL == "" {
			c.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return c
}
