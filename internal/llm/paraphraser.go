package llm

import (
	"context"

	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/dictionary"
)

// Paraphraser combines the rule-based gloss with an optional provider
type Paraphraser struct {
	provider Provider
	glosser  *daide.Glosser
}

// NewParaphraser creates a paraphraser. A config without a provider yields
// a disabled paraphraser.
func NewParaphraser(config Config, glosser *daide.Glosser) (*Paraphraser, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Paraphraser{provider: provider, glosser: glosser}, nil
}

// IsEnabled reports whether a provider is configured
func (p *Paraphraser) IsEnabled() bool {
	return p != nil && p.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (p *Paraphraser) ProviderName() string {
	if !p.IsEnabled() {
		return ""
	}
	return p.provider.Name()
}

// Paraphrase asks the provider for fluent English. It returns nil when the
// paraphraser is disabled.
func (p *Paraphraser) Paraphrase(ctx context.Context, daideText, sentence string) (*ParaphraseResponse, error) {
	if !p.IsEnabled() {
		return nil, nil
	}
	gloss, _ := p.glosser.English(daideText)
	return p.provider.Paraphrase(ctx, ParaphraseRequest{
		DAIDE:    daideText,
		Gloss:    gloss,
		Sentence: sentence,
		Mentions: spellings(p.glosser.Mentions(daideText)),
	})
}

// spellings lists the accepted spellings of each mentioned entity
func spellings(entries []dictionary.Entry) [][]string {
	out := make([][]string, len(entries))
	for i, e := range entries {
		names := e.Names()
		if e.Pertainym != "" {
			names = append(names, e.Pertainym)
		}
		out[i] = names
	}
	return out
}
