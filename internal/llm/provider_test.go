package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/amr2daide/internal/daide"
	"github.com/ppiankov/amr2daide/internal/dictionary"
	"github.com/ppiankov/amr2daide/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(ParaphraseRequest{
		DAIDE:    "PRP (ALY (AUS GER) (FRA))",
		Gloss:    "We propose an alliance.",
		Sentence: "Want to team up against France?",
		Mentions: [][]string{{"Austria", "Austrian"}, {"Germany"}, {"France"}},
	})

	for _, want := range []string{
		"DAIDE: PRP (ALY (AUS GER) (FRA))\n",
		"Literal reading: We propose an alliance.\n",
		"Original message: Want to team up against France?\n",
		"must name: Austria, Germany, France.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	bare := BuildPrompt(ParaphraseRequest{DAIDE: "YES"})
	if strings.Contains(bare, "Literal reading") || strings.Contains(bare, "must name") {
		t.Errorf("unexpected optional sections:\n%s", bare)
	}
}

func TestCheckMentions(t *testing.T) {
	mentions := [][]string{{"Austria", "Austrian"}, {"English Channel", "Channel"}}

	tests := []struct {
		text    string
		wantErr bool
	}{
		{"The Austrian army moves into the Channel.", false},
		{"austria takes the english channel", false},
		{"Austria moves.", true},
		{"", true},
	}
	for _, tt := range tests {
		err := checkMentions(tt.text, mentions)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkMentions(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrDrift) {
			t.Errorf("expected ErrDrift, got %v", err)
		}
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Fatalf("empty provider: got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "bard"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	p, err = NewProvider(Config{Provider: "Claude", APIKey: "k"})
	if err != nil {
		t.Fatalf("claude alias: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("expected anthropic, got %s", p.Name())
	}
}

func TestConfigFromModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu:11434")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.Input.HTTPSProxy = "http://proxy:3128"
	c := ConfigFromModel(cfg)
	if c.APIKey != "env-key" || c.HTTPSProxy != "http://proxy:3128" || !c.Strict {
		t.Errorf("unexpected openai config: %+v", c)
	}

	cfg.LLM.APIKey = "file-key"
	if c := ConfigFromModel(cfg); c.APIKey != "file-key" {
		t.Errorf("config key should win over environment, got %q", c.APIKey)
	}

	cfg.LLM.Provider = "ollama"
	if c := ConfigFromModel(cfg); c.BaseURL != "http://gpu:11434" {
		t.Errorf("expected OLLAMA_BASE_URL, got %q", c.BaseURL)
	}
}

type stubProvider struct {
	got ParaphraseRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Paraphrase(_ context.Context, req ParaphraseRequest) (*ParaphraseResponse, error) {
	s.got = req
	return &ParaphraseResponse{Text: "ok"}, nil
}

func TestParaphraser(t *testing.T) {
	d, err := dictionary.Default()
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	glosser := daide.NewGlosser(d.Resources())

	disabled, err := NewParaphraser(Config{}, glosser)
	if err != nil {
		t.Fatalf("NewParaphraser: %v", err)
	}
	if disabled.IsEnabled() || disabled.ProviderName() != "" {
		t.Error("expected a disabled paraphraser")
	}
	if resp, err := disabled.Paraphrase(context.Background(), "AUS", ""); resp != nil || err != nil {
		t.Errorf("disabled paraphrase: got %v, %v", resp, err)
	}

	stub := &stubProvider{}
	p := &Paraphraser{provider: stub, glosser: glosser}
	if _, err := p.Paraphrase(context.Background(), "(AUS AMY VIE) MTO ECH", "Vienna to the Channel"); err != nil {
		t.Fatalf("Paraphrase: %v", err)
	}
	if stub.got.Gloss != "The Austrian army in Vienna moved to the English Channel." {
		t.Errorf("unexpected gloss %q", stub.got.Gloss)
	}
	if stub.got.Sentence != "Vienna to the Channel" {
		t.Errorf("unexpected sentence %q", stub.got.Sentence)
	}
	var firsts []string
	for _, m := range stub.got.Mentions {
		firsts = append(firsts, m[0])
	}
	if got := strings.Join(firsts, ","); got != "Austria,Vienna,English Channel" {
		t.Errorf("unexpected mentions %s", got)
	}
	if last := stub.got.Mentions[0]; last[len(last)-1] != "Austrian" {
		t.Errorf("expected pertainym among Austria spellings, got %v", last)
	}
}
