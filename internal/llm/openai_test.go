package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func openAIServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "DAIDE: PRP (ALY (AUS GER) (FRA))") {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func allianceRequest() ParaphraseRequest {
	return ParaphraseRequest{
		DAIDE:    "PRP (ALY (AUS GER) (FRA))",
		Gloss:    "We propose an alliance between Austria and Germany against France.",
		Mentions: [][]string{{"Austria", "Austrian"}, {"Germany", "German"}, {"France", "French"}},
	}
}

func TestOpenAIProvider_Paraphrase_Success(t *testing.T) {
	server := openAIServer(t, "  How about Austria and Germany team up against the French?\n")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
		Strict:  true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Paraphrase(context.Background(), allianceRequest())
	if err != nil {
		t.Fatalf("Paraphrase failed: %v", err)
	}
	if resp.Text != "How about Austria and Germany team up against the French?" {
		t.Errorf("Unexpected text: %q", resp.Text)
	}
	if resp.Model != "gpt-4o-mini" || resp.TokensUsed != 42 {
		t.Errorf("Unexpected model/tokens: %s/%d", resp.Model, resp.TokensUsed)
	}
}

func TestOpenAIProvider_Paraphrase_Drift(t *testing.T) {
	server := openAIServer(t, "Let us ally against France.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Strict: true})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Paraphrase(context.Background(), allianceRequest())
	if !errors.Is(err, ErrDrift) {
		t.Fatalf("Expected ErrDrift, got %v", err)
	}
	if !strings.Contains(err.Error(), "Austria, Germany") {
		t.Errorf("Expected missing names in error, got %v", err)
	}
}

func TestOpenAIProvider_Paraphrase_LenientAllowsDrift(t *testing.T) {
	server := openAIServer(t, "Let us ally against France.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Paraphrase(context.Background(), allianceRequest()); err != nil {
		t.Fatalf("Expected no error without strict mode, got %v", err)
	}
}

func TestOpenAIProvider_Paraphrase_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Paraphrase(context.Background(), allianceRequest()); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Paraphrase_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Paraphrase(ctx, allianceRequest()); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}
