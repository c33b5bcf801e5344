package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/sashabaranov/go-openai"
)

func testReport() model.Report {
	return model.Report{
		BaseURL: "https://example.com/a",
		Others:  make([]model.OtherReport, 2),
		Unique: []model.Snippet{
			{Index: 4, Text: "Article about tide pools"},
			{Index: 9, Text: "Starfish regrow arms"},
		},
	}
}

func TestOpenAIProvider_Summarize_Success(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) == 2 {
			gotPrompt = req.Messages[1].Content
		}

		resp := openai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "  A page about tide pools.  ",
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{Report: testReport()})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if resp.Summary != "A page about tide pools." {
		t.Errorf("Expected trimmed summary, got %q", resp.Summary)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
	if !strings.Contains(gotPrompt, "Starfish regrow arms") {
		t.Errorf("Expected prompt to contain unique snippets, got %q", gotPrompt)
	}
}

func TestOpenAIProvider_Summarize_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Summarize(context.Background(), SummarizeRequest{Report: testReport()}); err == nil {
		t.Error("Expected error for empty choices")
	}
}

func TestOpenAIProvider_Summarize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Summarize(context.Background(), SummarizeRequest{Report: testReport()})
	if err == nil {
		t.Fatal("Expected API error")
	}
	if !strings.Contains(err.Error(), "openai API error") {
		t.Errorf("Expected wrapped API error, got %v", err)
	}
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil || p != nil {
		t.Errorf("Expected nil provider for empty name, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("Expected ollama provider, got %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected name ollama, got %s", p.Name())
	}
	if op := p.(*OpenAIProvider); op.config.BaseURL != DefaultOllamaURL {
		t.Errorf("Expected default base URL, got %s", op.config.BaseURL)
	}

	if _, err := NewProvider(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testReport())
	if !strings.Contains(prompt, "https://example.com/a") {
		t.Error("Expected prompt to name the base URL")
	}
	if !strings.Contains(prompt, "2 sibling pages") {
		t.Errorf("Expected sibling count in prompt, got %q", prompt)
	}

	empty := BuildPrompt(model.Report{})
	if !strings.Contains(empty, "(no unique text found)") {
		t.Error("Expected placeholder for empty report")
	}

	long := model.Report{}
	for i := 0; i < maxPromptSnippets+5; i++ {
		long.Unique = append(long.Unique, model.Snippet{Index: i, Text: strings.Repeat("x", maxSnippetChars+10)})
	}
	prompt = BuildPrompt(long)
	if !strings.Contains(prompt, "and 5 more fragments") {
		t.Error("Expected overflow note")
	}
	if strings.Contains(prompt, strings.Repeat("x", maxSnippetChars+1)) {
		t.Error("Expected snippets to be truncated")
	}
}
