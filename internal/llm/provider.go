package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/partsync/internal/model"
)

// Provider generates text summaries
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize describes the unique content of a page
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest is the input for a summary
type SummarizeRequest struct {
	// Report is the comparison report; only its unique snippets are sent
	Report model.Report

	// Prompt overrides the default prompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	MaxTokens int
}

// SummarizeResponse is the provider output
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	Provider  string // "openai", "ollama" or "" (disabled)
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// ConfigFromModel converts the tool configuration
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
	}
}

// maxPromptSnippets caps how many unique snippets go into a prompt
const maxPromptSnippets = 40

// maxSnippetChars caps each snippet
const maxSnippetChars = 400

// BuildPrompt builds the default prompt from a report's unique snippets
func BuildPrompt(report model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, `The following text fragments were found on %s but not on %d sibling pages of the same site.
Template text (navigation, footers, boilerplate) has already been removed.

Summarize in 3-4 sentences what this page is specifically about. Use only the fragments below.

Fragments:
`, report.BaseURL, len(report.Others))

	if len(report.Unique) == 0 {
		b.WriteString("(no unique text found)\n")
	}
	for i, s := range report.Unique {
		if i >= maxPromptSnippets {
			fmt.Fprintf(&b, "... and %d more fragments\n", len(report.Unique)-maxPromptSnippets)
			break
		}
		fmt.Fprintf(&b, "- %s\n", truncate(strings.TrimSpace(s.Text), maxSnippetChars))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
