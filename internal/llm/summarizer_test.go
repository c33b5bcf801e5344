package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/partsync/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name     string
	response *SummarizeResponse
	err      error
	calls    int
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	summary, err := summarizer.GenerateSummary(context.Background(), testReport())
	if err != nil || summary != nil {
		t.Errorf("Expected nil summary when disabled, got %v, %v", summary, err)
	}
}

func TestSummarizer_GenerateSummary(t *testing.T) {
	mock := &MockProvider{
		name:     "mock",
		response: &SummarizeResponse{Summary: "Tide pools.", Model: "m1"},
	}
	s := NewSummarizerWithProvider(mock, Config{Model: "m1"})

	summary, err := s.GenerateSummary(context.Background(), testReport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Enabled || summary.Provider != "mock" || summary.SummaryMD != "Tide pools." {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestSummarizer_GenerateSummary_NothingUnique(t *testing.T) {
	mock := &MockProvider{name: "mock"}
	s := NewSummarizerWithProvider(mock, Config{})

	summary, err := s.GenerateSummary(context.Background(), model.Report{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("Expected provider not to be called, got %d calls", mock.calls)
	}
	if len(summary.Warnings) != 1 {
		t.Errorf("Expected one warning, got %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_Error(t *testing.T) {
	s := NewSummarizerWithProvider(&MockProvider{name: "mock", err: errors.New("boom")}, Config{})

	if _, err := s.GenerateSummary(context.Background(), testReport()); err == nil {
		t.Error("Expected provider error to propagate")
	}
}

func TestRenderMarkdown(t *testing.T) {
	if RenderMarkdown(nil) != "" {
		t.Error("Expected empty output for nil summary")
	}

	md := RenderMarkdown(&model.LLMSummary{
		Enabled:   true,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		SummaryMD: "Tide pools.",
		Warnings:  []string{"partial"},
	})
	for _, want := range []string{"# Unique content summary", "openai (gpt-4o-mini)", "Tide pools.", "⚠ partial"} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}
