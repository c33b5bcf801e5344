package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *model.Report {
	return &model.Report{
		RunID:       "run-1",
		BaseURL:     "https://example.com/a",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Params:      model.ReportParams{MinAnchorLen: 3, MaxLookahead: 40, CommonThreshold: 2},
		Others: []model.OtherReport{
			{PageSummary: model.PageSummary{URL: "https://example.com/b", Parts: 9}, StrongMatches: 8, IdenticalText: 3, OtherText: 1, Similarity: 0.75},
		},
		Counts: model.ClassCounts{Common: 8, Unique: 2},
		Unique: []model.Snippet{
			{Index: 4, Text: "Base\n  article text"},
			{Index: 7, Text: "Second"},
		},
		Rare:     map[string][]int{"img": {6}, "video": {}},
		Warnings: []string{"skipped x"},
		LLM:      &model.LLMSummary{Enabled: true, Provider: "stub", SummaryMD: "About tides."},
	}
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(&bytes.Buffer{}, true, 1).Markdown(sampleReport())

	for _, want := range []string{
		"# Template report: https://example.com/a",
		"| Common (template) | 8 |",
		"| https://example.com/b | 9 | 8 | 0 | 3 | 75% |",
		"- `<img>`: 6",
		"- `<video>`: none",
		"- [4] Base article text",
		"_1 more snippets omitted._",
		"- skipped x",
		"Generated by partsync",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "[7] Second")
}

func TestRenderer_NoFooter(t *testing.T) {
	md := NewRenderer(&bytes.Buffer{}, false, 0).Markdown(&model.Report{BaseURL: "x"})
	assert.NotContains(t, md, "Generated by partsync")
	assert.Contains(t, md, "_No unique text found._")
}

func TestPipeline_RenderReport(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "report.md")

	var stdout, progress bytes.Buffer
	p := NewPipelineWithFetcher(testConfig(), sitePages)
	p.renderer = NewRenderer(&stdout, true, 0)

	require.NoError(t, p.RenderReport(sampleReport(), jsonPath, mdPath, true, &progress))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded model.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, []int{6}, decoded.Rare["img"])

	_, err = os.Stat(mdPath)
	assert.NoError(t, err)

	llmMD, err := os.ReadFile(filepath.Join(dir, "report.llm.md"))
	require.NoError(t, err)
	assert.Contains(t, string(llmMD), "About tides.")

	assert.Contains(t, progress.String(), "Wrote JSON")
	assert.Contains(t, stdout.String(), "common 8, unique 2, ignored 0")
	assert.Contains(t, stdout.String(), "rare <img>: 1")
}
