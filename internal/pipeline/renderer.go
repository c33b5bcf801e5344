package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/partsync/internal/model"
)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	out           io.Writer
	includeFooter bool
	maxSnippets   int
}

// NewRenderer creates a renderer printing summaries to out.
// maxSnippets <= 0 lists every unique snippet in Markdown.
func NewRenderer(out io.Writer, includeFooter bool, maxSnippets int) *Renderer {
	return &Renderer{out: out, includeFooter: includeFooter, maxSnippets: maxSnippets}
}

// RenderJSON writes report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(content, path string) error {
	return writeFile(path, []byte(content))
}

// Markdown renders report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Template report: %s\n\n", report.BaseURL)
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Parameters: min anchor %d, lookahead %d, common threshold %d\n\n",
		report.Params.MinAnchorLen, report.Params.MaxLookahead, report.Params.CommonThreshold)

	b.WriteString("## Parts\n\n")
	b.WriteString("| Class | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Common (template) | %d |\n", report.Counts.Common)
	fmt.Fprintf(&b, "| Unique | %d |\n", report.Counts.Unique)
	fmt.Fprintf(&b, "| Ignored | %d |\n\n", report.Counts.Ignored)

	b.WriteString("## Compared pages\n\n")
	b.WriteString("| Page | Parts | Strong | Weak | Identical text | Similarity |\n|---|---|---|---|---|---|\n")
	for _, o := range report.Others {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %.0f%% |\n",
			o.URL, o.Parts, o.StrongMatches, o.WeakMatches, o.IdenticalText, o.Similarity*100)
	}
	b.WriteString("\n")

	if len(report.Rare) > 0 {
		b.WriteString("## Rare elements\n\n")
		tags := make([]string, 0, len(report.Rare))
		for tag := range report.Rare {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Fprintf(&b, "- `<%s>`: %s\n", tag, formatIndexes(report.Rare[tag]))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Unique text\n\n")
	if len(report.Unique) == 0 {
		b.WriteString("_No unique text found._\n\n")
	}
	for k, s := range report.Unique {
		if r.maxSnippets > 0 && k >= r.maxSnippets {
			fmt.Fprintf(&b, "\n_%d more snippets omitted._\n", len(report.Unique)-r.maxSnippets)
			break
		}
		fmt.Fprintf(&b, "- [%d] %s\n", s.Index, strings.Join(strings.Fields(s.Text), " "))
	}
	b.WriteString("\n")

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n_Generated by partsync. Parts matched exactly on enough sibling pages are template._\n")
	}
	return b.String()
}

// RenderSummary prints a short summary
func (r *Renderer) RenderSummary(report *model.Report) {
	_, _ = fmt.Fprintf(r.out, "\n%s\n", report.BaseURL)
	_, _ = fmt.Fprintf(r.out, "  compared against %d pages\n", len(report.Others))
	_, _ = fmt.Fprintf(r.out, "  common %d, unique %d, ignored %d\n",
		report.Counts.Common, report.Counts.Unique, report.Counts.Ignored)
	for tag, idx := range report.Rare {
		if len(idx) > 0 {
			_, _ = fmt.Fprintf(r.out, "  rare <%s>: %d\n", tag, len(idx))
		}
	}
	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintf(r.out, "  warnings: %d\n", len(report.Warnings))
	}
}

func formatIndexes(idx []int) string {
	if len(idx) == 0 {
		return "none"
	}
	parts := make([]string, len(idx))
	for k, i := range idx {
		parts[k] = fmt.Sprintf("%d", i)
	}
	return strings.Join(parts, ", ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
