package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/partsync/internal/aggregate"
	"github.com/ppiankov/partsync/internal/cache"
	"github.com/ppiankov/partsync/internal/llm"
	"github.com/ppiankov/partsync/internal/logging"
	"github.com/ppiankov/partsync/internal/model"
	"github.com/ppiankov/partsync/internal/tokenize"
	"github.com/ppiankov/partsync/internal/util"
	"github.com/ppiankov/partsync/internal/worker"
)

// ErrNoOthers is returned when no sibling page could be compared
var ErrNoOthers = errors.New("no other pages to compare")

// Pipeline fetches a base page and its siblings, aligns them and reports
// which parts of the base are template
type Pipeline struct {
	fetcher    worker.Fetcher
	renderer   *Renderer
	summarizer *llm.Summarizer // nil if disabled
	config     *model.Config
}

// NewPipeline wires the fetcher, cache, robots checker, rate limiter and
// optional LLM summarizer from cfg
func NewPipeline(cfg *model.Config) *Pipeline {
	var opts []FetcherOption
	if cfg.Cache.Enabled {
		store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts = append(opts, WithCache(cache.NewPages(store), cfg.Cache.DiskTTL))
	}
	opts = append(opts, WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)))

	fetcher := NewFetcher(cfg.HTTP, opts...)
	if cfg.HTTP.RespectRobots {
		WithRobots(util.NewRobotsChecker(fetcher.HTTPClient(), cfg.HTTP.UserAgent))(fetcher)
	}

	return NewPipelineWithFetcher(cfg, fetcher)
}

// NewPipelineWithFetcher builds a pipeline around a caller-supplied fetcher
func NewPipelineWithFetcher(cfg *model.Config, fetcher worker.Fetcher) *Pipeline {
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			logging.Warn(context.Background(), "LLM provider disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		fetcher:    fetcher,
		renderer:   NewRenderer(os.Stdout, cfg.Output.IncludeFooter, cfg.Output.MaxSnippets),
		summarizer: summarizer,
		config:     cfg,
	}
}

// SetSummarizer replaces the LLM summarizer
func (p *Pipeline) SetSummarizer(s *llm.Summarizer) {
	p.summarizer = s
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Compare fetches base and others, aligns every other page against base and
// classifies each base part. Pages that fail to fetch or tokenize are
// skipped with a warning; a failing base page fails the run.
func (p *Pipeline) Compare(ctx context.Context, base string, others []string) (*model.Report, error) {
	if len(others) == 0 {
		return nil, ErrNoOthers
	}

	report := p.newReport(base)
	ctx = logging.WithRunID(ctx, report.RunID)

	// 1. Fetch
	targets := append([]string{base}, others...)
	logging.Info(ctx, "fetching pages", "count", len(targets))
	fetched := worker.FetchAll(ctx, p.fetcher, targets, p.config.Concurrency.Workers)

	if fetched[0].Error != nil {
		return nil, fmt.Errorf("fetch base: %w", fetched[0].Error)
	}

	// 2. Tokenize
	baseDoc, err := tokenize.FromString(base, fetched[0].Page.Body)
	if err != nil {
		return nil, fmt.Errorf("tokenize base: %w", err)
	}
	baseMeta := fetched[0].Page.Meta

	var otherDocs []model.Document
	var otherMetas []model.FetchMeta
	for _, res := range fetched[1:] {
		if res.Error != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped %s: %v", res.Target, res.Error))
			logging.Warn(ctx, "page skipped", "target", res.Target, "error", res.Error)
			continue
		}
		doc, err := tokenize.FromString(res.Target, res.Page.Body)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped %s: %v", res.Target, err))
			logging.Warn(ctx, "page skipped", "target", res.Target, "error", err)
			continue
		}
		otherDocs = append(otherDocs, doc)
		otherMetas = append(otherMetas, res.Page.Meta)
	}
	if len(otherDocs) == 0 {
		return nil, fmt.Errorf("compare %s: %w", base, ErrNoOthers)
	}

	if err := p.classify(ctx, report, baseDoc, baseMeta, otherDocs, otherMetas); err != nil {
		return nil, err
	}
	return report, nil
}

// CompareDocuments runs the comparison on already tokenized documents,
// skipping the fetch step
func (p *Pipeline) CompareDocuments(ctx context.Context, base model.Document, others []model.Document) (*model.Report, error) {
	if len(others) == 0 {
		return nil, ErrNoOthers
	}

	report := p.newReport(base.ID)
	ctx = logging.WithRunID(ctx, report.RunID)

	if err := p.classify(ctx, report, base, model.FetchMeta{Local: true}, others, nil); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) newReport(base string) *model.Report {
	ac := p.config.Align
	return &model.Report{
		RunID:   uuid.NewString(),
		BaseURL: base,
		Params: model.ReportParams{
			MinAnchorLen:    ac.MinAnchorLen,
			MaxLookahead:    ac.MaxLookahead,
			CommonThreshold: ac.CommonThreshold,
		},
		Rare: make(map[string][]int),
	}
}

// classify aligns others against base, fills report and requests the
// optional LLM summary. otherMetas may be nil.
func (p *Pipeline) classify(ctx context.Context, report *model.Report, baseDoc model.Document, baseMeta model.FetchMeta, otherDocs []model.Document, otherMetas []model.FetchMeta) error {
	ac := p.config.Align
	params := aggregate.Params{MinAnchorLen: ac.MinAnchorLen, MaxLookahead: ac.MaxLookahead}
	report.Base = summarize(baseDoc, baseMeta)

	// 3. Align concurrently, then aggregate the precomputed results
	start := time.Now()
	results, err := worker.AlignAll(ctx, baseDoc, otherDocs, params, p.config.Concurrency.Workers)
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}
	agg, err := aggregate.FromResults(baseDoc, otherDocs, results)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	logging.Info(ctx, "aligned pages", "others", len(otherDocs), "duration_ms", time.Since(start).Milliseconds())

	for k, res := range results {
		meta := model.FetchMeta{Local: true}
		if otherMetas != nil {
			meta = otherMetas[k]
		}
		report.Others = append(report.Others, model.OtherReport{
			PageSummary:   summarize(otherDocs[k], meta),
			StrongMatches: res.StrongCount(),
			WeakMatches:   res.WeakCount(),
			IdenticalText: res.IdenticalText,
			OtherText:     res.OtherText,
			Similarity:    res.Similarity(),
		})
	}

	// 4. Classify
	classes, err := agg.Classify(ac.CommonThreshold)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	for i, class := range classes {
		switch class {
		case aggregate.ClassCommon:
			report.Counts.Common++
		case aggregate.ClassUnique:
			report.Counts.Unique++
			if part := baseDoc.Parts[i]; part.Kind == model.KindTextReal {
				report.Unique = append(report.Unique, model.Snippet{Index: i, Text: part.Text})
			}
		default:
			report.Counts.Ignored++
		}
	}

	// 5. Rare repeatable elements
	for _, tag := range ac.RareTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		rare, err := agg.FindRareElements(tag, ac.CommonThreshold)
		if err != nil {
			return fmt.Errorf("find rare %s: %w", tag, err)
		}
		report.Rare[tag] = rare
	}

	report.GeneratedAt = time.Now().UTC()

	// 6. Optional LLM summary, after classification
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("LLM summary failed: %v", err))
			logging.Warn(ctx, "LLM summary failed", "error", err)
		} else {
			report.LLM = summary
		}
	}
	return nil
}

func summarize(doc model.Document, meta model.FetchMeta) model.PageSummary {
	return model.PageSummary{
		URL:       doc.ID,
		Parts:     doc.Len(),
		TextParts: doc.CountKind(model.KindTextReal),
		FetchMeta: meta,
	}
}

// RenderReport writes the requested report files and prints a summary.
// Progress lines go to progress when verbose.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool, progress io.Writer) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(progress, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(progress, "✓ Wrote Markdown: %s\n", mdPath)
		}

		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
			if err := p.renderer.RenderLLMMarkdown(llm.RenderMarkdown(report.LLM), llmPath); err != nil {
				_, _ = fmt.Fprintf(progress, "Warning: failed to write LLM summary: %v\n", err)
			} else if verbose {
				_, _ = fmt.Fprintf(progress, "✓ Wrote LLM Summary: %s\n", llmPath)
			}
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}
