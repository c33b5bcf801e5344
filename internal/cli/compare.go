package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/ppiankov/partsync/internal/pipeline"
	"github.com/ppiankov/partsync/internal/tokenize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var compareOpts compareOptions

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <base> <other>...",
	Short: "Compare a page against sibling pages and report its template parts",
	Long: `Compare fetches a base page and one or more sibling pages of the same
site, aligns every sibling against the base, and classifies each part of the
base page:
- common: matched exactly on at least --threshold siblings (template)
- unique: text or markup found on too few siblings
- ignored: whitespace, scripts and styles that are not template

Pages may be URLs or local HTML files. With --tokens every argument is a
YAML part list instead and nothing is fetched.

Example:
  partsync compare https://example.com/a https://example.com/b https://example.com/c
  partsync compare a.html b.html c.html --threshold 2 --json report.json --md report.md
  partsync compare --tokens a.yaml b.yaml c.yaml
  partsync compare https://example.com/a https://example.com/b --llm openai`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(viper.GetViper())
		if err := compareOpts.apply(cmd, cfg); err != nil {
			return err
		}
		return runCompare(cmd, cfg, &compareOpts, args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addCompareFlags(compareCmd, &compareOpts)
}

func runCompare(cmd *cobra.Command, cfg *model.Config, o *compareOptions, base string, others []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Base:      %s\n", base)
		fmt.Fprintf(os.Stderr, "Siblings:  %d\n", len(others))
		fmt.Fprintf(os.Stderr, "Align:     min anchor %d, lookahead %d, threshold %d\n",
			cfg.Align.MinAnchorLen, cfg.Align.MaxLookahead, cfg.Align.CommonThreshold)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)

	var report *model.Report
	var err error
	if o.tokens {
		report, err = compareParts(ctx, p, base, others)
	} else {
		report, err = p.Compare(ctx, base, others)
	}
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Aligned %d pages\n", len(report.Others))
		fmt.Fprintf(os.Stderr, "✓ %d template parts, %d unique parts\n", report.Counts.Common, report.Counts.Unique)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
	}

	if err := p.RenderReport(report, o.outJSON, o.outMD, cfg.Output.Verbose, os.Stderr); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// compareParts loads YAML part lists and compares them without fetching
func compareParts(ctx context.Context, p *pipeline.Pipeline, base string, others []string) (*model.Report, error) {
	baseDoc, err := tokenize.LoadPartsFile(base)
	if err != nil {
		return nil, err
	}
	otherDocs := make([]model.Document, 0, len(others))
	for _, path := range others {
		doc, err := tokenize.LoadPartsFile(path)
		if err != nil {
			return nil, err
		}
		otherDocs = append(otherDocs, doc)
	}
	return p.CompareDocuments(ctx, baseDoc, otherDocs)
}
