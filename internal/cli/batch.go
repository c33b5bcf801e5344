package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/partsync/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	batchOpts compareOptions
	outputDir string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Compare a page against sibling pages listed in a file",
	Long: `Batch reads pages from a file (one URL or path per line, # for comments).
The first entry is the base page; every other entry is a sibling it is
compared against. Reports are written to --output-dir unless --json or --md
name explicit paths.

Example:
  partsync batch pages.txt
  partsync batch pages.txt --workers 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addCompareFlags(batchCmd, &batchOpts)
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./partsync-reports", "output directory for reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(viper.GetViper())
	if err := batchOpts.apply(cmd, cfg); err != nil {
		return err
	}

	targets, err := worker.ReadURLsFromFile(args[0])
	if err != nil {
		return fmt.Errorf("read pages: %w", err)
	}
	if len(targets) < 2 {
		return fmt.Errorf("%s: need a base page and at least one sibling, got %d entries", args[0], len(targets))
	}

	o := batchOpts
	if o.outJSON == "" || o.outMD == "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		slug := sanitizeFilename(targets[0])
		if o.outJSON == "" {
			o.outJSON = filepath.Join(outputDir, slug+".json")
		}
		if o.outMD == "" {
			o.outMD = filepath.Join(outputDir, slug+".md")
		}
	}

	fmt.Fprintf(os.Stderr, "⚙️  Loaded %d pages from %s (base: %s)\n", len(targets), args[0], targets[0])
	if err := runCompare(cmd, cfg, &o, targets[0], targets[1:]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Reports: %s, %s\n", o.outJSON, o.outMD)
	return nil
}

// sanitizeFilename turns a URL or path into a safe report file name
func sanitizeFilename(s string) string {
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Host + u.Path
	} else {
		s = strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
	}
	s = strings.Trim(s, "/")

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." {
		return "report"
	}
	return s
}
