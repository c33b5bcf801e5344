package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/partsync/internal/model"
)

// Fetcher retrieves a page by URL or local path
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*model.Page, error)
}

// FetchJob fetches one page
type FetchJob struct {
	Position int
	Target   string
	Fetcher  Fetcher
}

// Execute fetches the page
func (j *FetchJob) Execute(ctx context.Context) Result {
	page, err := j.Fetcher.Fetch(ctx, j.Target)
	return &FetchResult{Position: j.Position, Target: j.Target, Page: page, Error: err}
}

// FetchResult is the result of a FetchJob
type FetchResult struct {
	Position int
	Target   string
	Page     *model.Page
	Error    error
}

// GetError returns the fetch error, if any
func (r *FetchResult) GetError() error {
	return r.Error
}

// FetchAll fetches targets concurrently. Results are in input order; a
// failed fetch is reported in its slot and does not stop the others.
func FetchAll(ctx context.Context, fetcher Fetcher, targets []string, workers int) []*FetchResult {
	if len(targets) == 0 {
		return []*FetchResult{}
	}

	jobs := make([]Job, len(targets))
	for k, target := range targets {
		jobs[k] = &FetchJob{Position: k, Target: target, Fetcher: fetcher}
	}

	out := make([]*FetchResult, len(targets))
	for _, r := range run(ctx, workers, jobs) {
		res := r.(*FetchResult)
		out[res.Position] = res
	}

	for k, res := range out {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = errors.New("not fetched")
			}
			out[k] = &FetchResult{Position: k, Target: targets[k], Error: fmt.Errorf("fetch %s: %w", targets[k], err)}
		}
	}
	return out
}

// ReadURLsFromFile reads one URL per line, skipping blanks, # comments and
// duplicates. Order is preserved: the first URL is the base page.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
