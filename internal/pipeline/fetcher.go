package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/partsync/internal/cache"
	"github.com/ppiankov/partsync/internal/logging"
	"github.com/ppiankov/partsync/internal/model"
	"github.com/ppiankov/partsync/internal/util"
	"github.com/ppiankov/partsync/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc is replaced in tests to skip backoff delays
var fetchSleepFunc = time.Sleep

const fetchBaseBackoff = 500 * time.Millisecond

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Fetcher retrieves pages from the web or the local filesystem
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int

	pages    *cache.Pages
	cacheTTL time.Duration
	robots   *util.RobotsChecker
	limiter  *worker.Limiter
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithCache stores fetched pages in pages for ttl
func WithCache(pages *cache.Pages, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.pages = pages
		f.cacheTTL = ttl
	}
}

// WithRobots checks robots.txt before each remote fetch
func WithRobots(checker *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = checker }
}

// WithLimiter paces remote fetches per host
func WithLimiter(limiter *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = limiter }
}

// NewFetcher creates a Fetcher from HTTP settings
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in flag
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: max(cfg.MaxRetries, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// HTTPClient returns the client used for page requests
func (f *Fetcher) HTTPClient() *http.Client {
	return f.httpClient
}

// Fetch retrieves target. Targets without an http(s) scheme are read from
// disk; URLs go through the cache, robots.txt and the rate limiter.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*model.Page, error) {
	if path, ok := localPath(target); ok {
		return f.readLocal(target, path)
	}

	start := time.Now()
	if f.pages != nil {
		if page, ok := f.pages.Get(target); ok {
			page.Meta.FromCache = true
			logging.Fetch(ctx, target, page.Meta.StatusCode, true, time.Since(start))
			return page, nil
		}
	}

	var delay time.Duration
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", target, ErrDisallowed)
		}
		delay = crawlDelay
	}

	if f.limiter != nil {
		if err := f.limiter.ApplyCrawlDelay(target, delay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		if err := f.limiter.Wait(ctx, target); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	page, err := f.FetchWithRetry(ctx, target)
	if err != nil {
		return nil, err
	}
	logging.Fetch(ctx, target, page.Meta.StatusCode, false, time.Since(start))

	if f.pages != nil {
		if err := f.pages.Put(page, f.cacheTTL); err != nil {
			logging.Warn(ctx, "cache write failed", "target", target, "error", err)
		}
	}
	return page, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*model.Page, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := fetchBaseBackoff << (attempt - 1)
			logging.Debug(ctx, "retrying fetch", "target", rawURL, "attempt", attempt, "backoff", backoff, "error", lastErr)
			fetchSleepFunc(backoff)
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fetch: %w", err)
			}
		}

		page, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", f.maxRetries+1, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &model.Page{
		URL:  rawURL,
		Body: string(body),
		Meta: model.FetchMeta{
			StatusCode:   resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			LastModified: resp.Header.Get("Last-Modified"),
			ETag:         resp.Header.Get("ETag"),
		},
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (f *Fetcher) readLocal(target, path string) (*model.Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	body, err := io.ReadAll(io.LimitReader(file, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &model.Page{
		URL:       target,
		Body:      string(body),
		Meta:      model.FetchMeta{Local: true},
		FetchedAt: time.Now().UTC(),
	}, nil
}

// localPath reports whether target names a file rather than a web URL
func localPath(target string) (string, bool) {
	if strings.HasPrefix(target, "file://") {
		u, err := url.Parse(target)
		if err == nil {
			return u.Path, true
		}
		return strings.TrimPrefix(target, "file://"), true
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return "", false
	}
	return target, true
}

// isRetryableFetchError reports whether err is a server error, a 429 or a
// transport failure
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
