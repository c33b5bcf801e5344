package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/partsync/internal/cache"
	"github.com/ppiankov/partsync/internal/model"
	"github.com/ppiankov/partsync/internal/util"
	"github.com/ppiankov/partsync/internal/worker"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
		MaxRetries:   2,
	}
}

func noSleep(t *testing.T) {
	t.Helper()
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = origSleep })
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected User-Agent test-agent, got %s", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("ETag", `"v1"`)
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig())
	page, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Body != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
	if page.Meta.StatusCode != 200 || page.Meta.ETag != `"v1"` {
		t.Errorf("Unexpected meta: %+v", page.Meta)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	page, err := NewFetcher(testHTTPConfig()).FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if page.Body != "<html>OK</html>" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig()).FetchWithRetry(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 404 {
		t.Fatalf("Expected 404 status error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig()).FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_429Retried(t *testing.T) {
	noSleep(t)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	if _, err := NewFetcher(testHTTPConfig()).FetchWithRetry(context.Background(), server.URL); err != nil {
		t.Fatalf("Expected success after 429 retry, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 4
	page, err := NewFetcher(cfg).FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Body != "0123" {
		t.Errorf("Expected truncated body, got %q", page.Body)
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"503", &StatusError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"500", &StatusError{Code: 500, Status: "500 Internal Server Error"}, true},
		{"429", &StatusError{Code: 429, Status: "429 Too Many Requests"}, true},
		{"404", &StatusError{Code: 404, Status: "404 Not Found"}, false},
		{"403", &StatusError{Code: 403, Status: "403 Forbidden"}, false},
		{"network", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), true},
		{"canceled", fmt.Errorf("fetch: %w", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}), false},
		{"plain", errors.New("read body: unexpected EOF"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableFetchError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

func TestFetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<p>local</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := NewFetcher(testHTTPConfig())
	for _, target := range []string{path, "file://" + path} {
		page, err := fetcher.Fetch(context.Background(), target)
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", target, err)
		}
		if page.Body != "<p>local</p>" || !page.Meta.Local {
			t.Errorf("Unexpected page for %s: %+v", target, page)
		}
	}

	if _, err := fetcher.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFetch_UsesCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "<p>cached</p>")
	}))
	defer server.Close()

	pages := cache.NewPages(cache.NewMemoryCache(time.Minute, time.Minute))
	fetcher := NewFetcher(testHTTPConfig(), WithCache(pages, time.Minute))

	first, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("Expected 1 request, got %d", hits.Load())
	}
	if first.Meta.FromCache || !second.Meta.FromCache {
		t.Errorf("Expected only the second fetch to be cached, got %v/%v", first.Meta.FromCache, second.Meta.FromCache)
	}
	if second.Body != "<p>cached</p>" {
		t.Errorf("Unexpected cached body: %s", second.Body)
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		_, _ = fmt.Fprint(w, "<p>ok</p>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), WithLimiter(worker.NewLimiter(0, 1)))
	WithRobots(util.NewRobotsChecker(server.Client(), "test-agent"))(fetcher)

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/private/page"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/public"); err != nil {
		t.Errorf("Expected public page to be fetched, got %v", err)
	}
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		target string
		local  bool
	}{
		{"https://example.com/a", false},
		{"http://example.com/a", false},
		{"pages/a.html", true},
		{"file:///tmp/a.html", true},
	}
	for _, tt := range tests {
		if _, got := localPath(tt.target); got != tt.local {
			t.Errorf("localPath(%q) = %v, want %v", tt.target, got, tt.local)
		}
	}
}

func TestFetch_CrawlDelayPacesHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nCrawl-delay: 5\n")
			return
		}
		_, _ = fmt.Fprint(w, "<p>ok</p>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), WithLimiter(worker.NewLimiter(0, 1)))
	WithRobots(util.NewRobotsChecker(server.Client(), "test-agent"))(fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if _, err := fetcher.Fetch(ctx, server.URL+"/a"); err != nil {
		t.Fatalf("Expected first fetch to pass, got %v", err)
	}
	// The next request would have to wait five seconds, past the deadline.
	if _, err := fetcher.Fetch(ctx, server.URL+"/b"); err == nil {
		t.Error("Expected second fetch to be held back by the crawl delay")
	}
}
