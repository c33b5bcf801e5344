package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/partsync/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig layers the config file and PARTSYNC_* environment variables
// over the built-in defaults
func loadConfig(v *viper.Viper) *model.Config {
	cfg := model.DefaultConfig()

	setInt(v, "align.min_anchor_len", &cfg.Align.MinAnchorLen)
	setInt(v, "align.max_lookahead", &cfg.Align.MaxLookahead)
	setInt(v, "align.common_threshold", &cfg.Align.CommonThreshold)
	if v.IsSet("align.rare_tags") {
		cfg.Align.RareTags = v.GetStringSlice("align.rare_tags")
	}

	setDuration(v, "http.timeout", &cfg.HTTP.Timeout)
	setString(v, "http.user_agent", &cfg.HTTP.UserAgent)
	if v.IsSet("http.max_body_bytes") {
		cfg.HTTP.MaxBodyBytes = v.GetInt64("http.max_body_bytes")
	}
	setInt(v, "http.max_retries", &cfg.HTTP.MaxRetries)
	setBool(v, "http.respect_robots", &cfg.HTTP.RespectRobots)
	setBool(v, "http.insecure_tls", &cfg.HTTP.InsecureTLS)
	setString(v, "http.http_proxy", &cfg.HTTP.HTTPProxy)
	setString(v, "http.https_proxy", &cfg.HTTP.HTTPSProxy)
	setString(v, "http.no_proxy", &cfg.HTTP.NoProxy)

	setBool(v, "cache.enabled", &cfg.Cache.Enabled)
	setString(v, "cache.dir", &cfg.Cache.Dir)
	setDuration(v, "cache.memory_ttl", &cfg.Cache.MemoryTTL)
	setDuration(v, "cache.disk_ttl", &cfg.Cache.DiskTTL)

	setInt(v, "concurrency.workers", &cfg.Concurrency.Workers)
	if v.IsSet("rate_limiting.requests_per_second") {
		cfg.RateLimiting.RequestsPerSecond = v.GetFloat64("rate_limiting.requests_per_second")
	}
	setInt(v, "rate_limiting.burst_size", &cfg.RateLimiting.BurstSize)

	setString(v, "llm.provider", &cfg.LLM.Provider)
	setString(v, "llm.model", &cfg.LLM.Model)
	setString(v, "llm.api_key", &cfg.LLM.APIKey)
	setString(v, "llm.base_url", &cfg.LLM.BaseURL)
	setInt(v, "llm.timeout", &cfg.LLM.Timeout)
	setInt(v, "llm.max_tokens", &cfg.LLM.MaxTokens)

	setBool(v, "output.verbose", &cfg.Output.Verbose)
	setInt(v, "output.max_snippets", &cfg.Output.MaxSnippets)
	setBool(v, "output.include_footer", &cfg.Output.IncludeFooter)

	return cfg
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}

// compareOptions holds the flags shared by compare and batch
type compareOptions struct {
	minAnchor   int
	lookahead   int
	threshold   int
	rareTags    []string
	workers     int
	outJSON     string
	outMD       string
	tokens      bool
	noCache     bool
	noRobots    bool
	noFooter    bool
	insecureTLS bool
	timeout     time.Duration
	userAgent   string
	httpProxy   string
	httpsProxy  string
	llmProvider string
	llmModel    string
}

func addCompareFlags(cmd *cobra.Command, o *compareOptions) {
	d := model.DefaultConfig()
	f := cmd.Flags()

	f.IntVar(&o.minAnchor, "min-anchor", d.Align.MinAnchorLen, "minimum text length for a part to anchor a search")
	f.IntVar(&o.lookahead, "lookahead", d.Align.MaxLookahead, "how many parts ahead to search for an anchor")
	f.IntVar(&o.threshold, "threshold", d.Align.CommonThreshold, "pages a part must match on to count as template")
	f.StringSliceVar(&o.rareTags, "rare-tag", d.Align.RareTags, "repeatable element to check for rarity (repeatable)")
	f.IntVar(&o.workers, "workers", d.Concurrency.Workers, "number of concurrent workers")

	f.StringVar(&o.outJSON, "json", "", "output JSON path")
	f.StringVar(&o.outMD, "md", "", "output Markdown path")
	f.BoolVar(&o.noFooter, "no-footer", false, "disable footer in Markdown reports")
	f.BoolVar(&o.tokens, "tokens", false, "inputs are YAML part lists, not pages (skips fetching)")

	f.BoolVar(&o.noCache, "no-cache", false, "disable cache (force fresh fetch)")
	f.BoolVar(&o.noRobots, "no-robots", false, "ignore robots.txt")
	f.BoolVar(&o.insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	f.DurationVar(&o.timeout, "timeout", 2*time.Minute, "overall timeout")
	f.StringVar(&o.userAgent, "ua", d.HTTP.UserAgent, "HTTP User-Agent")
	f.StringVar(&o.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	f.StringVar(&o.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	f.StringVar(&o.llmProvider, "llm", "", "summarize unique content with an LLM (openai, ollama)")
	f.StringVar(&o.llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// apply overrides cfg with every flag set on the command line
func (o *compareOptions) apply(cmd *cobra.Command, cfg *model.Config) error {
	changed := cmd.Flags().Changed

	if changed("min-anchor") {
		cfg.Align.MinAnchorLen = o.minAnchor
	}
	if changed("lookahead") {
		cfg.Align.MaxLookahead = o.lookahead
	}
	if changed("threshold") {
		cfg.Align.CommonThreshold = o.threshold
	}
	if changed("rare-tag") {
		cfg.Align.RareTags = o.rareTags
	}
	if changed("workers") {
		cfg.Concurrency.Workers = o.workers
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = o.userAgent
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = o.httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = o.httpsProxy
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if o.noRobots {
		cfg.HTTP.RespectRobots = false
	}
	if o.insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if o.noFooter {
		cfg.Output.IncludeFooter = false
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	if cfg.Align.MinAnchorLen < 0 || cfg.Align.MaxLookahead < 0 {
		return fmt.Errorf("--min-anchor and --lookahead must not be negative")
	}
	if cfg.Align.CommonThreshold <= 0 {
		return fmt.Errorf("--threshold must be positive")
	}
	if cfg.Concurrency.Workers <= 0 {
		cfg.Concurrency.Workers = 1
	}

	if changed("llm") {
		cfg.LLM.Provider = o.llmProvider
	}
	if changed("llm-model") || (changed("llm") && cfg.LLM.Model == "") {
		cfg.LLM.Model = o.llmModel
	}
	return resolveLLMKey(cfg)
}

// resolveLLMKey fills the API key from the provider's usual environment
// variables
func resolveLLMKey(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}
