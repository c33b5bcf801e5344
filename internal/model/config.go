package model

import (
	"runtime"
	"time"
)

// Config holds all partsync configuration
type Config struct {
	Align        AlignConfig        `yaml:"align"`
	HTTP         HTTPConfig         `yaml:"http"`
	Cache        CacheConfig        `yaml:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	LLM          LLMConfig          `yaml:"llm"`
	Output       OutputConfig       `yaml:"output"`
}

// AlignConfig tunes the aligner and the template classification
type AlignConfig struct {
	MinAnchorLen    int      `yaml:"min_anchor_len"`   // Parts shorter than this never open an anchor search
	MaxLookahead    int      `yaml:"max_lookahead"`    // Forward search window, in parts
	CommonThreshold int      `yaml:"common_threshold"` // Strong matches needed to call a part template
	RareTags        []string `yaml:"rare_tags"`        // Repeatable elements checked for rarity
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty"`
	NoProxy       string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig controls the fetched page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig controls alignment fan-out
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitingConfig controls per-host request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// LLMConfig controls the optional unique-content summary
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	MaxSnippets   int  `yaml:"max_snippets"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Align: AlignConfig{
			MinAnchorLen:    3,
			MaxLookahead:    40,
			CommonThreshold: 2,
			RareTags:        []string{"img"},
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "partsync/0.1 (+https://github.com/ppiankov/partsync)",
			MaxBodyBytes:  5_000_000,
			MaxRetries:    2,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".partsync-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
		Output: OutputConfig{
			MaxSnippets:   50,
			IncludeFooter: true,
		},
	}
}
