package model

import "time"

// Report is the result of comparing a base page against its siblings
type Report struct {
	RunID       string    `json:"run_id"`
	BaseURL     string    `json:"base_url"`
	GeneratedAt time.Time `json:"generated_at"`

	Params ReportParams `json:"params"`

	Base   PageSummary   `json:"base"`
	Others []OtherReport `json:"others"`

	Counts   ClassCounts      `json:"counts"`
	Unique   []Snippet        `json:"unique,omitempty"`   // Unique text parts of the base page
	Rare     map[string][]int `json:"rare,omitempty"`     // Rare element indices per tag
	Warnings []string         `json:"warnings,omitempty"` // Non-fatal issues (skipped pages etc.)

	LLM *LLMSummary `json:"llm,omitempty"` // Optional, never affects classification
}

// ReportParams records the alignment parameters used
type ReportParams struct {
	MinAnchorLen    int `json:"min_anchor_len"`
	MaxLookahead    int `json:"max_lookahead"`
	CommonThreshold int `json:"common_threshold"`
}

// PageSummary describes a tokenized page
type PageSummary struct {
	URL       string    `json:"url"`
	Parts     int       `json:"parts"`
	TextParts int       `json:"text_parts"`
	FetchMeta FetchMeta `json:"fetch_meta"`
}

// OtherReport summarizes one alignment against the base page
type OtherReport struct {
	PageSummary
	StrongMatches int     `json:"strong_matches"`
	WeakMatches   int     `json:"weak_matches"`
	IdenticalText int     `json:"identical_text"`
	OtherText     int     `json:"other_text"`
	Similarity    float64 `json:"similarity"`
}

// ClassCounts counts base parts by classification
type ClassCounts struct {
	Common  int `json:"common"`
	Unique  int `json:"unique"`
	Ignored int `json:"ignored"`
}

// Snippet is a unique text part of the base page
type Snippet struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Page is a fetched page body with its HTTP metadata
type Page struct {
	URL       string    `json:"url"`
	Body      string    `json:"body"`
	Meta      FetchMeta `json:"meta"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchMeta contains HTTP metadata from fetching a page
type FetchMeta struct {
	StatusCode   int    `json:"status_code,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	FromCache    bool   `json:"from_cache,omitempty"`
	Local        bool   `json:"local,omitempty"`
}

// LLMSummary contains the optional LLM summary of unique content
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
