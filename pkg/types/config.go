// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on 429 and 5xx responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SearchConfig holds settings for the search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backends lists the enabled backends by name ("serper", "duckduckgo").
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// ResultsPerQuery caps the hits requested per query.
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query" mapstructure:"results_per_query"`

	// SerperAPIKey authenticates against serper.dev.
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty" mapstructure:"serper_api_key"`
}

// DiscoveryConfig holds settings for candidate URL selection.
type DiscoveryConfig struct {
	// TopK is the maximum number of candidates selected per university.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// Threshold is the minimum score a candidate needs to be selected.
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// ExtractionConfig holds settings for line extraction and classification.
type ExtractionConfig struct {
	MinLineLength       int `json:"min_line_length" yaml:"min_line_length" mapstructure:"min_line_length"`
	MaxLineLength       int `json:"max_line_length" yaml:"max_line_length" mapstructure:"max_line_length"`
	MaxLinesPerDocument int `json:"max_lines_per_document" yaml:"max_lines_per_document" mapstructure:"max_lines_per_document"`

	// RepeatThreshold is the number of documents a line must appear in
	// before it is treated as site boilerplate.
	RepeatThreshold int `json:"repeat_threshold" yaml:"repeat_threshold" mapstructure:"repeat_threshold"`

	// MaxDocumentBytes caps the size of a fetched document.
	MaxDocumentBytes int64 `json:"max_document_bytes" yaml:"max_document_bytes" mapstructure:"max_document_bytes"`
}

// MatchingConfig holds the similarity bands used by the curriculum matcher.
type MatchingConfig struct {
	// AutoThreshold is the similarity at or above which a match is automatic.
	AutoThreshold float64 `json:"auto_threshold" yaml:"auto_threshold" mapstructure:"auto_threshold"`

	// ArbitrationFloor is the lower bound of the ambiguous band sent to the arbiter.
	ArbitrationFloor float64 `json:"arbitration_floor" yaml:"arbitration_floor" mapstructure:"arbitration_floor"`

	// MinArbiterConfidence is the verdict confidence required to accept an
	// arbitrated match.
	MinArbiterConfidence float64 `json:"min_arbiter_confidence" yaml:"min_arbiter_confidence" mapstructure:"min_arbiter_confidence"`

	// ArbitrationTimeout bounds each arbiter call.
	ArbitrationTimeout time.Duration `json:"arbitration_timeout" yaml:"arbitration_timeout" mapstructure:"arbitration_timeout"`

	// MaxRetries bounds retries of a failing arbiter call.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// AIConfig holds settings for the semantic arbitration and narrative provider.
type AIConfig struct {
	// Provider selects the backend: "none", "gemini", "claude" or "ollama".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the provider-specific model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against hosted providers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (Ollama server, Claude proxy).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout bounds each provider call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// CostConfig holds settings for the living-cost estimator.
type CostConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the cost-of-living site root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Currency labels amounts in the breakdown.
	Currency string `json:"currency" yaml:"currency" mapstructure:"currency"`

	// CheapMonthly maps to a cost score of 100.
	CheapMonthly float64 `json:"cheap_monthly" yaml:"cheap_monthly" mapstructure:"cheap_monthly"`

	// ExpensiveMonthly maps to a cost score of 0.
	ExpensiveMonthly float64 `json:"expensive_monthly" yaml:"expensive_monthly" mapstructure:"expensive_monthly"`

	// Scrape disables the network lookup when false.
	Scrape bool `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
}

// RunControls selects which stages are recomputed and how much work is done.
type RunControls struct {
	RefreshAll       bool `json:"refresh_all" yaml:"refresh_all" mapstructure:"refresh_all"`
	RefreshDiscovery bool `json:"refresh_discovery" yaml:"refresh_discovery" mapstructure:"refresh_discovery"`
	RefreshMatching  bool `json:"refresh_matching" yaml:"refresh_matching" mapstructure:"refresh_matching"`
	RefreshCost      bool `json:"refresh_cost" yaml:"refresh_cost" mapstructure:"refresh_cost"`
	RefreshPrestige  bool `json:"refresh_prestige" yaml:"refresh_prestige" mapstructure:"refresh_prestige"`

	// Limit caps the number of universities processed; 0 means all.
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Concurrency is the number of universities processed at once.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// Config groups all settings for a pipeline run.
type Config struct {
	// ArtifactsDir is the root of the evidence store.
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir" mapstructure:"artifacts_dir"`

	Fetch      HTTPConfig       `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Matching   MatchingConfig   `json:"matching" yaml:"matching" mapstructure:"matching"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Cost       CostConfig       `json:"cost" yaml:"cost" mapstructure:"cost"`
	Run        RunControls      `json:"run" yaml:"run" mapstructure:"run"`
}
