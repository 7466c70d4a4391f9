// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the full list of problems found in a configuration.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// KnownProviders lists the accepted ai.provider values.
var KnownProviders = []string{"none", "gemini", "claude", "ollama"}

// KnownBackends lists the accepted search.backends values.
var KnownBackends = []string{"serper", "duckduckgo"}

// Validate checks cfg and returns every problem found, or nil.
func Validate(cfg types.Config) ValidationErrors {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if strings.TrimSpace(cfg.ArtifactsDir) == "" {
		add("artifacts_dir", "artifacts directory is required")
	}

	for name, h := range map[string]types.HTTPConfig{
		"fetch":  cfg.Fetch,
		"search": cfg.Search.HTTPConfig,
		"cost":   cfg.Cost.HTTPConfig,
	} {
		if h.Timeout <= 0 {
			add(name+".timeout", "timeout must be positive")
		}
		if h.MaxRetries < 0 {
			add(name+".max_retries", "max_retries must not be negative")
		}
		if h.RateLimit <= 0 {
			add(name+".rate_limit", "rate_limit must be positive")
		}
	}

	for _, b := range cfg.Search.Backends {
		if !contains(KnownBackends, b) {
			add("search.backends", fmt.Sprintf("unknown backend %q", b))
		}
	}

	if cfg.Discovery.TopK < 1 {
		add("discovery.top_k", "top_k must be at least 1")
	}

	ex := cfg.Extraction
	if ex.MinLineLength < 1 || ex.MaxLineLength < ex.MinLineLength {
		add("extraction.max_line_length", "line length bounds must satisfy 1 <= min <= max")
	}
	if ex.MaxLinesPerDocument < 1 {
		add("extraction.max_lines_per_document", "max_lines_per_document must be positive")
	}
	if ex.RepeatThreshold < 2 {
		add("extraction.repeat_threshold", "repeat_threshold must be at least 2")
	}

	m := cfg.Matching
	if m.ArbitrationFloor < 0 || m.AutoThreshold > 100 || m.ArbitrationFloor > m.AutoThreshold {
		add("matching.auto_threshold", "thresholds must satisfy 0 <= arbitration_floor <= auto_threshold <= 100")
	}
	if m.MinArbiterConfidence < 0 || m.MinArbiterConfidence > 1 {
		add("matching.min_arbiter_confidence", "min_arbiter_confidence must be between 0 and 1")
	}
	if m.ArbitrationTimeout <= 0 {
		add("matching.arbitration_timeout", "arbitration_timeout must be positive")
	}

	if !contains(KnownProviders, cfg.AI.Provider) {
		add("ai.provider", fmt.Sprintf("unknown provider %q (want one of %s)", cfg.AI.Provider, strings.Join(KnownProviders, ", ")))
	}
	if cfg.AI.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.AI.BaseURL); err != nil {
			add("ai.base_url", "invalid URL")
		}
	}

	if cfg.Cost.CheapMonthly >= cfg.Cost.ExpensiveMonthly {
		add("cost.expensive_monthly", "expensive_monthly must exceed cheap_monthly")
	}
	if _, err := url.ParseRequestURI(cfg.Cost.BaseURL); err != nil {
		add("cost.base_url", "invalid URL")
	}

	if cfg.Run.Limit < 0 {
		add("run.limit", "limit must not be negative")
	}
	if cfg.Run.Concurrency < 1 {
		add("run.concurrency", "concurrency must be at least 1")
	}

	return errs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
