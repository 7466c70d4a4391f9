// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the run configuration from viper: defaults, the
// optional transfer-engine.yaml file, TRANSFER_ENGINE_* environment
// variables and bound command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// EnvPrefix is the prefix of environment variables read by the CLI.
const EnvPrefix = "TRANSFER_ENGINE"

const defaultUserAgent = "transfer-engine/0.1 (+https://github.com/pdiddy/transfer-engine)"

// SetDefaults registers every default on v. Nested keys use dots so that
// environment variables such as TRANSFER_ENGINE_MATCHING_AUTO_THRESHOLD
// resolve through the key replacer.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("artifacts_dir", "artifacts")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", defaultUserAgent)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 2.0)

	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.rate_limit", 1.0)
	v.SetDefault("search.backends", []string{"serper", "duckduckgo"})
	v.SetDefault("search.results_per_query", 10)
	v.SetDefault("search.serper_api_key", "")

	v.SetDefault("discovery.top_k", 4)
	v.SetDefault("discovery.threshold", 30.0)

	v.SetDefault("extraction.min_line_length", 6)
	v.SetDefault("extraction.max_line_length", 90)
	v.SetDefault("extraction.max_lines_per_document", 300)
	v.SetDefault("extraction.repeat_threshold", 3)
	v.SetDefault("extraction.max_document_bytes", int64(20<<20))

	v.SetDefault("matching.auto_threshold", 75.0)
	v.SetDefault("matching.arbitration_floor", 55.0)
	v.SetDefault("matching.min_arbiter_confidence", 0.70)
	v.SetDefault("matching.arbitration_timeout", 45*time.Second)
	v.SetDefault("matching.max_retries", 2)

	v.SetDefault("ai.provider", "none")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("cost.timeout", 20*time.Second)
	v.SetDefault("cost.user_agent", defaultUserAgent)
	v.SetDefault("cost.max_retries", 2)
	v.SetDefault("cost.rate_limit", 1.0)
	v.SetDefault("cost.base_url", "https://www.numbeo.com/cost-of-living/in/")
	v.SetDefault("cost.currency", "EUR")
	v.SetDefault("cost.cheap_monthly", 700.0)
	v.SetDefault("cost.expensive_monthly", 1500.0)
	v.SetDefault("cost.scrape", true)

	v.SetDefault("run.concurrency", 2)
	v.SetDefault("run.limit", 0)
}

// Load applies defaults to v, decodes it into a Config and validates the
// result. All validation failures are reported together.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg types.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return types.Config{}, errs
	}
	return cfg, nil
}
