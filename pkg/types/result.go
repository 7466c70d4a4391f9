// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// UniversityResult is the final scored row for one university. It references
// stage artifacts by key rather than copying their content.
type UniversityResult struct {
	University string         `json:"university" yaml:"university"`
	City       string         `json:"city" yaml:"city"`
	MatchPct   float64        `json:"match_pct" yaml:"match_pct"`
	Prestige   DimensionScore `json:"prestige" yaml:"prestige"`
	Cost       DimensionScore `json:"cost" yaml:"cost"`
	FinalScore float64        `json:"final_score" yaml:"final_score"`
	Rank       int            `json:"rank" yaml:"rank"`

	NoSources        bool `json:"no_sources" yaml:"no_sources"`
	DegradedMatching bool `json:"degraded_matching" yaml:"degraded_matching"`

	// MonthlyCost is the midpoint monthly cost behind the cost score.
	MonthlyCost float64 `json:"monthly_cost" yaml:"monthly_cost"`

	EvidenceRefs []string `json:"evidence_refs" yaml:"evidence_refs"`
	Notes        string   `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Errors collects stage failures that degraded this row.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Ranking is the ordered result of a run.
type Ranking struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	MissionID   string             `json:"mission_id" yaml:"mission_id"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Weights     Weights            `json:"weights" yaml:"weights"`
	Results     []UniversityResult `json:"results" yaml:"results"`
}
