// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CourseRecord is one course from the student's current curriculum.
type CourseRecord struct {
	Name    string  `json:"name" yaml:"name"`
	Code    string  `json:"code,omitempty" yaml:"code,omitempty"`
	Credits float64 `json:"credits,omitempty" yaml:"credits,omitempty"`
}

// Resolution says how a course match was decided.
type Resolution string

const (
	ResolutionAuto       Resolution = "auto"
	ResolutionArbitrated Resolution = "llm-arbitrated"
	ResolutionUnmatched  Resolution = "unmatched"
)

// Arbitration is the verdict of a semantic arbiter on an ambiguous pair.
type Arbitration struct {
	Arbiter       string  `json:"arbiter" yaml:"arbiter"`
	Match         bool    `json:"match" yaml:"match"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
	Justification string  `json:"justification" yaml:"justification"`
}

// MatchRecord is the matching outcome for one curriculum course.
type MatchRecord struct {
	CourseName string `json:"course_name" yaml:"course_name"`

	// MatchedLine is the best candidate line, kept even when unmatched so
	// the decision can be audited.
	MatchedLine      string `json:"matched_line,omitempty" yaml:"matched_line,omitempty"`
	MatchedSourceURL string `json:"matched_source_url,omitempty" yaml:"matched_source_url,omitempty"`
	MatchedLineIndex int    `json:"matched_line_index" yaml:"matched_line_index"`

	SimilarityScore float64      `json:"similarity_score" yaml:"similarity_score"`
	Resolution      Resolution   `json:"resolution" yaml:"resolution"`
	Arbitration     *Arbitration `json:"arbitration,omitempty" yaml:"arbitration,omitempty"`
	Notes           string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Matched reports whether the course counts towards match_pct.
func (r MatchRecord) Matched() bool {
	return r.Resolution == ResolutionAuto || r.Resolution == ResolutionArbitrated
}

// MatchArtifact is the persisted output of the matching stage for one
// university.
type MatchArtifact struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	University  string    `json:"university" yaml:"university"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Links are the selected discovery URLs the match was computed from.
	Links []string `json:"links" yaml:"links"`

	// Fingerprint identifies the curriculum, thresholds and arbiter the
	// match was computed with.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`

	Arbiter  string        `json:"arbiter" yaml:"arbiter"`
	Records  []MatchRecord `json:"records" yaml:"records"`
	Matched  int           `json:"matched" yaml:"matched"`
	Total    int           `json:"total" yaml:"total"`
	MatchPct float64       `json:"match_pct" yaml:"match_pct"`

	// Degraded is set when arbitration was needed but unavailable.
	Degraded       bool   `json:"degraded" yaml:"degraded"`
	DegradedReason string `json:"degraded_reason,omitempty" yaml:"degraded_reason,omitempty"`
}
