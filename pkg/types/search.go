// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchHit is one organic result returned by a search backend.
type SearchHit struct {
	// URL is the result link as returned by the backend.
	URL string `json:"url" yaml:"url"`

	// Title is the result title, when the backend provides one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the short description shown under the result.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Rank is the 1-based position within the backend's result list.
	Rank int `json:"rank" yaml:"rank"`

	// Backend names the search backend that produced the hit (e.g. "serper").
	Backend string `json:"backend" yaml:"backend"`

	// Query is the query text that produced the hit.
	Query string `json:"query" yaml:"query"`
}

// CandidateURL is a discovered URL with its relevance score and the reasons
// behind it. Candidates are immutable once scored.
type CandidateURL struct {
	URL         string `json:"url" yaml:"url"`
	Domain      string `json:"domain" yaml:"domain"`
	SourceQuery string `json:"source_query" yaml:"source_query"`

	// RawRank is the backend rank; 0 marks a manually seeded URL.
	RawRank int `json:"raw_rank" yaml:"raw_rank"`

	Score float64 `json:"score" yaml:"score"`

	// Reasons lists every positive signal as "+<weight> <description>".
	Reasons []string `json:"reasons" yaml:"reasons"`

	// PenaltyReasons lists every negative signal as "-<weight> <description>".
	PenaltyReasons []string `json:"penalty_reasons,omitempty" yaml:"penalty_reasons,omitempty"`

	IsPDF    bool `json:"is_pdf" yaml:"is_pdf"`
	Selected bool `json:"selected" yaml:"selected"`

	// Rejection explains why an unselected candidate was not kept.
	Rejection string `json:"rejection,omitempty" yaml:"rejection,omitempty"`
}

// DiscoveryArtifact is the persisted output of the discovery stage for one
// university.
type DiscoveryArtifact struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	University  string    `json:"university" yaml:"university"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Queries    []string       `json:"queries" yaml:"queries"`
	Candidates []CandidateURL `json:"candidates" yaml:"candidates"`

	// Selected holds the URLs of the chosen candidates in score order.
	Selected []string `json:"selected" yaml:"selected"`

	// NoSources is set when no candidate cleared the threshold.
	NoSources bool `json:"no_sources" yaml:"no_sources"`

	// Errors records search backend failures; they never abort discovery.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SourceScores maps each selected URL to its candidate score.
func (a DiscoveryArtifact) SourceScores() map[string]float64 {
	scores := make(map[string]float64, len(a.Selected))
	for _, c := range a.Candidates {
		if c.Selected {
			scores[c.URL] = c.Score
		}
	}
	return scores
}
