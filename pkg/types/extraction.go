// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocType identifies how a fetched document was parsed.
type DocType string

const (
	DocHTML DocType = "html"
	DocPDF  DocType = "pdf"
)

// ExtractedLine is a single line of visible text taken from a source
// document, with its course-likeness classification.
type ExtractedLine struct {
	SourceURL string  `json:"source_url" yaml:"source_url"`
	DocType   DocType `json:"doc_type" yaml:"doc_type"`

	// Page is the 1-based PDF page; zero for HTML.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	RawText string `json:"raw_text" yaml:"raw_text"`

	// LineIndex is the position of the line within its document.
	LineIndex int `json:"line_index" yaml:"line_index"`

	IsCourseLike         bool   `json:"is_course_like" yaml:"is_course_like"`
	ClassificationReason string `json:"classification_reason" yaml:"classification_reason"`
}

// SourceTelemetry records what happened when one URL was fetched and
// extracted. A non-empty Error means the document contributed no lines.
type SourceTelemetry struct {
	URL             string  `json:"url" yaml:"url"`
	DocType         DocType `json:"doc_type" yaml:"doc_type"`
	ContentType     string  `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Bytes           int     `json:"bytes" yaml:"bytes"`
	LinesTotal      int     `json:"lines_total" yaml:"lines_total"`
	LinesCourseLike int     `json:"lines_course_like" yaml:"lines_course_like"`
	Cached          bool    `json:"cached" yaml:"cached"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourcesArtifact is the persisted output of the extraction stage for one
// university.
type SourcesArtifact struct {
	RunID       string            `json:"run_id" yaml:"run_id"`
	University  string            `json:"university" yaml:"university"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Sources     []SourceTelemetry `json:"sources" yaml:"sources"`
	Lines       []ExtractedLine   `json:"lines" yaml:"lines"`
}

// CourseLines returns the lines classified as course-like, in stored order.
func (a SourcesArtifact) CourseLines() []ExtractedLine {
	var out []ExtractedLine
	for _, l := range a.Lines {
		if l.IsCourseLike {
			out = append(out, l)
		}
	}
	return out
}
