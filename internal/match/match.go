// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match pairs the courses of a curriculum with the course-like
// lines extracted from a university's sources.
//
// Each course takes its best-scoring line. Scores at or above the
// automatic threshold match outright; scores in the band between the
// arbitration floor and the threshold are referred to an Arbiter; lower
// scores are unmatched. When the arbiter fails the course is unmatched
// and the result is flagged as degraded.
package match

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/internal/similarity"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// excerptRadius is the number of neighbouring lines on each side sent to
// the arbiter as context.
const excerptRadius = 2

// Matcher computes match records for a curriculum.
type Matcher struct {
	cfg     types.MatchingConfig
	arbiter Arbiter
	log     *zap.Logger
}

// New returns a Matcher. A nil arbiter means Conservative.
func New(cfg types.MatchingConfig, arbiter Arbiter, logger *zap.Logger) *Matcher {
	if arbiter == nil {
		arbiter = Conservative{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{cfg: cfg, arbiter: arbiter, log: logger}
}

// ArbiterName returns the name of the configured arbiter.
func (m *Matcher) ArbiterName() string { return m.arbiter.Name() }

// Fingerprint returns a digest of courses, the similarity bands and the
// arbiter. A stored match with a different fingerprint is stale.
func (m *Matcher) Fingerprint(courses []types.CourseRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "auto=%g floor=%g conf=%g arbiter=%s\n",
		m.cfg.AutoThreshold, m.cfg.ArbitrationFloor, m.cfg.MinArbiterConfidence, m.arbiter.Name())
	for _, c := range courses {
		fmt.Fprintf(h, "%q %q %g\n", c.Name, c.Code, c.Credits)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

type candidate struct {
	line  types.ExtractedLine
	pos   int
	score float64
}

// better reports whether a outranks b: higher similarity, then higher
// source URL score, then earlier line index.
func better(a, b candidate, sourceScores map[string]float64) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	sa, sb := sourceScores[a.line.SourceURL], sourceScores[b.line.SourceURL]
	if sa != sb {
		return sa > sb
	}
	if a.line.LineIndex != b.line.LineIndex {
		return a.line.LineIndex < b.line.LineIndex
	}
	return a.pos < b.pos
}

// Match scores every course against the course-like lines. sourceScores
// maps a source URL to its discovery score and breaks similarity ties.
// The returned artifact has no run metadata; callers stamp it.
func (m *Matcher) Match(ctx context.Context, courses []types.CourseRecord, lines []types.ExtractedLine, sourceScores map[string]float64) types.MatchArtifact {
	art := types.MatchArtifact{
		Arbiter:     m.arbiter.Name(),
		Fingerprint: m.Fingerprint(courses),
		Total:   len(courses),
		Records: make([]types.MatchRecord, 0, len(courses)),
	}

	var arbiterErr error
	for _, course := range courses {
		rec := types.MatchRecord{Resolution: types.ResolutionUnmatched, CourseName: course.Name, MatchedLineIndex: -1}

		best, ok := m.bestLine(course.Name, lines, sourceScores)
		if !ok {
			rec.Notes = "no course-like lines"
			art.Records = append(art.Records, rec)
			continue
		}
		rec.MatchedLine = best.line.RawText
		rec.MatchedSourceURL = best.line.SourceURL
		rec.MatchedLineIndex = best.line.LineIndex
		rec.SimilarityScore = best.score

		switch {
		case best.score >= m.cfg.AutoThreshold:
			rec.Resolution = types.ResolutionAuto

		case best.score >= m.cfg.ArbitrationFloor:
			if arbiterErr != nil {
				rec.Notes = "arbitration skipped: arbiter unavailable"
				break
			}
			v, err := judgeWithRetry(ctx, m.arbiter, course.Name, best.line.RawText,
				excerpt(lines, best), m.cfg.MaxRetries, m.cfg.ArbitrationTimeout)
			if err != nil {
				arbiterErr = err
				rec.Notes = fmt.Sprintf("arbitration failed: %v", err)
				m.log.Warn("arbitration failed",
					zap.String("arbiter", m.arbiter.Name()),
					zap.String("course", course.Name),
					zap.Error(err),
				)
				break
			}
			rec.Arbitration = &types.Arbitration{
				Arbiter:       m.arbiter.Name(),
				Match:         v.Match,
				Confidence:    v.Confidence,
				Justification: v.Justification,
			}
			switch {
			case v.Match && v.Confidence >= m.cfg.MinArbiterConfidence:
				rec.Resolution = types.ResolutionArbitrated
			case v.Match:
				rec.Notes = fmt.Sprintf("arbiter confidence %.2f below %.2f", v.Confidence, m.cfg.MinArbiterConfidence)
			default:
				rec.Notes = v.Justification
			}

		default:
			rec.Notes = fmt.Sprintf("similarity %.2f below %.2f", best.score, m.cfg.ArbitrationFloor)
		}

		m.log.Debug("course matched",
			zap.String("course", course.Name),
			zap.String("resolution", string(rec.Resolution)),
			zap.Float64("similarity", rec.SimilarityScore),
		)
		art.Records = append(art.Records, rec)
	}

	for _, r := range art.Records {
		if r.Matched() {
			art.Matched++
		}
	}
	art.MatchPct = Percent(art.Matched, art.Total)
	if arbiterErr != nil {
		art.Degraded = true
		art.DegradedReason = fmt.Sprintf("arbiter %s: %v", m.arbiter.Name(), arbiterErr)
	}
	return art
}

// Percent returns 100 * matched / total rounded to 2 decimals, or 0 for
// an empty curriculum.
func Percent(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return rank.Round2(100 * float64(matched) / float64(total))
}

func (m *Matcher) bestLine(course string, lines []types.ExtractedLine, sourceScores map[string]float64) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	for i, l := range lines {
		if !l.IsCourseLike {
			continue
		}
		c := candidate{line: l, pos: i, score: rank.Round2(similarity.Score(course, l.RawText))}
		if !found || better(c, best, sourceScores) {
			best, found = c, true
		}
	}
	return best, found
}

// excerpt returns the lines around the candidate from the same source,
// which the arbiter sees as surrounding context.
func excerpt(lines []types.ExtractedLine, c candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "source: %s\n", c.line.SourceURL)
	for i := c.pos - excerptRadius; i <= c.pos+excerptRadius; i++ {
		if i < 0 || i >= len(lines) || lines[i].SourceURL != c.line.SourceURL {
			continue
		}
		marker := "  "
		if i == c.pos {
			marker = "> "
		}
		b.WriteString(marker + lines[i].RawText + "\n")
	}
	return b.String()
}
