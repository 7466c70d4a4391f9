// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gingfrederik/docx"
	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Summarizer writes a narrative for a ranking.
type Summarizer interface {
	Summarize(ctx context.Context, r types.Ranking) (string, error)
}

// Recommendation is the narrative that accompanies a ranking.
type Recommendation struct {
	Text string `json:"text"`

	// Generated is true when a Summarizer wrote Text.
	Generated bool `json:"generated"`
}

// Narrative asks s for a narrative and falls back to a deterministic
// summary when s is nil or fails.
func Narrative(ctx context.Context, s Summarizer, r types.Ranking, logger *zap.Logger) Recommendation {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s != nil && len(r.Results) > 0 {
		text, err := s.Summarize(ctx, r)
		if err == nil && strings.TrimSpace(text) != "" {
			return Recommendation{Text: strings.TrimSpace(text), Generated: true}
		}
		logger.Warn("narrative generation failed, using summary", zap.Error(err))
	}
	return Recommendation{Text: FallbackNarrative(r)}
}

// FallbackNarrative describes the ranking from its numbers alone.
func FallbackNarrative(r types.Ranking) string {
	if len(r.Results) == 0 {
		return "No universities were ranked."
	}

	var paras []string
	best := r.Results[0]
	paras = append(paras, fmt.Sprintf(
		"%s ranks first with a final score of %.2f: curriculum match %.2f%%, prestige %.0f and cost score %.0f.",
		best.University, best.FinalScore, best.MatchPct, best.Prestige.Score, best.Cost.Score))

	if len(r.Results) > 1 {
		second := r.Results[1]
		paras = append(paras, fmt.Sprintf(
			"%s follows with %.2f (%.2f points behind), with curriculum match %.2f%%.",
			second.University, second.FinalScore, best.FinalScore-second.FinalScore, second.MatchPct))
	}

	var noSources, degraded, lowCost []string
	for _, res := range r.Results {
		if res.NoSources {
			noSources = append(noSources, res.University)
		}
		if res.DegradedMatching {
			degraded = append(degraded, res.University)
		}
		if res.Cost.Confidence == types.ConfidenceLow {
			lowCost = append(lowCost, res.University)
		}
	}
	var gaps []string
	if len(noSources) > 0 {
		gaps = append(gaps, "no curriculum sources were found for "+strings.Join(noSources, ", "))
	}
	if len(degraded) > 0 {
		gaps = append(gaps, "ambiguous courses could not be arbitrated for "+strings.Join(degraded, ", "))
	}
	if len(lowCost) > 0 {
		gaps = append(gaps, "living costs are fallback estimates for "+strings.Join(lowCost, ", "))
	}
	if len(gaps) > 0 {
		paras = append(paras, "Check by hand: "+strings.Join(gaps, "; ")+".")
	}
	return strings.Join(paras, "\n\n")
}

// Markdown renders the ranking and its recommendation as a Markdown
// document.
func Markdown(r types.Ranking, rec Recommendation) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Transfer recommendation\n\n")
	if r.MissionID != "" {
		fmt.Fprintf(&b, "Mission: %s  \n", r.MissionID)
	}
	fmt.Fprintf(&b, "Run: %s  \nGenerated: %s  \n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Weights: match %.2f, prestige %.2f, cost %.2f\n\n",
		r.Weights.Match, r.Weights.Prestige, r.Weights.Cost)

	b.WriteString("| Rank | University | Final | Match % | Prestige | Cost | Monthly | Flags |\n")
	b.WriteString("|---:|---|---:|---:|---:|---:|---:|---|\n")
	for _, res := range r.Results {
		fmt.Fprintf(&b, "| %d | %s | %.2f | %.2f | %.0f (%s) | %.0f (%s) | %.0f | %s |\n",
			res.Rank, escapeCell(res.University), res.FinalScore, res.MatchPct,
			res.Prestige.Score, res.Prestige.Confidence, res.Cost.Score, res.Cost.Confidence,
			res.MonthlyCost, strings.Join(Flags(res), ", "))
	}

	b.WriteString("\n## Recommendation\n\n")
	b.WriteString(rec.Text)
	b.WriteString("\n")

	var notes []string
	for _, res := range r.Results {
		if res.Notes != "" {
			notes = append(notes, fmt.Sprintf("- **%s**: %s", res.University, res.Notes))
		}
	}
	if len(notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		b.WriteString(strings.Join(notes, "\n"))
		b.WriteString("\n")
	}
	return b.Bytes()
}

// WriteDOCX saves the ranking and its recommendation as a Word document
// at path.
func WriteDOCX(path string, r types.Ranking, rec Recommendation) error {
	f := docx.NewFile()

	title := f.AddParagraph().AddText("Transfer recommendation")
	title.Size(20)
	f.AddParagraph()

	meta := f.AddParagraph().AddText(fmt.Sprintf("Run %s | %s", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04 MST")))
	meta.Size(10)
	meta.Color("808080")

	for _, res := range r.Results {
		p := f.AddParagraph()
		run := p.AddText(fmt.Sprintf("%d. %s", res.Rank, res.University))
		run.Size(14)

		line := fmt.Sprintf("final %.2f | match %.2f%% | prestige %.0f (%s) | cost %.0f (%s)",
			res.FinalScore, res.MatchPct, res.Prestige.Score, res.Prestige.Confidence,
			res.Cost.Score, res.Cost.Confidence)
		if flags := Flags(res); len(flags) > 0 {
			line += " | " + strings.Join(flags, ", ")
		}
		run = f.AddParagraph().AddText(line)
		run.Size(10)
		if res.Notes != "" {
			run = f.AddParagraph().AddText(res.Notes)
			run.Size(9)
			run.Color("808080")
		}
	}

	f.AddParagraph()
	heading := f.AddParagraph().AddText("Recommendation")
	heading.Size(16)
	for _, para := range strings.Split(rec.Text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			f.AddParagraph().AddText(para)
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
