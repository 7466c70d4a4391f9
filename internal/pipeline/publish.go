// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/internal/report"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Report file names written at the evidence store root.
const (
	RankingJSON        = "ranking.json"
	RankingCSV         = "ranking.csv"
	RecommendationMD   = "recommendation.md"
	RecommendationDOCX = "recommendation.docx"
)

// FromArtifacts rebuilds the ranking from stored artifacts without any
// network activity. A missing artifact is an error wrapping
// evidence.ErrNotFound.
func FromArtifacts(store *evidence.Store, m types.Mission, targets []types.Target, weights types.Weights) (types.Ranking, error) {
	if err := rank.ValidateWeights(weights); err != nil {
		return types.Ranking{}, err
	}

	results := make([]types.UniversityResult, 0, len(targets))
	for _, t := range targets {
		slug := textutil.Slug(t.Name)
		var (
			disc     types.DiscoveryArtifact
			sources  types.SourcesArtifact
			matches  types.MatchArtifact
			living   types.LivingCostArtifact
			prestige types.PrestigeArtifact
		)
		into := map[evidence.Stage]any{
			evidence.StageDiscovery:  &disc,
			evidence.StageSources:    &sources,
			evidence.StageMatches:    &matches,
			evidence.StageLivingCost: &living,
			evidence.StagePrestige:   &prestige,
		}
		for _, stage := range evidence.Stages {
			if err := store.ReadArtifact(slug, stage, into[stage]); err != nil {
				return types.Ranking{}, err
			}
		}

		res := types.UniversityResult{
			University:       t.Name,
			City:             t.City,
			MatchPct:         matches.MatchPct,
			Prestige:         prestige.Score,
			Cost:             living.Score,
			MonthlyCost:      living.Breakdown.TotalMonthly,
			NoSources:        disc.NoSources,
			DegradedMatching: matches.Degraded,
			EvidenceRefs:     refs(t),
			Notes:            notes(disc, sources, living, prestige),
			Errors:           disc.Errors,
		}
		results = append(results, res)
	}

	return types.Ranking{
		RunID:       store.RunID(),
		MissionID:   m.ID,
		GeneratedAt: time.Now().UTC(),
		Weights:     weights,
		Results:     rank.Score(results, weights),
	}, nil
}

// Publish writes the ranking and its recommendation to the store root and
// returns the written file names. The summarizer may be nil.
func Publish(ctx context.Context, store *evidence.Store, r types.Ranking, s report.Summarizer, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling ranking: %w", err)
	}
	if _, err := store.WriteReport(RankingJSON, append(data, '\n')); err != nil {
		return nil, err
	}

	var csvBuf bytes.Buffer
	if err := report.WriteCSV(r, &csvBuf); err != nil {
		return nil, err
	}
	if _, err := store.WriteReport(RankingCSV, csvBuf.Bytes()); err != nil {
		return nil, err
	}

	rec := report.Narrative(ctx, s, r, logger)
	if _, err := store.WriteReport(RecommendationMD, report.Markdown(r, rec)); err != nil {
		return nil, err
	}

	written := []string{RankingJSON, RankingCSV, RecommendationMD}
	if err := report.WriteDOCX(store.ReportPath(RecommendationDOCX), r, rec); err != nil {
		logger.Warn("docx report failed", zap.Error(err))
	} else {
		written = append(written, RecommendationDOCX)
	}

	logger.Info("reports written", zap.Strings("files", written), zap.Bool("generated_narrative", rec.Generated))
	return written, nil
}
