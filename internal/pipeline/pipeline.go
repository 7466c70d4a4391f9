// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a mission: each university goes through
// discovery, extraction, matching and the two dimension estimators as an
// isolated unit of work, and the results are aggregated into a ranking.
// Every stage writes its artifact to the evidence store and is skipped on
// later runs unless a refresh is requested.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/extract"
	"github.com/pdiddy/transfer-engine/internal/match"
	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

const defaultConcurrency = 2

// Discoverer produces the discovery artifact for a target.
type Discoverer interface {
	Discover(ctx context.Context, target types.Target) (types.DiscoveryArtifact, error)
}

// CostAssessor estimates a city's living cost.
type CostAssessor interface {
	Assess(ctx context.Context, city string) (types.CostBreakdown, types.DimensionScore)
}

// PrestigeEstimator scores a target's prestige.
type PrestigeEstimator interface {
	Estimate(ctx context.Context, target types.Target) types.DimensionScore
}

// StageFunc is called after each stage of each university completes.
// cached is true when a stored artifact was reused.
type StageFunc func(university string, stage evidence.Stage, cached bool)

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Store      *evidence.Store
	Docs       extract.DocumentGetter
	Discoverer Discoverer
	Extractor  *extract.Extractor
	Matcher    *match.Matcher
	Prestige   PrestigeEstimator
	Cost       CostAssessor
	Logger     *zap.Logger

	// OnStage is optional.
	OnStage StageFunc
}

// Pipeline runs the per-university stages of a mission.
type Pipeline struct {
	Deps
	mission types.Mission
	run     types.RunControls
	now     func() time.Time
}

// New returns a Pipeline for mission. Missing required collaborators are
// reported as an error.
func New(mission types.Mission, run types.RunControls, deps Deps) (*Pipeline, error) {
	var missing []string
	if deps.Store == nil {
		missing = append(missing, "store")
	}
	if deps.Docs == nil {
		missing = append(missing, "docs")
	}
	if deps.Discoverer == nil {
		missing = append(missing, "discoverer")
	}
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.Matcher == nil {
		missing = append(missing, "matcher")
	}
	if deps.Prestige == nil {
		missing = append(missing, "prestige")
	}
	if deps.Cost == nil {
		missing = append(missing, "cost")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing %s", strings.Join(missing, ", "))
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if run.Concurrency <= 0 {
		run.Concurrency = defaultConcurrency
	}
	return &Pipeline{Deps: deps, mission: mission, run: run, now: time.Now}, nil
}

// Targets returns the mission's universities, capped by the run limit.
func Targets(m types.Mission, limit int) []types.Target {
	ts := m.Targets.Universities
	if limit > 0 && limit < len(ts) {
		ts = ts[:limit]
	}
	return ts
}

// Run evaluates targets concurrently and returns the ranking. The
// mission weights are checked before any stage runs. A university whose
// stages fail still gets a row; only context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, targets []types.Target) (types.Ranking, error) {
	weights := p.mission.Profile.Preferences
	if err := rank.ValidateWeights(weights); err != nil {
		return types.Ranking{}, err
	}

	results := make([]types.UniversityResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.run.Concurrency)
	for i, t := range targets {
		g.Go(func() error {
			res, err := p.Evaluate(gctx, t)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.Logger.Error("university failed", zap.String("university", t.Name), zap.Error(err))
				res.Errors = append(res.Errors, err.Error())
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.Ranking{}, err
	}

	r := types.Ranking{
		RunID:       p.Store.RunID(),
		MissionID:   p.mission.ID,
		GeneratedAt: p.now().UTC(),
		Weights:     weights,
		Results:     rank.Score(results, weights),
	}
	p.Logger.Info("run complete", zap.String("run_id", r.RunID), zap.Int("universities", len(r.Results)))
	return r, nil
}

// Evaluate runs every stage for one university and returns its unranked
// result. The returned result is usable even when err is non-nil.
func (p *Pipeline) Evaluate(ctx context.Context, t types.Target) (types.UniversityResult, error) {
	res := types.UniversityResult{University: t.Name, City: t.City}
	var errs []error

	disc, err := p.Discovery(ctx, t)
	if err != nil {
		return res, err
	}
	res.NoSources = disc.NoSources
	res.Errors = append(res.Errors, disc.Errors...)

	sources, err := p.Sources(ctx, t, disc)
	if err != nil {
		errs = append(errs, err)
	}
	for _, s := range sources.Sources {
		if s.Error != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", s.URL, s.Error))
		}
	}

	matches, err := p.Matches(ctx, t, disc, sources)
	if err != nil {
		errs = append(errs, err)
	}
	res.MatchPct = matches.MatchPct
	res.DegradedMatching = matches.Degraded

	living, err := p.LivingCost(ctx, t)
	if err != nil {
		errs = append(errs, err)
	}
	res.Cost = living.Score
	res.MonthlyCost = living.Breakdown.TotalMonthly

	prestige, err := p.PrestigeScore(ctx, t)
	if err != nil {
		errs = append(errs, err)
	}
	res.Prestige = prestige.Score

	res.EvidenceRefs = refs(t)
	res.Notes = notes(disc, sources, living, prestige)
	return res, errors.Join(errs...)
}

// Discovery returns the discovery artifact for t, reusing the stored one
// unless discovery is refreshed.
func (p *Pipeline) Discovery(ctx context.Context, t types.Target) (types.DiscoveryArtifact, error) {
	slug := textutil.Slug(t.Name)
	var art types.DiscoveryArtifact
	if p.reuse(slug, evidence.StageDiscovery, p.run.RefreshDiscovery, &art) {
		p.done(t.Name, evidence.StageDiscovery, true)
		return art, nil
	}

	art, err := p.Discoverer.Discover(ctx, t)
	if err != nil {
		return art, fmt.Errorf("discovery for %s: %w", t.Name, err)
	}
	art.RunID = p.Store.RunID()
	if _, err := p.Store.WriteArtifact(slug, evidence.StageDiscovery, art); err != nil {
		return art, err
	}
	p.done(t.Name, evidence.StageDiscovery, false)
	return art, nil
}

// Sources returns the extracted lines for the selected URLs of disc. The
// stored artifact is reused only when it was built from the same URLs.
func (p *Pipeline) Sources(ctx context.Context, t types.Target, disc types.DiscoveryArtifact) (types.SourcesArtifact, error) {
	slug := textutil.Slug(t.Name)
	var art types.SourcesArtifact
	if p.reuse(slug, evidence.StageSources, p.run.RefreshMatching, &art) && slices.Equal(sourceURLs(art), disc.Selected) {
		p.done(t.Name, evidence.StageSources, true)
		return art, nil
	}

	refetch := p.run.RefreshAll || p.run.RefreshMatching
	art = p.Extractor.ExtractSources(ctx, p.Docs, disc.Selected, refetch)
	art.RunID = p.Store.RunID()
	art.University = t.Name
	art.GeneratedAt = p.now().UTC()
	if _, err := p.Store.WriteArtifact(slug, evidence.StageSources, art); err != nil {
		return art, err
	}
	if err := p.Store.IndexLines(ctx, slug, art.Lines); err != nil {
		p.Logger.Warn("indexing lines failed", zap.String("university", t.Name), zap.Error(err))
	}
	p.done(t.Name, evidence.StageSources, false)
	return art, nil
}

// Matches returns the curriculum match for t. The stored artifact is
// reused only when it was computed from the currently selected URLs with
// the current curriculum and matching settings.
func (p *Pipeline) Matches(ctx context.Context, t types.Target, disc types.DiscoveryArtifact, sources types.SourcesArtifact) (types.MatchArtifact, error) {
	slug := textutil.Slug(t.Name)
	var art types.MatchArtifact
	courses := p.mission.CurrentStudies.Courses
	if p.reuse(slug, evidence.StageMatches, p.run.RefreshMatching, &art) &&
		slices.Equal(art.Links, disc.Selected) && art.Fingerprint == p.Matcher.Fingerprint(courses) {
		p.done(t.Name, evidence.StageMatches, true)
		return art, nil
	}

	art = p.Matcher.Match(ctx, courses, sources.CourseLines(), disc.SourceScores())
	art.RunID = p.Store.RunID()
	art.University = t.Name
	art.GeneratedAt = p.now().UTC()
	art.Links = slices.Clone(disc.Selected)
	if _, err := p.Store.WriteArtifact(slug, evidence.StageMatches, art); err != nil {
		return art, err
	}
	p.Logger.Info("curriculum matched",
		zap.String("university", t.Name),
		zap.Int("matched", art.Matched),
		zap.Int("total", art.Total),
		zap.Float64("match_pct", art.MatchPct),
		zap.Bool("degraded", art.Degraded),
	)
	p.done(t.Name, evidence.StageMatches, false)
	return art, nil
}

// LivingCost returns the living-cost artifact for t's city.
func (p *Pipeline) LivingCost(ctx context.Context, t types.Target) (types.LivingCostArtifact, error) {
	slug := textutil.Slug(t.Name)
	var art types.LivingCostArtifact
	if p.reuse(slug, evidence.StageLivingCost, p.run.RefreshCost, &art) {
		p.done(t.Name, evidence.StageLivingCost, true)
		return art, nil
	}

	breakdown, score := p.Cost.Assess(ctx, t.City)
	art = types.LivingCostArtifact{
		RunID:       p.Store.RunID(),
		University:  t.Name,
		GeneratedAt: p.now().UTC(),
		Breakdown:   breakdown,
		Score:       score,
	}
	if _, err := p.Store.WriteArtifact(slug, evidence.StageLivingCost, art); err != nil {
		return art, err
	}
	p.done(t.Name, evidence.StageLivingCost, false)
	return art, nil
}

// PrestigeScore returns the prestige artifact for t.
func (p *Pipeline) PrestigeScore(ctx context.Context, t types.Target) (types.PrestigeArtifact, error) {
	slug := textutil.Slug(t.Name)
	var art types.PrestigeArtifact
	if p.reuse(slug, evidence.StagePrestige, p.run.RefreshPrestige, &art) {
		p.done(t.Name, evidence.StagePrestige, true)
		return art, nil
	}

	art = types.PrestigeArtifact{
		RunID:       p.Store.RunID(),
		University:  t.Name,
		GeneratedAt: p.now().UTC(),
		Score:       p.Prestige.Estimate(ctx, t),
	}
	if _, err := p.Store.WriteArtifact(slug, evidence.StagePrestige, art); err != nil {
		return art, err
	}
	p.done(t.Name, evidence.StagePrestige, false)
	return art, nil
}

// reuse loads the stored artifact into v unless the stage is refreshed.
// An unreadable artifact is logged and treated as missing.
func (p *Pipeline) reuse(slug string, stage evidence.Stage, refresh bool, v any) bool {
	if p.run.RefreshAll || refresh {
		return false
	}
	err := p.Store.ReadArtifact(slug, stage, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, evidence.ErrNotFound) {
		p.Logger.Warn("stored artifact unreadable, recomputing",
			zap.String("slug", slug), zap.String("stage", string(stage)), zap.Error(err))
	}
	return false
}

func (p *Pipeline) done(university string, stage evidence.Stage, cached bool) {
	p.Logger.Debug("stage complete",
		zap.String("university", university), zap.String("stage", string(stage)), zap.Bool("cached", cached))
	if p.OnStage != nil {
		p.OnStage(university, stage, cached)
	}
}

func sourceURLs(a types.SourcesArtifact) []string {
	urls := make([]string, len(a.Sources))
	for i, s := range a.Sources {
		urls[i] = s.URL
	}
	return urls
}

func refs(t types.Target) []string {
	slug := textutil.Slug(t.Name)
	out := make([]string, len(evidence.Stages))
	for i, st := range evidence.Stages {
		out[i] = evidence.ArtifactRef(slug, st)
	}
	return out
}

func notes(disc types.DiscoveryArtifact, sources types.SourcesArtifact, living types.LivingCostArtifact, prestige types.PrestigeArtifact) string {
	parts := []string{
		fmt.Sprintf("links=%d", len(disc.Selected)),
		fmt.Sprintf("extracted=%d", len(sources.CourseLines())),
	}
	if living.Score.Notes != "" {
		parts = append(parts, fmt.Sprintf("cost %s (%s)", living.Score.Notes, living.Score.Confidence))
	}
	parts = append(parts, fmt.Sprintf("prestige %s", prestige.Score.Confidence))
	return strings.Join(parts, " | ")
}
