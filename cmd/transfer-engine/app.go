// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/transfer-engine/internal/config"
	"github.com/pdiddy/transfer-engine/internal/discovery"
	"github.com/pdiddy/transfer-engine/internal/estimate"
	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/extract"
	"github.com/pdiddy/transfer-engine/internal/fetch"
	"github.com/pdiddy/transfer-engine/internal/match"
	"github.com/pdiddy/transfer-engine/internal/mission"
	"github.com/pdiddy/transfer-engine/internal/pipeline"
	"github.com/pdiddy/transfer-engine/internal/report"
	"github.com/pdiddy/transfer-engine/internal/search"
	"github.com/pdiddy/transfer-engine/internal/secrets"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// app holds everything a command needs for one run.
type app struct {
	cfg        types.Config
	mission    types.Mission
	targets    []types.Target
	store      *evidence.Store
	pipeline   *pipeline.Pipeline
	summarizer report.Summarizer
}

func (a *app) Close() error { return a.store.Close() }

// loadConfig resolves the configuration and fills API keys from secrets.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return types.Config{}, err
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg, nil
}

// openStore opens the evidence store under a fresh run ID.
func openStore(cfg types.Config) (*evidence.Store, error) {
	runID := uuid.NewString()
	store, err := evidence.Open(cfg.ArtifactsDir, runID, log)
	if err != nil {
		return nil, err
	}
	log.Debug("evidence store opened", zap.String("dir", cfg.ArtifactsDir), zap.String("run_id", runID))
	return store, nil
}

// loadMission reads and validates the mission and selects the targets
// named by --university, capped by --limit. Nothing touches the network
// before this succeeds.
func loadMission(cmd *cobra.Command, cfg types.Config) (types.Mission, []types.Target, error) {
	m, err := mission.Load(viper.GetString("mission"))
	if err != nil {
		return types.Mission{}, nil, err
	}
	names, _ := cmd.Flags().GetStringSlice("university")
	selected, err := mission.Select(m, names)
	if err != nil {
		return types.Mission{}, nil, err
	}
	sub := m
	sub.Targets.Universities = selected
	return m, pipeline.Targets(sub, cfg.Run.Limit), nil
}

// newApp wires the pipeline for cmd. onStage may be nil.
func newApp(ctx context.Context, cmd *cobra.Command, onStage pipeline.StageFunc) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, targets, err := loadMission(cmd, cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch, cfg.Extraction.MaxDocumentBytes, log)
	costFetcher := fetch.New(&http.Client{Timeout: cfg.Cost.Timeout}, cfg.Cost.HTTPConfig, 0, log)

	arbiter, summarizer := pipeline.NewArbiter(ctx, cfg.AI, &http.Client{Timeout: cfg.AI.Timeout}, log)
	log.Info("arbitration strategy", zap.String("arbiter", arbiter.Name()))

	run := cfg.Run
	p, err := pipeline.New(m, run, pipeline.Deps{
		Store:      store,
		Docs:       store.Documents(fetcher),
		Discoverer: discovery.New(searchBackends(cfg.Search), cfg.Search, cfg.Discovery, nil, log),
		Extractor:  extract.New(cfg.Extraction, log),
		Matcher:    match.New(cfg.Matching, arbiter, log),
		Prestige:   estimate.NewPrestige(m.Prestige),
		Cost:       estimate.NewCost(cfg.Cost, store.Documents(costFetcher), run.RefreshAll || run.RefreshCost, log),
		Logger:     log,
		OnStage:    onStage,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		mission:    m,
		targets:    targets,
		store:      store,
		pipeline:   p,
		summarizer: summarizer,
	}, nil
}

// searchBackends builds the configured backends in order. Serper is
// skipped without an API key.
func searchBackends(cfg types.SearchConfig) []search.Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	limiter := func() *rate.Limiter { return rate.NewLimiter(rate.Limit(cfg.RateLimit), 1) }

	var backends []search.Backend
	for _, name := range cfg.Backends {
		switch name {
		case "serper":
			if cfg.SerperAPIKey == "" {
				log.Warn("serper backend skipped: no API key (set search.serper_api_key or .secrets/" + secrets.SerperAPIKey + ")")
				continue
			}
			backends = append(backends, &search.SerperBackend{Client: client, APIKey: cfg.SerperAPIKey, Limiter: limiter()})
		case "duckduckgo":
			backends = append(backends, &search.DuckDuckGoBackend{Client: client, Limiter: limiter()})
		}
	}
	if len(backends) == 0 {
		log.Warn("no search backends available; only seed URLs will be used")
	}
	return backends
}

// eachTarget runs fn for every selected target in order and stops at
// the first error.
func eachTarget(a *app, fn func(t types.Target) error) error {
	for _, t := range a.targets {
		if err := fn(t); err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return nil
}
