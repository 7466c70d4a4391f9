// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package judge provides language-model backends that arbitrate
// ambiguous course matches and write the ranking narrative. Every
// backend is optional: callers treat ErrDisabled and ErrUnavailable as a
// reason to fall back to deterministic behaviour.
package judge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/match"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Provider names accepted in the ai.provider setting.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

var (
	// ErrDisabled is returned by New when no provider is configured.
	ErrDisabled = errors.New("semantic provider disabled")

	// ErrUnavailable is returned when a provider is configured but cannot
	// be used, for example because its API key is missing.
	ErrUnavailable = errors.New("semantic provider unavailable")
)

const maxLogLen = 200

// completer sends one prompt to a model and returns its text reply.
type completer interface {
	complete(ctx context.Context, system, prompt string, jsonReply bool) (string, error)
}

// Judge arbitrates course matches and summarizes rankings with a
// language model.
type Judge struct {
	name string
	c    completer
	log  *zap.Logger
}

// New builds the Judge selected by cfg.Provider. The HTTP client is used
// by providers that speak HTTP directly; nil means http.DefaultClient.
func New(ctx context.Context, cfg types.AIConfig, client *http.Client, logger *zap.Logger) (*Judge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	var (
		c   completer
		err error
	)
	switch provider {
	case "", ProviderNone:
		return nil, ErrDisabled
	case ProviderGemini:
		c, err = newGemini(ctx, cfg)
	case ProviderClaude:
		c, err = newClaude(cfg, client)
	case ProviderOllama:
		c, err = newOllama(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrUnavailable, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Judge{name: provider, c: c, log: logger}, nil
}

// Name implements match.Arbiter.
func (j *Judge) Name() string { return j.name }

// Judge implements match.Arbiter. The model is asked whether the
// curriculum line is the same subject as the course.
func (j *Judge) Judge(ctx context.Context, course, line, excerpt string) (match.Verdict, error) {
	prompt, err := renderJudgePrompt(course, line, excerpt)
	if err != nil {
		return match.Verdict{}, fmt.Errorf("rendering prompt: %w", err)
	}

	j.log.Debug("judge request",
		zap.String("provider", j.name),
		zap.String("course", course),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := j.c.complete(ctx, judgeSystemPrompt, prompt, true)
	if err != nil {
		return match.Verdict{}, err
	}

	j.log.Debug("judge response",
		zap.String("provider", j.name),
		zap.String("course", course),
		zap.String("response_preview", textutil.Truncate(raw, maxLogLen)),
	)

	return parseVerdict(raw)
}

// Summarize writes a short recommendation narrative for a ranking.
func (j *Judge) Summarize(ctx context.Context, ranking types.Ranking) (string, error) {
	prompt, err := renderSummaryPrompt(ranking)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := j.c.complete(ctx, summarySystemPrompt, prompt, false)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%s returned an empty narrative", j.name)
	}
	return text, nil
}
