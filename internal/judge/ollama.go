// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

const (
	defaultOllamaModel = "mistral"
	defaultOllamaURL   = "http://localhost:11434"
)

// chatModel is the subset of llms.Model used here.
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type ollamaBackend struct {
	llm chatModel
}

func newOllama(cfg types.AIConfig) (*ollamaBackend, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOllamaModel
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: initializing ollama: %v", ErrUnavailable, err)
	}
	return &ollamaBackend{llm: llm}, nil
}

func (o *ollamaBackend) complete(ctx context.Context, system, prompt string, jsonReply bool) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(0)}
	if jsonReply {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := o.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errors.New("ollama returned no choices")
	}
	return resp.Choices[0].Content, nil
}
