// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// --- factory ---

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, types.AIConfig{Provider: "none"}, nil, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(ctx, types.AIConfig{}, nil, nil)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(ctx, types.AIConfig{Provider: "gemini"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(ctx, types.AIConfig{Provider: "claude", APIKey: "  "}, nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(ctx, types.AIConfig{Provider: "gpt"}, nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	j, err := New(ctx, types.AIConfig{Provider: "Claude", APIKey: "k"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "claude", j.Name())

	j, err = New(ctx, types.AIConfig{Provider: "ollama"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", j.Name())
}

// --- parsing ---

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
		conf float64
	}{
		{"plain", `{"match": true, "confidence": 0.9, "justification": "same"}`, true, 0.9},
		{"fenced", "```json\n{\"match\": false, \"confidence\": 0.4, \"justification\": \"no\"}\n```", false, 0.4},
		{"quoted values", `{"match": "yes", "confidence": "0.75", "justification": "ok"}`, true, 0.75},
		{"surrounding prose", `Here is my answer: {"match": true, "confidence": 1} Thanks.`, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Match)
			assert.InDelta(t, tt.conf, v.Confidence, 1e-9)
		})
	}
}

func TestParseVerdictErrors(t *testing.T) {
	_, err := parseVerdict("not json")
	assert.Error(t, err)

	_, err = parseVerdict(`{"match": true}`)
	assert.ErrorContains(t, err, "missing confidence")
}

// --- claude ---

func TestClaudeJudge(t *testing.T) {
	var got claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "text", Text: `{"match": true, "confidence": 0.8, "justification": "both cover sorting"}`},
		}})
	}))
	defer ts.Close()

	orig := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = orig }()

	j, err := New(context.Background(), types.AIConfig{Provider: "claude", APIKey: "secret"}, ts.Client(), zaptest.NewLogger(t))
	require.NoError(t, err)

	v, err := j.Judge(context.Background(), "Algorithms", "Algorítmica 6 ECTS", "source: u\n> Algorítmica 6 ECTS\n")
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.InDelta(t, 0.8, v.Confidence, 1e-9)
	assert.Equal(t, "both cover sorting", v.Justification)

	assert.Equal(t, defaultClaudeModel, got.Model)
	assert.Equal(t, judgeSystemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "Course: Algorithms")
	assert.Contains(t, got.Messages[0].Content, "Candidate line: Algorítmica 6 ECTS")
}

func TestClaudeAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	orig := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = orig }()

	j, err := New(context.Background(), types.AIConfig{Provider: "claude", APIKey: "k"}, ts.Client(), nil)
	require.NoError(t, err)

	_, err = j.Judge(context.Background(), "a", "b", "")
	assert.ErrorContains(t, err, "503")
}

// --- gemini ---

type fakeGenerator struct {
	reply   string
	err     error
	configs []*genai.GenerateContentConfig
	prompts []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.configs = append(f.configs, config)
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestGeminiJudgeAndSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: `{"match": false, "confidence": 0.95, "justification": "different field"}`}
	j := &Judge{name: "gemini", c: &geminiBackend{models: gen, model: "m"}, log: zaptest.NewLogger(t)}

	v, err := j.Judge(context.Background(), "Databases", "Literatura Española", "")
	require.NoError(t, err)
	assert.False(t, v.Match)
	assert.Equal(t, "application/json", gen.configs[0].ResponseMIMEType)

	gen.reply = "UPM is the strongest option."
	ranking := types.Ranking{
		Weights: types.DefaultWeights,
		Results: []types.UniversityResult{
			{University: "UPM", City: "Madrid", Rank: 1, FinalScore: 77, MatchPct: 80},
			{University: "UGR", City: "Granada", Rank: 2, FinalScore: 50, NoSources: true},
		},
	}
	text, err := j.Summarize(context.Background(), ranking)
	require.NoError(t, err)
	assert.Equal(t, "UPM is the strongest option.", text)
	assert.Empty(t, gen.configs[1].ResponseMIMEType)
	assert.Contains(t, gen.prompts[1], "1. UPM (Madrid): final 77.00")
	assert.Contains(t, gen.prompts[1], "NO SOURCES")
}

func TestGeminiEmptyReply(t *testing.T) {
	gen := &fakeGenerator{reply: "  "}
	j := &Judge{name: "gemini", c: &geminiBackend{models: gen, model: "m"}, log: zaptest.NewLogger(t)}
	_, err := j.Judge(context.Background(), "a", "b", "")
	assert.ErrorContains(t, err, "empty response")

	gen.err = errors.New("quota")
	_, err = j.Summarize(context.Background(), types.Ranking{})
	assert.ErrorContains(t, err, "quota")
}

// --- ollama ---

type fakeChat struct {
	reply    string
	messages []llms.MessageContent
}

func (f *fakeChat) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func TestOllamaJudge(t *testing.T) {
	chat := &fakeChat{reply: `{"match": true, "confidence": 0.7, "justification": "same"}`}
	j := &Judge{name: "ollama", c: &ollamaBackend{llm: chat}, log: zaptest.NewLogger(t)}

	v, err := j.Judge(context.Background(), "Programming", "Programación 6 ECTS", "")
	require.NoError(t, err)
	assert.True(t, v.Match)
	require.Len(t, chat.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, chat.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, chat.messages[1].Role)
}
