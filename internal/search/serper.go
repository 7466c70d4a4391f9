// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/transfer-engine/internal/httputil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// serperAPIURL is the Serper Google search endpoint. Declared as a var so
// tests can substitute an httptest server.
var serperAPIURL = "https://google.serper.dev/search"

// ErrMissingAPIKey is returned by backends that need a key they were not given.
var ErrMissingAPIKey = errors.New("missing API key")

// SerperBackend queries Google results through the serper.dev JSON API.
type SerperBackend struct {
	Client  *http.Client
	APIKey  string
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *SerperBackend) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search posts the query to Serper and returns its organic results.
func (b *SerperBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchHit, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("serper: %w", ErrMissingAPIKey)
	}
	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	num := cfg.ResultsPerQuery
	if num <= 0 {
		num = 10
	}
	body, err := json.Marshal(serperRequest{Q: query.WithSites(), GL: query.Country, HL: query.Language, Num: num})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", b.APIKey)
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Serper API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Serper API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Serper response: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(sr.Organic))
	for i, o := range sr.Organic {
		rank := o.Position
		if rank <= 0 {
			rank = i + 1
		}
		hits = append(hits, types.SearchHit{
			URL:     o.Link,
			Title:   o.Title,
			Snippet: o.Snippet,
			Rank:    rank,
			Backend: b.Name(),
			Query:   query.Text,
		})
	}
	return hits, nil
}
