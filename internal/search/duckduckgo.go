// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/transfer-engine/internal/httputil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// duckDuckGoURL is the JavaScript-free DuckDuckGo results page. Declared as
// a var so tests can substitute an httptest server.
var duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoBackend scrapes the DuckDuckGo HTML results page. It needs no
// API key, which makes it the fallback when Serper is not configured.
type DuckDuckGoBackend struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search fetches the results page for the query and parses result links.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchHit, error) {
	if b.Limiter != nil {
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{"q": {query.WithSites()}}
	if query.Country != "" {
		lang := query.Language
		if lang == "" {
			lang = query.Country
		}
		params.Set("kl", strings.ToLower(query.Country)+"-"+strings.ToLower(lang))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckDuckGoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo page: %w", err)
	}

	limit := cfg.ResultsPerQuery
	if limit <= 0 {
		limit = 10
	}

	var hits []types.SearchHit
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		a := sel.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		link := resolveRedirect(href)
		if link == "" {
			return true
		}
		hits = append(hits, types.SearchHit{
			URL:     link,
			Title:   strings.TrimSpace(a.Text()),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
			Rank:    len(hits) + 1,
			Backend: b.Name(),
			Query:   query.Text,
		})
		return len(hits) < limit
	})
	return hits, nil
}

// resolveRedirect unwraps DuckDuckGo's "/l/?uddg=<target>" redirect links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
