// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search backends and returns unified,
// deduplicated hits for discovery.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Backend searches a single web search provider. Each provider implements
// this interface so discovery can fan out to any combination of them.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchHit, error)
}

// Query holds the search parameters.
type Query struct {
	Text string

	// Country and Language localise results (e.g. "es", "es").
	Country  string
	Language string

	// Sites restricts results to these domains when the backend supports it.
	Sites []string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// WithSites returns the query text with site: operators appended.
func (q Query) WithSites() string {
	if len(q.Sites) == 0 {
		return q.Text
	}
	ops := make([]string, len(q.Sites))
	for i, s := range q.Sites {
		ops[i] = "site:" + s
	}
	return q.Text + " (" + strings.Join(ops, " OR ") + ")"
}

// Output holds the merged hits and dedup statistics.
type Output struct {
	Hits          []types.SearchHit
	DupsRemoved   int
	BackendErrors []string
}

// Search fans the query out to all backends concurrently and merges the
// hits. Merged hits are ordered by rank, then by backend order, and
// duplicates (same normalized URL) keep their best-ranked occurrence. A
// failing backend is recorded in BackendErrors; Search only fails when no
// backend is configured or the query is empty.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, logger *zap.Logger) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	type backendResult struct {
		hits  []types.SearchHit
		err   error
		name  string
		order int
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			hits, err := b.Search(ctx, query, cfg)
			ch <- backendResult{hits: hits, err: err, name: b.Name(), order: i}
		}(i, b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	results := make([]backendResult, 0, len(backends))
	for br := range ch {
		results = append(results, br)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].order < results[j].order })

	type ordered struct {
		hit   types.SearchHit
		order int
	}
	var all []ordered
	var backendErrors []string
	for _, br := range results {
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			logger.Warn("search backend failed", zap.String("backend", br.name), zap.String("query", query.Text), zap.Error(br.err))
			continue
		}
		for _, h := range br.hits {
			all = append(all, ordered{hit: h, order: br.order})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].hit.Rank != all[j].hit.Rank {
			return all[i].hit.Rank < all[j].hit.Rank
		}
		return all[i].order < all[j].order
	})

	seen := make(map[string]bool)
	var hits []types.SearchHit
	removed := 0
	for _, o := range all {
		key := NormalizeURL(o.hit.URL)
		if key == "" {
			continue
		}
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		hits = append(hits, o.hit)
	}

	logger.Debug("search complete",
		zap.String("query", query.Text),
		zap.Int("hits", len(hits)),
		zap.Int("dups_removed", removed),
	)

	return Output{Hits: hits, DupsRemoved: removed, BackendErrors: backendErrors}, nil
}

// trackingParams are query parameters stripped before URL comparison.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "gclid", "fbclid"}

// NormalizeURL returns a comparison key for u: lowercased scheme and host,
// no fragment, no tracking parameters, no trailing slash. It returns "" for
// URLs that are not absolute http(s) links.
func NormalizeURL(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" {
		return ""
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	q := parsed.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	path := strings.TrimRight(parsed.EscapedPath(), "/")
	key := host + path
	if enc := q.Encode(); enc != "" {
		key += "?" + enc
	}
	return key
}

// FormatTable writes hits as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-70s  %-10s  %s\n", "Rank", "URL", "Backend", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, h := range out.Hits {
		link := h.URL
		if utf8.RuneCountInString(link) > 70 {
			link = textutil.Truncate(link, 67)
		}
		fmt.Fprintf(w, "%-4d  %-70s  %-10s  %s\n", h.Rank, link, h.Backend, h.Title)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Hits))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes hits as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Hits)
}
