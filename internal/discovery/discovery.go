// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery finds and scores candidate curriculum URLs for a
// university. Every candidate keeps the reasons behind its score and, when
// not selected, why it was rejected.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/search"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

const defaultTopK = 4

// Discoverer runs the discovery stage.
type Discoverer struct {
	backends  []search.Backend
	searchCfg types.SearchConfig
	cfg       types.DiscoveryConfig
	rules     []Rule
	log       *zap.Logger
	now       func() time.Time
}

// New returns a Discoverer. A nil rules list uses DefaultRules.
func New(backends []search.Backend, searchCfg types.SearchConfig, cfg types.DiscoveryConfig, rules []Rule, logger *zap.Logger) *Discoverer {
	if rules == nil {
		rules = DefaultRules
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Discoverer{
		backends:  backends,
		searchCfg: searchCfg,
		cfg:       cfg,
		rules:     rules,
		log:       logger,
		now:       time.Now,
	}
}

// Queries returns the search queries issued for target. Targets without a
// program query rely on their seed URLs alone.
func Queries(target types.Target) []search.Query {
	pq := strings.TrimSpace(target.ProgramQuery)
	if pq == "" {
		return nil
	}
	base := strings.TrimSpace(target.Name + " " + pq)
	country, lang := target.Country, target.Language
	if country == "" {
		country = "es"
	}
	if lang == "" {
		lang = "es"
	}
	queries := []search.Query{
		{Text: base, Country: country, Language: lang},
		{Text: base + " pdf", Country: country, Language: lang},
	}
	if len(target.PreferredDomains) > 0 {
		queries = append(queries, search.Query{Text: pq, Country: country, Language: lang, Sites: target.PreferredDomains})
	}
	return queries
}

// Discover searches for target's curriculum sources, scores every
// candidate and selects the top K above the threshold. Search failures are
// recorded in the artifact and never returned as errors; the only error is
// context cancellation.
func (d *Discoverer) Discover(ctx context.Context, target types.Target) (types.DiscoveryArtifact, error) {
	art := types.DiscoveryArtifact{
		University:  target.Name,
		GeneratedAt: d.now().UTC(),
	}

	var hits []types.SearchHit
	for _, seed := range target.ProgramURLs {
		hits = append(hits, types.SearchHit{URL: seed, Rank: 0, Backend: "seed", Query: "seed"})
	}

	for _, q := range Queries(target) {
		if err := ctx.Err(); err != nil {
			return art, err
		}
		art.Queries = append(art.Queries, q.WithSites())
		if len(d.backends) == 0 {
			continue
		}
		out, err := search.Search(ctx, q, d.backends, d.searchCfg, d.log)
		if err != nil {
			art.Errors = append(art.Errors, fmt.Sprintf("%s: %v", q.Text, err))
			continue
		}
		art.Errors = append(art.Errors, out.BackendErrors...)
		hits = append(hits, out.Hits...)
	}
	if err := ctx.Err(); err != nil {
		return art, err
	}

	art.Candidates = d.score(target, hits)
	art.Selected = d.selectTop(art.Candidates)
	art.NoSources = len(art.Selected) == 0

	d.log.Info("discovery complete",
		zap.String("university", target.Name),
		zap.Int("candidates", len(art.Candidates)),
		zap.Int("selected", len(art.Selected)),
		zap.Int("search_errors", len(art.Errors)),
	)
	return art, nil
}

// score dedupes hits (keeping the best raw rank) and scores each unique URL.
// The result is ordered by score descending, then raw rank ascending, then
// first appearance.
func (d *Discoverer) score(target types.Target, hits []types.SearchHit) []types.CandidateURL {
	type entry struct {
		hit   types.SearchHit
		order int
	}
	byKey := make(map[string]*entry)
	var entries []*entry
	for _, h := range hits {
		key := search.NormalizeURL(h.URL)
		if key == "" {
			continue
		}
		if e, ok := byKey[key]; ok {
			if h.Rank < e.hit.Rank {
				e.hit.Rank = h.Rank
				e.hit.Query = h.Query
			}
			if e.hit.Title == "" {
				e.hit.Title, e.hit.Snippet = h.Title, h.Snippet
			}
			continue
		}
		e := &entry{hit: h, order: len(entries)}
		byKey[key] = e
		entries = append(entries, e)
	}

	candidates := make([]types.CandidateURL, 0, len(entries))
	orders := make(map[string]int, len(entries))
	for _, e := range entries {
		seed := e.hit.Backend == "seed"
		s, reasons, penalties, isPDF, err := Score(d.rules, target, e.hit.URL, e.hit.Title, e.hit.Snippet, seed)
		if err != nil {
			d.log.Debug("skipping unparsable URL", zap.String("url", e.hit.URL), zap.Error(err))
			continue
		}
		candidates = append(candidates, types.CandidateURL{
			URL:            e.hit.URL,
			Domain:         domainOf(e.hit.URL),
			SourceQuery:    e.hit.Query,
			RawRank:        e.hit.Rank,
			Score:          s,
			Reasons:        reasons,
			PenaltyReasons: penalties,
			IsPDF:          isPDF,
		})
		orders[e.hit.URL] = e.order
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RawRank != b.RawRank {
			return a.RawRank < b.RawRank
		}
		return orders[a.URL] < orders[b.URL]
	})
	return candidates
}

// selectTop marks the first TopK candidates scoring above the threshold as
// selected and records a rejection reason on the rest.
func (d *Discoverer) selectTop(candidates []types.CandidateURL) []string {
	var selected []string
	for i := range candidates {
		c := &candidates[i]
		switch {
		case c.Score <= d.cfg.Threshold:
			c.Rejection = fmt.Sprintf("score %g not above threshold %g", c.Score, d.cfg.Threshold)
		case len(selected) >= d.cfg.TopK:
			c.Rejection = fmt.Sprintf("outside top %d", d.cfg.TopK)
		default:
			c.Selected = true
			selected = append(selected, c.URL)
		}
	}
	return selected
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
