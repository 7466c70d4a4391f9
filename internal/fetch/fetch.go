// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves source documents over HTTP with rate limiting,
// bounded retries and a size cap.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/httputil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

const defaultMaxBytes = 20 << 20

// ErrTooLarge is returned when a document exceeds the configured size cap.
var ErrTooLarge = errors.New("document too large")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Fetcher downloads documents. It is safe for concurrent use; the rate
// limit is shared by all callers.
type Fetcher struct {
	client   *http.Client
	cfg      types.HTTPConfig
	limiter  *rate.Limiter
	maxBytes int64
	log      *zap.Logger
}

// New returns a Fetcher. A nil client uses one with cfg.Timeout.
func New(client *http.Client, cfg types.HTTPConfig, maxBytes int64, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		maxBytes: maxBytes,
		log:      logger,
	}
}

// Fetch downloads url and returns its body and content type.
func (f *Fetcher) Fetch(ctx context.Context, url string) (evidence.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return evidence.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return evidence.Document{}, fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return evidence.Document{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return evidence.Document{}, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return evidence.Document{}, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return evidence.Document{}, fmt.Errorf("%s: %w (limit %d bytes)", url, ErrTooLarge, f.maxBytes)
	}

	f.log.Debug("fetched document",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return evidence.Document{
		URL:         url,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}
