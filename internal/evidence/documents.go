// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Document is a fetched source document.
type Document struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"-"`
	FetchedAt   time.Time `json:"fetched_at"`

	// Cached is set when the document came from the store rather than the
	// network.
	Cached bool `json:"cached"`
}

// FetchFunc retrieves a document from its origin.
type FetchFunc func(ctx context.Context) (Document, error)

// Fetcher retrieves documents from their origin.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// DocumentSource serves documents from the store, falling back to a
// Fetcher on a cache miss.
type DocumentSource struct {
	store   *Store
	fetcher Fetcher
}

// Documents returns a DocumentSource backed by s and f.
func (s *Store) Documents(f Fetcher) *DocumentSource {
	return &DocumentSource{store: s, fetcher: f}
}

// Get returns the document for url; see Store.GetOrFetch.
func (d *DocumentSource) Get(ctx context.Context, url string, refresh bool) (Document, error) {
	return d.store.GetOrFetch(ctx, url, refresh, func(ctx context.Context) (Document, error) {
		return d.fetcher.Fetch(ctx, url)
	})
}

// DocumentKey returns the cache key for a URL.
func DocumentKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (s *Store) documentPath(key string) string {
	return filepath.Join(s.root, documentsDir, key[:2], key+".bin")
}

// GetOrFetch returns the document for url, calling fetch only when it is
// not cached. Concurrent calls for the same URL share one fetch. With
// refresh set the cache is bypassed, but only once per key for the
// lifetime of the store, so a run refetches each document at most once.
func (s *Store) GetOrFetch(ctx context.Context, url string, refresh bool, fetch FetchFunc) (Document, error) {
	key := DocumentKey(url)

	v, err, shared := s.fetches.Do(key, func() (any, error) {
		if !refresh || s.alreadyRefreshed(key) {
			doc, err := s.LoadDocument(key)
			if err == nil {
				doc.Cached = true
				return doc, nil
			}
			if !errors.Is(err, ErrNotFound) {
				s.log.Warn("cached document unreadable, refetching", zap.String("url", url), zap.Error(err))
			}
		}

		doc, err := fetch(ctx)
		if err != nil {
			return Document{}, err
		}
		doc.Key = key
		doc.URL = url
		if doc.FetchedAt.IsZero() {
			doc.FetchedAt = s.now().UTC()
		}
		if err := s.saveDocument(doc); err != nil {
			return Document{}, err
		}
		s.markRefreshed(key)
		return doc, nil
	})
	if err != nil {
		return Document{}, err
	}
	if shared {
		s.log.Debug("document fetch shared", zap.String("url", url))
	}
	return v.(Document), nil
}

// LoadDocument reads a cached document by key. It returns ErrNotFound when
// the key was never stored.
func (s *Store) LoadDocument(key string) (Document, error) {
	var (
		doc         Document
		finalURL    sql.NullString
		contentType sql.NullString
		rel         string
		fetchedAt   string
	)
	err := s.db.QueryRow(
		`SELECT key, url, final_url, content_type, path, fetched_at FROM documents WHERE key = ?`, key,
	).Scan(&doc.Key, &doc.URL, &finalURL, &contentType, &rel, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("querying document %s: %w", key, err)
	}

	body, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("document body %s: %w", key, ErrNotFound)
		}
		return Document{}, fmt.Errorf("reading document %s: %w", key, err)
	}

	doc.FinalURL = finalURL.String
	doc.ContentType = contentType.String
	doc.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	doc.Body = body
	return doc, nil
}

func (s *Store) saveDocument(doc Document) error {
	path := s.documentPath(doc.Key)
	if err := writeAtomic(path, doc.Body); err != nil {
		return fmt.Errorf("caching document %s: %w", doc.URL, err)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return fmt.Errorf("relativizing document path: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO documents (key, url, final_url, content_type, bytes, path, run_id, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET final_url=excluded.final_url, content_type=excluded.content_type,
		 bytes=excluded.bytes, path=excluded.path, run_id=excluded.run_id, fetched_at=excluded.fetched_at`,
		doc.Key, doc.URL, doc.FinalURL, doc.ContentType, len(doc.Body), filepath.ToSlash(rel),
		s.runID, doc.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.URL, err)
	}
	return nil
}

func (s *Store) alreadyRefreshed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshed[key]
}

func (s *Store) markRefreshed(key string) {
	s.mu.Lock()
	s.refreshed[key] = true
	s.mu.Unlock()
}
