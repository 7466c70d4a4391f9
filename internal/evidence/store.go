// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence persists every intermediate decision of a run so that
// each score can be traced back to stored data. Stage artifacts are JSON
// files keyed by (university slug, stage); fetched documents are cached by
// a hash of their URL. A SQLite index records what was written, when and by
// which run, and supports searching extracted lines.
package evidence

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	documentsDir = "documents"
	dbFile       = "evidence.db"
)

// ErrNotFound is returned when an artifact or document is not in the store.
var ErrNotFound = errors.New("evidence not found")

// Stage names a pipeline stage that writes an artifact.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageSources    Stage = "sources"
	StageMatches    Stage = "matches"
	StageLivingCost Stage = "living_cost"
	StagePrestige   Stage = "prestige"
)

// Stages lists the per-university stages in pipeline order.
var Stages = []Stage{StageDiscovery, StageSources, StageMatches, StageLivingCost, StagePrestige}

// Store manages the artifact tree and its SQLite index. A Store is safe for
// concurrent use.
type Store struct {
	root  string
	runID string
	db    *sql.DB
	log   *zap.Logger
	now   func() time.Time

	fetches singleflight.Group

	mu        sync.Mutex
	refreshed map[string]bool
}

// Open creates root if needed and opens (or creates) the index database at
// root/evidence.db. runID is stamped on everything the store writes.
func Open(root, runID string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(root, documentsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating evidence directory: %w", err)
	}

	dbPath := filepath.Join(root, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		root:      root,
		runID:     runID,
		db:        db,
		log:       logger,
		now:       time.Now,
		refreshed: make(map[string]bool),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Root returns the directory the store writes to.
func (s *Store) Root() string { return s.root }

// RunID returns the identifier stamped on this store's writes.
func (s *Store) RunID() string { return s.runID }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			slug TEXT NOT NULL,
			stage TEXT NOT NULL,
			path TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			run_id TEXT,
			written_at TEXT NOT NULL,
			PRIMARY KEY (slug, stage)
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			final_url TEXT,
			content_type TEXT,
			bytes INTEGER NOT NULL,
			path TEXT NOT NULL,
			run_id TEXT,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lines (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL,
			source_url TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			page INTEGER,
			line_index INTEGER NOT NULL,
			raw_text TEXT NOT NULL,
			folded_text TEXT NOT NULL,
			is_course_like INTEGER NOT NULL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lines_slug ON lines(slug)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Purge removes every artifact, cached document and index row.
func (s *Store) Purge() error {
	for _, table := range []string{"artifacts", "documents", "lines"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("reading evidence directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
	}
	return os.MkdirAll(filepath.Join(s.root, documentsDir), 0o755)
}

// writeAtomic writes data to path through a temp file and rename so readers
// never observe a partial file.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".evidence-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
