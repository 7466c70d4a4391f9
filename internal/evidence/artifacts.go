// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ArtifactInfo describes a stored stage artifact.
type ArtifactInfo struct {
	Slug      string    `json:"slug"`
	Stage     Stage     `json:"stage"`
	Ref       string    `json:"ref"`
	SHA256    string    `json:"sha256"`
	RunID     string    `json:"run_id"`
	WrittenAt time.Time `json:"written_at"`
}

// ArtifactRef returns the store-relative reference of an artifact. Refs are
// what results carry in evidence_refs.
func ArtifactRef(slug string, stage Stage) string {
	return filepath.ToSlash(filepath.Join(slug, string(stage)+".json"))
}

func (s *Store) artifactPath(slug string, stage Stage) string {
	return filepath.Join(s.root, filepath.FromSlash(ArtifactRef(slug, stage)))
}

// HasArtifact reports whether an artifact exists for (slug, stage).
func (s *Store) HasArtifact(slug string, stage Stage) bool {
	_, err := os.Stat(s.artifactPath(slug, stage))
	return err == nil
}

// WriteArtifact serializes v as indented JSON to the (slug, stage) artifact,
// replacing any previous version, and returns its ref.
func (s *Store) WriteArtifact(slug string, stage Stage, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s artifact for %s: %w", stage, slug, err)
	}
	data = append(data, '\n')

	if err := writeAtomic(s.artifactPath(slug, stage), data); err != nil {
		return "", fmt.Errorf("writing %s artifact for %s: %w", stage, slug, err)
	}

	sum := sha256.Sum256(data)
	ref := ArtifactRef(slug, stage)
	_, err = s.db.Exec(
		`INSERT INTO artifacts (slug, stage, path, sha256, run_id, written_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug, stage) DO UPDATE SET path=excluded.path, sha256=excluded.sha256,
		 run_id=excluded.run_id, written_at=excluded.written_at`,
		slug, string(stage), ref, hex.EncodeToString(sum[:]), s.runID, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("indexing %s artifact for %s: %w", stage, slug, err)
	}

	s.log.Debug("artifact written", zap.String("slug", slug), zap.String("stage", string(stage)), zap.Int("bytes", len(data)))
	return ref, nil
}

// ReadArtifact decodes the (slug, stage) artifact into v. It returns
// ErrNotFound when no artifact has been written.
func (s *Store) ReadArtifact(slug string, stage Stage, v any) error {
	data, err := os.ReadFile(s.artifactPath(slug, stage))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s artifact for %s: %w", stage, slug, ErrNotFound)
		}
		return fmt.Errorf("reading %s artifact for %s: %w", stage, slug, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s artifact for %s: %w", stage, slug, err)
	}
	return nil
}

// WriteReport writes a run-level output file (ranking, narrative) at the
// store root and returns its ref.
func (s *Store) WriteReport(name string, data []byte) (string, error) {
	if err := writeAtomic(filepath.Join(s.root, name), data); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// ReportPath returns the absolute path of a run-level output file.
func (s *Store) ReportPath(name string) string {
	return filepath.Join(s.root, name)
}

// Artifacts lists the indexed artifacts for slug, in stage order.
func (s *Store) Artifacts(slug string) ([]ArtifactInfo, error) {
	rows, err := s.db.Query(
		`SELECT slug, stage, path, sha256, run_id, written_at FROM artifacts WHERE slug = ?`, slug)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	byStage := make(map[Stage]ArtifactInfo)
	for rows.Next() {
		var (
			info    ArtifactInfo
			stage   string
			runID   sql.NullString
			written string
		)
		if err := rows.Scan(&info.Slug, &stage, &info.Ref, &info.SHA256, &runID, &written); err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		info.Stage = Stage(stage)
		info.RunID = runID.String
		info.WrittenAt, _ = time.Parse(time.RFC3339Nano, written)
		byStage[info.Stage] = info
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ArtifactInfo
	for _, st := range Stages {
		if info, ok := byStage[st]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}
