// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

const defaultMaxLineResults = 20

// LineHit is an extracted line found by SearchLines.
type LineHit struct {
	Slug string `json:"slug"`
	types.ExtractedLine
}

// LineQuery holds parameters for SearchLines.
type LineQuery struct {
	// Text is matched accent- and case-insensitively against line text.
	Text string

	// Slug restricts the search to one university.
	Slug string

	// CourseLikeOnly drops lines not classified as course-like.
	CourseLikeOnly bool

	// MaxResults limits result count. Zero uses 20.
	MaxResults int
}

// IndexLines replaces the indexed lines of slug with lines.
func (s *Store) IndexLines(ctx context.Context, slug string, lines []types.ExtractedLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lines WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("clearing lines for %s: %w", slug, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lines (slug, source_url, doc_type, page, line_index, raw_text, folded_text, is_course_like, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		courseLike := 0
		if l.IsCourseLike {
			courseLike = 1
		}
		if _, err := stmt.ExecContext(ctx, slug, l.SourceURL, string(l.DocType), l.Page, l.LineIndex,
			l.RawText, textutil.Fold(l.RawText), courseLike, l.ClassificationReason); err != nil {
			return fmt.Errorf("inserting line: %w", err)
		}
	}
	return tx.Commit()
}

// SearchLines finds indexed lines containing every word of q.Text.
func (s *Store) SearchLines(ctx context.Context, q LineQuery) ([]LineHit, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxLineResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT slug, source_url, doc_type, page, line_index, raw_text, is_course_like, reason FROM lines WHERE 1=1`)
	for _, word := range strings.Fields(textutil.Fold(q.Text)) {
		qb.WriteString(` AND folded_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(word)+"%")
	}
	if q.Slug != "" {
		qb.WriteString(` AND slug = ?`)
		args = append(args, q.Slug)
	}
	if q.CourseLikeOnly {
		qb.WriteString(` AND is_course_like = 1`)
	}
	qb.WriteString(` ORDER BY slug, source_url, line_index LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching lines: %w", err)
	}
	defer rows.Close()

	var hits []LineHit
	for rows.Next() {
		var (
			h          LineHit
			docType    string
			page       sql.NullInt64
			courseLike int
			reason     sql.NullString
		)
		if err := rows.Scan(&h.Slug, &h.SourceURL, &docType, &page, &h.LineIndex, &h.RawText, &courseLike, &reason); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		h.DocType = types.DocType(docType)
		h.Page = int(page.Int64)
		h.IsCourseLike = courseLike == 1
		h.ClassificationReason = reason.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
