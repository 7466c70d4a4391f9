// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns fetched HTML and PDF documents into classified
// lines of text. Each line records whether it looks like a course name
// and why, so that matching decisions can be audited against the
// original sources.
package extract

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// ErrUnreadable is returned when a document cannot be parsed.
var ErrUnreadable = errors.New("document unreadable")

// DocumentGetter returns documents by URL, from cache or origin.
type DocumentGetter interface {
	Get(ctx context.Context, url string, refresh bool) (evidence.Document, error)
}

// Extractor classifies the lines of source documents.
type Extractor struct {
	cfg        types.ExtractionConfig
	classifier *Classifier
	log        *zap.Logger
}

// New returns an Extractor using the default rule table. Zero values in
// cfg fall back to the configuration defaults.
func New(cfg types.ExtractionConfig, logger *zap.Logger) *Extractor {
	if cfg.MinLineLength <= 0 {
		cfg.MinLineLength = 6
	}
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = 90
	}
	if cfg.MaxLinesPerDocument <= 0 {
		cfg.MaxLinesPerDocument = 300
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cfg:        cfg,
		classifier: NewClassifier(DefaultRules(cfg.MinLineLength, cfg.MaxLineLength)),
		log:        logger,
	}
}

// DetectType decides how to parse a document. The PDF magic number wins
// over the declared content type, which wins over the URL suffix.
func DetectType(contentType, rawURL string, body []byte) types.DocType {
	if bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), []byte("%PDF-")) {
		return types.DocPDF
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "pdf") {
		return types.DocPDF
	}
	if strings.Contains(ct, "html") || strings.Contains(ct, "text/") {
		return types.DocHTML
	}
	if u, err := url.Parse(rawURL); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return types.DocPDF
	}
	return types.DocHTML
}

// Extract parses body and classifies its lines. Duplicate lines within a
// document are dropped, and at most MaxLinesPerDocument lines of each
// class are kept. LineIndex is the position in the parsed document.
func (e *Extractor) Extract(sourceURL string, docType types.DocType, body []byte) ([]types.ExtractedLine, error) {
	var raw []PageLine
	switch docType {
	case types.DocPDF:
		var err error
		if raw, err = PDFLines(body); err != nil {
			return nil, err
		}
	default:
		texts, err := HTMLLines(body)
		if err != nil {
			return nil, err
		}
		raw = make([]PageLine, len(texts))
		for i, t := range texts {
			raw[i] = PageLine{Text: t}
		}
	}

	var (
		out          []types.ExtractedLine
		seen         = make(map[string]bool)
		course, rest int
		limit        = e.cfg.MaxLinesPerDocument
	)
	for idx, pl := range raw {
		if course >= limit && rest >= limit {
			break
		}
		text := CleanLine(pl.Text)
		if text == "" {
			continue
		}
		key := textutil.Fold(text)
		if seen[key] {
			continue
		}
		seen[key] = true

		v := e.classifier.Classify(text)
		if v.CourseLike {
			if course >= limit {
				continue
			}
			course++
		} else {
			if rest >= limit {
				continue
			}
			rest++
		}
		out = append(out, types.ExtractedLine{
			SourceURL:            sourceURL,
			DocType:              docType,
			Page:                 pl.Page,
			RawText:              text,
			LineIndex:            idx,
			IsCourseLike:         v.CourseLike,
			ClassificationReason: v.Reason,
		})
	}
	return out, nil
}

// ExtractSources fetches each URL through docs and extracts its lines.
// A document that fails to fetch or parse is recorded in its telemetry
// and contributes no lines; the remaining documents still count. Lines
// repeated across RepeatThreshold HTML documents are reclassified as
// boilerplate.
func (e *Extractor) ExtractSources(ctx context.Context, docs DocumentGetter, urls []string, refresh bool) types.SourcesArtifact {
	var art types.SourcesArtifact
	for _, u := range urls {
		tel := types.SourceTelemetry{URL: u, DocType: DetectType("", u, nil)}
		if err := ctx.Err(); err != nil {
			tel.Error = err.Error()
			art.Sources = append(art.Sources, tel)
			continue
		}

		doc, err := docs.Get(ctx, u, refresh)
		if err != nil {
			e.log.Warn("fetch failed", zap.String("url", u), zap.Error(err))
			tel.Error = err.Error()
			art.Sources = append(art.Sources, tel)
			continue
		}
		tel.ContentType = doc.ContentType
		tel.Bytes = len(doc.Body)
		tel.Cached = doc.Cached
		tel.DocType = DetectType(doc.ContentType, u, doc.Body)

		lines, err := e.Extract(u, tel.DocType, doc.Body)
		if err != nil {
			e.log.Warn("extraction failed", zap.String("url", u), zap.Error(err))
			tel.Error = err.Error()
			art.Sources = append(art.Sources, tel)
			continue
		}
		tel.LinesTotal = len(lines)
		art.Sources = append(art.Sources, tel)
		art.Lines = append(art.Lines, lines...)
	}

	if n := markRepeated(art.Lines, e.cfg.RepeatThreshold); n > 0 {
		e.log.Debug("repeated lines reclassified", zap.Int("lines", n))
	}

	perSource := make(map[string]int)
	for _, l := range art.Lines {
		if l.IsCourseLike {
			perSource[l.SourceURL]++
		}
	}
	for i := range art.Sources {
		art.Sources[i].LinesCourseLike = perSource[art.Sources[i].URL]
		e.log.Info("source extracted",
			zap.String("url", art.Sources[i].URL),
			zap.String("doc_type", string(art.Sources[i].DocType)),
			zap.Int("lines", art.Sources[i].LinesTotal),
			zap.Int("course_like", art.Sources[i].LinesCourseLike),
			zap.Bool("cached", art.Sources[i].Cached),
		)
	}
	return art
}
