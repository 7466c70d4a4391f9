// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// gapFactor is the horizontal gap, as a fraction of the font size, above
	// which two text runs on a row are separated by a space.
	gapFactor = 0.15

	// rowFactor is the vertical distance, as a fraction of the font size,
	// within which glyphs belong to the same row.
	rowFactor = 0.3
)

// PageLine is a line of PDF text with its 1-based page number.
type PageLine struct {
	Page int
	Text string
}

// PDFLines returns the text rows of a PDF document page by page, top to
// bottom. Rows are rebuilt from glyph positions, so lines placed with
// relative moves (Td, T*) are separated as well as those placed with Tm.
// Rows never span pages. The parser panics on some malformed inputs;
// those surface as ErrUnreadable.
func PDFLines(body []byte) (lines []PageLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("%w: pdf parser: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", ErrUnreadable, err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, row := range pdfRows(p.Content().Text) {
			if s := joinRow(row); s != "" {
				lines = append(lines, PageLine{Page: i, Text: s})
			}
		}
	}
	return lines, nil
}

// pdfRows groups glyphs by baseline, top row first, each row ordered left
// to right. Glyphs at the same position keep content-stream order.
func pdfRows(texts []pdf.Text) [][]pdf.Text {
	sorted := slices.Clone(texts)
	slices.SortStableFunc(sorted, func(a, b pdf.Text) int { return cmp.Compare(b.Y, a.Y) })

	var rows [][]pdf.Text
	var rowY float64
	for _, t := range sorted {
		tol := math.Max(1, rowFactor*t.FontSize)
		if len(rows) == 0 || math.Abs(rowY-t.Y) > tol {
			rows = append(rows, []pdf.Text{t})
			rowY = t.Y
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], t)
	}
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b pdf.Text) int { return cmp.Compare(a.X, b.X) })
	}
	return rows
}

func joinRow(row []pdf.Text) string {
	var b strings.Builder
	prevEnd := -1.0
	for _, t := range row {
		if prevEnd >= 0 && t.X-prevEnd > gapFactor*t.FontSize {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
