// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

func testConfig() types.ExtractionConfig {
	return types.ExtractionConfig{
		MinLineLength:       6,
		MaxLineLength:       90,
		MaxLinesPerDocument: 300,
		RepeatThreshold:     2,
	}
}

// --- classification ---

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultRules(6, 90))
	tests := []struct {
		text       string
		courseLike bool
		reason     string
	}{
		{"Algoritmos y Estructuras de Datos — 6 ECTS", true, "credit marker (6 ects)"},
		{"Cookies policy", false, "boilerplate (cookies)"},
		{"Bases de datos", true, "course vocabulary (datos)"},
		{"INF101 Programación", true, "course code (INF101)"},
		{"Módulo 1: Formación básica", false, "structural heading (modulo)"},
		{"Escuela Técnica Superior de Ingeniería", false, "institution or degree name (escuela)"},
		{"Hi", false, "too short (2 < 6)"},
		{"123 456 789", false, "no letters"},
		{"Informática", false, "single word"},
		{"Horario de tutorías", false, "no course signal"},
		{"Programas de movilidad internacional", false, "no course signal"},
		{"Programación Orientada a Objetos", true, "course vocabulary (programacion)"},
		{strings.Repeat("Algoritmos ", 10), false, "too long (110 > 90)"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v := c.Classify(tt.text)
			assert.Equal(t, tt.courseLike, v.CourseLike)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestCleanLine(t *testing.T) {
	assert.Equal(t, "Algoritmos", CleanLine("  • 1. Algoritmos "))
	assert.Equal(t, "Redes de computadores", CleanLine("- Redes   de\tcomputadores"))
	assert.Equal(t, "", CleanLine(" \n "))
}

// --- document type ---

func TestDetectType(t *testing.T) {
	assert.Equal(t, types.DocPDF, DetectType("text/html", "https://u.es/a", []byte("%PDF-1.7 ...")))
	assert.Equal(t, types.DocPDF, DetectType("application/pdf", "https://u.es/a", nil))
	assert.Equal(t, types.DocHTML, DetectType("text/html; charset=utf-8", "https://u.es/a.pdf", []byte("<html>")))
	assert.Equal(t, types.DocPDF, DetectType("", "https://u.es/plan.PDF", nil))
	assert.Equal(t, types.DocHTML, DetectType("", "https://u.es/plan", nil))
}

// --- HTML ---

const planPage = `<html><head><title>Plan</title><script>var x = "Algoritmos 6 ECTS";</script></head>
<body>
<nav><a href="/">Inicio</a> <a href="/c">Contacto</a></nav>
<h1>Plan de estudios</h1>
<table>
  <tr><td>Algoritmos y Estructuras de Datos</td><td>6 ECTS</td></tr>
  <tr><td>Cálculo</td><td>6 ECTS</td></tr>
</table>
<p>Política de <b>cookies</b></p>
<footer>© 2024 Universidad</footer>
</body></html>`

func TestHTMLLines(t *testing.T) {
	lines, err := HTMLLines([]byte(planPage))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Plan de estudios",
		"Algoritmos y Estructuras de Datos 6 ECTS",
		"Cálculo 6 ECTS",
		"Política de cookies",
	}, lines)
}

func TestExtractHTML(t *testing.T) {
	e := New(testConfig(), zaptest.NewLogger(t))
	lines, err := e.Extract("https://u.es/plan", types.DocHTML, []byte(planPage))
	require.NoError(t, err)
	require.Len(t, lines, 4)

	var course []types.ExtractedLine
	for _, l := range lines {
		assert.Equal(t, "https://u.es/plan", l.SourceURL)
		assert.NotEmpty(t, l.ClassificationReason)
		if l.IsCourseLike {
			course = append(course, l)
		}
	}
	require.Len(t, course, 2)
	assert.Equal(t, "Algoritmos y Estructuras de Datos 6 ECTS", course[0].RawText)
	assert.Equal(t, 1, course[0].LineIndex)
	assert.Equal(t, 2, course[1].LineIndex)
}

func TestExtractDeduplicatesWithinDocument(t *testing.T) {
	e := New(testConfig(), nil)
	body := `<p>Algoritmos 6 ECTS</p><p>ALGORITMOS 6 ects</p><p>Algoritmos 6 ECTS</p>`
	lines, err := e.Extract("u", types.DocHTML, []byte(body))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 0, lines[0].LineIndex)
}

func TestExtractCapsLinesPerDocument(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLinesPerDocument = 2
	e := New(cfg, nil)
	body := `<p>Algoritmos 6 ECTS</p><p>Cálculo 6 ECTS</p><p>Física 6 ECTS</p><p>Redes 6 ECTS</p><p>Cookies policy</p>`
	lines, err := e.Extract("u", types.DocHTML, []byte(body))
	require.NoError(t, err)

	var course, rest int
	for _, l := range lines {
		if l.IsCourseLike {
			course++
		} else {
			rest++
		}
	}
	assert.Equal(t, 2, course)
	assert.Equal(t, 1, rest)
}

// --- PDF ---

// buildPDF assembles a minimal PDF with one content stream per page and a
// Helvetica font with fixed glyph widths.
func buildPDF(pages ...string) []byte {
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}
	var kids []string
	for i, content := range pages {
		page := 4 + 2*i
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", page+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

// twoPagePlan places lines with relative Td moves; the last line of page 1
// continues on page 2.
func twoPagePlan() []byte {
	return buildPDF(
		"BT /F1 12 Tf 72 720 Td (Algoritmos y Estructuras) Tj 0 -20 Td (Bases de Datos 6 ECTS) Tj "+
			"0 -20 Td (Sistemas Operativos) Tj 0 -20 Td (Redes de) Tj 100 0 Td (Computadores) Tj "+
			"-100 -20 Td (Fundamentos de) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Programacion) Tj 0 -20 Td (Calculo 6 ECTS) Tj ET",
	)
}

func TestPDFLinesSeparatesRelativelyPlacedRows(t *testing.T) {
	lines, err := PDFLines(twoPagePlan())
	require.NoError(t, err)

	assert.Equal(t, []PageLine{
		{Page: 1, Text: "Algoritmos y Estructuras"},
		{Page: 1, Text: "Bases de Datos 6 ECTS"},
		{Page: 1, Text: "Sistemas Operativos"},
		{Page: 1, Text: "Redes de Computadores"},
		{Page: 1, Text: "Fundamentos de"},
		{Page: 2, Text: "Programacion"},
		{Page: 2, Text: "Calculo 6 ECTS"},
	}, lines)
}

func TestPDFLinesOrdersRowsTopToBottom(t *testing.T) {
	// Drawn bottom row first.
	lines, err := PDFLines(buildPDF("BT /F1 12 Tf 72 600 Td (Calculo 6 ECTS) Tj 0 100 Td (Algebra Lineal) Tj ET"))
	require.NoError(t, err)
	assert.Equal(t, []PageLine{
		{Page: 1, Text: "Algebra Lineal"},
		{Page: 1, Text: "Calculo 6 ECTS"},
	}, lines)
}

func TestExtractPDF(t *testing.T) {
	e := New(testConfig(), zaptest.NewLogger(t))
	lines, err := e.Extract("https://u.es/plan.pdf", types.DocPDF, twoPagePlan())
	require.NoError(t, err)

	byText := make(map[string]types.ExtractedLine)
	for _, l := range lines {
		assert.Equal(t, types.DocPDF, l.DocType)
		byText[l.RawText] = l
	}
	require.Contains(t, byText, "Bases de Datos 6 ECTS")
	require.Contains(t, byText, "Calculo 6 ECTS")
	assert.Equal(t, 1, byText["Bases de Datos 6 ECTS"].Page)
	assert.True(t, byText["Bases de Datos 6 ECTS"].IsCourseLike)
	assert.Equal(t, 2, byText["Calculo 6 ECTS"].Page)
	assert.True(t, byText["Calculo 6 ECTS"].IsCourseLike)
	assert.NotContains(t, byText, "Fundamentos de Programacion")
}

func TestPDFLinesUnreadable(t *testing.T) {
	_, err := PDFLines([]byte("%PDF-1.4 truncated"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))

	e := New(testConfig(), nil)
	_, err = e.Extract("u", types.DocPDF, []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

// --- sources ---

type fakeDocs struct {
	docs     map[string]evidence.Document
	refreshs []bool
}

func (f *fakeDocs) Get(_ context.Context, url string, refresh bool) (evidence.Document, error) {
	f.refreshs = append(f.refreshs, refresh)
	d, ok := f.docs[url]
	if !ok {
		return evidence.Document{}, errors.New("status 404")
	}
	return d, nil
}

func htmlDoc(url, body string, cached bool) evidence.Document {
	return evidence.Document{URL: url, ContentType: "text/html", Body: []byte(body), Cached: cached}
}

func TestExtractSources(t *testing.T) {
	docs := &fakeDocs{docs: map[string]evidence.Document{
		"https://u.es/a": htmlDoc("https://u.es/a", `<p>Sistemas de información</p><p>Algoritmos 6 ECTS</p>`, true),
		"https://u.es/b": htmlDoc("https://u.es/b", `<p>Sistemas de información</p><p>Cookies policy</p>`, false),
	}}
	e := New(testConfig(), zaptest.NewLogger(t))

	art := e.ExtractSources(context.Background(), docs, []string{"https://u.es/a", "https://u.es/missing", "https://u.es/b"}, true)

	require.Len(t, art.Sources, 3)
	assert.Equal(t, []bool{true, true, true}, docs.refreshs)

	a := art.Sources[0]
	assert.Empty(t, a.Error)
	assert.True(t, a.Cached)
	assert.Equal(t, types.DocHTML, a.DocType)
	assert.Equal(t, 2, a.LinesTotal)
	assert.Equal(t, 1, a.LinesCourseLike)

	missing := art.Sources[1]
	assert.Contains(t, missing.Error, "404")
	assert.Zero(t, missing.LinesTotal)

	assert.Zero(t, art.Sources[2].LinesCourseLike)

	course := art.CourseLines()
	require.Len(t, course, 1)
	assert.Equal(t, "Algoritmos 6 ECTS", course[0].RawText)

	for _, l := range art.Lines {
		if l.RawText == "Sistemas de información" {
			assert.False(t, l.IsCourseLike)
			assert.Equal(t, "boilerplate (repeated in 2 documents)", l.ClassificationReason)
		}
	}
}

func TestExtractSourcesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := &fakeDocs{}
	art := New(testConfig(), nil).ExtractSources(ctx, docs, []string{"https://u.es/plan.pdf"}, false)
	require.Len(t, art.Sources, 1)
	assert.Equal(t, types.DocPDF, art.Sources[0].DocType)
	assert.NotEmpty(t, art.Sources[0].Error)
	assert.Empty(t, docs.refreshs)
}
