// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// line is a candidate line prepared for classification.
type line struct {
	raw    string
	folded string
	tokens []string
}

func newLine(raw string) line {
	folded := textutil.Fold(raw)
	return line{raw: raw, folded: folded, tokens: tokenize(folded)}
}

// phrase returns the tokens joined by single spaces, padded so that
// whole-word containment can be tested with strings.Contains.
func (l line) phrase() string {
	return " " + strings.Join(l.tokens, " ") + " "
}

// Rule classifies a line. Rules run in order and the first one that
// matches decides; Match returns the evidence for the reason.
type Rule struct {
	Name       string
	CourseLike bool
	Match      func(l line) (string, bool)
}

// Verdict is the classification of one line.
type Verdict struct {
	CourseLike bool
	Reason     string
}

// Classifier applies a rule table to lines of text.
type Classifier struct {
	rules []Rule
}

var (
	creditRe = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s*(?:ects|creditos|credits|cr|horas|hours|h)\b`)
	codeRe   = regexp.MustCompile(`\b[A-Z]{2,5}-?\d{3,5}\b`)

	leadingBulletRe = regexp.MustCompile(`^[\s•·\-–—*>▪◦]+`)
	leadingNumberRe = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
)

var boilerplatePhrases = []string{
	"cookies", "cookie", "privacidad", "privacy", "aviso legal", "legal notice",
	"contacto", "contact", "matricula", "mapa del sitio", "sitemap", "copyright",
	"derechos reservados", "rights reserved", "iniciar sesion", "login",
	"accesibilidad", "accessibility", "siguenos", "follow us", "redes sociales",
	"newsletter", "suscribete", "saltar al contenido", "skip to",
}

var structuralPrefixes = []string{
	"modulo", "materia", "caracter", "ent", "unid", "curso academico",
	"plan de estudios", "total creditos",
}

var institutionPhrases = []string{
	"escuela", "facultad", "departamento", "universidad", "universitat",
	"university", "school of", "campus", "grado en", "master en",
	"master universitario", "doctorado", "rectorado",
}

// courseStems are token prefixes that mark academic subject names.
var courseStems = []string{
	"algoritm", "algorithm", "programacion", "programming", "estructura", "datos", "data",
	"calculo", "calculus", "algebra", "estadistic", "statistic", "probabil",
	"fisica", "physics", "matematic", "mathemat", "sistema", "system",
	"red", "network", "operativo", "operating", "compilador", "compiler",
	"arquitectura", "architecture", "computador", "computer", "computacion",
	"computation", "ingenieria", "engineering", "software", "seguridad",
	"security", "inteligencia", "intelligence", "aprendizaje", "learning",
	"logica", "logic", "discret", "teoria", "theory", "fundamento",
	"fundamental", "introduccion", "introduction", "analisis", "analysis",
	"diseno", "design", "gestion", "management", "proyecto", "project",
	"grafico", "graphic", "interaccion", "interaction", "concurren",
	"paralel", "parallel", "distribuid", "distributed", "electronic",
	"criptograf", "cryptograph", "informatic", "economia", "economic",
	"empresa", "optimizacion", "optimization", "simulacion", "simulation",
	"modelado", "modeling", "metodo", "method", "numeric", "web",
}

// DefaultRules returns the built-in rule table for minLen and maxLen
// character bounds.
func DefaultRules(minLen, maxLen int) []Rule {
	return []Rule{
		{Name: "too short", Match: func(l line) (string, bool) {
			n := utf8.RuneCountInString(l.raw)
			return fmt.Sprintf("%d < %d", n, minLen), n < minLen
		}},
		{Name: "too long", Match: func(l line) (string, bool) {
			n := utf8.RuneCountInString(l.raw)
			return fmt.Sprintf("%d > %d", n, maxLen), n > maxLen
		}},
		{Name: "no letters", Match: func(l line) (string, bool) {
			return "", strings.IndexFunc(l.raw, unicode.IsLetter) < 0
		}},
		{Name: "single word", Match: func(l line) (string, bool) {
			return "", len(l.tokens) < 2
		}},
		{Name: "boilerplate", Match: func(l line) (string, bool) {
			if strings.Contains(l.raw, "©") {
				return "©", true
			}
			return containsPhrase(l, boilerplatePhrases)
		}},
		{Name: "structural heading", Match: func(l line) (string, bool) {
			p := l.phrase()
			for _, prefix := range structuralPrefixes {
				if strings.HasPrefix(p, " "+prefix+" ") {
					return prefix, true
				}
			}
			return "", false
		}},
		{Name: "institution or degree name", Match: func(l line) (string, bool) {
			return containsPhrase(l, institutionPhrases)
		}},
		{Name: "credit marker", CourseLike: true, Match: func(l line) (string, bool) {
			m := creditRe.FindString(l.folded)
			return m, m != ""
		}},
		{Name: "course code", CourseLike: true, Match: func(l line) (string, bool) {
			m := codeRe.FindString(l.raw)
			return m, m != ""
		}},
		{Name: "course vocabulary", CourseLike: true, Match: func(l line) (string, bool) {
			for _, tok := range l.tokens {
				for _, stem := range courseStems {
					if strings.HasPrefix(tok, stem) {
						return tok, true
					}
				}
			}
			return "", false
		}},
	}
}

// NewClassifier returns a Classifier over rules.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the verdict of the first matching rule, or a
// non-course verdict when none match.
func (c *Classifier) Classify(text string) Verdict {
	l := newLine(text)
	for _, r := range c.rules {
		evidence, ok := r.Match(l)
		if !ok {
			continue
		}
		reason := r.Name
		if evidence != "" {
			reason = fmt.Sprintf("%s (%s)", r.Name, evidence)
		}
		return Verdict{CourseLike: r.CourseLike, Reason: reason}
	}
	return Verdict{Reason: "no course signal"}
}

// CleanLine trims bullets, list numbering, and redundant whitespace.
func CleanLine(s string) string {
	s = textutil.CollapseSpace(s)
	s = leadingBulletRe.ReplaceAllString(s, "")
	s = leadingNumberRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func containsPhrase(l line, phrases []string) (string, bool) {
	p := l.phrase()
	for _, ph := range phrases {
		if strings.Contains(p, " "+ph+" ") {
			return ph, true
		}
	}
	return "", false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// markRepeated reclassifies HTML lines whose text appears in at least
// threshold distinct HTML documents. Such lines are navigation or page
// chrome shared across a site.
func markRepeated(lines []types.ExtractedLine, threshold int) int {
	if threshold <= 1 {
		return 0
	}
	docs := make(map[string]map[string]bool)
	for _, l := range lines {
		if l.DocType != types.DocHTML {
			continue
		}
		key := textutil.Fold(l.RawText)
		if docs[key] == nil {
			docs[key] = make(map[string]bool)
		}
		docs[key][l.SourceURL] = true
	}

	changed := 0
	for i := range lines {
		l := &lines[i]
		if l.DocType != types.DocHTML || !l.IsCourseLike {
			continue
		}
		n := len(docs[textutil.Fold(l.RawText)])
		if n >= threshold {
			l.IsCourseLike = false
			l.ClassificationReason = fmt.Sprintf("boilerplate (repeated in %d documents)", n)
			changed++
		}
	}
	return changed
}
