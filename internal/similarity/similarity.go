// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores how closely a course name matches a line of
// a published curriculum. Scores are on a 0 to 100 scale and are
// deterministic for a given pair of inputs.
package similarity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/transfer-engine/internal/textutil"
)

var creditRe = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s*(?:ects|creditos|credits|cr|horas|hours|h)\b`)

var stopwords = map[string]bool{
	"y": true, "e": true, "de": true, "del": true, "la": true, "las": true,
	"el": true, "los": true, "en": true, "a": true, "al": true, "para": true,
	"con": true, "por": true, "and": true, "of": true, "the": true, "to": true,
	"for": true, "in": true, "with": true, "on": true,
}

// Tokens returns the folded content words of s with credit markers and
// stopwords removed.
func Tokens(s string) []string {
	s = creditRe.ReplaceAllString(textutil.Fold(s), " ")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// Ratio is the normalized edit similarity of two strings:
// 100 * (1 - distance / longer length).
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	return 100 * (1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest))
}

// TokenSetRatio compares the shared and differing token sets of a and b,
// so word order and repeated words do not matter.
func TokenSetRatio(a, b []string) float64 {
	sa, sb := set(a), set(b)
	var common, onlyA, onlyB []string
	for t := range sa {
		if sb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range sb {
		if !sa[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(common, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))
	if t1 == "" || t2 == "" {
		return 0
	}

	best := Ratio(t1, t2)
	if t0 != "" {
		best = max(best, Ratio(t0, t1), Ratio(t0, t2))
	}
	return best
}

// Coverage is the mean, over the course tokens, of the best edit
// similarity to any line token. It rewards lines that contain every
// word of the course name in some spelling, including close cognates
// across languages ("algorithms" and "algoritmos").
func Coverage(course, line []string) float64 {
	if len(course) == 0 || len(line) == 0 {
		return 0
	}
	var sum float64
	for _, c := range course {
		var best float64
		for _, l := range line {
			if r := Ratio(c, l); r > best {
				best = r
			}
		}
		sum += best
	}
	return sum / float64(len(course))
}

// Score returns the similarity of a course name to a curriculum line:
// the higher of the token set ratio and the course-side coverage.
func Score(course, line string) float64 {
	ct, lt := Tokens(course), Tokens(line)
	return max(TokenSetRatio(ct, lt), Coverage(ct, lt))
}

func set(tokens []string) map[string]bool {
	m := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		m[t] = true
	}
	return m
}
