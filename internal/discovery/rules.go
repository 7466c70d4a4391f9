// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Direction says whether a matching rule raises or lowers the score.
type Direction int

const (
	Bonus   Direction = 1
	Penalty Direction = -1
)

// Signal names a property of a candidate a rule can test.
type Signal string

const (
	// SignalPreferredDomain fires when the host is, or is a subdomain of,
	// one of the target's preferred domains.
	SignalPreferredDomain Signal = "preferred_domain"

	// SignalPathKeyword fires when the folded URL path or query contains
	// any of the rule's values.
	SignalPathKeyword Signal = "path_keyword"

	// SignalTextKeyword fires when the folded result title or snippet
	// contains any of the rule's values.
	SignalTextKeyword Signal = "text_keyword"

	// SignalPDF fires for URLs that point at a PDF.
	SignalPDF Signal = "pdf"

	// SignalDomain fires when the host is, or is a subdomain of, any of the
	// rule's values.
	SignalDomain Signal = "domain"

	// SignalProgramTerm fires when the URL or title contains a program term:
	// the rule's values plus the distinctive words of the program query.
	SignalProgramTerm Signal = "program_term"

	// SignalSeed fires for manually supplied URLs.
	SignalSeed Signal = "seed"
)

// Rule is one declarative scoring rule. A rule contributes Weight (signed
// by Direction) at most once per candidate.
type Rule struct {
	Signal      Signal
	Values      []string
	Weight      float64
	Direction   Direction
	Description string
}

// DefaultRules is the built-in rule list.
var DefaultRules = []Rule{
	{Signal: SignalSeed, Weight: 100, Direction: Bonus, Description: "manually seeded URL"},
	{Signal: SignalPreferredDomain, Weight: 70, Direction: Bonus, Description: "official domain"},
	{Signal: SignalPathKeyword, Values: []string{"plan-de-estudios", "plan_de_estudios", "plan-estudios", "plan_estudios", "planestudios"}, Weight: 40, Direction: Bonus, Description: "study plan in path"},
	{Signal: SignalPathKeyword, Values: []string{"asignaturas", "asignatura", "subjects", "courses"}, Weight: 40, Direction: Bonus, Description: "course list in path"},
	{Signal: SignalPathKeyword, Values: []string{"guia-docente", "guia_docente", "guias-docentes", "syllabus", "curriculum"}, Weight: 40, Direction: Bonus, Description: "syllabus in path"},
	{Signal: SignalTextKeyword, Values: []string{"plan de estudios", "guia docente", "asignaturas", "study plan", "curriculum"}, Weight: 30, Direction: Bonus, Description: "curriculum wording in title"},
	{Signal: SignalPathKeyword, Values: []string{"ects", "creditos"}, Weight: 20, Direction: Bonus, Description: "credit marker in path"},
	{Signal: SignalPathKeyword, Values: []string{"plan"}, Weight: 15, Direction: Bonus, Description: "plan in path"},
	{Signal: SignalPDF, Weight: 25, Direction: Bonus, Description: "PDF document"},
	{Signal: SignalProgramTerm, Values: []string{"grado", "degree", "bachelor", "titulacion", "titulaciones", "informatica", "computacion"}, Weight: 20, Direction: Bonus, Description: "program term"},
	{Signal: SignalPathKeyword, Values: []string{"noticia", "noticias", "news", "actualidad", "prensa"}, Weight: 45, Direction: Penalty, Description: "news page"},
	{Signal: SignalPathKeyword, Values: []string{"evento", "eventos", "event", "events", "agenda"}, Weight: 25, Direction: Penalty, Description: "event page"},
	{Signal: SignalPathKeyword, Values: []string{"blog"}, Weight: 45, Direction: Penalty, Description: "blog page"},
	{Signal: SignalPathKeyword, Values: []string{"ranking", "rankings"}, Weight: 30, Direction: Penalty, Description: "ranking page"},
	{Signal: SignalPathKeyword, Values: []string{"login", "sso", "auth", "intranet", "moodle", "campus-virtual"}, Weight: 50, Direction: Penalty, Description: "login-gated page"},
	{Signal: SignalDomain, Values: []string{"facebook.com", "twitter.com", "x.com", "tiktok.com", "instagram.com", "linkedin.com", "youtube.com"}, Weight: 100, Direction: Penalty, Description: "social media"},
}

// candidate is the normalized view of a URL the rules inspect.
type candidate struct {
	host       string
	path       string
	pathTokens map[string]bool
	text       string
	textTokens map[string]bool
	isPDF      bool
	seed       bool
}

// tokenSet splits folded text on anything that is not a letter or digit.
func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		set[t] = true
	}
	return set
}

// containsValue matches a single word against whole tokens and anything
// with separators ("plan-de-estudios", "campus-virtual") as a substring, so that
// "ects" does not fire inside "projects".
func containsValue(s string, tokens map[string]bool, v string) bool {
	if strings.IndexFunc(v, func(r rune) bool { return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') }) == -1 {
		return tokens[v]
	}
	return strings.Contains(s, v)
}

func newCandidate(rawURL, title, snippet string, seed bool) (candidate, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return candidate{}, err
	}
	if u.Host == "" {
		return candidate{}, fmt.Errorf("URL %q has no host", rawURL)
	}
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	folded := textutil.Fold(path)
	text := textutil.Fold(title + " " + snippet)
	return candidate{
		host:       strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
		path:       folded,
		pathTokens: tokenSet(folded),
		text:       text,
		textTokens: tokenSet(text),
		isPDF:      strings.HasSuffix(strings.ToLower(u.Path), ".pdf"),
		seed:       seed,
	}, nil
}

func hostMatches(host, domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
	return domain != "" && (host == domain || strings.HasSuffix(host, "."+domain))
}

// evaluate reports whether r fires for c and which value triggered it.
func (r Rule) evaluate(c candidate, target types.Target, programTerms []string) (bool, string) {
	switch r.Signal {
	case SignalSeed:
		return c.seed, ""
	case SignalPDF:
		return c.isPDF, ""
	case SignalPreferredDomain:
		for _, d := range target.PreferredDomains {
			if hostMatches(c.host, d) {
				return true, d
			}
		}
	case SignalDomain:
		for _, d := range r.Values {
			if hostMatches(c.host, d) {
				return true, d
			}
		}
	case SignalPathKeyword:
		for _, v := range r.Values {
			if containsValue(c.path, c.pathTokens, v) {
				return true, v
			}
		}
	case SignalTextKeyword:
		for _, v := range r.Values {
			if containsValue(c.text, c.textTokens, v) {
				return true, v
			}
		}
	case SignalProgramTerm:
		for _, v := range append(append([]string{}, r.Values...), programTerms...) {
			if containsValue(c.path, c.pathTokens, v) || containsValue(c.text, c.textTokens, v) {
				return true, v
			}
		}
	}
	return false, ""
}

// genericQueryWords are program query words too common to signal relevance.
var genericQueryWords = map[string]bool{
	"plan": true, "estudios": true, "grado": true, "universidad": true, "programa": true,
	"study": true, "studies": true, "university": true, "degree": true,
}

// programTerms returns the distinctive words of a program query.
func programTerms(query string) []string {
	var terms []string
	for _, w := range strings.FieldsFunc(textutil.Fold(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if len(w) >= 5 && !genericQueryWords[w] {
			terms = append(terms, w)
		}
	}
	return terms
}

// Score applies rules to one URL and returns the total with signed reasons.
func Score(rules []Rule, target types.Target, rawURL, title, snippet string, seed bool) (score float64, reasons, penalties []string, isPDF bool, err error) {
	c, err := newCandidate(rawURL, title, snippet, seed)
	if err != nil {
		return 0, nil, nil, false, err
	}
	terms := programTerms(target.ProgramQuery)
	for _, r := range rules {
		ok, value := r.evaluate(c, target, terms)
		if !ok {
			continue
		}
		desc := r.Description
		if value != "" {
			desc += " (" + value + ")"
		}
		if r.Direction == Penalty {
			score -= r.Weight
			penalties = append(penalties, fmt.Sprintf("-%g %s", r.Weight, desc))
			continue
		}
		score += r.Weight
		reasons = append(reasons, fmt.Sprintf("+%g %s", r.Weight, desc))
	}
	return score, reasons, penalties, c.isPDF, nil
}
