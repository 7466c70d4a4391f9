// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

const judgeSystemPrompt = `You compare university courses for credit transfer. You answer only with a JSON object.`

const summarySystemPrompt = `You advise a student choosing a university to transfer to. Write plain prose without headings.`

var judgePromptTmpl = template.Must(template.New("judge").Parse(`Decide whether a course from the student's current degree is covered by a line from the curriculum of a target university. The line may be in another language and may include codes, credits or hours.

Course: {{.Course}}
Candidate line: {{.Line}}

Surrounding lines from the same document:
{{.Excerpt}}

Respond with a JSON object with these fields:
- match: true if the candidate line is the same subject as the course, false otherwise
- confidence: a float between 0.0 and 1.0
- justification: one sentence explaining the decision

Example response:
{"match": true, "confidence": 0.85, "justification": "Both cover introductory data structures and algorithm analysis."}
`))

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Write a recommendation of three short paragraphs for the ranking below. Name the best option and why, what the runner-up trades off, and any data gaps the student should check by hand (rows marked NO SOURCES or DEGRADED, LOW confidence scores).

Weights: match {{.Weights.Match}}, prestige {{.Weights.Prestige}}, cost {{.Weights.Cost}}

{{range .Results}}{{.Rank}}. {{.University}}{{if .City}} ({{.City}}){{end}}: final {{printf "%.2f" .FinalScore}}, curriculum match {{printf "%.2f" .MatchPct}}%, prestige {{printf "%.0f" .Prestige.Score}} ({{.Prestige.Confidence}}), cost score {{printf "%.0f" .Cost.Score}} ({{.Cost.Confidence}}){{if .MonthlyCost}}, about {{printf "%.0f" .MonthlyCost}} per month{{end}}{{if .NoSources}}, NO SOURCES{{end}}{{if .DegradedMatching}}, DEGRADED{{end}}
{{end}}`))

func renderJudgePrompt(course, line, excerpt string) (string, error) {
	var buf bytes.Buffer
	err := judgePromptTmpl.Execute(&buf, struct{ Course, Line, Excerpt string }{course, line, excerpt})
	return buf.String(), err
}

func renderSummaryPrompt(r types.Ranking) (string, error) {
	var buf bytes.Buffer
	err := summaryPromptTmpl.Execute(&buf, r)
	return buf.String(), err
}
