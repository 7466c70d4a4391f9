// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ranking for people: a terminal table, JSON,
// CSV, and a recommendation document in Markdown and DOCX.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Flags returns the warning labels for a result row.
func Flags(r types.UniversityResult) []string {
	var flags []string
	if r.NoSources {
		flags = append(flags, "NO SOURCES")
	}
	if r.DegradedMatching {
		flags = append(flags, "DEGRADED")
	}
	if n := len(r.Errors); n > 0 {
		flags = append(flags, fmt.Sprintf("ERRORS(%d)", n))
	}
	return flags
}

// FormatTable writes the ranking as an aligned table. The winner is
// highlighted and flagged rows are shown in red when w is a terminal.
func FormatTable(r types.Ranking, w io.Writer) {
	if len(r.Results) == 0 {
		fmt.Fprintln(w, "No universities ranked.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-40s  %6s  %6s  %8s  %4s  %8s  %s\n",
		"Rank", "University", "Final", "Match%", "Prestige", "Cost", "Monthly", "Flags")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	winner := color.New(color.FgGreen, color.Bold).SprintFunc()
	warn := color.New(color.FgRed).SprintFunc()

	for _, res := range r.Results {
		name := res.University
		if utf8.RuneCountInString(name) > 40 {
			name = textutil.Truncate(name, 37)
		}
		flags := Flags(res)
		line := fmt.Sprintf("%-4d  %-40s  %6.2f  %6.2f  %8.0f  %4.0f  %8.0f  %s",
			res.Rank, name, res.FinalScore, res.MatchPct, res.Prestige.Score, res.Cost.Score,
			res.MonthlyCost, strings.Join(flags, ","))
		switch {
		case len(flags) > 0:
			line = warn(line)
		case res.Rank == 1:
			line = winner(line)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nweights: match %.2f, prestige %.2f, cost %.2f\n",
		r.Weights.Match, r.Weights.Prestige, r.Weights.Cost)
}

// FormatJSON writes the ranking as indented JSON to w.
func FormatJSON(r types.Ranking, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var csvHeader = []string{
	"rank", "university", "city", "final_score", "match_pct",
	"prestige_score", "prestige_confidence", "cost_score", "cost_confidence",
	"monthly_cost", "no_sources", "degraded_matching", "notes",
}

// WriteCSV writes one row per university, in rank order.
func WriteCSV(r types.Ranking, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, res := range r.Results {
		row := []string{
			strconv.Itoa(res.Rank),
			res.University,
			res.City,
			formatFloat(res.FinalScore),
			formatFloat(res.MatchPct),
			formatFloat(res.Prestige.Score),
			string(res.Prestige.Confidence),
			formatFloat(res.Cost.Score),
			string(res.Cost.Confidence),
			formatFloat(res.MonthlyCost),
			strconv.FormatBool(res.NoSources),
			strconv.FormatBool(res.DegradedMatching),
			res.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", res.University, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
