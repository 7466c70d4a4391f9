// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find and score candidate curriculum URLs",
	Long: `Discover searches for each university's curriculum pages, scores every
candidate with the discovery rules and selects the best ones above the
threshold. Every candidate is printed with the reasons behind its score.`,
	RunE: runDiscover,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch selected sources and extract course lines",
	Long: `Extract fetches every selected discovery URL (through the evidence cache),
flattens HTML and PDF documents into lines and classifies each line as
course-like or not. Per-source telemetry is printed.`,
	RunE: runExtract,
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match the current curriculum against extracted course lines",
	Long: `Match scores each course of the current curriculum against the extracted
course lines. Clear matches are accepted automatically, ambiguous ones are
sent to the configured semantic provider, and the rest are unmatched.`,
	RunE: runMatch,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate living cost and prestige",
	Long: `Estimate computes the living-cost breakdown for each university's city and
its prestige score, each with sources and a confidence level.`,
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(discoverCmd, extractCmd, matchCmd, estimateCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var arts []types.DiscoveryArtifact
	err = eachTarget(a, func(t types.Target) error {
		art, err := a.pipeline.Discovery(ctx, t)
		if err != nil {
			return err
		}
		arts = append(arts, art)
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, arts)
	}
	for _, art := range arts {
		printHeading(out, art.University)
		if art.NoSources {
			fmt.Fprintln(out, color.RedString("NO SOURCES: no candidate cleared the threshold"))
		}
		for _, c := range art.Candidates {
			mark := " "
			if c.Selected {
				mark = color.GreenString("*")
			}
			fmt.Fprintf(out, "%s %6.1f  %s\n", mark, c.Score, c.URL)
			reasons := slices.Concat(c.Reasons, c.PenaltyReasons)
			if len(reasons) > 0 {
				fmt.Fprintf(out, "          %s\n", strings.Join(reasons, "; "))
			}
			if c.Rejection != "" {
				fmt.Fprintf(out, "          rejected: %s\n", c.Rejection)
			}
		}
		for _, e := range art.Errors {
			fmt.Fprintf(out, "%s %s\n", color.YellowString("search error:"), e)
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var arts []types.SourcesArtifact
	err = eachTarget(a, func(t types.Target) error {
		disc, err := a.pipeline.Discovery(ctx, t)
		if err != nil {
			return err
		}
		art, err := a.pipeline.Sources(ctx, t, disc)
		if err != nil {
			return err
		}
		arts = append(arts, art)
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, arts)
	}
	for _, art := range arts {
		printHeading(out, art.University)
		if len(art.Sources) == 0 {
			fmt.Fprintln(out, "no sources selected")
		}
		for _, s := range art.Sources {
			status := fmt.Sprintf("%d lines, %d course-like", s.LinesTotal, s.LinesCourseLike)
			if s.Error != "" {
				status = color.RedString("error: %s", s.Error)
			}
			cached := ""
			if s.Cached {
				cached = " (cached)"
			}
			fmt.Fprintf(out, "%-4s %s%s\n     %s\n", s.DocType, s.URL, cached, status)
		}
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var arts []types.MatchArtifact
	err = eachTarget(a, func(t types.Target) error {
		disc, err := a.pipeline.Discovery(ctx, t)
		if err != nil {
			return err
		}
		sources, err := a.pipeline.Sources(ctx, t, disc)
		if err != nil {
			return err
		}
		art, err := a.pipeline.Matches(ctx, t, disc, sources)
		if err != nil {
			return err
		}
		arts = append(arts, art)
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, arts)
	}
	for _, art := range arts {
		printHeading(out, art.University)
		fmt.Fprintf(out, "match %.2f%% (%d/%d), arbiter %s\n", art.MatchPct, art.Matched, art.Total, art.Arbiter)
		if art.Degraded {
			fmt.Fprintln(out, color.RedString("DEGRADED: %s", art.DegradedReason))
		}
		for _, r := range art.Records {
			res := string(r.Resolution)
			if r.Matched() {
				res = color.GreenString("%s", res)
			}
			fmt.Fprintf(out, "  %-14s %6.2f  %-30s %s\n", res, r.SimilarityScore,
				textutil.Truncate(r.CourseName, 30), textutil.Truncate(r.MatchedLine, 60))
			if r.Notes != "" {
				fmt.Fprintf(out, "  %14s         %s\n", "", r.Notes)
			}
		}
	}
	return nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	type estimateRow struct {
		University string                   `json:"university"`
		LivingCost types.LivingCostArtifact `json:"living_cost"`
		Prestige   types.PrestigeArtifact   `json:"prestige"`
	}
	var rows []estimateRow
	err = eachTarget(a, func(t types.Target) error {
		living, err := a.pipeline.LivingCost(ctx, t)
		if err != nil {
			return err
		}
		prestige, err := a.pipeline.PrestigeScore(ctx, t)
		if err != nil {
			return err
		}
		rows = append(rows, estimateRow{University: t.Name, LivingCost: living, Prestige: prestige})
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, rows)
	}
	for _, r := range rows {
		printHeading(out, r.University)
		b := r.LivingCost.Breakdown
		fmt.Fprintf(out, "cost     %5.1f %-6s monthly %.0f-%.0f %s (%s)\n",
			r.LivingCost.Score.Score, r.LivingCost.Score.Confidence, b.TotalMin, b.TotalMax, b.Currency, b.Source)
		for _, cat := range types.CostCategories {
			c := b.Components[cat]
			fmt.Fprintf(out, "  %-10s %7.0f-%-7.0f\n", cat, c.Min, c.Max)
		}
		p := r.Prestige.Score
		fmt.Fprintf(out, "prestige %5.1f %-6s %s\n", p.Score, p.Confidence, strings.Join(p.Sources, "; "))
	}
	return nil
}

func printHeading(w io.Writer, s string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(s))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
