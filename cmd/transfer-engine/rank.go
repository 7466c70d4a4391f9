// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/internal/pipeline"
	"github.com/pdiddy/transfer-engine/internal/report"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank universities from stored artifacts",
	Long: `Rank rebuilds the ranking from the artifacts of a previous run without any
network activity. The weights flags override the mission preferences, which
makes it cheap to explore how the ranking reacts to different priorities.
Every stage artifact must already exist for each selected university.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().Float64("weight-match", -1, "curriculum match weight (default from mission)")
	rankCmd.Flags().Float64("weight-prestige", -1, "prestige weight (default from mission)")
	rankCmd.Flags().Float64("weight-cost", -1, "living cost weight (default from mission)")
	rankCmd.Flags().Bool("write", false, "write ranking and recommendation files")
	rankCmd.Flags().Bool("narrative", false, "ask the semantic provider for the recommendation text")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, targets, err := loadMission(cmd, cfg)
	if err != nil {
		return err
	}

	weights := m.Profile.Preferences
	for flag, w := range map[string]*float64{
		"weight-match":    &weights.Match,
		"weight-prestige": &weights.Prestige,
		"weight-cost":     &weights.Cost,
	} {
		if v, _ := cmd.Flags().GetFloat64(flag); v >= 0 {
			*w = v
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ranking, err := pipeline.FromArtifacts(store, m, targets, weights)
	if err != nil {
		return fmt.Errorf("%w (run the pipeline first)", err)
	}

	var written []string
	if write, _ := cmd.Flags().GetBool("write"); write {
		var s report.Summarizer
		if narrative, _ := cmd.Flags().GetBool("narrative"); narrative {
			_, s = pipeline.NewArbiter(ctx, cfg.AI, &http.Client{Timeout: cfg.AI.Timeout}, log)
		}
		written, err = pipeline.Publish(ctx, store, ranking, s, log)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return report.FormatJSON(ranking, out)
	}
	report.FormatTable(ranking, out)
	for _, name := range written {
		fmt.Fprintf(out, "%s %s\n", color.GreenString("wrote"), store.ReportPath(name))
	}
	return nil
}
