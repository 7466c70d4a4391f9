// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/pipeline"
	"github.com/pdiddy/transfer-engine/internal/report"
)

var errAborted = errors.New("aborted")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate and rank every university in the mission",
	Long: `Run executes the full pipeline for each university (discovery, source
extraction, curriculum matching, living cost and prestige), aggregates the
scores with the mission weights and writes ranking.json, ranking.csv,
recommendation.md and recommendation.docx to the artifacts directory.

Stages with a stored artifact are reused. Use --refresh to recompute
everything or one of the --refresh-* flags to recompute a single stage.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before a full refresh")
	runCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	yes, _ := cmd.Flags().GetBool("yes")
	if viper.GetBool("run.refresh_all") && !yes {
		if err := confirm("Refresh every stage and refetch all documents"); err != nil {
			return err
		}
	}

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	var bar *progressbar.ProgressBar
	var onStage pipeline.StageFunc
	if !noProgress && !viper.GetBool("json") {
		onStage = func(string, evidence.Stage, bool) {
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	a, err := newApp(ctx, cmd, onStage)
	if err != nil {
		return err
	}
	defer a.Close()

	if onStage != nil {
		bar = getProgressBar(len(a.targets)*len(evidence.Stages), "Evaluating universities")
	}

	ranking, err := a.pipeline.Run(ctx, a.targets)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	written, err := pipeline.Publish(ctx, a.store, ranking, a.summarizer, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return report.FormatJSON(ranking, out)
	}
	report.FormatTable(ranking, out)
	fmt.Fprintln(out)
	for _, name := range written {
		fmt.Fprintf(out, "%s %s\n", color.GreenString("wrote"), a.store.ReportPath(name))
	}
	return nil
}

// confirm asks a yes/no question. Anything but yes aborts.
func confirm(label string) error {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return errAborted
		}
		return fmt.Errorf("confirmation: %w", err)
	}
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("stages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
