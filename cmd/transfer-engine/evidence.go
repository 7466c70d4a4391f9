// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/textutil"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Inspect or clear the evidence store",
	Long: `Evidence works on the store that holds cached documents, stage artifacts
and the extracted-line index shared by all runs.`,
}

var evidenceSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search extracted lines",
	Long: `Search finds extracted lines containing every word of text (accent and
case insensitive), optionally limited to one university or to course-like
lines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEvidenceSearch,
}

var evidenceArtifactsCmd = &cobra.Command{
	Use:   "artifacts <university>...",
	Short: "List stored stage artifacts for universities",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEvidenceArtifacts,
}

var evidencePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached document and artifact",
	RunE:  runEvidencePurge,
}

func init() {
	evidenceSearchCmd.Flags().String("in", "", "limit to one university (name or slug)")
	evidenceSearchCmd.Flags().Bool("course-like", false, "only course-like lines")
	evidenceSearchCmd.Flags().Int("max-results", 20, "maximum number of lines")
	evidencePurgeCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	evidenceCmd.AddCommand(evidenceSearchCmd, evidenceArtifactsCmd, evidencePurgeCmd)
	rootCmd.AddCommand(evidenceCmd)
}

func openConfiguredStore() (*evidence.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func runEvidenceSearch(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	q := evidence.LineQuery{Text: strings.Join(args, " ")}
	if in, _ := cmd.Flags().GetString("in"); in != "" {
		q.Slug = textutil.Slug(in)
	}
	q.CourseLikeOnly, _ = cmd.Flags().GetBool("course-like")
	q.MaxResults, _ = cmd.Flags().GetInt("max-results")

	hits, err := store.SearchLines(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, hits)
	}
	if len(hits) == 0 {
		fmt.Fprintln(out, "No lines found.")
		return nil
	}
	for _, h := range hits {
		mark := " "
		if h.IsCourseLike {
			mark = color.GreenString("+")
		}
		fmt.Fprintf(out, "%s %-30s %s\n", mark, textutil.Truncate(h.Slug, 30), h.RawText)
		fmt.Fprintf(out, "  %-30s %s#%d (%s)\n", "", h.SourceURL, h.LineIndex, h.ClassificationReason)
	}
	return nil
}

func runEvidenceArtifacts(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var all []evidence.ArtifactInfo
	for _, name := range args {
		infos, err := store.Artifacts(textutil.Slug(name))
		if err != nil {
			return err
		}
		all = append(all, infos...)
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("json") {
		return writeJSON(out, all)
	}
	if len(all) == 0 {
		fmt.Fprintln(out, "No artifacts stored.")
		return nil
	}
	for _, a := range all {
		fmt.Fprintf(out, "%-40s %-12s %s  %s  %s\n",
			textutil.Truncate(a.Slug, 40), a.Stage, a.WrittenAt.Format("2006-01-02 15:04"), textutil.Truncate(a.SHA256, 12), a.Ref)
	}
	return nil
}

func runEvidencePurge(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if err := confirm(fmt.Sprintf("Delete everything under %s", store.Root())); err != nil {
			return err
		}
	}
	if err := store.Purge(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.YellowString("purged"), store.Root())
	return nil
}
