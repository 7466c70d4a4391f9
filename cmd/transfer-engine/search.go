// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transfer-engine/internal/discovery"
	"github.com/pdiddy/transfer-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Run raw web searches without scoring",
	Long: `Search sends a query to the configured search backends and prints the
merged, deduplicated hits. With no text it issues the discovery queries of
every selected university instead. Nothing is cached or scored.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("country", "es", "result country")
	searchCmd.Flags().String("language", "es", "result language")
	searchCmd.Flags().StringSlice("site", nil, "restrict to domains (repeatable)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backends := searchBackends(cfg.Search)
	if len(backends) == 0 {
		return fmt.Errorf("no search backends configured")
	}

	var queries []search.Query
	if len(args) > 0 {
		q := search.Query{Text: strings.Join(args, " ")}
		q.Country, _ = cmd.Flags().GetString("country")
		q.Language, _ = cmd.Flags().GetString("language")
		q.Sites, _ = cmd.Flags().GetStringSlice("site")
		queries = append(queries, q)
	} else {
		_, targets, err := loadMission(cmd, cfg)
		if err != nil {
			return err
		}
		for _, t := range targets {
			queries = append(queries, discovery.Queries(t)...)
		}
	}

	out := cmd.OutOrStdout()
	for _, q := range queries {
		res, err := search.Search(cmd.Context(), q, backends, cfg.Search, log)
		if err != nil {
			return err
		}
		if viper.GetBool("json") {
			if err := search.FormatJSON(res, out); err != nil {
				return err
			}
			continue
		}
		printHeading(out, q.WithSites())
		search.FormatTable(res, out)
		for _, e := range res.BackendErrors {
			fmt.Fprintf(out, "backend error: %s\n", e)
		}
	}
	return nil
}
