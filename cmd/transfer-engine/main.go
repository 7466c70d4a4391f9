// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the transfer-engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/config"
	"github.com/pdiddy/transfer-engine/internal/logger"
	"github.com/pdiddy/transfer-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	log = zap.NewNop()
)

// rootCmd is the base command for the transfer-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "transfer-engine",
	Short: "Rank candidate universities for a degree transfer",
	Long: `transfer-engine evaluates the universities listed in a mission file for a
student who wants to transfer. For each university it discovers official
curriculum pages, extracts course lines, matches them against the student's
current curriculum, estimates prestige and living cost, and ranks the
universities with the mission's weights.

Every stage writes an evidence artifact under the artifacts directory and is
reused on later runs unless a refresh flag is given. The stage subcommands
(discover, extract, match, estimate, rank) run the pipeline up to that stage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(viper.GetBool("log_json"), viper.GetBool("debug"))
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		log = l

		s, err := secrets.Load(".secrets/", log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./transfer-engine.yaml or ~/.config/transfer-engine/config.yaml)")
	pf.StringP("mission", "m", "mission.yaml", "mission file")
	pf.String("artifacts-dir", "", "evidence store directory (default artifacts)")
	pf.StringSliceP("university", "u", nil, "only process these universities (name or slug, repeatable)")
	pf.Bool("json", false, "print results as JSON")
	pf.Bool("debug", false, "enable debug logging")
	pf.Bool("log-json", false, "write logs as JSON")

	pf.Bool("refresh", false, "recompute every stage and refetch every document")
	pf.Bool("refresh-discovery", false, "recompute discovery")
	pf.Bool("refresh-matching", false, "refetch sources and recompute matching")
	pf.Bool("refresh-cost", false, "recompute living cost")
	pf.Bool("refresh-prestige", false, "recompute prestige")
	pf.Int("limit", 0, "process at most N universities (0 means all)")
	pf.Int("concurrency", 0, "universities processed at once (default 2)")
	pf.String("ai-provider", "", "semantic provider: none, gemini, claude or ollama")

	for key, flag := range map[string]string{
		"mission":               "mission",
		"artifacts_dir":         "artifacts-dir",
		"debug":                 "debug",
		"log_json":              "log-json",
		"json":                  "json",
		"run.refresh_all":       "refresh",
		"run.refresh_discovery": "refresh-discovery",
		"run.refresh_matching":  "refresh-matching",
		"run.refresh_cost":      "refresh-cost",
		"run.refresh_prestige":  "refresh-prestige",
		"run.limit":             "limit",
		"run.concurrency":       "concurrency",
		"ai.provider":           "ai-provider",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("transfer-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "transfer-engine"))
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
