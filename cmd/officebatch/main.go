// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the officebatch CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/officebatch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the officebatch CLI.
var rootCmd = &cobra.Command{
	Use:   "officebatch",
	Short: "Batch office-document conversion, merging, and deduplication",
	Long: `officebatch drives an external office suite (LibreOffice or WPS) to
convert trees of Word, Excel, and PowerPoint documents to PDF, then merges
the results into size-bounded volumes. A separate collect branch
deduplicates a document tree by content and writes an index workbook.

Each pipeline branch is a subcommand: convert, merge, and collect. The run
subcommand executes the branch selected by the configured run mode.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./officebatch.yaml or ~/.config/officebatch/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("officebatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "officebatch"))
		}
	}

	viper.SetEnvPrefix("OFFICEBATCH")
	viper.AutomaticEnv()

	// Booleans that default to on; everything else defaults in ApplyDefaults.
	viper.SetDefault("enable_sandbox", true)
	viper.SetDefault("enable_merge", true)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig materializes the effective Config: file and environment values
// via viper, then the source/target flag overrides, then defaults.
func loadConfig(cmd *cobra.Command) (*types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("source"); v != "" {
		cfg.SourceFolder = v
	}
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		cfg.TargetFolder = v
	}

	cfg.ApplyDefaults()

	if cfg.TargetFolder == "" {
		return nil, errors.New("target folder required: set --target or target_folder in the config file")
	}
	return &cfg, nil
}

// requireSource rejects configs without a source folder; the merge branch
// does not need one, every other branch does.
func requireSource(cfg *types.Config) error {
	if cfg.SourceFolder == "" {
		return errors.New("source folder required: set --source or source_folder in the config file")
	}
	return nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM, so a batch
// stops at the next file boundary instead of mid-conversion.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
