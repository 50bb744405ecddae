// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebatch/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the pipeline branch selected by the configured run mode",
	Long: `Run executes whichever branch the run_mode setting selects:
convert_only, merge_only, convert_then_merge (the default), or
collect_only. This is the one-command entry point for configured,
repeated batches; the convert, merge, and collect subcommands run a
single branch with flag overrides.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.RunMode = types.RunMode(v)
	}

	ctx, stop := commandContext()
	defer stop()

	switch cfg.RunMode {
	case types.ModeConvertOnly:
		if err := requireSource(cfg); err != nil {
			return err
		}
		return runConversion(ctx, cfg, os.Stdout)

	case types.ModeMergeOnly:
		return runMerge(ctx, cfg, os.Stdout)

	case types.ModeConvertThenMerge:
		if err := requireSource(cfg); err != nil {
			return err
		}
		if err := runConversion(ctx, cfg, os.Stdout); err != nil {
			return err
		}
		if !cfg.EnableMerge {
			return nil
		}
		return runMerge(ctx, cfg, os.Stdout)

	case types.ModeCollectOnly:
		if err := requireSource(cfg); err != nil {
			return err
		}
		return runCollect(ctx, cfg, os.Stdout)
	}
	return fmt.Errorf("unknown run mode %q", cfg.RunMode)
}

func init() {
	runCmd.Flags().String("source", "", "source folder to scan")
	runCmd.Flags().String("target", "", "target folder for pipeline output")
	runCmd.Flags().String("mode", "", "run mode: convert_only, merge_only, convert_then_merge, or collect_only")

	rootCmd.AddCommand(runCmd)
}
