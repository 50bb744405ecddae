// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebatch/internal/merge"
	"github.com/pdiddy/officebatch/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge converted PDFs under the target into volumes",
	Long: `Merge collects every PDF artifact under the target folder (quarantine
and previous merge output excluded) and assembles volumes under _MERGED.
category_split packs each category prefix into volumes capped at the
configured size; all_in_one produces a single combined volume.`,
	RunE: runMergeCmd,
}

func runMergeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.MergeMode = types.MergeMode(v)
	}
	if v, _ := cmd.Flags().GetInt64("max-size-mb"); v > 0 {
		cfg.MaxMergeSizeMB = v
	}

	ctx, stop := commandContext()
	defer stop()

	return runMerge(ctx, cfg, os.Stdout)
}

// runMerge executes the merge branch; shared by the merge and run
// subcommands.
func runMerge(ctx context.Context, cfg *types.Config, out io.Writer) error {
	eng := merge.New(cfg.TargetFolder, cfg.MaxMergeBytes(), out)
	_, err := eng.Run(ctx, cfg.MergeMode)
	return err
}

func init() {
	mergeCmd.Flags().String("target", "", "target folder holding converted PDFs")
	mergeCmd.Flags().String("mode", "", "merge mode: category_split or all_in_one")
	mergeCmd.Flags().Int64("max-size-mb", 0, "per-volume size cap in MB")

	rootCmd.AddCommand(mergeCmd)
}
