// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebatch/internal/collect"
	"github.com/pdiddy/officebatch/internal/report"
	"github.com/pdiddy/officebatch/internal/scan"
	"github.com/pdiddy/officebatch/pkg/types"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Deduplicate office documents and write an index workbook",
	Long: `Collect scans the source tree for office documents (PDFs excluded),
groups byte-identical files by size and content hash, and writes an index
workbook listing unique files and duplicates with hyperlinks.

By default each unique file is also copied to the target, preserving its
source-relative path; --index-only writes the report without copying.`,
	RunE: runCollectCmd,
}

func runCollectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireSource(cfg); err != nil {
		return err
	}
	if indexOnly, _ := cmd.Flags().GetBool("index-only"); indexOnly {
		cfg.CollectMode = types.CollectIndexOnly
	}

	ctx, stop := commandContext()
	defer stop()

	return runCollect(ctx, cfg, os.Stdout)
}

// runCollect executes the collect branch; shared by the collect and run
// subcommands.
func runCollect(ctx context.Context, cfg *types.Config, out io.Writer) error {
	items, err := scan.Scan(cfg.SourceFolder, cfg.AllowedExtensions.Office(), cfg.ExcludedFolders)
	if err != nil {
		if errors.Is(err, scan.ErrSourceNotFound) {
			fmt.Fprintf(out, "source folder %s does not exist; nothing to collect\n", cfg.SourceFolder)
			return nil
		}
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no office documents found")
		return nil
	}
	fmt.Fprintf(out, "found %d document(s) under %s\n", len(items), cfg.SourceFolder)

	res, err := collect.Dedupe(ctx, items, cfg.SourceFolder, cfg.TargetFolder)
	if err != nil {
		return err
	}

	copyMode := cfg.CollectMode == types.CollectCopyAndIndex
	if err := os.MkdirAll(cfg.TargetFolder, 0o755); err != nil {
		return fmt.Errorf("creating target folder: %w", err)
	}
	if copyMode {
		collect.CopyUnique(ctx, &res, out)
	}

	indexPath := report.IndexPath(cfg.TargetFolder, time.Now())
	if err := report.WriteIndex(indexPath, res.Unique, res.Duplicates, copyMode); err != nil {
		return err
	}

	fmt.Fprintf(out, "collect complete: %d total, %d unique, %d duplicate(s)",
		res.Total, len(res.Unique), len(res.Duplicates))
	if copyMode {
		fmt.Fprintf(out, ", %d copied", res.Copied)
	}
	fmt.Fprintf(out, "\nindex written to %s\n", indexPath)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func init() {
	collectCmd.Flags().String("source", "", "source folder to scan")
	collectCmd.Flags().String("target", "", "target folder for copies and the index workbook")
	collectCmd.Flags().Bool("index-only", false, "write the index without copying files")

	rootCmd.AddCommand(collectCmd)
}
