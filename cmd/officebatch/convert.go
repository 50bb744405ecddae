// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebatch/internal/content"
	"github.com/pdiddy/officebatch/internal/engine"
	"github.com/pdiddy/officebatch/internal/ledger"
	"github.com/pdiddy/officebatch/internal/proc"
	"github.com/pdiddy/officebatch/internal/quarantine"
	"github.com/pdiddy/officebatch/internal/scan"
	"github.com/pdiddy/officebatch/internal/supervise"
	"github.com/pdiddy/officebatch/internal/target"
	"github.com/pdiddy/officebatch/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert office documents under the source tree to PDF",
	Long: `Convert walks the source tree, classifies files by extension, and
converts each one to PDF through the configured office suite. Failed and
timed-out inputs are copied to the _FAILED_FILES quarantine folder under
the target; an optional retry pass reprocesses them.

Existing PDFs are copied rather than converted. Keyword strategies tag
matching outputs with the priority prefix or restrict processing to
matching files.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireSource(cfg); err != nil {
		return err
	}
	applyConvertFlags(cmd, cfg)

	ctx, stop := commandContext()
	defer stop()

	return runConversion(ctx, cfg, os.Stdout)
}

// applyConvertFlags layers the convert-specific flag overrides onto cfg.
func applyConvertFlags(cmd *cobra.Command, cfg *types.Config) {
	if v, _ := cmd.Flags().GetString("strategy"); v != "" {
		cfg.ContentStrategy = types.ContentStrategy(v)
	}
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Engine = types.EngineFamily(v)
	}
	if v, _ := cmd.Flags().GetString("process-policy"); v != "" {
		cfg.ProcessPolicy = types.ProcessPolicy(v)
	}
	if cmd.Flags().Changed("retry") {
		cfg.AutoRetryFailed, _ = cmd.Flags().GetBool("retry")
	}
	if cmd.Flags().Changed("no-sandbox") {
		noSandbox, _ := cmd.Flags().GetBool("no-sandbox")
		cfg.EnableSandbox = !noSandbox
	}
}

// runConversion executes the full conversion branch: scan, engine setup,
// supervised batch, optional retry pass, manifest, and ledger record. It is
// shared by the convert and run subcommands.
func runConversion(ctx context.Context, cfg *types.Config, out io.Writer) error {
	started := time.Now()

	items, err := scan.Scan(cfg.SourceFolder, cfg.AllowedExtensions, cfg.ExcludedFolders)
	if err != nil {
		if errors.Is(err, scan.ErrSourceNotFound) {
			fmt.Fprintf(out, "source folder %s does not exist; nothing to convert\n", cfg.SourceFolder)
			return nil
		}
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "no matching documents found")
		return nil
	}
	fmt.Fprintf(out, "found %d document(s) under %s\n", len(items), cfg.SourceFolder)

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "using %s engine\n", eng.Family())

	cleaner := proc.NewCleaner(cfg.ProcessPolicy, eng.ProcessNames())
	if err := settleProcesses(ctx, cfg.ProcessPolicy, cleaner, out); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.TargetFolder, 0o755); err != nil {
		return fmt.Errorf("creating target folder: %w", err)
	}
	q, err := quarantine.New(cfg.TargetFolder)
	if err != nil {
		return err
	}

	sup, err := supervise.New(cfg, eng, target.NewResolver(cfg.TargetFolder), q, cleaner, content.DocScanner{}, out)
	if err != nil {
		return err
	}
	defer sup.Close()

	store, runID := openLedger(ctx, cfg, string(eng.Family()))
	if store != nil {
		defer store.Close()
		sup.Record = func(item types.WorkItem, o types.Outcome) {
			// Ledger rows key on the input file, not the artifact.
			o.Path = item.Path
			if err := store.RecordOutcome(ctx, runID, o); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	}

	sup.RunBatch(ctx, items, false)

	if cfg.AutoRetryFailed && sup.Stats.Unresolved() > 0 && ctx.Err() == nil {
		retryItems, err := q.Retryable(cfg.AllowedExtensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		} else if len(retryItems) > 0 {
			fmt.Fprintf(out, "\nretrying %d quarantined file(s)\n", len(retryItems))
			// The retry pass starts against a fresh engine instance.
			cleaner.KillAll(ctx)
			sup.RunBatch(ctx, retryItems, true)
		}
	}

	if _, err := supervise.WriteManifest(cfg.TargetFolder, supervise.Manifest{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Mode:       cfg.RunMode,
		Engine:     string(eng.Family()),
		Source:     cfg.SourceFolder,
		Target:     cfg.TargetFolder,
		Strategy:   cfg.ContentStrategy,
		Stats:      sup.Stats,
		Failures:   sup.Errors,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	closeLedger(ctx, store, runID, sup.Stats)
	printSummary(out, sup.Stats, time.Since(started))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// settleProcesses enforces the process policy before the batch starts.
func settleProcesses(ctx context.Context, policy types.ProcessPolicy, cleaner *proc.Cleaner, out io.Writer) error {
	switch policy {
	case types.PolicyKeep:
		return nil
	case types.PolicyAsk:
		if running := cleaner.Running(ctx); len(running) > 0 {
			return fmt.Errorf("engine processes still running: %s; close them or use --process-policy auto",
				strings.Join(running, ", "))
		}
		return nil
	default:
		if running := cleaner.Running(ctx); len(running) > 0 {
			fmt.Fprintf(out, "terminating leftover engine processes: %s\n", strings.Join(running, ", "))
			cleaner.KillAll(ctx)
		}
		return nil
	}
}

// openLedger opens the run-history database and records the run start.
// Ledger problems warn and disable history; they never block a batch.
func openLedger(ctx context.Context, cfg *types.Config, engineName string) (*ledger.Store, int64) {
	if cfg.LedgerPath == "" {
		return nil, 0
	}
	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil, 0
	}
	runID, err := store.BeginRun(ctx, cfg.RunMode, engineName, cfg.SourceFolder, cfg.TargetFolder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		store.Close()
		return nil, 0
	}
	return store, runID
}

func closeLedger(ctx context.Context, store *ledger.Store, runID int64, stats types.BatchStats) {
	if store == nil {
		return
	}
	if err := store.FinishRun(ctx, runID, stats); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

func printSummary(out io.Writer, stats types.BatchStats, elapsed time.Duration) {
	fmt.Fprintf(out, "\ndone in %s: %d total, %d converted, %d failed, %d timed out, %d skipped\n",
		elapsed.Round(time.Second), stats.Total, stats.Success, stats.Failed, stats.Timeout, stats.Skipped)
}

func init() {
	convertCmd.Flags().String("source", "", "source folder to scan")
	convertCmd.Flags().String("target", "", "target folder for converted PDFs")
	convertCmd.Flags().String("strategy", "", "content strategy: standard, smart_tag, or priority_only")
	convertCmd.Flags().String("engine", "", "engine family: libreoffice, wps, or auto")
	convertCmd.Flags().String("process-policy", "", "leftover process handling: auto, keep, or ask")
	convertCmd.Flags().Bool("retry", false, "retry quarantined files after the first pass")
	convertCmd.Flags().Bool("no-sandbox", false, "convert sources in place instead of sandbox copies")

	rootCmd.AddCommand(convertCmd)
}
