// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebatch/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs recorded in the ledger",
	Long: `History lists runs recorded in the SQLite ledger, newest first. Runs
are recorded only when ledger_path is configured. Use --failures with a
run ID to list that run's failed files.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	// An empty path resolves to the default location under the user
	// config directory.
	ledgerPath, _ := cmd.Flags().GetString("ledger")
	store, err := ledger.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if runID, _ := cmd.Flags().GetInt64("failures"); runID > 0 {
		return printFailures(ctx, store, runID)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-16s  %-18s  %-11s  %6s  %6s  %6s  %6s\n",
		"ID", "Started", "Mode", "Engine", "Total", "OK", "Failed", "Skip")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-4d  %-16s  %-18s  %-11s  %6d  %6d  %6d  %6d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.Engine,
			r.Stats.Total, r.Stats.Success, r.Stats.Failed+r.Stats.Timeout, r.Stats.Skipped)
	}
	return nil
}

func printFailures(ctx context.Context, store *ledger.Store, runID int64) error {
	failures, err := store.Failures(ctx, runID)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		fmt.Printf("Run %d has no recorded failures.\n", runID)
		return nil
	}
	for _, f := range failures {
		fmt.Fprintf(os.Stdout, "%s\n    %s\n", f.Path, f.Reason)
	}
	fmt.Fprintf(os.Stdout, "\n%d failure(s)\n", len(failures))
	return nil
}

func init() {
	historyCmd.Flags().String("ledger", "", "ledger database path (default: user config directory)")
	historyCmd.Flags().Int("limit", 10, "maximum runs to list")
	historyCmd.Flags().Int64("failures", 0, "show failed files for the given run ID")

	rootCmd.AddCommand(historyCmd)
}
