// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package supervise drives the external conversion engine one file at a
// time under a wall-clock budget. It owns the sandbox scratch area, the
// timeout and artifact-appearance waits, failure quarantine, and the
// optional retry pass.
//
// Conversions are strictly sequential: office suites share OS-level
// singleton application instances, so exactly one engine call is in flight
// at any moment, supervised by polling.
package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/officebatch/internal/content"
	"github.com/pdiddy/officebatch/internal/engine"
	"github.com/pdiddy/officebatch/internal/proc"
	"github.com/pdiddy/officebatch/internal/quarantine"
	"github.com/pdiddy/officebatch/internal/target"
	"github.com/pdiddy/officebatch/pkg/types"
)

// sandboxDirName is the scratch folder created under the sandbox root.
const sandboxDirName = "OfficeBatch_Sandbox"

// Poll intervals and settle delay. Package vars so tests can shrink them.
var (
	taskPollInterval     = 100 * time.Millisecond
	artifactPollInterval = 500 * time.Millisecond

	// settleDelay gives the engine a moment to finish writing after the
	// artifact first appears.
	settleDelay = 500 * time.Millisecond

	// progressEvery spaces the "still converting" lines during long calls.
	progressEvery = 5 * time.Second
)

// ErrArtifactNotProduced reports an engine call that returned success but
// never materialized an output file within the wait window.
var ErrArtifactNotProduced = errors.New("engine reported success but produced no artifact")

// Supervisor converts a batch of WorkItems. Construct with New; fields are
// exported for wiring, not for mutation mid-run.
type Supervisor struct {
	Engine     engine.Engine
	Resolver   *target.Resolver
	Quarantine quarantine.Dir
	Cleaner    *proc.Cleaner
	Content    content.Scanner
	Cfg        *types.Config
	Out        io.Writer

	// Progress, when set, is invoked once per file before processing.
	// It must not block.
	Progress func(current, total int)

	// Record, when set, receives every processed file's outcome, on both
	// the initial and the retry pass.
	Record func(item types.WorkItem, outcome types.Outcome)

	Stats  types.BatchStats
	Errors []types.ErrorRecord

	sandbox string
}

// New creates a Supervisor and its sandbox scratch directory. The sandbox
// is used for per-file working copies (when sandboxing is enabled) and for
// scratch output artifacts (always).
func New(cfg *types.Config, eng engine.Engine, res *target.Resolver, q quarantine.Dir, cleaner *proc.Cleaner, scanner content.Scanner, out io.Writer) (*Supervisor, error) {
	root := cfg.SandboxRoot
	if root == "" {
		root = os.TempDir()
	}
	sandbox := filepath.Join(root, sandboxDirName)
	if err := os.MkdirAll(sandbox, 0o755); err != nil {
		return nil, fmt.Errorf("creating sandbox directory: %w", err)
	}
	return &Supervisor{
		Engine:     eng,
		Resolver:   res,
		Quarantine: q,
		Cleaner:    cleaner,
		Content:    scanner,
		Cfg:        cfg,
		Out:        out,
		sandbox:    sandbox,
	}, nil
}

// Close removes the sandbox directory, best effort.
func (s *Supervisor) Close() {
	if s.sandbox != "" {
		os.RemoveAll(s.sandbox)
	}
}

// RunBatch processes items in order. Cancellation is checked at the top of
// each iteration: an in-flight conversion always resolves before the batch
// stops. retryPass suppresses re-quarantining, so a file fails at most one
// quarantine copy per run.
func (s *Supervisor) RunBatch(ctx context.Context, items []types.WorkItem, retryPass bool) {
	total := len(items)
	if !retryPass {
		s.Stats.Total += total
	}

	for i, item := range items {
		if ctx.Err() != nil {
			fmt.Fprintf(s.Out, "interrupted, stopping after %d/%d files\n", i, total)
			break
		}
		if s.Progress != nil {
			s.Progress(i+1, total)
		}

		prefix := progressPrefix(i+1, total)
		name := filepath.Base(item.Path)
		start := time.Now()

		outcome := s.processFile(ctx, item, prefix)
		elapsed := time.Since(start).Seconds()
		s.Stats.Add(outcome)
		if s.Record != nil {
			s.Record(item, outcome)
		}

		switch outcome.Kind {
		case types.OutcomeSkipped:
			fmt.Fprintf(s.Out, "%s skipped: %s (%s)\n", prefix, name, outcome.Reason)
		case types.OutcomeTimedOut, types.OutcomeFailed:
			fmt.Fprintf(s.Out, "%s %s: %s (%s, %.2fs)\n",
				prefix, outcome.Kind, name, outcome.Reason, elapsed)
			s.Errors = append(s.Errors, types.ErrorRecord{Path: item.Path, Reason: outcome.Reason})
			if !retryPass {
				if err := s.Quarantine.Add(item.Path); err != nil {
					fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				}
			}
		default:
			tag := ""
			if outcome.Priority {
				tag = " [priority]"
			}
			fmt.Fprintf(s.Out, "%s %s: %s -> %s%s (%.2fs)\n",
				prefix, outcome.Kind, name, outcome.Path, tag, elapsed)
		}
	}
}

// processFile runs the per-file algorithm: empty check, sandbox copy,
// keyword tagging, supervised engine call (or direct copy for PDFs),
// artifact wait, and placement.
func (s *Supervisor) processFile(ctx context.Context, item types.WorkItem, prefix string) types.Outcome {
	if item.Size == 0 {
		return types.Outcome{Kind: types.OutcomeSkipped, Reason: "empty file"}
	}

	strategy := s.Cfg.ContentStrategy
	nameMatch := strategy != types.StrategyStandard &&
		content.MatchFilename(filepath.Base(item.Path), s.Cfg.Keywords)

	// Word and presentation content is opaque to the scanner, so under
	// priority_only they stand or fall on the filename alone.
	if strategy == types.StrategyPriorityOnly && !nameMatch &&
		(item.Category == types.CategoryWord || item.Category == types.CategoryPresentation) {
		return types.Outcome{Kind: types.OutcomeSkipped, Reason: "no keyword match"}
	}

	workingSrc := item.Path
	if s.Cfg.EnableSandbox {
		sandboxSrc := filepath.Join(s.sandbox, uuid.NewString()+item.Ext)
		if err := copyFile(item.Path, sandboxSrc); err != nil {
			return types.Outcome{Kind: types.OutcomeFailed, Reason: err.Error()}
		}
		defer os.Remove(sandboxSrc)
		stripOriginMarkers(sandboxSrc)
		workingSrc = sandboxSrc
	}

	scratch := filepath.Join(s.sandbox, uuid.NewString()+".pdf")
	defer os.Remove(scratch)

	priority := nameMatch
	if strategy != types.StrategyStandard && !nameMatch && s.Content != nil {
		if s.Content.ContainsAnyKeyword(workingSrc, s.Cfg.Keywords) {
			priority = true
		} else if strategy == types.StrategyPriorityOnly {
			return types.Outcome{Kind: types.OutcomeSkipped, Reason: "no keyword match"}
		}
	}

	if item.Category == types.CategoryPDF {
		// Already canonical: bypass the engine with a direct byte copy.
		if err := copyFile(workingSrc, scratch); err != nil {
			return types.Outcome{Kind: types.OutcomeFailed, Reason: err.Error()}
		}
	} else {
		if outcome, ok := s.runEngine(ctx, workingSrc, scratch, item, prefix); !ok {
			return outcome
		}
	}

	if !s.waitArtifact(ctx, scratch, s.Cfg.ArtifactWaitFor(item.Category)) {
		return types.Outcome{
			Kind:   types.OutcomeFailed,
			Reason: ErrArtifactNotProduced.Error(),
		}
	}

	dest := s.Resolver.Path(item.Path, item.Category, priority)
	outcome, err := s.Resolver.Place(scratch, dest)
	if err != nil {
		return types.Outcome{Kind: types.OutcomeFailed, Reason: err.Error()}
	}
	outcome.Priority = priority
	return outcome
}

// runEngine launches the conversion as a single concurrently-running task
// and polls until it finishes or the category's budget elapses. On timeout
// the task is abandoned (not guaranteed dead) and the engine's processes
// are force-terminated unless the keep-process policy is active.
//
// The engine call deliberately ignores batch cancellation: stopping the
// batch waits for the in-flight call to resolve rather than preempting it.
func (s *Supervisor) runEngine(ctx context.Context, src, scratch string, item types.WorkItem, prefix string) (types.Outcome, bool) {
	timeout := s.Cfg.TimeoutFor(item.Category)
	callCtx := context.WithoutCancel(ctx)

	done := make(chan error, 1)
	go func() {
		done <- s.convertWithRetry(callCtx, src, scratch, item.Category)
	}()

	start := time.Now()
	lastReport := start
	ticker := time.NewTicker(taskPollInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				return types.Outcome{Kind: types.OutcomeFailed, Reason: err.Error()}, false
			}
			return types.Outcome{}, true
		case now := <-ticker.C:
			if now.Sub(start) > timeout {
				if !s.Cleaner.KeepsProcesses() {
					s.Cleaner.KillAll(callCtx)
				}
				return types.Outcome{
					Kind:   types.OutcomeTimedOut,
					Reason: fmt.Sprintf("engine call exceeded %s", timeout),
				}, false
			}
			if now.Sub(lastReport) >= progressEvery {
				fmt.Fprintf(s.Out, "%s still converting %s (%.0fs)\n",
					prefix, filepath.Base(item.Path), now.Sub(start).Seconds())
				lastReport = now
			}
		}
	}
}

// waitArtifact polls for the scratch artifact for up to window. A
// successful engine call does not imply an immediate file: suites flush
// output after the call returns. Cancellation cuts the wait short.
func (s *Supervisor) waitArtifact(ctx context.Context, path string, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if _, err := os.Stat(path); err == nil {
			time.Sleep(settleDelay)
			return true
		}
		time.Sleep(artifactPollInterval)
	}
	return false
}

// progressPrefix renders "[ 43%][ 3/7]" for status lines.
func progressPrefix(current, total int) string {
	if total <= 0 {
		return "[  0%][0/0]"
	}
	width := len(fmt.Sprint(total))
	return fmt.Sprintf("[%3d%%][%*d/%d]", current*100/total, width, current, total)
}
