// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the officebatch pipeline:
// work items, conversion outcomes, batch statistics, deduplication records,
// and the configuration tree.
package types

// Category classifies a source document by its producing application.
type Category string

const (
	CategoryWord         Category = "word"
	CategoryExcel        Category = "excel"
	CategoryPresentation Category = "powerpoint"
	CategoryPDF          Category = "pdf"
)

// PriorityPrefix tags outputs whose filename or content matched a keyword.
// It takes precedence over the per-category prefix.
const PriorityPrefix = "Price_"

// Prefix returns the output filename prefix for the category.
func (c Category) Prefix() string {
	switch c {
	case CategoryWord:
		return "Word_"
	case CategoryExcel:
		return "Excel_"
	case CategoryPresentation:
		return "PPT_"
	case CategoryPDF:
		return "PDF_"
	}
	return ""
}

// WorkItem is one file selected by the scanner. It is immutable and consumed
// exactly once by either the conversion supervisor or the dedup engine.
type WorkItem struct {
	// Path is the absolute source path.
	Path string

	// Ext is the lowercase extension with leading dot.
	Ext string

	// Category is assigned at scan time from the extension map and carried
	// through every later stage; it is never re-derived from filenames.
	Category Category

	// Size is the file size in bytes at scan time.
	Size int64
}

// OutcomeKind enumerates the terminal states of one conversion attempt.
type OutcomeKind int

const (
	// OutcomeSucceeded means the artifact landed at its canonical path.
	OutcomeSucceeded OutcomeKind = iota

	// OutcomeOverwritten means an identical-size artifact at the canonical
	// path was replaced; treated as an idempotent re-run, not a conflict.
	OutcomeOverwritten

	// OutcomeConflictBacked means a different-size artifact occupied the
	// canonical path; the new artifact went to the conflicts folder and the
	// existing file was left untouched.
	OutcomeConflictBacked

	// OutcomeSkipped means no engine call was attempted (empty input or
	// strategy filter).
	OutcomeSkipped

	// OutcomeTimedOut means the engine call exceeded its wall-clock budget.
	OutcomeTimedOut

	// OutcomeFailed means the engine call errored terminally or produced
	// no artifact.
	OutcomeFailed
)

// String returns the status label used in per-file log lines.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "converted"
	case OutcomeOverwritten:
		return "overwritten"
	case OutcomeConflictBacked:
		return "conflict-backed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTimedOut:
		return "timeout"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is produced exactly once per WorkItem per pass.
type Outcome struct {
	Kind OutcomeKind

	// Path is the final artifact location for the three success kinds.
	Path string

	// Reason carries the skip reason or failure detail.
	Reason string

	// Priority reports whether the artifact was re-tagged with the
	// priority prefix by filename or content matching.
	Priority bool
}

// Success reports whether the outcome placed an artifact.
func (o Outcome) Success() bool {
	switch o.Kind {
	case OutcomeSucceeded, OutcomeOverwritten, OutcomeConflictBacked:
		return true
	}
	return false
}

// BatchStats holds monotonically increasing counters for one run. Counters
// are never reset between the initial pass and the retry pass.
type BatchStats struct {
	Total   int
	Success int
	Failed  int
	Timeout int
	Skipped int
}

// Add updates the counters for one outcome.
func (s *BatchStats) Add(o Outcome) {
	switch o.Kind {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeTimedOut:
		s.Timeout++
	case OutcomeFailed:
		s.Failed++
	default:
		s.Success++
	}
}

// Unresolved returns the number of files eligible for a retry pass.
func (s *BatchStats) Unresolved() int {
	return s.Failed + s.Timeout
}

// ErrorRecord pairs a source path with its failure reason. Records are
// append-only and feed the end-of-run failure sample; the retry pass reads
// the quarantine directory instead, so it survives a process restart.
type ErrorRecord struct {
	Path   string `yaml:"path"`
	Reason string `yaml:"reason"`
}
