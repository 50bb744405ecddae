// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunMode selects the top-level pipeline branch.
type RunMode string

const (
	ModeConvertOnly      RunMode = "convert_only"
	ModeMergeOnly        RunMode = "merge_only"
	ModeConvertThenMerge RunMode = "convert_then_merge"
	ModeCollectOnly      RunMode = "collect_only"
)

// CollectMode selects the collect_only sub-mode.
type CollectMode string

const (
	CollectCopyAndIndex CollectMode = "copy_and_index"
	CollectIndexOnly    CollectMode = "index_only"
)

// MergeMode selects the volume grouping policy.
type MergeMode string

const (
	MergeCategorySplit MergeMode = "category_split"
	MergeAllInOne      MergeMode = "all_in_one"
)

// ContentStrategy controls keyword-based priority tagging during conversion.
type ContentStrategy string

const (
	// StrategyStandard classifies by extension only.
	StrategyStandard ContentStrategy = "standard"

	// StrategySmartTag re-tags outputs as priority when the filename or
	// document content matches a configured keyword.
	StrategySmartTag ContentStrategy = "smart_tag"

	// StrategyPriorityOnly processes only files that match a keyword;
	// everything else is skipped without an engine call.
	StrategyPriorityOnly ContentStrategy = "priority_only"
)

// EngineFamily identifies the external office suite used for conversion.
type EngineFamily string

const (
	EngineLibreOffice EngineFamily = "libreoffice"
	EngineWPS         EngineFamily = "wps"

	// EngineAuto detects an available family, preferring LibreOffice.
	EngineAuto EngineFamily = "auto"
)

// ProcessPolicy controls what happens to leftover engine processes.
type ProcessPolicy string

const (
	// PolicyAuto kills leftover engine processes before the batch and after
	// each timeout.
	PolicyAuto ProcessPolicy = "auto"

	// PolicyKeep never kills engine processes and reuses whatever instance
	// is running.
	PolicyKeep ProcessPolicy = "keep"

	// PolicyAsk reports leftover processes and refuses to start; intended
	// for operators who want to clean up manually.
	PolicyAsk ProcessPolicy = "ask"
)

// Extensions maps document categories to their allowed file extensions
// (lowercase, with leading dot).
type Extensions struct {
	Word       []string `yaml:"word" mapstructure:"word"`
	Excel      []string `yaml:"excel" mapstructure:"excel"`
	Powerpoint []string `yaml:"powerpoint" mapstructure:"powerpoint"`
	PDF        []string `yaml:"pdf" mapstructure:"pdf"`
}

// CategoryOf returns the category for ext, or false when no category
// claims it. Matching is exact against the configured lists; callers must
// lowercase ext first.
func (e Extensions) CategoryOf(ext string) (Category, bool) {
	for _, c := range []struct {
		cat  Category
		exts []string
	}{
		{CategoryWord, e.Word},
		{CategoryExcel, e.Excel},
		{CategoryPresentation, e.Powerpoint},
		{CategoryPDF, e.PDF},
	} {
		for _, v := range c.exts {
			if v == ext {
				return c.cat, true
			}
		}
	}
	return "", false
}

// Office returns a copy with the PDF list cleared. The collect branch only
// considers office documents, never PDFs.
func (e Extensions) Office() Extensions {
	e.PDF = nil
	return e
}

// Config holds every option the pipeline consumes. Values come from the
// YAML config file (viper) with CLI flag overrides; ApplyDefaults fills
// anything left unset.
type Config struct {
	// SourceFolder is the root of the input document tree.
	SourceFolder string `yaml:"source_folder" mapstructure:"source_folder"`

	// TargetFolder is the root for converted artifacts, the quarantine
	// folder, merge volumes, and index reports.
	TargetFolder string `yaml:"target_folder" mapstructure:"target_folder"`

	// RunMode selects the pipeline branch (default convert_then_merge).
	RunMode RunMode `yaml:"run_mode" mapstructure:"run_mode"`

	// CollectMode selects the collect_only sub-mode (default copy_and_index).
	CollectMode CollectMode `yaml:"collect_mode" mapstructure:"collect_mode"`

	// MergeMode selects the volume grouping policy (default category_split).
	MergeMode MergeMode `yaml:"merge_mode" mapstructure:"merge_mode"`

	// ContentStrategy controls priority tagging (default standard).
	ContentStrategy ContentStrategy `yaml:"content_strategy" mapstructure:"content_strategy"`

	// Engine selects the conversion engine family (default auto).
	Engine EngineFamily `yaml:"engine" mapstructure:"engine"`

	// ProcessPolicy controls leftover engine process handling (default auto).
	ProcessPolicy ProcessPolicy `yaml:"process_policy" mapstructure:"process_policy"`

	// AutoRetryFailed runs a second pass over quarantined files without
	// prompting when the first pass had failures.
	AutoRetryFailed bool `yaml:"auto_retry_failed" mapstructure:"auto_retry_failed"`

	// EnableSandbox copies each source into an isolated scratch directory
	// before handing it to the engine (default true).
	EnableSandbox bool `yaml:"enable_sandbox" mapstructure:"enable_sandbox"`

	// SandboxRoot overrides the scratch directory location; empty means the
	// system temp directory.
	SandboxRoot string `yaml:"sandbox_root" mapstructure:"sandbox_root"`

	// EnableMerge enables the merge stage in merge-capable run modes
	// (default true).
	EnableMerge bool `yaml:"enable_merge" mapstructure:"enable_merge"`

	// MaxMergeSizeMB caps each merged volume (default 80).
	MaxMergeSizeMB int64 `yaml:"max_merge_size_mb" mapstructure:"max_merge_size_mb"`

	// Timeout is the engine-call wall-clock budget per file (default 60s).
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// PresentationTimeout applies to presentation files instead of Timeout
	// (default 180s); slide rendering is much slower than text layout.
	PresentationTimeout time.Duration `yaml:"presentation_timeout" mapstructure:"presentation_timeout"`

	// ArtifactWait is how long to poll for the output artifact after a
	// successful engine call (default 15s).
	ArtifactWait time.Duration `yaml:"artifact_wait" mapstructure:"artifact_wait"`

	// PresentationArtifactWait applies to presentation files instead of
	// ArtifactWait (default 30s).
	PresentationArtifactWait time.Duration `yaml:"presentation_artifact_wait" mapstructure:"presentation_artifact_wait"`

	// Keywords trigger priority tagging when found in a filename or in
	// document content.
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`

	// ExcludedFolders are skipped during scanning. Bare names match any
	// folder of that name (case-insensitive); entries containing a path
	// separator match that exact path.
	ExcludedFolders []string `yaml:"excluded_folders" mapstructure:"excluded_folders"`

	// AllowedExtensions maps categories to extensions.
	AllowedExtensions Extensions `yaml:"allowed_extensions" mapstructure:"allowed_extensions"`

	// LedgerPath is the SQLite run-history database; empty disables the
	// ledger.
	LedgerPath string `yaml:"ledger_path" mapstructure:"ledger_path"`
}

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.RunMode == "" {
		c.RunMode = ModeConvertThenMerge
	}
	if c.CollectMode == "" {
		c.CollectMode = CollectCopyAndIndex
	}
	if c.MergeMode == "" {
		c.MergeMode = MergeCategorySplit
	}
	if c.ContentStrategy == "" {
		c.ContentStrategy = StrategyStandard
	}
	if c.Engine == "" {
		c.Engine = EngineAuto
	}
	if c.ProcessPolicy == "" {
		c.ProcessPolicy = PolicyAuto
	}
	if c.MaxMergeSizeMB <= 0 {
		c.MaxMergeSizeMB = 80
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.PresentationTimeout <= 0 {
		c.PresentationTimeout = 180 * time.Second
	}
	if c.ArtifactWait <= 0 {
		c.ArtifactWait = 15 * time.Second
	}
	if c.PresentationArtifactWait <= 0 {
		c.PresentationArtifactWait = 30 * time.Second
	}
	if len(c.Keywords) == 0 {
		c.Keywords = []string{"报价", "价格表", "Price", "Quotation"}
	}
	if len(c.ExcludedFolders) == 0 {
		c.ExcludedFolders = []string{"temp", "backup", "archive"}
	}
	e := &c.AllowedExtensions
	if len(e.Word) == 0 {
		e.Word = []string{".doc", ".docx"}
	}
	if len(e.Excel) == 0 {
		e.Excel = []string{".xls", ".xlsx"}
	}
	if len(e.Powerpoint) == 0 {
		e.Powerpoint = []string{".ppt", ".pptx"}
	}
	if len(e.PDF) == 0 {
		e.PDF = []string{".pdf"}
	}
}

// TimeoutFor returns the engine-call budget for cat.
func (c *Config) TimeoutFor(cat Category) time.Duration {
	if cat == CategoryPresentation {
		return c.PresentationTimeout
	}
	return c.Timeout
}

// ArtifactWaitFor returns the artifact-appearance window for cat.
func (c *Config) ArtifactWaitFor(cat Category) time.Duration {
	if cat == CategoryPresentation {
		return c.PresentationArtifactWait
	}
	return c.ArtifactWait
}

// MaxMergeBytes returns the volume size cap in bytes.
func (c *Config) MaxMergeBytes() int64 {
	return c.MaxMergeSizeMB * 1024 * 1024
}
