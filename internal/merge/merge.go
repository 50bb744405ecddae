// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge assembles converted artifacts into size-bounded PDF volumes
// under two grouping policies: one volume for everything, or per-category
// volumes greedily packed up to a byte cap.
package merge

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/officebatch/internal/quarantine"
	"github.com/pdiddy/officebatch/pkg/types"
)

// OutputDirName holds merged volumes under the target root.
const OutputDirName = "_MERGED"

// volumeStamp names volumes from one run with a shared timestamp.
const volumeStamp = "20060102_150405"

// Merger concatenates PDFs into one output file. The production
// implementation is pdfcpu; tests substitute a fake.
type Merger interface {
	Merge(inputs []string, output string) error
}

// PDFMerger merges with pdfcpu.
type PDFMerger struct{}

func (PDFMerger) Merge(inputs []string, output string) error {
	return api.MergeCreateFile(inputs, output, false, nil)
}

// category pairs a filename prefix with its volume label. Order fixes the
// processing (and reporting) order.
var categories = []struct {
	label  string
	prefix string
}{
	{"Price", types.PriorityPrefix},
	{"Word", types.CategoryWord.Prefix()},
	{"Excel", types.CategoryExcel.Prefix()},
	{"PPT", types.CategoryPresentation.Prefix()},
	{"PDF", types.CategoryPDF.Prefix()},
}

// Engine merges every PDF artifact under one target root.
type Engine struct {
	Merger   Merger
	Root     string
	MaxBytes int64
	Out      io.Writer

	now  func() time.Time
	size func(string) (int64, error)
}

// New returns an Engine over targetRoot using pdfcpu.
func New(targetRoot string, maxBytes int64, w io.Writer) *Engine {
	return &Engine{
		Merger:   PDFMerger{},
		Root:     targetRoot,
		MaxBytes: maxBytes,
		Out:      w,
		now:      time.Now,
		size: func(p string) (int64, error) {
			info, err := os.Stat(p)
			if err != nil {
				return 0, err
			}
			return info.Size(), nil
		},
	}
}

// Run collects artifacts and assembles volumes under mode, returning the
// number of volumes written. Per-volume failures are reported on Out and do
// not abort the remaining volumes.
func (e *Engine) Run(ctx context.Context, mode types.MergeMode) (int, error) {
	files, err := e.collectArtifacts()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		fmt.Fprintln(e.Out, "no PDF artifacts to merge")
		return 0, nil
	}

	outDir := filepath.Join(e.Root, OutputDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating merge output directory: %w", err)
	}

	if mode == types.MergeAllInOne {
		return e.combineAll(files, outDir)
	}
	return e.categorySplit(ctx, files, outDir)
}

// collectArtifacts gathers every PDF under the target root except the
// quarantine and merge-output subtrees, sorted lexicographically for
// deterministic volume contents.
func (e *Engine) collectArtifacts() ([]string, error) {
	skip := map[string]bool{
		quarantine.FolderName: true,
		OutputDirName:         true,
	}

	var files []string
	err := filepath.WalkDir(e.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting artifacts: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (e *Engine) combineAll(files []string, outDir string) (int, error) {
	output := filepath.Join(outDir,
		fmt.Sprintf("Merged_All_%s.pdf", e.now().Format(volumeStamp)))
	fmt.Fprintf(e.Out, "merging all %d artifacts -> %s\n", len(files), filepath.Base(output))

	if err := e.Merger.Merge(files, output); err != nil {
		fmt.Fprintf(e.Out, "  merge failed: %v\n", err)
		return 0, nil
	}
	return 1, nil
}

func (e *Engine) categorySplit(ctx context.Context, files []string, outDir string) (int, error) {
	stamp := e.now().Format(volumeStamp)
	written := 0

	for _, cat := range categories {
		if ctx.Err() != nil {
			break
		}
		var members []string
		for _, f := range files {
			if strings.HasPrefix(filepath.Base(f), cat.prefix) {
				members = append(members, f)
			}
		}
		if len(members) == 0 {
			continue
		}

		volumes := packVolumes(members, e.MaxBytes, e.size)
		fmt.Fprintf(e.Out, "category %s: %d files -> %d volume(s)\n",
			cat.label, len(members), len(volumes))

		for idx, vol := range volumes {
			output := filepath.Join(outDir,
				fmt.Sprintf("Merged_%s_%s_%d.pdf", cat.label, stamp, idx+1))
			if err := e.Merger.Merge(vol, output); err != nil {
				fmt.Fprintf(e.Out, "  volume %d failed: %v\n", idx+1, err)
				continue
			}
			written++
		}
	}

	fmt.Fprintf(e.Out, "merge complete: %d volume(s) written\n", written)
	return written, nil
}

// packVolumes greedily packs files (already sorted) into groups whose
// cumulative size stays within maxBytes. A file whose own size exceeds the
// cap becomes its own singleton volume: the cap bounds combination, it
// never excludes a file. Files whose size cannot be read are dropped.
func packVolumes(files []string, maxBytes int64, size func(string) (int64, error)) [][]string {
	var groups [][]string
	var current []string
	var currentSize int64

	for _, f := range files {
		fSize, err := size(f)
		if err != nil {
			continue
		}

		if fSize > maxBytes {
			if len(current) > 0 {
				groups = append(groups, current)
				current = nil
				currentSize = 0
			}
			groups = append(groups, []string{f})
			continue
		}

		if currentSize+fSize > maxBytes {
			groups = append(groups, current)
			current = []string{f}
			currentSize = fSize
		} else {
			current = append(current, f)
			currentSize += fSize
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
